package screening

import (
	"testing"

	"github.com/stemsi/screening-backend/internal/model"
	"github.com/stretchr/testify/require"
)

const (
	alcohol  = 1
	cannabis = 2
	tobacco  = 3
)

func opt(id, weight int) model.AnswerOption {
	return model.AnswerOption{ID: id, Text: "option", ScoreWeight: weight}
}

func testCatalog() Catalog {
	never := model.AnswerOption{ID: 21, Text: "Never", ScoreWeight: 0, NoUse: true}
	return Catalog{
		Substances: []model.Substance{
			{ID: alcohol, Name: "Alcohol"},
			{ID: cannabis, Name: "Cannabis"},
			{ID: tobacco, Name: "Tobacco"},
		},
		Assist: model.AssistTemplate{
			// Deliberately unsorted.
			TemplateQuestions: []model.TemplateQuestion{
				{ID: 106, Order: 6, TextTemplate: "Has anyone expressed concern about your use of {substance}?", Options: []model.AnswerOption{opt(61, 0), opt(62, 6), opt(63, 3)}},
				{ID: 102, Order: 2, TextTemplate: "How often have you used {substance}?", Options: []model.AnswerOption{never, opt(22, 2), opt(23, 3), opt(24, 4), opt(25, 6)}},
				{ID: 103, Order: 3, TextTemplate: "Strong desire to use {substance}?", Options: []model.AnswerOption{opt(31, 0), opt(32, 3), opt(33, 4), opt(34, 5), opt(35, 6)}},
				{ID: 104, Order: 4, TextTemplate: "Problems from {substance}?", Options: []model.AnswerOption{opt(41, 0), opt(42, 4), opt(43, 5), opt(44, 6), opt(45, 7)}},
				{ID: 105, Order: 5, TextTemplate: "Failed to do what was expected because of {substance}?", Options: []model.AnswerOption{opt(51, 0), opt(52, 5), opt(53, 6), opt(54, 7), opt(55, 8)}},
				{ID: 107, Order: 7, TextTemplate: "Tried to cut down on {substance}?", Options: []model.AnswerOption{opt(71, 0), opt(72, 6), opt(73, 3)}},
			},
			InjectionQuestion: &model.InjectionQuestion{
				ID: 108, Text: "Have you ever used any drug by injection?",
				Options: []model.AnswerOption{opt(81, 0), opt(82, 2), opt(83, 1)},
			},
		},
		Fixed: model.FixedTemplate{
			Questions: []model.FixedQuestion{
				{ID: 203, Order: 3, Text: "Alone?", Options: []model.AnswerOption{opt(300, 0), opt(301, 1)}},
				{ID: 201, Order: 1, Text: "Car?", Options: []model.AnswerOption{opt(100, 0), opt(101, 1)}},
				{ID: 202, Order: 2, Text: "Relax?", Options: []model.AnswerOption{opt(200, 0), opt(201, 1)}},
			},
		},
	}
}

type answer struct {
	uid    UID
	option int
}

// answerAll applies answers in order, failing the test on the first rejection.
func answerAll(t *testing.T, s Session, answers ...answer) Session {
	t.Helper()
	for _, a := range answers {
		var err error
		s, err = s.SetAnswer(a.uid, a.option)
		require.NoError(t, err, "answer %s=%d", a.uid, a.option)
	}
	return s
}

func uids(questions []SessionQuestion) []UID {
	out := make([]UID, 0, len(questions))
	for _, q := range questions {
		out = append(out, q.UID)
	}
	return out
}

func newAssist(t *testing.T, ids ...int) Session {
	t.Helper()
	s, err := Build(model.InstrumentAssist, ids, testCatalog())
	require.NoError(t, err)
	return s
}
