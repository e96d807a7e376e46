package screening

import (
	"testing"

	"github.com/stemsi/screening-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_AssistOrdering(t *testing.T) {
	s := newAssist(t, cannabis, alcohol)

	assert.Equal(t, []int{cannabis, alcohol}, s.SubstanceIDs)
	assert.Equal(t, []UID{
		"t:2:2", "t:3:2", "t:4:2", "t:5:2", "t:6:2", "t:7:2",
		"t:2:1", "t:3:1", "t:4:1", "t:5:1", "t:6:1", "t:7:1",
		InjectionUID,
	}, uids(s.Questions))

	first := s.Questions[0]
	assert.Equal(t, "How often have you used Cannabis?", first.Text)
	assert.Equal(t, model.QuestionKindTemplate, first.Kind)

	inj := s.Questions[len(s.Questions)-1]
	assert.Equal(t, model.QuestionKindInjection, inj.Kind)
	assert.Equal(t, 8, inj.Order)
	assert.Zero(t, inj.SubstanceID)
}

func TestBuild_AssistDeduplicatesSelection(t *testing.T) {
	s := newAssist(t, alcohol, alcohol, cannabis)
	assert.Equal(t, []int{alcohol, cannabis}, s.SubstanceIDs)
	assert.Len(t, s.Questions, 13)
}

func TestBuild_AssistWithoutInjection(t *testing.T) {
	cat := testCatalog()
	cat.Assist.InjectionQuestion = nil

	s, err := Build(model.InstrumentAssist, []int{tobacco}, cat)
	require.NoError(t, err)
	assert.Len(t, s.Questions, 6)
	_, ok := s.Question(InjectionUID)
	assert.False(t, ok)
}

func TestBuild_InvalidSelection(t *testing.T) {
	_, err := Build(model.InstrumentAssist, nil, testCatalog())
	assert.ErrorIs(t, err, ErrInvalidSelection)

	_, err = Build(model.InstrumentAssist, []int{99}, testCatalog())
	assert.ErrorIs(t, err, ErrInvalidSelection)
}

func TestBuild_Fixed(t *testing.T) {
	s, err := Build(model.InstrumentCrafft, []int{alcohol}, testCatalog())
	require.NoError(t, err)

	assert.Empty(t, s.SubstanceIDs)
	assert.Equal(t, []UID{"f:1", "f:2", "f:3"}, uids(s.Questions))
	for _, q := range s.Questions {
		assert.Equal(t, model.QuestionKindFixed, q.Kind)
	}
}

func TestBuild_Errors(t *testing.T) {
	_, err := Build("AUDIT", nil, testCatalog())
	assert.ErrorIs(t, err, ErrUnsupportedInstrument)

	_, err = NewFixedSession(model.FixedTemplate{})
	assert.ErrorIs(t, err, ErrNoQuestions)

	cat := testCatalog()
	cat.Fixed.Questions = append(cat.Fixed.Questions, model.FixedQuestion{Order: 1, Text: "dup"})
	_, err = Build(model.InstrumentCrafft, nil, cat)
	assert.ErrorIs(t, err, ErrDuplicateQuestion)
}

func TestSetAnswer_DoesNotMutateReceiver(t *testing.T) {
	s := newAssist(t, alcohol)

	next, err := s.SetAnswer("t:2:1", 23)
	require.NoError(t, err)

	assert.Empty(t, s.Answers)
	assert.Equal(t, 23, next.Answers["t:2:1"])
}

func TestSetAnswer_Rejections(t *testing.T) {
	s := newAssist(t, alcohol)

	_, err := s.SetAnswer("t:9:1", 23)
	assert.ErrorIs(t, err, ErrUnknownQuestion)

	_, err = s.SetAnswer("t:2:1", 999)
	assert.ErrorIs(t, err, ErrInvalidOption)

	s = answerAll(t, s, answer{"t:2:1", 21})
	_, err = s.SetAnswer("t:3:1", 32)
	assert.ErrorIs(t, err, ErrQuestionNotVisible)
}

func TestRestore_KeepsHiddenAnswersAndDropsUnknown(t *testing.T) {
	s := newAssist(t, alcohol)

	restored, dropped := s.Restore(map[UID]int{
		"t:2:1":  21, // gate closed
		"t:3:1":  33, // hidden but retained
		"t:9:1":  1,  // no such question
		"t:4:1":  999,
		"inject": 81,
	})

	assert.Equal(t, 3, dropped)
	assert.Equal(t, map[UID]int{"t:2:1": 21, "t:3:1": 33}, restored.Answers)
	assert.False(t, restored.IsVisible("t:3:1"))
}
