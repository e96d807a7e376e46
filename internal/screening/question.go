package screening

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/stemsi/screening-backend/internal/model"
)

// UID identifies a question within one session.
type UID string

// InjectionUID is shared by every session because the injection question is asked once.
const InjectionUID UID = "injection"

// TemplateUID derives the uid of a template question asked about one substance.
func TemplateUID(order, substanceID int) UID {
	return UID(fmt.Sprintf("t:%d:%d", order, substanceID))
}

// FixedUID derives the uid of a fixed-instrument question.
func FixedUID(order int) UID {
	return UID(fmt.Sprintf("f:%d", order))
}

// SessionQuestion is a question materialized for one session.
// SubstanceID is zero for questions not tied to a substance.
type SessionQuestion struct {
	UID         UID                  `json:"uid"`
	Kind        model.QuestionKind   `json:"kind"`
	Order       int                  `json:"order"`
	SubstanceID int                  `json:"substance_id,omitempty"`
	Text        string               `json:"text"`
	Options     []model.AnswerOption `json:"options"`
}

// Option looks up one of the question's answer options.
func (q SessionQuestion) Option(id int) (model.AnswerOption, bool) {
	for _, o := range q.Options {
		if o.ID == id {
			return o, true
		}
	}
	return model.AnswerOption{}, false
}

func sortByOrder(questions []SessionQuestion) {
	slices.SortStableFunc(questions, func(a, b SessionQuestion) int {
		return cmp.Compare(a.Order, b.Order)
	})
}
