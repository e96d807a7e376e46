package screening

import (
	"encoding/json"
	"fmt"

	"github.com/stemsi/screening-backend/internal/model"
)

// SubstanceAnswers lists the option ids chosen for one substance, in question order.
type SubstanceAnswers struct {
	SubstanceID int   `json:"substanceId"`
	AnswerIDs   []int `json:"answerIds"`
}

// AssistSubmission is the submit-assist wire payload.
type AssistSubmission struct {
	SubstanceAssessments []SubstanceAnswers `json:"substanceAssessments"`
	InjectionAnswerID    *int               `json:"injectionAnswerId,omitempty"`
}

// FixedAnswer is one answered fixed question.
type FixedAnswer struct {
	QuestionOrder int `json:"questionOrder"`
	AnswerID      int `json:"answerId"`
}

// FixedSubmission is the submit-fixed wire payload.
type FixedSubmission struct {
	Answers []FixedAnswer `json:"answers"`
}

// Submission wraps the payload of whichever instrument the session used.
// Exactly one of Assist and Fixed is set.
type Submission struct {
	Instrument model.InstrumentType
	Assist     *AssistSubmission
	Fixed      *FixedSubmission
}

// MarshalJSON encodes the instrument payload itself.
func (s Submission) MarshalJSON() ([]byte, error) {
	if s.Assist != nil {
		return json.Marshal(s.Assist)
	}
	if s.Fixed != nil {
		return json.Marshal(s.Fixed)
	}
	return []byte("null"), nil
}

// BuildSubmission serializes a complete session. Hidden questions are omitted
// entirely rather than padded.
func BuildSubmission(s Session) (Submission, error) {
	visible, err := s.requireComplete()
	if err != nil {
		return Submission{}, err
	}

	switch s.Instrument {
	case model.InstrumentAssist:
		return Submission{Instrument: s.Instrument, Assist: buildAssist(s, visible)}, nil
	case model.InstrumentCrafft:
		return Submission{Instrument: s.Instrument, Fixed: buildFixed(s, visible)}, nil
	default:
		return Submission{}, fmt.Errorf("%w: %q", ErrUnsupportedInstrument, s.Instrument)
	}
}

func buildAssist(s Session, visible []SessionQuestion) *AssistSubmission {
	bySubstance := make(map[int][]SessionQuestion, len(s.SubstanceIDs))
	out := &AssistSubmission{SubstanceAssessments: make([]SubstanceAnswers, 0, len(s.SubstanceIDs))}

	for _, q := range visible {
		switch q.Kind {
		case model.QuestionKindTemplate:
			bySubstance[q.SubstanceID] = append(bySubstance[q.SubstanceID], q)
		case model.QuestionKindInjection:
			id := s.Answers[q.UID]
			out.InjectionAnswerID = &id
		}
	}

	for _, id := range s.SubstanceIDs {
		questions := bySubstance[id]
		sortByOrder(questions)
		answerIDs := make([]int, 0, len(questions))
		for _, q := range questions {
			answerIDs = append(answerIDs, s.Answers[q.UID])
		}
		out.SubstanceAssessments = append(out.SubstanceAssessments, SubstanceAnswers{
			SubstanceID: id,
			AnswerIDs:   answerIDs,
		})
	}
	return out
}

func buildFixed(s Session, visible []SessionQuestion) *FixedSubmission {
	questions := make([]SessionQuestion, 0, len(visible))
	for _, q := range visible {
		if q.Kind == model.QuestionKindFixed {
			questions = append(questions, q)
		}
	}
	sortByOrder(questions)

	out := &FixedSubmission{Answers: make([]FixedAnswer, 0, len(questions))}
	for _, q := range questions {
		out.Answers = append(out.Answers, FixedAnswer{QuestionOrder: q.Order, AnswerID: s.Answers[q.UID]})
	}
	return out
}
