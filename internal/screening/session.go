package screening

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/screening-backend/internal/model"
)

// SubstancePlaceholder is replaced by the substance name in template question text.
const SubstancePlaceholder = "{substance}"

// Session is one questionnaire attempt. Values are treated as immutable:
// every transition returns a new Session and leaves the receiver untouched.
type Session struct {
	ID           uuid.UUID            `json:"id"`
	Instrument   model.InstrumentType `json:"instrument_type"`
	SubstanceIDs []int                `json:"substance_ids,omitempty"`
	Questions    []SessionQuestion    `json:"questions"`
	Answers      map[UID]int          `json:"answers"`
	CurrentIndex int                  `json:"current_index"`
	CreatedAt    time.Time            `json:"created_at"`
}

// Catalog is everything the builder may need to plan a session.
type Catalog struct {
	Substances []model.Substance
	Assist     model.AssistTemplate
	Fixed      model.FixedTemplate
}

// Build plans a session for the given instrument. substanceIDs is ignored for CRAFFT.
func Build(instrument model.InstrumentType, substanceIDs []int, cat Catalog) (Session, error) {
	switch instrument {
	case model.InstrumentAssist:
		return NewAssistSession(substanceIDs, cat.Substances, cat.Assist)
	case model.InstrumentCrafft:
		return NewFixedSession(cat.Fixed)
	default:
		return Session{}, fmt.Errorf("%w: %q", ErrUnsupportedInstrument, instrument)
	}
}

// NewAssistSession emits, for each selected substance in selection order, every template
// question in ascending order, then the injection question once.
// Repeated ids keep their first position.
func NewAssistSession(selected []int, substances []model.Substance, tmpl model.AssistTemplate) (Session, error) {
	ids := make([]int, 0, len(selected))
	seen := make(map[int]bool, len(selected))
	for _, id := range selected {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return Session{}, ErrInvalidSelection
	}

	byID := make(map[int]model.Substance, len(substances))
	for _, s := range substances {
		byID[s.ID] = s
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return Session{}, fmt.Errorf("%w: unknown substance %d", ErrInvalidSelection, id)
		}
	}

	templates := slices.Clone(tmpl.TemplateQuestions)
	slices.SortStableFunc(templates, func(a, b model.TemplateQuestion) int {
		return cmp.Compare(a.Order, b.Order)
	})

	questions := make([]SessionQuestion, 0, len(ids)*len(templates)+1)
	for _, id := range ids {
		name := byID[id].Name
		for _, t := range templates {
			questions = append(questions, SessionQuestion{
				UID:         TemplateUID(t.Order, id),
				Kind:        model.QuestionKindTemplate,
				Order:       t.Order,
				SubstanceID: id,
				Text:        strings.ReplaceAll(t.TextTemplate, SubstancePlaceholder, name),
				Options:     t.Options,
			})
		}
	}

	if inj := tmpl.InjectionQuestion; inj != nil {
		order := 1
		if n := len(templates); n > 0 {
			order = templates[n-1].Order + 1
		}
		questions = append(questions, SessionQuestion{
			UID:     InjectionUID,
			Kind:    model.QuestionKindInjection,
			Order:   order,
			Text:    inj.Text,
			Options: inj.Options,
		})
	}

	return newSession(model.InstrumentAssist, ids, questions)
}

// NewFixedSession emits the fixed questions in ascending order.
func NewFixedSession(tmpl model.FixedTemplate) (Session, error) {
	fixed := slices.Clone(tmpl.Questions)
	slices.SortStableFunc(fixed, func(a, b model.FixedQuestion) int {
		return cmp.Compare(a.Order, b.Order)
	})

	questions := make([]SessionQuestion, 0, len(fixed))
	for _, f := range fixed {
		questions = append(questions, SessionQuestion{
			UID:     FixedUID(f.Order),
			Kind:    model.QuestionKindFixed,
			Order:   f.Order,
			Text:    f.Text,
			Options: f.Options,
		})
	}
	return newSession(model.InstrumentCrafft, nil, questions)
}

func newSession(instrument model.InstrumentType, ids []int, questions []SessionQuestion) (Session, error) {
	if len(questions) == 0 {
		return Session{}, ErrNoQuestions
	}
	uids := make(map[UID]bool, len(questions))
	for _, q := range questions {
		if uids[q.UID] {
			return Session{}, fmt.Errorf("%w: %s", ErrDuplicateQuestion, q.UID)
		}
		uids[q.UID] = true
	}
	return Session{
		Instrument:   instrument,
		SubstanceIDs: ids,
		Questions:    questions,
		Answers:      make(map[UID]int),
	}, nil
}

// Question looks up a session question by uid, visible or not.
func (s Session) Question(uid UID) (SessionQuestion, bool) {
	for _, q := range s.Questions {
		if q.UID == uid {
			return q, true
		}
	}
	return SessionQuestion{}, false
}

// SetAnswer records optionID for a visible question and re-clamps the cursor
// against the recomputed visible set.
func (s Session) SetAnswer(uid UID, optionID int) (Session, error) {
	q, ok := s.Question(uid)
	if !ok {
		return s, fmt.Errorf("%w: %s", ErrUnknownQuestion, uid)
	}
	if _, ok := q.Option(optionID); !ok {
		return s, fmt.Errorf("%w: %d for %s", ErrInvalidOption, optionID, uid)
	}
	if !s.IsVisible(uid) {
		return s, fmt.Errorf("%w: %s", ErrQuestionNotVisible, uid)
	}

	next := s
	next.Answers = cloneAnswers(s.Answers)
	next.Answers[uid] = optionID
	next.CurrentIndex = clampIndex(next.CurrentIndex, len(next.Visible()))
	return next, nil
}

// Restore re-applies previously journaled answers without visibility checks, so
// answers to hidden questions come back retained. Entries whose question or option
// no longer exists are dropped and counted.
func (s Session) Restore(answers map[UID]int) (Session, int) {
	next := s
	next.Answers = cloneAnswers(s.Answers)
	dropped := 0
	for uid, optionID := range answers {
		q, ok := s.Question(uid)
		if !ok {
			dropped++
			continue
		}
		if _, ok := q.Option(optionID); !ok {
			dropped++
			continue
		}
		next.Answers[uid] = optionID
	}
	next.CurrentIndex = clampIndex(next.CurrentIndex, len(next.Visible()))
	return next, dropped
}

func cloneAnswers(src map[UID]int) map[UID]int {
	if src == nil {
		return make(map[UID]int)
	}
	return maps.Clone(src)
}
