package service

import (
	"github.com/google/uuid"
	"github.com/stemsi/screening-backend/internal/model"
	"github.com/stemsi/screening-backend/internal/screening"
)

// QuestionView is a visible question as the respondent sees it.
type QuestionView struct {
	UID              screening.UID        `json:"uid"`
	Kind             model.QuestionKind   `json:"kind"`
	Order            int                  `json:"order"`
	SubstanceID      int                  `json:"substance_id,omitempty"`
	Text             string               `json:"text"`
	Options          []model.PublicOption `json:"options"`
	SelectedOptionID *int                 `json:"selected_option_id"`
}

// SessionView is the respondent-facing state of a session. Hidden questions and
// score weights never appear in it.
type SessionView struct {
	SessionID       uuid.UUID            `json:"session_id"`
	InstrumentType  model.InstrumentType `json:"instrument_type"`
	SubstanceIDs    []int                `json:"substance_ids"`
	CurrentIndex    int                  `json:"current_index"`
	CurrentQuestion *QuestionView        `json:"current_question"`
	Questions       []QuestionView       `json:"questions"`
	Pending         []screening.UID      `json:"pending"`
	Answered        int                  `json:"answered"`
	Complete        bool                 `json:"complete"`
}

// NewSessionView projects a session onto its visible questions.
func NewSessionView(s screening.Session) SessionView {
	visible := s.Visible()
	questions := make([]QuestionView, len(visible))
	answered := 0
	for i, q := range visible {
		qv := QuestionView{
			UID:         q.UID,
			Kind:        q.Kind,
			Order:       q.Order,
			SubstanceID: q.SubstanceID,
			Text:        q.Text,
			Options:     model.PublicOptions(q.Options),
		}
		if opt, ok := s.Answers[q.UID]; ok {
			selected := opt
			qv.SelectedOptionID = &selected
			answered++
		}
		questions[i] = qv
	}

	ids := s.SubstanceIDs
	if ids == nil {
		ids = []int{}
	}
	pending := screening.Pending(visible, s.Answers)

	view := SessionView{
		SessionID:      s.ID,
		InstrumentType: s.Instrument,
		SubstanceIDs:   ids,
		CurrentIndex:   s.CurrentIndex,
		Questions:      questions,
		Pending:        pending,
		Answered:       answered,
		Complete:       len(pending) == 0,
	}
	if s.CurrentIndex >= 0 && s.CurrentIndex < len(questions) {
		cur := questions[s.CurrentIndex]
		view.CurrentQuestion = &cur
	}
	return view
}
