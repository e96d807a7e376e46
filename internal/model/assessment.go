package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RiskLevel is the ordinal risk classification LOW < MEDIUM < HIGH.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Rank returns the ordinal position of the level; unknown levels rank below LOW.
func (l RiskLevel) Rank() int {
	switch l {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	default:
		return 0
	}
}

// SessionStatus enumerates assessment session states.
type SessionStatus string

const (
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusSubmitted  SessionStatus = "SUBMITTED" // accepted, waiting for the result worker
	SessionStatusCompleted  SessionStatus = "COMPLETED"
	SessionStatusAbandoned  SessionStatus = "ABANDONED"
)

// AssessmentSessionRecord is the persisted header of a screening attempt.
// Answers live in Redis while the attempt is in progress.
type AssessmentSessionRecord struct {
	ID           uuid.UUID      `json:"id"`
	UserID       int            `json:"user_id"`
	Instrument   InstrumentType `json:"instrument_type"`
	SubstanceIDs []int          `json:"substance_ids"`
	Status       SessionStatus  `json:"status"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   *time.Time     `json:"finished_at,omitempty"`
}

// DraftAnswer is a journaled answer of an in-progress session.
type DraftAnswer struct {
	UID        string    `json:"uid"`
	OptionID   int       `json:"option_id"`
	AnsweredAt time.Time `json:"answered_at"`
}

// SubstanceResult is the score and risk of one selected substance.
type SubstanceResult struct {
	SubstanceID int       `json:"substance_id"`
	Score       int       `json:"score"`
	RiskLevel   RiskLevel `json:"risk_level"`
}

// AssessmentResult is the classified outcome of a completed session.
type AssessmentResult struct {
	ID                  uuid.UUID         `json:"id"`
	UserID              int               `json:"user_id"`
	Instrument          InstrumentType    `json:"instrument_type"`
	PerSubstanceResults []SubstanceResult `json:"per_substance_results"`
	InjectionAnswerID   *int              `json:"injection_answer_id,omitempty"`
	OverallScore        int               `json:"overall_score"`
	OverallRiskLevel    RiskLevel         `json:"overall_risk_level"`
	SubmittedAt         time.Time         `json:"submitted_at"`
}

// Course is a prevention course or consultation offered for a risk level.
type Course struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	RiskLevel   RiskLevel `json:"risk_level"`
}

// StartAssessmentRequest is the payload for opening a screening session.
type StartAssessmentRequest struct {
	InstrumentType string `json:"instrument_type" binding:"required,instrument"`
	SubstanceIDs   []int  `json:"substance_ids" binding:"omitempty,max=30,dive,min=1"`
}

// AnswerRequest is the payload for answering one session question.
type AnswerRequest struct {
	UID      string `json:"uid" binding:"required,max=32"`
	OptionID int    `json:"option_id" binding:"required,min=1"`
}

// NavigateRequest is the payload for moving through the visible questions.
type NavigateRequest struct {
	Action string `json:"action" binding:"required,oneof=next previous jump"`
	UID    string `json:"uid" binding:"required_if=Action jump,max=32"`
}

// PendingResult is what the submission queue carries: the classified result and the
// wire payload it was derived from.
type PendingResult struct {
	SessionID uuid.UUID        `json:"session_id"`
	Result    AssessmentResult `json:"result"`
	Payload   json.RawMessage  `json:"payload"`
}

// DraftAnswerEvent is one journaled answer on its way to PostgreSQL.
// AnsweredAt is stamped when the answer is accepted, not when it is persisted,
// so a requeued event cannot overwrite a newer answer.
type DraftAnswerEvent struct {
	SessionID  uuid.UUID `json:"session_id"`
	UID        string    `json:"uid"`
	OptionID   int       `json:"option_id"`
	AnsweredAt time.Time `json:"answered_at"`
}
