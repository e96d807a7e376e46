package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/screening-backend/internal/model"
)

// AssessmentSessionRepository handles assessment session headers and draft answers.
type AssessmentSessionRepository struct {
	pool *pgxpool.Pool
}

// NewAssessmentSessionRepository creates a new AssessmentSessionRepository.
func NewAssessmentSessionRepository(pool *pgxpool.Pool) *AssessmentSessionRepository {
	return &AssessmentSessionRepository{pool: pool}
}

// Create inserts a session header. The id is chosen by the caller.
func (r *AssessmentSessionRepository) Create(ctx context.Context, s *model.AssessmentSessionRecord) error {
	ids := s.SubstanceIDs
	if ids == nil {
		ids = []int{}
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO assessment_sessions (id, user_id, instrument_type, substance_ids, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING started_at`,
		s.ID, s.UserID, s.Instrument, ids, model.SessionStatusInProgress,
	).Scan(&s.StartedAt)
}

// GetByID retrieves a session header owned by userID.
func (r *AssessmentSessionRepository) GetByID(ctx context.Context, id uuid.UUID, userID int) (*model.AssessmentSessionRecord, error) {
	s := &model.AssessmentSessionRecord{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, instrument_type, substance_ids, status, started_at, finished_at
		 FROM assessment_sessions
		 WHERE id = $1 AND user_id = $2`, id, userID,
	).Scan(&s.ID, &s.UserID, &s.Instrument, &s.SubstanceIDs, &s.Status, &s.StartedAt, &s.FinishedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// UpdateStatus moves an in-progress session to a terminal status.
func (r *AssessmentSessionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.SessionStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE assessment_sessions
		 SET status = $1, finished_at = NOW()
		 WHERE id = $2 AND status = $3`,
		status, id, model.SessionStatusInProgress,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListDraftAnswers returns the journaled answers of a session.
func (r *AssessmentSessionRepository) ListDraftAnswers(ctx context.Context, sessionID uuid.UUID) ([]model.DraftAnswer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT uid, option_id, answered_at FROM assessment_draft_answers
		 WHERE session_id = $1`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.DraftAnswer
	for rows.Next() {
		var a model.DraftAnswer
		if err := rows.Scan(&a.UID, &a.OptionID, &a.AnsweredAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// UpsertDraftAnswer creates or overwrites one journaled answer. An answer older
// than the stored one is ignored, so requeued events may arrive out of order.
func (r *AssessmentSessionRepository) UpsertDraftAnswer(ctx context.Context, sessionID uuid.UUID, a model.DraftAnswer) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO assessment_draft_answers (session_id, uid, option_id, answered_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (session_id, uid) DO UPDATE
		 SET option_id = EXCLUDED.option_id, answered_at = EXCLUDED.answered_at, updated_at = NOW()
		 WHERE assessment_draft_answers.answered_at <= EXCLUDED.answered_at`,
		sessionID, a.UID, a.OptionID, a.AnsweredAt,
	)
	return err
}
