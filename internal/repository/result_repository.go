package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/screening-backend/internal/model"
)

// ResultRepository persists classified assessment results.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// InsertBatch stores many results at once, completes their sessions and clears
// their draft answers, all in one transaction. Already stored ids are skipped.
func (r *ResultRepository) InsertBatch(ctx context.Context, batch []model.PendingResult) error {
	n := len(batch)
	ids := make([]uuid.UUID, 0, n)
	users := make([]int, 0, n)
	instruments := make([]string, 0, n)
	perSubstance := make([]string, 0, n)
	injections := make([]*int, 0, n)
	scores := make([]int, 0, n)
	levels := make([]string, 0, n)
	payloads := make([]string, 0, n)
	submittedAts := make([]time.Time, 0, n)

	for _, p := range batch {
		per, err := marshalPerSubstance(p.Result.PerSubstanceResults)
		if err != nil {
			return err
		}
		ids = append(ids, p.Result.ID)
		users = append(users, p.Result.UserID)
		instruments = append(instruments, string(p.Result.Instrument))
		perSubstance = append(perSubstance, per)
		injections = append(injections, p.Result.InjectionAnswerID)
		scores = append(scores, p.Result.OverallScore)
		levels = append(levels, string(p.Result.OverallRiskLevel))
		payloads = append(payloads, string(p.Payload))
		submittedAts = append(submittedAts, p.Result.SubmittedAt)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx, `
		INSERT INTO assessment_results (
			id, user_id, instrument_type, per_substance_results, injection_answer_id,
			overall_score, overall_risk_level, payload, submitted_at
		)
		SELECT u.id, u.user_id, u.instrument_type, u.per_substance::jsonb, u.injection_answer_id,
		       u.overall_score, u.overall_risk_level, u.payload::jsonb, u.submitted_at
		FROM UNNEST(
			$1::uuid[],
			$2::int[],
			$3::text[],
			$4::text[],
			$5::int[],
			$6::int[],
			$7::text[],
			$8::text[],
			$9::timestamptz[]
		) AS u (id, user_id, instrument_type, per_substance, injection_answer_id,
		        overall_score, overall_risk_level, payload, submitted_at)
		ON CONFLICT (id) DO NOTHING`,
		ids, users, instruments, perSubstance, injections, scores, levels, payloads, submittedAts,
	)
	if err != nil {
		return fmt.Errorf("insert results: %w", err)
	}

	if err := finishSessions(ctx, tx, ids); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Insert stores a single result and completes its session.
func (r *ResultRepository) Insert(ctx context.Context, p model.PendingResult) error {
	per, err := marshalPerSubstance(p.Result.PerSubstanceResults)
	if err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx,
		`INSERT INTO assessment_results (
			id, user_id, instrument_type, per_substance_results, injection_answer_id,
			overall_score, overall_risk_level, payload, submitted_at
		 ) VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7, $8::jsonb, $9)
		 ON CONFLICT (id) DO NOTHING`,
		p.Result.ID, p.Result.UserID, p.Result.Instrument, per, p.Result.InjectionAnswerID,
		p.Result.OverallScore, p.Result.OverallRiskLevel, string(p.Payload), p.Result.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}

	if err := finishSessions(ctx, tx, []uuid.UUID{p.Result.ID}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ListByUser returns a page of a user's results, newest first, and the total count.
func (r *ResultRepository) ListByUser(ctx context.Context, userID, page, perPage int) ([]model.AssessmentResult, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM assessment_results WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, instrument_type, per_substance_results, injection_answer_id,
		        overall_score, overall_risk_level, submitted_at
		 FROM assessment_results
		 WHERE user_id = $1
		 ORDER BY submitted_at DESC
		 LIMIT $2 OFFSET $3`, userID, perPage, (page-1)*perPage,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	results := make([]model.AssessmentResult, 0)
	for rows.Next() {
		var (
			res model.AssessmentResult
			per []byte
		)
		if err := rows.Scan(&res.ID, &res.UserID, &res.Instrument, &per, &res.InjectionAnswerID,
			&res.OverallScore, &res.OverallRiskLevel, &res.SubmittedAt); err != nil {
			return nil, 0, err
		}
		if len(per) > 0 && string(per) != "null" {
			if err := json.Unmarshal(per, &res.PerSubstanceResults); err != nil {
				return nil, 0, fmt.Errorf("decode per-substance results: %w", err)
			}
		}
		results = append(results, res)
	}
	return results, total, rows.Err()
}

// finishSessions marks the sessions behind the given results COMPLETED and drops
// their draft answers. Result ids equal session ids.
func finishSessions(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) error {
	if _, err := tx.Exec(ctx,
		`UPDATE assessment_sessions
		 SET status = $1, finished_at = COALESCE(finished_at, NOW())
		 WHERE id = ANY($2)`,
		model.SessionStatusCompleted, ids,
	); err != nil {
		return fmt.Errorf("complete sessions: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM assessment_draft_answers WHERE session_id = ANY($1)`, ids,
	); err != nil {
		return fmt.Errorf("clear draft answers: %w", err)
	}
	return nil
}

func marshalPerSubstance(results []model.SubstanceResult) (string, error) {
	if results == nil {
		return "null", nil
	}
	raw, err := json.Marshal(results)
	if err != nil {
		return "", fmt.Errorf("encode per-substance results: %w", err)
	}
	return string(raw), nil
}
