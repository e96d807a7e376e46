package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/screening-backend/internal/model"
)

// CatalogRepository handles the per-instrument question banks.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// ListQuestions returns the questions of an instrument with their options,
// ordered by kind then order_num.
func (r *CatalogRepository) ListQuestions(ctx context.Context, instrument model.InstrumentType) ([]model.CatalogQuestion, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, instrument_type, kind, order_num, question_text
		 FROM catalog_questions
		 WHERE instrument_type = $1
		 ORDER BY kind, order_num`, instrument,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := make([]model.CatalogQuestion, 0)
	index := make(map[int]int)
	ids := make([]int, 0)
	for rows.Next() {
		var q model.CatalogQuestion
		if err := rows.Scan(&q.ID, &q.Instrument, &q.Kind, &q.OrderNum, &q.Text); err != nil {
			return nil, err
		}
		index[q.ID] = len(questions)
		ids = append(ids, q.ID)
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return questions, nil
	}

	optRows, err := r.pool.Query(ctx,
		`SELECT question_id, id, option_text, score_weight, is_no_use
		 FROM answer_options
		 WHERE question_id = ANY($1)
		 ORDER BY question_id, sort_order, id`, ids,
	)
	if err != nil {
		return nil, err
	}
	defer optRows.Close()

	for optRows.Next() {
		var (
			questionID int
			o          model.AnswerOption
		)
		if err := optRows.Scan(&questionID, &o.ID, &o.Text, &o.ScoreWeight, &o.NoUse); err != nil {
			return nil, err
		}
		i := index[questionID]
		questions[i].Options = append(questions[i].Options, o)
	}
	return questions, optRows.Err()
}

// ReplaceQuestions swaps an instrument's whole question bank in one transaction.
// Option ids are reassigned; the stored ids are written back into questions.
func (r *CatalogRepository) ReplaceQuestions(ctx context.Context, instrument model.InstrumentType, questions []model.CatalogQuestion) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// answer_options cascade.
	if _, err := tx.Exec(ctx, `DELETE FROM catalog_questions WHERE instrument_type = $1`, instrument); err != nil {
		return fmt.Errorf("delete questions: %w", err)
	}

	for i := range questions {
		q := &questions[i]
		q.Instrument = instrument
		if err := tx.QueryRow(ctx,
			`INSERT INTO catalog_questions (instrument_type, kind, order_num, question_text)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			instrument, q.Kind, q.OrderNum, q.Text,
		).Scan(&q.ID); err != nil {
			return fmt.Errorf("insert question %d: %w", q.OrderNum, err)
		}

		batch := &pgx.Batch{}
		for sortOrder, o := range q.Options {
			batch.Queue(
				`INSERT INTO answer_options (question_id, option_text, score_weight, is_no_use, sort_order)
				 VALUES ($1, $2, $3, $4, $5)
				 RETURNING id`,
				q.ID, o.Text, o.ScoreWeight, o.NoUse, sortOrder,
			)
		}
		br := tx.SendBatch(ctx, batch)
		for j := range q.Options {
			if err := br.QueryRow().Scan(&q.Options[j].ID); err != nil {
				br.Close()
				return fmt.Errorf("insert options of question %d: %w", q.OrderNum, err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("close option batch: %w", err)
		}
	}

	return tx.Commit(ctx)
}
