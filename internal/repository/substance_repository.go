package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/screening-backend/internal/model"
)

var (
	ErrDuplicateSubstance = errors.New("substance with this name already exists")
	ErrSubstanceInUse     = errors.New("substance is selected by an in-progress assessment")
)

// SubstanceRepository handles substance data access.
type SubstanceRepository struct {
	pool *pgxpool.Pool
}

// NewSubstanceRepository creates a new SubstanceRepository.
func NewSubstanceRepository(pool *pgxpool.Pool) *SubstanceRepository {
	return &SubstanceRepository{pool: pool}
}

// List returns every substance ordered by id.
func (r *SubstanceRepository) List(ctx context.Context) ([]model.Substance, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, created_at, updated_at
		 FROM substances ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	substances := make([]model.Substance, 0)
	for rows.Next() {
		var s model.Substance
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		substances = append(substances, s)
	}
	return substances, rows.Err()
}

// GetByID retrieves one substance.
func (r *SubstanceRepository) GetByID(ctx context.Context, id int) (*model.Substance, error) {
	s := &model.Substance{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, created_at, updated_at
		 FROM substances WHERE id = $1`, id,
	).Scan(&s.ID, &s.Name, &s.Description, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a new substance.
func (r *SubstanceRepository) Create(ctx context.Context, s *model.Substance) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO substances (name, description)
		 VALUES ($1, $2)
		 RETURNING id, created_at, updated_at`,
		s.Name, s.Description,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	return mapUniqueViolation(err, ErrDuplicateSubstance)
}

// Update modifies a substance's name and description.
func (r *SubstanceRepository) Update(ctx context.Context, s *model.Substance) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE substances SET name = $1, description = $2, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $3
		 RETURNING created_at, updated_at`,
		s.Name, s.Description, s.ID,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	return mapUniqueViolation(err, ErrDuplicateSubstance)
}

// Delete removes a substance unless an in-progress assessment selected it.
func (r *SubstanceRepository) Delete(ctx context.Context, id int) error {
	var inUse bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM assessment_sessions
			WHERE status = $1 AND $2 = ANY(substance_ids)
		 )`, model.SessionStatusInProgress, id,
	).Scan(&inUse)
	if err != nil {
		return err
	}
	if inUse {
		return ErrSubstanceInUse
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM substances WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func mapUniqueViolation(err, mapped error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return mapped
	}
	return err
}
