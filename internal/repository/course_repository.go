package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/screening-backend/internal/model"
)

// CourseRepository looks up prevention courses.
type CourseRepository struct {
	pool *pgxpool.Pool
}

// NewCourseRepository creates a new CourseRepository.
func NewCourseRepository(pool *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{pool: pool}
}

// ForRiskLevel returns the active courses recommended for a risk level.
func (r *CourseRepository) ForRiskLevel(ctx context.Context, level model.RiskLevel) ([]model.Course, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, description, risk_level
		 FROM courses
		 WHERE risk_level = $1 AND is_active
		 ORDER BY sort_order, id`, level,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses := make([]model.Course, 0)
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.RiskLevel); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}
