package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vnvodich/tutor-api/internal/models"
)

const childColumns = `id, parent_id, full_name, date_of_birth, grade_level, learning_goals, created_at, updated_at`

// ChildRepository persists the learners managed by parents.
type ChildRepository struct {
	db *sqlx.DB
}

// NewChildRepository constructs a ChildRepository.
func NewChildRepository(db *sqlx.DB) *ChildRepository {
	return &ChildRepository{db: db}
}

// ListByParent returns a parent's children ordered by name.
func (r *ChildRepository) ListByParent(ctx context.Context, parentID string) ([]models.Child, error) {
	query := `SELECT ` + childColumns + ` FROM children WHERE parent_id = $1 ORDER BY full_name ASC`
	var children []models.Child
	if err := r.db.SelectContext(ctx, &children, query, parentID); err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	return children, nil
}

// FindByID returns a child by identifier.
func (r *ChildRepository) FindByID(ctx context.Context, id string) (*models.Child, error) {
	query := `SELECT ` + childColumns + ` FROM children WHERE id = $1`
	var child models.Child
	if err := r.db.GetContext(ctx, &child, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find child: %w", err)
	}
	return &child, nil
}

// Create inserts a child record.
func (r *ChildRepository) Create(ctx context.Context, child *models.Child) error {
	if child.ID == "" {
		child.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if child.CreatedAt.IsZero() {
		child.CreatedAt = now
	}
	child.UpdatedAt = now
	const query = `INSERT INTO children (id, parent_id, full_name, date_of_birth, grade_level, learning_goals, created_at, updated_at) VALUES (:id, :parent_id, :full_name, :date_of_birth, :grade_level, :learning_goals, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, child); err != nil {
		return fmt.Errorf("create child: %w", err)
	}
	return nil
}

// Update modifies a child's profile.
func (r *ChildRepository) Update(ctx context.Context, child *models.Child) error {
	child.UpdatedAt = time.Now().UTC()
	const query = `UPDATE children SET full_name = :full_name, date_of_birth = :date_of_birth, grade_level = :grade_level, learning_goals = :learning_goals, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, child); err != nil {
		return fmt.Errorf("update child: %w", err)
	}
	return nil
}

// Delete removes a child.
func (r *ChildRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM children WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete child: %w", err)
	}
	return nil
}
