package plan

import (
	"context"
	"database/sql"
	"fmt"

	"academy/internal/adapters/storage"
	courseDomain "academy/internal/domain/course"
	domain "academy/internal/domain/plan"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new PlanStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Plan by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping sql.ErrNoRows if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Plan, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, name, price_cents, billing_type, is_active FROM billing_plan WHERE id = ?", id)
	var entity domain.Plan
	err := row.Scan(&entity.ID, &entity.Name, &entity.PriceCents, &entity.BillingType, &entity.IsActive)
	if err == sql.ErrNoRows {
		return domain.Plan{}, fmt.Errorf("plan not found: %w", err)
	}
	return entity, err
}

// Save persists a Plan to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Plan) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO billing_plan (id, name, price_cents, billing_type, is_active) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, price_cents=excluded.price_cents, billing_type=excluded.billing_type, is_active=excluded.is_active`,
		entity.ID, entity.Name, entity.PriceCents, entity.BillingType, entity.IsActive,
	)
	return err
}

// List retrieves all Plans ordered by name.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Plan, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, price_cents, billing_type, is_active FROM billing_plan ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Plan
	for rows.Next() {
		var entity domain.Plan
		if err := rows.Scan(&entity.ID, &entity.Name, &entity.PriceCents, &entity.BillingType, &entity.IsActive); err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// ListCourses retrieves the courses linked to a plan, ordered by name.
// PRE: planID is non-empty
// POST: Returns linked courses (active or not); empty for a plan with none
func (s *SQLiteStore) ListCourses(ctx context.Context, planID string) ([]courseDomain.Course, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.name, c.level, c.description, c.is_active
		FROM plan_course pc JOIN course c ON c.id = pc.course_id
		WHERE pc.plan_id = ? ORDER BY c.name`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []courseDomain.Course
	for rows.Next() {
		var c courseDomain.Course
		if err := rows.Scan(&c.ID, &c.Name, &c.Level, &c.Description, &c.IsActive); err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

// ApplyCourses links and unlinks courses in a single transaction.
// Adding an existing link or removing a missing one is a no-op.
// PRE: planID exists; add ids exist in course
// POST: Either every change is applied or none is
func (s *SQLiteStore) ApplyCourses(ctx context.Context, planID string, add, remove []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin plan course tx: %w", err)
	}
	defer tx.Rollback()

	for _, id := range add {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO plan_course (plan_id, course_id) VALUES (?, ?)", planID, id); err != nil {
			return fmt.Errorf("link course %s: %w", id, err)
		}
	}
	for _, id := range remove {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM plan_course WHERE plan_id = ? AND course_id = ?", planID, id); err != nil {
			return fmt.Errorf("unlink course %s: %w", id, err)
		}
	}
	return tx.Commit()
}
