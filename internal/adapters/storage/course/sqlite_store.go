package course

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"academy/internal/adapters/storage"
	domain "academy/internal/domain/course"
)

const courseColumns = "id, name, level, description, is_active"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new CourseStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Course by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping sql.ErrNoRows if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Course, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+courseColumns+" FROM course WHERE id = ?", id)
	entity, err := scanCourse(row)
	if err == sql.ErrNoRows {
		return domain.Course{}, fmt.Errorf("course not found: %w", err)
	}
	return entity, err
}

// Save persists a Course to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Course) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO course (id, name, level, description, is_active) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, level=excluded.level, description=excluded.description, is_active=excluded.is_active`,
		entity.ID, entity.Name, entity.Level, entity.Description, entity.IsActive,
	)
	return err
}

// List retrieves all Courses ordered by name.
// PRE: none
// POST: Returns every course, active or not
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Course, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+courseColumns+" FROM course ORDER BY name")
	if err != nil {
		return nil, err
	}
	return collectCourses(rows)
}

// ListByIDs retrieves the Courses with the given IDs. Unknown IDs are skipped.
// PRE: none
// POST: Returns at most len(ids) courses ordered by name
func (s *SQLiteStore) ListByIDs(ctx context.Context, ids []string) ([]domain.Course, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+courseColumns+" FROM course WHERE id IN ("+placeholders+") ORDER BY name", args...)
	if err != nil {
		return nil, err
	}
	return collectCourses(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCourse(row scanner) (domain.Course, error) {
	var entity domain.Course
	err := row.Scan(&entity.ID, &entity.Name, &entity.Level, &entity.Description, &entity.IsActive)
	return entity, err
}

// collectCourses drains and closes rows.
func collectCourses(rows *sql.Rows) ([]domain.Course, error) {
	defer rows.Close()
	var results []domain.Course
	for rows.Next() {
		entity, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}
