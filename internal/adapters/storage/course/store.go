package course

import (
	"context"

	domain "academy/internal/domain/course"
)

// Store persists Course state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Course, error)
	Save(ctx context.Context, value domain.Course) error
	List(ctx context.Context) ([]domain.Course, error)
	ListByIDs(ctx context.Context, ids []string) ([]domain.Course, error)
}
