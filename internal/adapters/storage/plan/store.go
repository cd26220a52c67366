package plan

import (
	"context"

	courseDomain "academy/internal/domain/course"
	domain "academy/internal/domain/plan"
)

// Store persists Plan state and the plan-course association.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Plan, error)
	Save(ctx context.Context, value domain.Plan) error
	List(ctx context.Context) ([]domain.Plan, error)
	ListCourses(ctx context.Context, planID string) ([]courseDomain.Course, error)
	ApplyCourses(ctx context.Context, planID string, add, remove []string) error
}
