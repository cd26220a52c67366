package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"academy/internal/domain/course"
	"academy/internal/domain/plan"
)

// ErrInvalidInput wraps domain validation failures of catalogue entries.
var ErrInvalidInput = errors.New("invalid input")

// CourseStoreForCreate defines the store interface needed by CreateCourse.
type CourseStoreForCreate interface {
	Save(ctx context.Context, c course.Course) error
}

// PlanStoreForCreate defines the store interface needed by CreatePlan.
type PlanStoreForCreate interface {
	Save(ctx context.Context, p plan.Plan) error
}

// CreateCourseDeps holds dependencies for CreateCourse.
type CreateCourseDeps struct {
	CourseStore CourseStoreForCreate
	GenerateID  func() string
}

// ExecuteCreateCourse validates and persists a new course with a generated ID.
// PRE: input.Name is non-empty
// POST: Course persisted; the returned course carries its ID
func ExecuteCreateCourse(ctx context.Context, input course.Course, deps CreateCourseDeps) (course.Course, error) {
	input.ID = deps.GenerateID()
	if err := input.Validate(); err != nil {
		return course.Course{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := deps.CourseStore.Save(ctx, input); err != nil {
		return course.Course{}, err
	}
	slog.Info("catalog_event", "event", "course_created", "course_id", input.ID)
	return input, nil
}

// CreatePlanDeps holds dependencies for CreatePlan.
type CreatePlanDeps struct {
	PlanStore  PlanStoreForCreate
	GenerateID func() string
}

// ExecuteCreatePlan validates and persists a new billing plan with a generated ID.
// PRE: input has a name and a known billing type
// POST: Plan persisted; the returned plan carries its ID
func ExecuteCreatePlan(ctx context.Context, input plan.Plan, deps CreatePlanDeps) (plan.Plan, error) {
	input.ID = deps.GenerateID()
	if input.BillingType == "" {
		input.BillingType = plan.BillingMonthly
	}
	if err := input.Validate(); err != nil {
		return plan.Plan{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := deps.PlanStore.Save(ctx, input); err != nil {
		return plan.Plan{}, err
	}
	slog.Info("catalog_event", "event", "plan_created", "plan_id", input.ID)
	return input, nil
}
