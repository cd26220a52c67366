package orchestrators

import (
	"context"
	"log/slog"

	"academy/internal/domain/course"
	"academy/internal/domain/plan"

	"github.com/google/uuid"
)

// CourseStoreForSeed defines the store interface needed by SeedCatalog.
type CourseStoreForSeed interface {
	Save(ctx context.Context, c course.Course) error
	List(ctx context.Context) ([]course.Course, error)
}

// PlanStoreForSeed defines the store interface needed by SeedCatalog.
type PlanStoreForSeed interface {
	Save(ctx context.Context, p plan.Plan) error
	List(ctx context.Context) ([]plan.Plan, error)
	ApplyCourses(ctx context.Context, planID string, add, remove []string) error
}

// SeedCatalogDeps holds dependencies for SeedCatalog.
type SeedCatalogDeps struct {
	CourseStore CourseStoreForSeed
	PlanStore   PlanStoreForSeed
}

// ExecuteSeedCatalog creates default courses and billing plans if none exist.
func ExecuteSeedCatalog(ctx context.Context, deps SeedCatalogDeps) error {
	existing, err := deps.CourseStore.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil // Already seeded
	}

	courses := []course.Course{
		{ID: uuid.New().String(), Name: "Krav Maga Fundamentals", Level: "Beginner", Description: "Core *self-defence* drills and striking.", IsActive: true},
		{ID: uuid.New().String(), Name: "Krav Maga Advanced", Level: "Advanced", Description: "Weapons defence and pressure testing.", IsActive: true},
		{ID: uuid.New().String(), Name: "Muay Thai", Level: "All levels", IsActive: true},
		{ID: uuid.New().String(), Name: "Brazilian Jiu-Jitsu", Level: "All levels", IsActive: true},
		{ID: uuid.New().String(), Name: "Kids Defence", Level: "Kids", IsActive: true},
		{ID: uuid.New().String(), Name: "Boxing (retired)", Level: "Beginner", IsActive: false},
	}
	for _, c := range courses {
		if err := deps.CourseStore.Save(ctx, c); err != nil {
			return err
		}
	}

	plans := []plan.Plan{
		{ID: uuid.New().String(), Name: "Adult Unlimited", PriceCents: 24900, BillingType: plan.BillingMonthly, IsActive: true},
		{ID: uuid.New().String(), Name: "Kids Twice Weekly", PriceCents: 14900, BillingType: plan.BillingMonthly, IsActive: true},
	}
	for _, p := range plans {
		if err := deps.PlanStore.Save(ctx, p); err != nil {
			return err
		}
	}
	if err := deps.PlanStore.ApplyCourses(ctx, plans[0].ID, []string{courses[0].ID, courses[2].ID}, nil); err != nil {
		return err
	}
	if err := deps.PlanStore.ApplyCourses(ctx, plans[1].ID, []string{courses[4].ID}, nil); err != nil {
		return err
	}

	slog.Info("seed_event", "event", "catalog_seeded", "courses", len(courses), "plans", len(plans))
	return nil
}
