package web

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"sort"

	"academy/internal/adapters/http/middleware"
	"academy/internal/domain/course"
	"academy/internal/domain/plan"
)

// mockCourseStore implements courseStore.Store for testing.
type mockCourseStore struct {
	courses map[string]course.Course
	listErr error
}

// GetByID implements the course store interface for testing.
// PRE: id is non-empty
// POST: Returns the course or sql.ErrNoRows
func (m *mockCourseStore) GetByID(_ context.Context, id string) (course.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return course.Course{}, sql.ErrNoRows
}

// Save implements the course store interface for testing.
// PRE: entity has been validated
// POST: Entity is persisted
func (m *mockCourseStore) Save(_ context.Context, c course.Course) error {
	m.courses[c.ID] = c
	return nil
}

// List implements the course store interface for testing.
// PRE: none
// POST: Returns courses ordered by name, or the configured error
func (m *mockCourseStore) List(_ context.Context) ([]course.Course, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []course.Course
	for _, c := range m.courses {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ListByIDs implements the course store interface for testing.
// PRE: none
// POST: Returns the known courses among ids
func (m *mockCourseStore) ListByIDs(_ context.Context, ids []string) ([]course.Course, error) {
	var out []course.Course
	for _, id := range ids {
		if c, ok := m.courses[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// mockPlanStore implements planStore.Store for testing.
type mockPlanStore struct {
	plans    map[string]plan.Plan
	links    map[string]map[string]bool
	courses  *mockCourseStore
	applyErr error
}

// GetByID implements the plan store interface for testing.
// PRE: id is non-empty
// POST: Returns the plan or an error wrapping sql.ErrNoRows
func (m *mockPlanStore) GetByID(_ context.Context, id string) (plan.Plan, error) {
	if p, ok := m.plans[id]; ok {
		return p, nil
	}
	return plan.Plan{}, fmt.Errorf("plan not found: %w", sql.ErrNoRows)
}

// Save implements the plan store interface for testing.
func (m *mockPlanStore) Save(_ context.Context, p plan.Plan) error {
	m.plans[p.ID] = p
	return nil
}

// List implements the plan store interface for testing.
func (m *mockPlanStore) List(_ context.Context) ([]plan.Plan, error) {
	var out []plan.Plan
	for _, p := range m.plans {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ListCourses implements the plan store interface for testing.
// PRE: planID exists
// POST: Returns linked courses ordered by name
func (m *mockPlanStore) ListCourses(ctx context.Context, planID string) ([]course.Course, error) {
	all, err := m.courses.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []course.Course
	for _, c := range all {
		if m.links[planID][c.ID] {
			out = append(out, c)
		}
	}
	return out, nil
}

// ApplyCourses implements the plan store interface for testing.
// PRE: planID exists and every add is a known course
// POST: links updated, or nothing on the configured error
func (m *mockPlanStore) ApplyCourses(_ context.Context, planID string, add, remove []string) error {
	if m.applyErr != nil {
		return m.applyErr
	}
	set := m.links[planID]
	if set == nil {
		set = make(map[string]bool)
		m.links[planID] = set
	}
	for _, id := range add {
		set[id] = true
	}
	for _, id := range remove {
		delete(set, id)
	}
	return nil
}

// setupTestStores installs a catalogue of four courses and one plan linked to Delta.
func setupTestStores() (*mockCourseStore, *mockPlanStore) {
	courses := &mockCourseStore{courses: map[string]course.Course{
		"A": {ID: "A", Name: "Alpha", IsActive: true},
		"B": {ID: "B", Name: "Beta", Description: "**Bold** start", IsActive: true},
		"C": {ID: "C", Name: "Gamma", IsActive: true},
		"D": {ID: "D", Name: "Delta", IsActive: true},
	}}
	plans := &mockPlanStore{
		plans:   map[string]plan.Plan{"plan-1": {ID: "plan-1", Name: "Adult Unlimited", PriceCents: 24900, BillingType: plan.BillingMonthly, IsActive: true}},
		links:   map[string]map[string]bool{"plan-1": {"D": true}},
		courses: courses,
	}
	stores = &Stores{CourseStore: courses, PlanStore: plans}
	editors = NewEditorRegistry(localSource{}, EditorIdleTimeout)
	emailSender, notifyTo = nil, nil
	perfCollector = nil
	resetMetrics()
	return courses, plans
}

// newTestHandler serves the routes with operator sessions but without CSRF.
func newTestHandler() http.Handler {
	mux := http.NewServeMux()
	registerRoutes(mux)
	sessions = middleware.NewSessionStore()
	return middleware.OperatorSession(sessions, false)(mux)
}
