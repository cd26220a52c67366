package orchestrators

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	emailAdapter "academy/internal/adapters/email"
	"academy/internal/domain/course"
	"academy/internal/domain/plan"
)

func fixedID() string { return "test-id-001" }

// mockPlanStore implements the plan store interfaces for testing.
type mockPlanStore struct {
	plans    map[string]plan.Plan
	links    map[string]map[string]bool
	applyErr error
	applied  int
}

func newMockPlanStore(plans ...plan.Plan) *mockPlanStore {
	m := &mockPlanStore{plans: make(map[string]plan.Plan), links: make(map[string]map[string]bool)}
	for _, p := range plans {
		m.plans[p.ID] = p
	}
	return m
}

// GetByID implements PlanStoreForApply.
// PRE: id is non-empty
// POST: returns plan or sql.ErrNoRows
func (m *mockPlanStore) GetByID(_ context.Context, id string) (plan.Plan, error) {
	p, ok := m.plans[id]
	if !ok {
		return plan.Plan{}, sql.ErrNoRows
	}
	return p, nil
}

// Save implements PlanStoreForCreate.
func (m *mockPlanStore) Save(_ context.Context, p plan.Plan) error {
	m.plans[p.ID] = p
	return nil
}

// List implements PlanStoreForSeed.
func (m *mockPlanStore) List(_ context.Context) ([]plan.Plan, error) {
	out := make([]plan.Plan, 0, len(m.plans))
	for _, p := range m.plans {
		out = append(out, p)
	}
	return out, nil
}

// ApplyCourses implements PlanStoreForApply.
// PRE: planID exists
// POST: adds linked, removes unlinked, or nothing on configured error
func (m *mockPlanStore) ApplyCourses(_ context.Context, planID string, add, remove []string) error {
	if m.applyErr != nil {
		return m.applyErr
	}
	m.applied++
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

func (m *mockPlanStore) linked(planID string) []string {
	var ids []string
	for id := range m.links[planID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// mockCourseStore implements the course store interfaces for testing.
type mockCourseStore struct {
	courses map[string]course.Course
}

func newMockCourseStore(courses ...course.Course) *mockCourseStore {
	m := &mockCourseStore{courses: make(map[string]course.Course)}
	for _, c := range courses {
		m.courses[c.ID] = c
	}
	return m
}

// ListByIDs implements CourseLookup.
// PRE: none
// POST: returns the known courses among ids
func (m *mockCourseStore) ListByIDs(_ context.Context, ids []string) ([]course.Course, error) {
	var out []course.Course
	for _, id := range ids {
		if c, ok := m.courses[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// Save implements CourseStoreForCreate.
func (m *mockCourseStore) Save(_ context.Context, c course.Course) error {
	m.courses[c.ID] = c
	return nil
}

// List implements CourseStoreForSeed.
func (m *mockCourseStore) List(_ context.Context) ([]course.Course, error) {
	out := make([]course.Course, 0, len(m.courses))
	for _, c := range m.courses {
		out = append(out, c)
	}
	return out, nil
}

// mockSender records email requests.
type mockSender struct {
	mu   sync.Mutex
	sent []emailAdapter.SendRequest
	err  error
}

// Send implements emailAdapter.Sender.
func (m *mockSender) Send(_ context.Context, req emailAdapter.SendRequest) (emailAdapter.SendResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return emailAdapter.SendResult{}, m.err
	}
	m.sent = append(m.sent, req)
	return emailAdapter.SendResult{MessageID: "msg-1"}, nil
}
