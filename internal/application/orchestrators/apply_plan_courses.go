package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"sort"
	"strings"

	emailAdapter "academy/internal/adapters/email"
	"academy/internal/domain/course"
	"academy/internal/domain/plan"
)

// Plan course errors
var (
	ErrEmptyPlanID       = errors.New("plan ID is required")
	ErrPlanNotFound      = errors.New("plan not found")
	ErrUnknownCourse     = errors.New("unknown course")
	ErrConflictingChange = errors.New("course cannot be both added and removed")
)

// PlanStoreForApply defines the store interface needed by ApplyPlanCourses.
type PlanStoreForApply interface {
	GetByID(ctx context.Context, id string) (plan.Plan, error)
	ApplyCourses(ctx context.Context, planID string, add, remove []string) error
}

// CourseLookup resolves course IDs to courses.
type CourseLookup interface {
	ListByIDs(ctx context.Context, ids []string) ([]course.Course, error)
}

// ApplyPlanCoursesInput carries the diff to apply to a plan's courses.
type ApplyPlanCoursesInput struct {
	PlanID string
	Add    []string
	Remove []string
}

// ApplyPlanCoursesDeps holds dependencies for ApplyPlanCourses.
type ApplyPlanCoursesDeps struct {
	PlanStore   PlanStoreForApply
	CourseStore CourseLookup

	// Optional change notification. Skipped when Sender is nil or NotifyTo is empty.
	Sender   emailAdapter.Sender
	NotifyTo []string
}

// ApplyPlanCoursesResult reports what was applied.
type ApplyPlanCoursesResult struct {
	Plan    plan.Plan
	Added   []course.Course
	Removed []string
}

// Message returns the operator-facing summary.
func (r ApplyPlanCoursesResult) Message() string {
	return fmt.Sprintf("associations saved: %d added, %d removed", len(r.Added), len(r.Removed))
}

// ExecuteApplyPlanCourses links and unlinks courses on a billing plan.
// PRE: PlanID is non-empty
// POST: On success every add is linked and every remove unlinked atomically; on error nothing changes
func ExecuteApplyPlanCourses(ctx context.Context, input ApplyPlanCoursesInput, deps ApplyPlanCoursesDeps) (ApplyPlanCoursesResult, error) {
	if strings.TrimSpace(input.PlanID) == "" {
		return ApplyPlanCoursesResult{}, ErrEmptyPlanID
	}
	add := dedupe(input.Add)
	remove := dedupe(input.Remove)
	for _, id := range add {
		if containsString(remove, id) {
			return ApplyPlanCoursesResult{}, fmt.Errorf("%w: %s", ErrConflictingChange, id)
		}
	}

	p, err := deps.PlanStore.GetByID(ctx, input.PlanID)
	if errors.Is(err, sql.ErrNoRows) {
		return ApplyPlanCoursesResult{}, ErrPlanNotFound
	}
	if err != nil {
		return ApplyPlanCoursesResult{}, err
	}

	added, err := deps.CourseStore.ListByIDs(ctx, add)
	if err != nil {
		return ApplyPlanCoursesResult{}, err
	}
	if len(added) != len(add) {
		known := make(map[string]bool, len(added))
		for _, c := range added {
			known[c.ID] = true
		}
		for _, id := range add {
			if !known[id] {
				return ApplyPlanCoursesResult{}, fmt.Errorf("%w: %s", ErrUnknownCourse, id)
			}
		}
	}

	if err := deps.PlanStore.ApplyCourses(ctx, p.ID, add, remove); err != nil {
		return ApplyPlanCoursesResult{}, fmt.Errorf("apply plan courses: %w", err)
	}

	result := ApplyPlanCoursesResult{Plan: p, Added: added, Removed: remove}
	slog.Info("plan_courses_event", "event", "plan_courses_applied", "plan_id", p.ID, "added", len(add), "removed", len(remove))

	notifyPlanCourseChange(ctx, deps, result)
	return result, nil
}

// notifyPlanCourseChange emails a summary. Delivery failures are logged, not returned,
// because the change is already committed.
func notifyPlanCourseChange(ctx context.Context, deps ApplyPlanCoursesDeps, r ApplyPlanCoursesResult) {
	if deps.Sender == nil || len(deps.NotifyTo) == 0 {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<p>Courses for plan <strong>%s</strong> were updated.</p>", html.EscapeString(r.Plan.Name))
	if len(r.Added) > 0 {
		b.WriteString("<p>Added:</p><ul>")
		for _, c := range r.Added {
			fmt.Fprintf(&b, "<li>%s</li>", html.EscapeString(c.Name))
		}
		b.WriteString("</ul>")
	}
	if len(r.Removed) > 0 {
		fmt.Fprintf(&b, "<p>Removed %d course(s).</p>", len(r.Removed))
	}
	_, err := deps.Sender.Send(ctx, emailAdapter.SendRequest{
		To:      deps.NotifyTo,
		Subject: "Plan courses updated: " + r.Plan.Name,
		HTML:    b.String(),
	})
	if err != nil {
		slog.Error("plan_courses_event", "event", "notify_failed", "plan_id", r.Plan.ID, "error", err)
	}
}

// dedupe returns the sorted distinct non-empty values.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func containsString(list []string, v string) bool {
	i := sort.SearchStrings(list, v)
	return i < len(list) && list[i] == v
}
