package plan_test

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"

	"academy/internal/adapters/storage"
	courseStore "academy/internal/adapters/storage/course"
	planStore "academy/internal/adapters/storage/plan"
	courseDomain "academy/internal/domain/course"
	planDomain "academy/internal/domain/plan"
)

type fixture struct {
	plans   *planStore.SQLiteStore
	courses *courseStore.SQLiteStore
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.InitDB(db); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	f := fixture{plans: planStore.NewSQLiteStore(db), courses: courseStore.NewSQLiteStore(db)}

	ctx := context.Background()
	if err := f.plans.Save(ctx, planDomain.Plan{ID: "p1", Name: "Adult Unlimited", PriceCents: 18900, BillingType: planDomain.BillingMonthly, IsActive: true}); err != nil {
		t.Fatalf("save plan: %v", err)
	}
	for _, c := range []courseDomain.Course{
		{ID: "a", Name: "Alpha", IsActive: true},
		{ID: "b", Name: "Beta", IsActive: true},
		{ID: "c", Name: "Gamma", IsActive: true},
	} {
		if err := f.courses.Save(ctx, c); err != nil {
			t.Fatalf("save course: %v", err)
		}
	}
	return f
}

func linkedIDs(t *testing.T, f fixture, planID string) []string {
	t.Helper()
	cs, err := f.plans.ListCourses(context.Background(), planID)
	if err != nil {
		t.Fatalf("ListCourses: %v", err)
	}
	return courseDomain.IDs(cs)
}

// TestSQLiteStore_GetByID verifies a saved plan is returned.
func TestSQLiteStore_GetByID(t *testing.T) {
	f := newFixture(t)
	p, err := f.plans.GetByID(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if p.Name != "Adult Unlimited" || p.PriceCents != 18900 || !p.IsActive {
		t.Errorf("got %+v", p)
	}
	if _, err := f.plans.GetByID(context.Background(), "missing"); err == nil {
		t.Error("expected not found error")
	}
}

// TestSQLiteStore_ApplyCourses verifies add and remove are applied together.
func TestSQLiteStore_ApplyCourses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.plans.ApplyCourses(ctx, "p1", []string{"a", "b"}, nil); err != nil {
		t.Fatalf("ApplyCourses: %v", err)
	}
	if got := linkedIDs(t, f, "p1"); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("linked = %v, want [a b]", got)
	}

	// re-adding a, removing b, removing an unlinked c
	if err := f.plans.ApplyCourses(ctx, "p1", []string{"a"}, []string{"b", "c"}); err != nil {
		t.Fatalf("ApplyCourses: %v", err)
	}
	if got := linkedIDs(t, f, "p1"); len(got) != 1 || got[0] != "a" {
		t.Errorf("linked = %v, want [a]", got)
	}
}

// TestSQLiteStore_ApplyCourses_RollsBack verifies a failing statement leaves links unchanged.
func TestSQLiteStore_ApplyCourses_RollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.plans.ApplyCourses(ctx, "p1", []string{"a"}, nil); err != nil {
		t.Fatalf("ApplyCourses: %v", err)
	}

	// "ghost" violates the course foreign key
	if err := f.plans.ApplyCourses(ctx, "p1", []string{"b", "ghost"}, []string{"a"}); err == nil {
		t.Fatal("expected foreign key error")
	}
	if got := linkedIDs(t, f, "p1"); len(got) != 1 || got[0] != "a" {
		t.Errorf("linked = %v, want [a] after rollback", got)
	}
}

// TestSQLiteStore_List verifies plans are listed by name.
func TestSQLiteStore_List(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.plans.Save(ctx, planDomain.Plan{ID: "p0", Name: "Kids Twice Weekly", BillingType: planDomain.BillingMonthly})
	plans, err := f.plans.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(plans) != 2 || plans[0].Name != "Adult Unlimited" {
		t.Errorf("List = %+v", plans)
	}
}
