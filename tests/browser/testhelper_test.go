package browser_test

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"

	_ "modernc.org/sqlite"

	"academy/internal/adapters/email"
	web "academy/internal/adapters/http"
	"academy/internal/adapters/http/middleware"
	"academy/internal/adapters/http/perf"
	"academy/internal/adapters/storage"
	courseStore "academy/internal/adapters/storage/course"
	planStore "academy/internal/adapters/storage/plan"
	"academy/internal/domain/course"
	"academy/internal/domain/plan"
)

// testApp holds the running test server and Playwright handles.
type testApp struct {
	BaseURL string
	DB      *sql.DB
	Server  *http.Server
	PW      *playwright.Playwright
	Browser playwright.Browser
	Stores  *web.Stores
	PlanID  string
}

// newTestApp creates a fully wired app with a temp SQLite DB and starts an HTTP server.
// The catalogue holds Alpha, Beta, Gamma and Delta, with Delta linked to plan-1.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	if err := storage.InitDB(db); err != nil {
		t.Fatalf("failed to initialise test DB: %v", err)
	}

	collector := perf.NewCollector(perf.DefaultRingSize)
	timed := storage.NewTimedDB(db, collector)
	stores := &web.Stores{
		CourseStore: courseStore.NewSQLiteStore(timed),
		PlanStore:   planStore.NewSQLiteStore(timed),
	}

	ctx := context.Background()
	for _, c := range []course.Course{
		{ID: "A", Name: "Alpha", IsActive: true},
		{ID: "B", Name: "Beta", Description: "**Bold** start", IsActive: true},
		{ID: "C", Name: "Gamma", IsActive: true},
		{ID: "D", Name: "Delta", IsActive: true},
	} {
		if err := stores.CourseStore.Save(ctx, c); err != nil {
			t.Fatalf("failed to seed course %s: %v", c.ID, err)
		}
	}
	p := plan.Plan{ID: "plan-1", Name: "Adult Unlimited", PriceCents: 24900, BillingType: plan.BillingMonthly, IsActive: true}
	if err := stores.PlanStore.Save(ctx, p); err != nil {
		t.Fatalf("failed to seed plan: %v", err)
	}
	if err := stores.PlanStore.ApplyCourses(ctx, p.ID, []string{"D"}, nil); err != nil {
		t.Fatalf("failed to link seed course: %v", err)
	}

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	// Change to project root so the relative static path works
	projectRoot := findProjectRoot(t)
	origDir, _ := os.Getwd()
	if err := os.Chdir(projectRoot); err != nil {
		t.Fatalf("failed to chdir to project root: %v", err)
	}
	t.Cleanup(func() { os.Chdir(origDir) })

	// Add test port to CSRF trusted origins before creating mux
	middleware.ExtraTrustedOrigins = append(middleware.ExtraTrustedOrigins,
		fmt.Sprintf("127.0.0.1:%d", port),
		fmt.Sprintf("localhost:%d", port),
	)

	web.SetEmailSender(&email.NoopSender{}, nil)
	srv := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", port),
		Handler: web.NewMux("static", stores, collector),
	}
	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("test server error: %v", err)
		}
	}()

	// Wait for server to be ready
	baseURL := fmt.Sprintf("http://127.0.0.1:%d", port)
	for i := 0; i < 50; i++ {
		resp, err := http.Get(baseURL + "/plans")
		if err == nil {
			resp.Body.Close()
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("failed to start Playwright: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		t.Fatalf("failed to launch browser: %v", err)
	}

	app := &testApp{
		BaseURL: baseURL,
		DB:      db,
		Server:  srv,
		PW:      pw,
		Browser: browser,
		Stores:  stores,
		PlanID:  p.ID,
	}

	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
		srv.Close()
		db.Close()
	})

	return app
}

// newPage creates a new browser page (tab).
func (a *testApp) newPage(t *testing.T) playwright.Page {
	t.Helper()
	page, err := a.Browser.NewPage()
	if err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	t.Cleanup(func() { page.Close() })
	return page
}

// openEditor navigates to the course tab of the seeded plan.
func (a *testApp) openEditor(t *testing.T, page playwright.Page) {
	t.Helper()
	if _, err := page.Goto(a.BaseURL + "/plans/" + a.PlanID + "/courses"); err != nil {
		t.Fatalf("failed to navigate to editor: %v", err)
	}
}

// expectText waits until the locator's text equals want.
func expectText(t *testing.T, page playwright.Page, selector, want string) {
	t.Helper()
	loc := page.Locator(selector)
	if err := loc.WaitFor(playwright.LocatorWaitForOptions{Timeout: playwright.Float(5000)}); err != nil {
		t.Fatalf("%s not visible: %v", selector, err)
	}
	got, err := loc.InnerText()
	if err != nil {
		t.Fatalf("failed to read %s: %v", selector, err)
	}
	if got != want {
		t.Errorf("%s = %q, want %q", selector, got, want)
	}
}

// click clicks the first element matching selector.
func click(t *testing.T, page playwright.Page, selector string) {
	t.Helper()
	if err := page.Locator(selector).First().Click(); err != nil {
		t.Fatalf("failed to click %s: %v", selector, err)
	}
}

// findProjectRoot walks up from the working directory to find the project root (contains go.mod).
func findProjectRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("could not find project root (go.mod) from working directory")
		}
		dir = parent
	}
}
