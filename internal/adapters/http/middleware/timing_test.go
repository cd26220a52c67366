package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"academy/internal/adapters/http/perf"
)

func okHandler(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
}

// TestTiming_RecordsEntry verifies a request entry carries method, path and status.
func TestTiming_RecordsEntry(t *testing.T) {
	collector := perf.NewCollector(10)
	handler := Timing(collector, nil)(okHandler(http.StatusCreated))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("POST", "/api/courses", nil))

	snap := collector.Snapshot(time.Now().Add(-time.Minute), 10)
	if len(snap.SlowestPaths) != 1 || snap.SlowestPaths[0].Path != "POST /api/courses" {
		t.Fatalf("SlowestPaths = %+v", snap.SlowestPaths)
	}
	if rr.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rr.Code)
	}
}

// TestTiming_SkipsStatic verifies static assets are not timed.
func TestTiming_SkipsStatic(t *testing.T) {
	collector := perf.NewCollector(10)
	called := false
	handler := Timing(collector, func(string, string, int, time.Duration) { called = true })(okHandler(http.StatusOK))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/static/app.css", nil))

	if collector.TotalRecorded() != 0 || called {
		t.Error("static requests must not be recorded or observed")
	}
}

// TestTiming_Observer verifies the observer sees the final status.
func TestTiming_Observer(t *testing.T) {
	var gotMethod, gotPath string
	var gotStatus int
	handler := Timing(nil, func(method, path string, status int, d time.Duration) {
		gotMethod, gotPath, gotStatus = method, path, status
		if d < 0 {
			t.Errorf("negative duration %v", d)
		}
	})(okHandler(http.StatusNotFound))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/missing", nil))

	if gotMethod != "GET" || gotPath != "/missing" || gotStatus != http.StatusNotFound {
		t.Errorf("observed %s %s %d", gotMethod, gotPath, gotStatus)
	}
}

// TestTiming_ImplicitOK verifies a body-only handler is recorded as 200.
func TestTiming_ImplicitOK(t *testing.T) {
	status := 0
	handler := Timing(nil, func(_, _ string, s int, _ time.Duration) { status = s })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("ok")) }),
	)
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/x", nil))
	if status != http.StatusOK {
		t.Errorf("status = %d, want 200", status)
	}
}
