package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"os"
	"time"

	"academy/internal/adapters/email"
	"academy/internal/adapters/http/middleware"
	"academy/internal/adapters/http/perf"
	courseStore "academy/internal/adapters/storage/course"
	planStore "academy/internal/adapters/storage/plan"
)

// Stores holds all storage dependencies.
type Stores struct {
	CourseStore courseStore.Store
	PlanStore   planStore.Store
}

// loadCSRFKey reads the CSRF secret from ACADEMY_CSRF_KEY (hex-encoded, 32 bytes).
// Production requires the key; development generates one per startup.
func loadCSRFKey() []byte {
	if keyHex := os.Getenv("ACADEMY_CSRF_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			log.Fatal("ACADEMY_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key
	}
	if isProduction() {
		log.Fatal("ACADEMY_CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("failed to generate CSRF key: %v", err)
	}
	log.Println("WARNING: using random CSRF key (editor forms won't survive restart). Set ACADEMY_CSRF_KEY for production.")
	return key
}

func isProduction() bool {
	return os.Getenv("ACADEMY_ENV") == "production"
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global operator sessions and their editors (set by NewMux)
var sessions *middleware.SessionStore
var editors *EditorRegistry

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 20

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// Change notifications (set by SetEmailSender)
var emailSender email.Sender
var notifyTo []string

// SetEmailSender configures where association changes are reported.
func SetEmailSender(sender email.Sender, recipients []string) {
	emailSender = sender
	notifyTo = recipients
}

// stopSweep cancels the rate limiter sweep of the previous NewMux, if any.
var stopSweep context.CancelFunc

// sweepLimiter drops idle rate limiter buckets every interval until ctx is done.
func sweepLimiter(ctx context.Context, limiter *middleware.RateLimiter, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Sweep(idle)
		}
	}
}

// NewMux wires HTTP handlers for the app.
func NewMux(staticDir string, s *Stores, collector *perf.Collector) http.Handler {
	stores = s
	perfCollector = collector
	sessions = middleware.NewSessionStore()
	editors = NewEditorRegistry(localSource{}, EditorIdleTimeout)
	resetMetrics()

	mux := http.NewServeMux()
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	registerRoutes(mux)

	secure := isProduction()
	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)
	if stopSweep != nil {
		stopSweep()
	}
	sweepCtx, cancel := context.WithCancel(context.Background())
	stopSweep = cancel
	go sweepLimiter(sweepCtx, limiter, time.Minute, 5*time.Minute)

	// Outer to inner: Timing -> RateLimit -> OperatorSession -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(loadCSRFKey(), secure),
		middleware.OperatorSession(sessions, secure),
		middleware.RateLimit(limiter),
		middleware.Timing(collector, observeRequest),
	)
}

// registerRoutes maps every endpoint onto mux.
func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/plans", http.StatusSeeOther)
	})

	// JSON API
	mux.HandleFunc("/api/courses", handleAPICourses)
	mux.HandleFunc("/api/billing-plans", handleAPIBillingPlans)
	mux.HandleFunc("/api/plans/{planId}/courses", handleAPIPlanCourses)
	mux.HandleFunc("GET /api/perf", handleAPIPerf)
	mux.Handle("GET /metrics", metricsHandler())

	// Operator console
	mux.HandleFunc("GET /plans", handlePlansPage)
	mux.HandleFunc("GET /plans/{planId}/courses", handlePlanCoursesPage)
	mux.HandleFunc("POST /plans/{planId}/courses/{action}", handlePlanCoursesAction)
}
