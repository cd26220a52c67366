package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	emailPkg "academy/internal/adapters/email"
	web "academy/internal/adapters/http"
	"academy/internal/adapters/http/perf"
	"academy/internal/adapters/storage"
	courseStore "academy/internal/adapters/storage/course"
	planStore "academy/internal/adapters/storage/plan"
	"academy/internal/application/orchestrators"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	dbPath := envOrDefault("ACADEMY_DB", "academy.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(8)

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}
	if err := storage.InitDB(db); err != nil {
		log.Fatalf("failed to initialise database: %v", err)
	}
	log.Println("Database initialized successfully!")

	// Wrap the DB so store queries are timed into the perf collector
	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector)

	stores := &web.Stores{
		CourseStore: courseStore.NewSQLiteStore(timedDB),
		PlanStore:   planStore.NewSQLiteStore(timedDB),
	}

	if os.Getenv("ACADEMY_ENV") != "production" {
		seedDeps := orchestrators.SeedCatalogDeps{CourseStore: stores.CourseStore, PlanStore: stores.PlanStore}
		if err := orchestrators.ExecuteSeedCatalog(context.Background(), seedDeps); err != nil {
			log.Fatalf("failed to seed catalogue: %v", err)
		}
	}

	// Change notifications
	resendKey := os.Getenv("ACADEMY_RESEND_KEY")
	emailFrom := envOrDefault("ACADEMY_RESEND_FROM", "Academy <noreply@academy.local>")
	web.SetEmailSender(emailPkg.New(resendKey, emailFrom), splitList(os.Getenv("ACADEMY_NOTIFY_EMAIL")))
	if resendKey == "" {
		log.Println("Email sender configured (noop, set ACADEMY_RESEND_KEY for real delivery)")
	} else {
		log.Println("Email sender configured (Resend)")
	}

	srv := &http.Server{
		Addr:              envOrDefault("ACADEMY_ADDR", ":8080"),
		Handler:           web.NewMux(envOrDefault("ACADEMY_STATIC", "static"), stores, collector),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("Academy %s starting on %s (env=%s)", version, srv.Addr, envOrDefault("ACADEMY_ENV", "development"))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitList parses a comma-separated env value, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
