package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/indusops/opsdesk/internal/ai"
	"github.com/indusops/opsdesk/internal/buildinfo"
	"github.com/indusops/opsdesk/internal/cache"
	"github.com/indusops/opsdesk/internal/config"
	"github.com/indusops/opsdesk/internal/database"
	"github.com/indusops/opsdesk/internal/handlers"
	"github.com/indusops/opsdesk/internal/middleware"
	"github.com/indusops/opsdesk/internal/services/audit"
	"github.com/indusops/opsdesk/internal/services/costing"
	"github.com/indusops/opsdesk/internal/services/dashboard"
	"github.com/indusops/opsdesk/internal/services/drafts"
	"github.com/indusops/opsdesk/internal/services/enquiry"
	"github.com/indusops/opsdesk/internal/services/masters"
	"github.com/indusops/opsdesk/internal/services/projects"
	"github.com/indusops/opsdesk/internal/services/quotation"
	"github.com/indusops/opsdesk/internal/services/ratequery"
	"github.com/indusops/opsdesk/internal/tasks"
	"github.com/indusops/opsdesk/internal/upstream"
	"github.com/indusops/opsdesk/internal/websocket"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Printf("📦 opsdesk %s", buildinfo.Version)

	// 2. Initialize database (embedded or external)
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	// Note: db.Close() is called manually in shutdown handler below

	// 3. Auto-Migrate local tables
	log.Println("🚀 Synchronizing database schema...")
	if err := db.Migrate(); err != nil {
		log.Printf("⚠️ Migration warning: %v\n", err)
	} else {
		log.Println("✅ Schema synchronized successfully")
	}

	// Background work stops when ctx is cancelled
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	hub := websocket.NewHub()
	go hub.Run(ctx)

	lookups := cache.New(cfg.Cache)
	client := upstream.NewClient(cfg.Upstream)
	auditSvc := audit.NewService(db, hub)

	// 4. Domain services
	rateSvc := ratequery.NewService(client, auditSvc, cfg.Workflow)
	quoteSvc := quotation.NewService(client, auditSvc, cfg.Workflow)
	draftSvc := drafts.NewService(client, auditSvc, cfg.Workflow)
	enquirySvc := enquiry.NewService(client, auditSvc)

	var assistant costing.Assistant = costing.UpstreamAssistant{Client: client}
	var gemini *ai.GeminiClient
	if cfg.Costing.Assistant == "gemini" {
		gemini, err = ai.NewGeminiClient(ctx, cfg.Costing.GeminiAPIKey, cfg.Costing.GeminiModel)
		if err != nil {
			log.Printf("⚠️ Costing: Gemini unavailable (%v), using upstream assistant", err)
		} else {
			assistant = costing.GeminiAssistant{Model: gemini}
			log.Println("🤖 Costing: Gemini assistant enabled")
		}
	}

	svc := handlers.Services{
		Audit:     auditSvc,
		RateQuery: rateSvc,
		Quotation: quoteSvc,
		Drafts:    draftSvc,
		Projects:  projects.NewService(client, auditSvc),
		Enquiry:   enquirySvc,
		Masters:   masters.NewService(client, lookups, cfg.Cache.TTL),
		Dashboard: dashboard.NewService(rateSvc, quoteSvc, draftSvc, enquirySvc),
		Costing:   costing.NewService(costing.GormStore{DB: db.DB}, assistant, auditSvc, cfg.Costing),
	}

	// 5. Scheduled jobs
	scheduler := tasks.NewScheduler(cfg.Jobs, rateSvc, draftSvc, db, hub)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit)
	go limiter.Run(ctx)

	// 6. Start server with graceful shutdown
	router := handlers.NewRouter(cfg, db, hub, limiter, svc)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("🚀 Server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	sig := <-shutdown
	log.Printf("⚠️  Received signal: %v. Shutting down gracefully...", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	// Let running jobs finish, then stop the hub and the limiter sweep
	scheduler.Stop(shutdownCtx)
	stop()

	if gemini != nil {
		gemini.Close()
	}
	if err := lookups.Close(); err != nil {
		log.Printf("Cache close error: %v", err)
	}

	// Close database (this also stops embedded PostgreSQL)
	log.Println("🛑 Closing database connection...")
	if err := db.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}
