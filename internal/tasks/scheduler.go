// Package tasks runs the background jobs: the overdue rate-query scan and
// the old draft cleanup.
package tasks

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/indusops/opsdesk/internal/config"
	"github.com/indusops/opsdesk/internal/models"
	"github.com/indusops/opsdesk/internal/session"
	"github.com/indusops/opsdesk/internal/upstream"
	"github.com/indusops/opsdesk/internal/websocket"
	"github.com/indusops/opsdesk/internal/workflow"
	"github.com/robfig/cron/v3"
)

const jobTimeout = 10 * time.Minute

type OverdueSource interface {
	Overdue(ctx context.Context) ([]workflow.RateQueryView, error)
}

type DraftCleaner interface {
	DeleteOldFor(ctx context.Context, userID int64, days int) (*upstream.Result, error)
}

type UserLister interface {
	ActiveUsersWithUpstreamID() ([]models.UserAuth, error)
}

type Broadcaster interface {
	Broadcast(ev websocket.Event)
}

// Scheduler owns the cron runner and the state jobs carry between runs
type Scheduler struct {
	cron   *cron.Cron
	cfg    config.JobsConfig
	rates  OverdueSource
	drafts DraftCleaner
	users  UserLister
	hub    Broadcaster

	mu          sync.Mutex
	seenOverdue map[int64]bool
}

func NewScheduler(cfg config.JobsConfig, rates OverdueSource, drafts DraftCleaner, users UserLister, hub Broadcaster) *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cron.VerbosePrintfLogger(log.New(os.Stdout, "cron: ", log.LstdFlags))),
		),
		cfg:         cfg,
		rates:       rates,
		drafts:      drafts,
		users:       users,
		hub:         hub,
		seenOverdue: map[int64]bool{},
	}
}

// Start registers the jobs whose spec is set and starts the runner
func (s *Scheduler) Start() error {
	jobs := []struct {
		name string
		spec string
		run  func(context.Context) error
	}{
		{"overdue-scan", s.cfg.OverdueScanSpec, func(ctx context.Context) error { _, err := s.ScanOverdue(ctx); return err }},
		{"draft-cleanup", s.cfg.DraftCleanupSpec, func(ctx context.Context) error { _, err := s.CleanupDrafts(ctx); return err }},
	}
	for _, j := range jobs {
		if j.spec == "" {
			log.Printf("⏸️  Job %s disabled", j.name)
			continue
		}
		if _, err := s.cron.AddFunc(j.spec, s.guard(j.name, j.run)); err != nil {
			return fmt.Errorf("failed to schedule %s (%q): %w", j.name, j.spec, err)
		}
		log.Printf("⏰ Job %s scheduled: %s", j.name, j.spec)
	}
	s.cron.Start()
	return nil
}

// Stop stops scheduling and waits for running jobs up to ctx's deadline
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		log.Println("✅ Background jobs stopped")
	case <-ctx.Done():
		log.Println("⚠️  Background jobs still running at shutdown")
	}
}

// guard skips a run while the previous one is still going and bounds each
// run with a timeout
func (s *Scheduler) guard(name string, run func(context.Context) error) func() {
	flag := new(int32)
	return func() {
		if !atomic.CompareAndSwapInt32(flag, 0, 1) {
			log.Printf("⏭️  %s: previous run still active, skipping", name)
			return
		}
		defer atomic.StoreInt32(flag, 0)

		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		start := time.Now()
		if err := run(ctx); err != nil {
			log.Printf("❌ %s failed after %s: %v", name, time.Since(start).Round(time.Millisecond), err)
			return
		}
		log.Printf("✅ %s finished in %s", name, time.Since(start).Round(time.Millisecond))
	}
}

// ScanOverdue broadcasts rate queries that became overdue since the last
// scan and returns them. Queries that stop being overdue are forgotten.
func (s *Scheduler) ScanOverdue(ctx context.Context) ([]workflow.RateQueryView, error) {
	overdue, err := s.rates.Overdue(ctx)
	if err != nil {
		return nil, fmt.Errorf("overdue scan: %w", err)
	}

	s.mu.Lock()
	current := make(map[int64]bool, len(overdue))
	var fresh []workflow.RateQueryView
	for _, v := range overdue {
		current[v.RequestID] = true
		if !s.seenOverdue[v.RequestID] {
			fresh = append(fresh, v)
		}
	}
	s.seenOverdue = current
	s.mu.Unlock()

	for _, v := range fresh {
		s.hub.Broadcast(websocket.Event{
			Type:       "rate_query.overdue",
			EntityType: "rate_query",
			EntityID:   strconv.FormatInt(v.RequestID, 10),
			Actor:      "system",
			Data:       v,
			At:         time.Now(),
		})
	}
	if len(fresh) > 0 {
		log.Printf("⏰ %d newly overdue rate queries (%d overdue in total)", len(fresh), len(overdue))
	}
	return fresh, nil
}

// CleanupDrafts deletes old drafts of every active user, acting as that
// user upstream. It returns how many users were cleaned; one user's failure
// does not stop the others.
func (s *Scheduler) CleanupDrafts(ctx context.Context) (int, error) {
	users, err := s.users.ActiveUsersWithUpstreamID()
	if err != nil {
		return 0, fmt.Errorf("draft cleanup: %w", err)
	}

	cleaned := 0
	for _, a := range users {
		if ctx.Err() != nil {
			return cleaned, ctx.Err()
		}
		u, id := session.FromAccount(a)
		uctx := session.WithUser(ctx, u, id)
		if _, err := s.drafts.DeleteOldFor(uctx, a.UpstreamUserID, 0); err != nil {
			log.Printf("⚠️  draft cleanup for %s: %v", a.Username, err)
			continue
		}
		cleaned++
	}
	return cleaned, nil
}
