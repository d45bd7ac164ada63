package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/indusops/opsdesk/internal/config"
	"github.com/indusops/opsdesk/internal/models"
	"github.com/indusops/opsdesk/internal/upstream"
	"github.com/indusops/opsdesk/internal/websocket"
	"github.com/indusops/opsdesk/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type overdueList struct {
	views []workflow.RateQueryView
}

func (o *overdueList) Overdue(context.Context) ([]workflow.RateQueryView, error) {
	return o.views, nil
}

type hubSpy struct {
	mu     sync.Mutex
	events []websocket.Event
}

func (h *hubSpy) Broadcast(ev websocket.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
}

type cleanerSpy struct {
	calls map[int64]string
	fail  int64
}

func (c *cleanerSpy) DeleteOldFor(ctx context.Context, userID int64, days int) (*upstream.Result, error) {
	if userID == c.fail {
		return nil, errors.New("upstream refused")
	}
	id, _ := upstream.IdentityFrom(ctx)
	c.calls[userID] = id.CompanyID
	return &upstream.Result{}, nil
}

type userList []models.UserAuth

func (u userList) ActiveUsersWithUpstreamID() ([]models.UserAuth, error) {
	return u, nil
}

func view(id int64) workflow.RateQueryView {
	return workflow.RateQueryView{RateQuery: models.RateQuery{RequestID: id}, Overdue: true}
}

func TestScanOverdueBroadcastsOnlyNewEntries(t *testing.T) {
	src := &overdueList{views: []workflow.RateQueryView{view(1), view(2)}}
	hub := &hubSpy{}
	s := NewScheduler(config.JobsConfig{}, src, nil, nil, hub)
	ctx := context.Background()

	fresh, err := s.ScanOverdue(ctx)
	require.NoError(t, err)
	assert.Len(t, fresh, 2)

	src.views = []workflow.RateQueryView{view(2), view(3)}
	fresh, err = s.ScanOverdue(ctx)
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, int64(3), fresh[0].RequestID)

	// 1 dropped out, so it is new again if it reappears
	src.views = []workflow.RateQueryView{view(1), view(2), view(3)}
	fresh, err = s.ScanOverdue(ctx)
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, int64(1), fresh[0].RequestID)

	require.Len(t, hub.events, 4)
	assert.Equal(t, "rate_query.overdue", hub.events[0].Type)
	assert.Equal(t, "3", hub.events[2].EntityID)
}

func TestCleanupDraftsActsAsEachUser(t *testing.T) {
	cleaner := &cleanerSpy{calls: map[int64]string{}, fail: 9}
	users := userList{
		{ID: "a", Username: "asha", UpstreamUserID: 4, CompanyID: "2"},
		{ID: "b", Username: "bala", UpstreamUserID: 9, CompanyID: "2"},
		{ID: "c", Username: "chitra", UpstreamUserID: 11, CompanyID: "5"},
	}
	s := NewScheduler(config.JobsConfig{}, nil, cleaner, users, &hubSpy{})

	n, err := s.CleanupDrafts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, map[int64]string{4: "2", 11: "5"}, cleaner.calls)
}

func TestGuardSkipsOverlappingRuns(t *testing.T) {
	s := NewScheduler(config.JobsConfig{}, nil, nil, nil, &hubSpy{})
	release := make(chan struct{})
	started := make(chan struct{})
	var runs int32
	var mu sync.Mutex

	job := s.guard("slow", func(context.Context) error {
		mu.Lock()
		runs++
		mu.Unlock()
		close(started)
		<-release
		return nil
	})

	done := make(chan struct{})
	go func() { job(); close(done) }()
	<-started
	job() // returns immediately
	close(release)
	<-done

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, int32(1), runs)
}

func TestStartRejectsBadSpec(t *testing.T) {
	s := NewScheduler(config.JobsConfig{OverdueScanSpec: "not a spec"}, &overdueList{}, nil, nil, &hubSpy{})
	assert.Error(t, s.Start())
}

func TestStartAndStop(t *testing.T) {
	s := NewScheduler(config.JobsConfig{OverdueScanSpec: "@every 1h"}, &overdueList{}, nil, nil, &hubSpy{})
	require.NoError(t, s.Start())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
