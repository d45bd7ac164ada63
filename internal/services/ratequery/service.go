package ratequery

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/indusops/opsdesk/internal/config"
	"github.com/indusops/opsdesk/internal/models"
	"github.com/indusops/opsdesk/internal/services/audit"
	"github.com/indusops/opsdesk/internal/session"
	"github.com/indusops/opsdesk/internal/upstream"
	"github.com/indusops/opsdesk/internal/workflow"
)

// Upstream is the part of the upstream client this service uses
type Upstream interface {
	CreateRateRequest(ctx context.Context, req models.CreateRateQueryRequest) (*upstream.Result, error)
	ProvideRate(ctx context.Context, req models.ProvideRateRequest) (*upstream.Result, error)
	EscalateRateRequest(ctx context.Context, req models.EscalateRateQueryRequest) (*upstream.Result, error)
	GetUserRateRequests(ctx context.Context, userID int64) ([]models.RateQuery, error)
	GetAllRateRequests(ctx context.Context) ([]models.RateQuery, error)
}

// Scope selects whose rate queries are listed
type Scope string

const (
	ScopeMine Scope = "mine"
	ScopeAll  Scope = "all"
)

// ParseScope defaults to mine
func ParseScope(s string) Scope {
	if strings.EqualFold(s, string(ScopeAll)) {
		return ScopeAll
	}
	return ScopeMine
}

// Service runs the rate-query escalation workflow
type Service struct {
	api          Upstream
	rec          audit.Recorder
	rules        workflow.Rules
	refreshDelay time.Duration
	now          func() time.Time
}

func NewService(api Upstream, rec audit.Recorder, cfg config.WorkflowConfig) *Service {
	return &Service{
		api:          api,
		rec:          rec,
		rules:        workflow.NewRules(cfg),
		refreshDelay: cfg.RefreshDelay,
		now:          time.Now,
	}
}

// List returns the caller's or everyone's rate queries with derived fields,
// newest first
func (s *Service) List(ctx context.Context, scope Scope) ([]workflow.RateQueryView, error) {
	queries, err := s.fetch(ctx, scope)
	if err != nil {
		return nil, err
	}
	now := s.now()
	views := make([]workflow.RateQueryView, len(queries))
	for i, q := range queries {
		views[i] = s.rules.ViewRateQuery(q, now)
	}
	sortNewestFirst(views)
	return views, nil
}

// Board groups the queries in scope into pending/overdue/responded/escalated
func (s *Service) Board(ctx context.Context, scope Scope) (workflow.Board, error) {
	queries, err := s.fetch(ctx, scope)
	if err != nil {
		return workflow.Board{}, err
	}
	return s.rules.BuildBoard(queries, s.now()), nil
}

// Overdue lists every query past the threshold, oldest first
func (s *Service) Overdue(ctx context.Context) ([]workflow.RateQueryView, error) {
	b, err := s.Board(ctx, ScopeAll)
	if err != nil {
		return nil, err
	}
	return b.Overdue, nil
}

// Create raises a rate query as the caller. Requestor and department come
// from the session.
func (s *Service) Create(ctx context.Context, message string) ([]workflow.RateQueryView, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: request message is required", workflow.ErrInvalid)
	}
	user, ok := session.UserFrom(ctx)
	if !ok || user.UpstreamUserID == 0 {
		return nil, fmt.Errorf("%w: caller has no upstream user id", workflow.ErrForbidden)
	}

	req := models.CreateRateQueryRequest{
		RequestorID:    user.UpstreamUserID,
		Department:     user.Department,
		RequestMessage: message,
	}
	res, err := s.api.CreateRateRequest(ctx, req)
	s.rec.Record(ctx, audit.Entry{Action: "rate_query.created", EntityType: "rate_query", EntityID: resultID(res), Payload: req, Err: err})
	if err != nil {
		return nil, fmt.Errorf("failed to create rate query: %w", err)
	}
	return s.refresh(ctx, ScopeMine)
}

// ProvideRate answers q with a positive rate
func (s *Service) ProvideRate(ctx context.Context, requestID int64, rate float64, remarks string) ([]workflow.RateQueryView, error) {
	if err := workflow.ValidateRate(rate); err != nil {
		return nil, err
	}
	q, err := s.find(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := workflow.CheckRateQueryTransition(*q, models.RateQueryResponded); err != nil {
		return nil, err
	}

	user, _ := session.UserFrom(ctx)
	req := models.ProvideRateRequest{
		RequestID:   requestID,
		Rate:        rate,
		RespondedBy: user.UpstreamUserID,
		Remarks:     strings.TrimSpace(remarks),
	}
	_, err = s.api.ProvideRate(ctx, req)
	s.rec.Record(ctx, audit.Entry{Action: "rate_query.responded", EntityType: "rate_query", EntityID: requestID, Payload: req, Err: err})
	if err != nil {
		return nil, fmt.Errorf("failed to provide rate: %w", err)
	}
	return s.refresh(ctx, ScopeAll)
}

// Escalate moves a pending query up the chain
func (s *Service) Escalate(ctx context.Context, requestID int64, remarks string) ([]workflow.RateQueryView, error) {
	q, err := s.find(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := workflow.CheckRateQueryTransition(*q, models.RateQueryEscalated); err != nil {
		return nil, err
	}

	user, _ := session.UserFrom(ctx)
	req := models.EscalateRateQueryRequest{
		RequestID:   requestID,
		EscalatedBy: user.UpstreamUserID,
		Remarks:     strings.TrimSpace(remarks),
	}
	_, err = s.api.EscalateRateRequest(ctx, req)
	s.rec.Record(ctx, audit.Entry{Action: "rate_query.escalated", EntityType: "rate_query", EntityID: requestID, Payload: req, Err: err})
	if err != nil {
		return nil, fmt.Errorf("failed to escalate rate query: %w", err)
	}
	return s.refresh(ctx, ScopeAll)
}

func (s *Service) fetch(ctx context.Context, scope Scope) ([]models.RateQuery, error) {
	if scope == ScopeAll {
		list, err := s.api.GetAllRateRequests(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load rate queries: %w", err)
		}
		return list, nil
	}
	user, ok := session.UserFrom(ctx)
	if !ok || user.UpstreamUserID == 0 {
		return nil, fmt.Errorf("%w: caller has no upstream user id", workflow.ErrForbidden)
	}
	list, err := s.api.GetUserRateRequests(ctx, user.UpstreamUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rate queries: %w", err)
	}
	return list, nil
}

// find re-reads the query so transitions are checked against fresh state
func (s *Service) find(ctx context.Context, requestID int64) (*models.RateQuery, error) {
	list, err := s.api.GetAllRateRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rate queries: %w", err)
	}
	for i := range list {
		if list[i].RequestID == requestID {
			return &list[i], nil
		}
	}
	return nil, fmt.Errorf("%w: rate query %d", workflow.ErrNotFound, requestID)
}

func (s *Service) refresh(ctx context.Context, scope Scope) ([]workflow.RateQueryView, error) {
	if err := workflow.Settle(ctx, s.refreshDelay); err != nil {
		return nil, err
	}
	return s.List(ctx, scope)
}

func sortNewestFirst(views []workflow.RateQueryView) {
	sort.SliceStable(views, func(i, j int) bool { return views[i].CreatedAt.After(views[j].CreatedAt) })
}

func resultID(res *upstream.Result) int64 {
	if res == nil {
		return 0
	}
	return res.ID
}
