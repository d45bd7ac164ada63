package ratequery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/indusops/opsdesk/internal/config"
	"github.com/indusops/opsdesk/internal/models"
	"github.com/indusops/opsdesk/internal/services/audit"
	"github.com/indusops/opsdesk/internal/session"
	"github.com/indusops/opsdesk/internal/upstream"
	"github.com/indusops/opsdesk/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUpstream struct {
	mock.Mock
}

func (m *mockUpstream) CreateRateRequest(ctx context.Context, req models.CreateRateQueryRequest) (*upstream.Result, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*upstream.Result)
	return res, args.Error(1)
}

func (m *mockUpstream) ProvideRate(ctx context.Context, req models.ProvideRateRequest) (*upstream.Result, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*upstream.Result)
	return res, args.Error(1)
}

func (m *mockUpstream) EscalateRateRequest(ctx context.Context, req models.EscalateRateQueryRequest) (*upstream.Result, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*upstream.Result)
	return res, args.Error(1)
}

func (m *mockUpstream) GetUserRateRequests(ctx context.Context, userID int64) ([]models.RateQuery, error) {
	args := m.Called(ctx, userID)
	list, _ := args.Get(0).([]models.RateQuery)
	return list, args.Error(1)
}

func (m *mockUpstream) GetAllRateRequests(ctx context.Context) ([]models.RateQuery, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]models.RateQuery)
	return list, args.Error(1)
}

type recorder struct {
	entries []audit.Entry
}

func (r *recorder) Record(_ context.Context, e audit.Entry) {
	r.entries = append(r.entries, e)
}

var now = time.Date(2026, 10, 2, 12, 0, 0, 0, time.UTC)

func newService(api Upstream, rec audit.Recorder) *Service {
	s := NewService(api, rec, config.WorkflowConfig{OverdueAfter: 24 * time.Hour})
	s.now = func() time.Time { return now }
	return s
}

func kamCtx() context.Context {
	return session.WithUser(context.Background(), session.User{ID: "u1", Name: "Ravi", Role: models.RoleKAM, Department: "Sales", UpstreamUserID: 2}, upstream.Identity{})
}

func purchaseCtx() context.Context {
	return session.WithUser(context.Background(), session.User{ID: "u4", Name: "Neha", Role: models.RolePurchase, Department: "Purchase", UpstreamUserID: 4}, upstream.Identity{})
}

func TestCreateUsesSessionIdentity(t *testing.T) {
	api := new(mockUpstream)
	rec := &recorder{}
	s := newService(api, rec)

	api.On("CreateRateRequest", mock.Anything, models.CreateRateQueryRequest{
		RequestorID: 2, Department: "Sales", RequestMessage: "Rate for 12mic PET",
	}).Return(&upstream.Result{ID: 77}, nil).Once()
	api.On("GetUserRateRequests", mock.Anything, int64(2)).Return([]models.RateQuery{
		{RequestID: 77, CurrentStatus: models.RateQueryPending, CreatedAt: now},
	}, nil).Once()

	views, err := s.Create(kamCtx(), "  Rate for 12mic PET ")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, workflow.BucketPending, views[0].Bucket)

	require.Len(t, rec.entries, 1)
	assert.Equal(t, "rate_query.created", rec.entries[0].Action)
	assert.Equal(t, int64(77), rec.entries[0].EntityID)
	api.AssertExpectations(t)
}

func TestCreateRejectsEmptyMessage(t *testing.T) {
	s := newService(new(mockUpstream), &recorder{})
	_, err := s.Create(kamCtx(), "   ")
	assert.ErrorIs(t, err, workflow.ErrInvalid)
}

func TestCreateWithoutSessionIsForbidden(t *testing.T) {
	s := newService(new(mockUpstream), &recorder{})
	_, err := s.Create(context.Background(), "rate please")
	assert.ErrorIs(t, err, workflow.ErrForbidden)
}

func TestProvideRate(t *testing.T) {
	api := new(mockUpstream)
	rec := &recorder{}
	s := newService(api, rec)

	pending := []models.RateQuery{{RequestID: 5, CurrentStatus: models.RateQueryPending, CreatedAt: now.Add(-30 * time.Hour)}}
	responded := []models.RateQuery{{RequestID: 5, CurrentStatus: models.RateQueryResponded, CreatedAt: now.Add(-30 * time.Hour)}}

	api.On("GetAllRateRequests", mock.Anything).Return(pending, nil).Once()
	api.On("ProvideRate", mock.Anything, models.ProvideRateRequest{RequestID: 5, Rate: 182.5, RespondedBy: 4, Remarks: "valid 7 days"}).
		Return(&upstream.Result{Message: "ok"}, nil).Once()
	api.On("GetAllRateRequests", mock.Anything).Return(responded, nil).Once()

	views, err := s.ProvideRate(purchaseCtx(), 5, 182.5, "valid 7 days")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, workflow.BucketResponded, views[0].Bucket)
	assert.False(t, views[0].Overdue)
	api.AssertExpectations(t)
}

func TestProvideRateValidation(t *testing.T) {
	api := new(mockUpstream)
	s := newService(api, &recorder{})

	_, err := s.ProvideRate(purchaseCtx(), 5, 0, "")
	assert.ErrorIs(t, err, workflow.ErrInvalid)
	api.AssertNotCalled(t, "GetAllRateRequests", mock.Anything)
}

func TestProvideRateOnRespondedIsIllegal(t *testing.T) {
	api := new(mockUpstream)
	s := newService(api, &recorder{})
	api.On("GetAllRateRequests", mock.Anything).Return([]models.RateQuery{
		{RequestID: 5, CurrentStatus: models.RateQueryResponded},
	}, nil)

	_, err := s.ProvideRate(purchaseCtx(), 5, 10, "")
	assert.ErrorIs(t, err, workflow.ErrIllegalTransition)
	api.AssertNotCalled(t, "ProvideRate", mock.Anything, mock.Anything)
}

func TestEscalateUnknownQuery(t *testing.T) {
	api := new(mockUpstream)
	s := newService(api, &recorder{})
	api.On("GetAllRateRequests", mock.Anything).Return([]models.RateQuery{}, nil)

	_, err := s.Escalate(purchaseCtx(), 99, "")
	assert.ErrorIs(t, err, workflow.ErrNotFound)
}

func TestEscalateUpstreamFailureIsAudited(t *testing.T) {
	api := new(mockUpstream)
	rec := &recorder{}
	s := newService(api, rec)
	upstreamErr := &upstream.APIError{Message: "not allowed", Reported: true}

	api.On("GetAllRateRequests", mock.Anything).Return([]models.RateQuery{
		{RequestID: 8, CurrentStatus: models.RateQueryPending},
	}, nil)
	api.On("EscalateRateRequest", mock.Anything, mock.Anything).Return(nil, upstreamErr)

	_, err := s.Escalate(purchaseCtx(), 8, "no supplier quote")
	var apiErr *upstream.APIError
	assert.True(t, errors.As(err, &apiErr))
	require.Len(t, rec.entries, 1)
	assert.Error(t, rec.entries[0].Err)
}

func TestBoardScopeMine(t *testing.T) {
	api := new(mockUpstream)
	s := newService(api, &recorder{})
	api.On("GetUserRateRequests", mock.Anything, int64(2)).Return([]models.RateQuery{
		{RequestID: 1, CurrentStatus: models.RateQueryPending, CreatedAt: now.Add(-25 * time.Hour)},
		{RequestID: 2, CurrentStatus: models.RateQueryResponded, CreatedAt: now.Add(-25 * time.Hour)},
	}, nil)

	b, err := s.Board(kamCtx(), ParseScope("mine"))
	require.NoError(t, err)
	assert.Len(t, b.Overdue, 1)
	assert.Len(t, b.Responded, 1)
	assert.Empty(t, b.Pending)
}

func TestRefreshHonoursCancellation(t *testing.T) {
	api := new(mockUpstream)
	s := NewService(api, &recorder{}, config.WorkflowConfig{RefreshDelay: time.Hour})
	api.On("GetAllRateRequests", mock.Anything).Return([]models.RateQuery{{RequestID: 3, CurrentStatus: models.RateQueryEscalated}}, nil)
	api.On("ProvideRate", mock.Anything, mock.Anything).Return(&upstream.Result{}, nil)

	ctx, cancel := context.WithTimeout(purchaseCtx(), 20*time.Millisecond)
	defer cancel()

	_, err := s.ProvideRate(ctx, 3, 99, "")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
