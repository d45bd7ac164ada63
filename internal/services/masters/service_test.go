package masters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/indusops/opsdesk/internal/cache"
	"github.com/indusops/opsdesk/internal/models"
	"github.com/indusops/opsdesk/internal/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUpstream struct {
	mock.Mock
}

func (m *mockUpstream) GetProductionUnits(ctx context.Context) ([]models.ProductionUnit, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]models.ProductionUnit)
	return list, args.Error(1)
}

func (m *mockUpstream) GetClients(ctx context.Context) ([]models.Client, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]models.Client)
	return list, args.Error(1)
}

func companyCtx(id string) context.Context {
	return upstream.WithIdentity(context.Background(), upstream.Identity{CompanyID: id})
}

func TestProductionUnitsAreCached(t *testing.T) {
	api := new(mockUpstream)
	api.On("GetProductionUnits", mock.Anything).
		Return([]models.ProductionUnit{{ProductionUnitID: 1, ProductionUnitName: "Daman"}}, nil).Once()
	s := NewService(api, cache.NewMemory(), time.Minute)
	ctx := companyCtx("2")

	first, err := s.ProductionUnits(ctx)
	require.NoError(t, err)
	second, err := s.ProductionUnits(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	api.AssertNumberOfCalls(t, "GetProductionUnits", 1)
}

func TestCacheIsPerCompany(t *testing.T) {
	api := new(mockUpstream)
	api.On("GetClients", mock.Anything).Return([]models.Client{{ClientID: 1, ClientName: "Acme"}}, nil)
	s := NewService(api, cache.NewMemory(), time.Minute)

	_, err := s.Clients(companyCtx("2"))
	require.NoError(t, err)
	_, err = s.Clients(companyCtx("3"))
	require.NoError(t, err)

	api.AssertNumberOfCalls(t, "GetClients", 2)
}

func TestInvalidate(t *testing.T) {
	api := new(mockUpstream)
	api.On("GetClients", mock.Anything).Return([]models.Client{}, nil)
	s := NewService(api, cache.NewMemory(), time.Minute)
	ctx := companyCtx("2")

	_, _ = s.Clients(ctx)
	require.NoError(t, s.Invalidate(ctx))
	_, _ = s.Clients(ctx)

	api.AssertNumberOfCalls(t, "GetClients", 2)
}

func TestErrorsAreNotCached(t *testing.T) {
	api := new(mockUpstream)
	api.On("GetClients", mock.Anything).Return(nil, errors.New("down")).Once()
	api.On("GetClients", mock.Anything).Return([]models.Client{{ClientID: 7}}, nil).Once()
	s := NewService(api, cache.NewMemory(), time.Minute)
	ctx := context.Background()

	_, err := s.Clients(ctx)
	require.Error(t, err)

	clients, err := s.Clients(ctx)
	require.NoError(t, err)
	assert.Len(t, clients, 1)
}
