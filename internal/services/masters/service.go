package masters

import (
	"context"
	"fmt"
	"time"

	"github.com/indusops/opsdesk/internal/cache"
	"github.com/indusops/opsdesk/internal/models"
	"github.com/indusops/opsdesk/internal/upstream"
)

// Upstream is the part of the upstream client this service uses
type Upstream interface {
	GetProductionUnits(ctx context.Context) ([]models.ProductionUnit, error)
	GetClients(ctx context.Context) ([]models.Client, error)
}

// Service serves slow-changing master data through the lookup cache
type Service struct {
	api   Upstream
	cache cache.Cache
	ttl   time.Duration
}

func NewService(api Upstream, c cache.Cache, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Service{api: api, cache: c, ttl: ttl}
}

// ProductionUnits returns the caller's company plants
func (s *Service) ProductionUnits(ctx context.Context) ([]models.ProductionUnit, error) {
	units, err := cache.Remember(ctx, s.cache, key(ctx, "production-units"), s.ttl, s.api.GetProductionUnits)
	if err != nil {
		return nil, fmt.Errorf("failed to load production units: %w", err)
	}
	if units == nil {
		units = []models.ProductionUnit{}
	}
	return units, nil
}

// Clients returns the caller's company customer ledgers
func (s *Service) Clients(ctx context.Context) ([]models.Client, error) {
	clients, err := cache.Remember(ctx, s.cache, key(ctx, "clients"), s.ttl, s.api.GetClients)
	if err != nil {
		return nil, fmt.Errorf("failed to load clients: %w", err)
	}
	if clients == nil {
		clients = []models.Client{}
	}
	return clients, nil
}

// Invalidate drops the cached lookups of the caller's company
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Delete(ctx, key(ctx, "production-units"), key(ctx, "clients"))
}

// Master data differs per company, so keys carry the company id
func key(ctx context.Context, name string) string {
	company := "default"
	if id, ok := upstream.IdentityFrom(ctx); ok && id.CompanyID != "" {
		company = id.CompanyID
	}
	return "masters:" + company + ":" + name
}
