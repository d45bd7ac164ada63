package quotation

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/indusops/opsdesk/internal/config"
	"github.com/indusops/opsdesk/internal/models"
	"github.com/indusops/opsdesk/internal/services/audit"
	"github.com/indusops/opsdesk/internal/services/printer"
	"github.com/indusops/opsdesk/internal/session"
	"github.com/indusops/opsdesk/internal/upstream"
	"github.com/indusops/opsdesk/internal/workflow"
)

// Upstream is the part of the upstream client this service uses
type Upstream interface {
	GetBookings(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error)
	UpdateQuoteStatus(ctx context.Context, req models.UpdateQuoteStatusRequest) (*upstream.Result, error)
}

// Filter narrows the quotation list
type Filter struct {
	FromDate   string
	ToDate     string
	Status     string
	Level      string
	Search     string
	AwaitingMe bool
}

// Service runs the quotation approval workflow
type Service struct {
	api          Upstream
	rec          audit.Recorder
	rules        workflow.Rules
	refreshDelay time.Duration
}

func NewService(api Upstream, rec audit.Recorder, cfg config.WorkflowConfig) *Service {
	return &Service{
		api:          api,
		rec:          rec,
		rules:        workflow.NewRules(cfg),
		refreshDelay: cfg.RefreshDelay,
	}
}

// List returns quotations with derived level, urgency and badge, newest first
func (s *Service) List(ctx context.Context, f Filter) ([]workflow.QuotationView, error) {
	bookings, err := s.api.GetBookings(ctx, models.BookingFilter{FromDate: f.FromDate, ToDate: f.ToDate})
	if err != nil {
		return nil, fmt.Errorf("failed to load quotations: %w", err)
	}

	user, _ := session.UserFrom(ctx)
	status := models.NormalizeQuoteStatus(f.Status)
	level := workflow.Level(strings.ToUpper(strings.TrimSpace(f.Level)))
	search := strings.ToLower(strings.TrimSpace(f.Search))

	views := make([]workflow.QuotationView, 0, len(bookings))
	for _, b := range bookings {
		v := s.rules.ViewQuotation(b, user.Role)
		if f.Status != "" && v.Status != status {
			continue
		}
		if level != "" && v.Level != level {
			continue
		}
		if f.AwaitingMe && !v.AwaitingMe {
			continue
		}
		if search != "" && !matches(v.Booking, search) {
			continue
		}
		views = append(views, v)
	}
	sort.SliceStable(views, func(i, j int) bool { return views[i].CreatedAt.After(views[j].CreatedAt) })
	return views, nil
}

// SendForApproval routes a costed quotation to HOD or Vertical Head by margin
func (s *Service) SendForApproval(ctx context.Context, bookingID int64, remark string) ([]workflow.QuotationView, error) {
	b, err := s.find(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	target := s.rules.RouteTarget(b.Margin)
	if err := workflow.CheckQuoteTransition(*b, target); err != nil {
		return nil, err
	}
	return s.update(ctx, *b, target, remark, "quotation.submitted")
}

// Approve signs off a quotation awaiting the caller's level
func (s *Service) Approve(ctx context.Context, bookingID int64, remark string) ([]workflow.QuotationView, error) {
	return s.decide(ctx, bookingID, models.QuoteApproved, remark, "quotation.approved")
}

// Disapprove rejects a quotation; a remark is required
func (s *Service) Disapprove(ctx context.Context, bookingID int64, remark string) ([]workflow.QuotationView, error) {
	if strings.TrimSpace(remark) == "" {
		return nil, fmt.Errorf("%w: a remark is required to disapprove", workflow.ErrInvalid)
	}
	return s.decide(ctx, bookingID, models.QuoteDisapproved, remark, "quotation.disapproved")
}

// Export renders the filtered list as a workbook
func (s *Service) Export(ctx context.Context, f Filter) ([]byte, error) {
	views, err := s.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return printer.QuotationsWorkbook(views)
}

func (s *Service) decide(ctx context.Context, bookingID int64, to models.QuoteStatus, remark, action string) ([]workflow.QuotationView, error) {
	b, err := s.find(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := workflow.CheckQuoteTransition(*b, to); err != nil {
		return nil, err
	}
	user, _ := session.UserFrom(ctx)
	level, _ := s.rules.DeriveLevel(*b)
	if err := workflow.CheckApprover(user.Role, level); err != nil {
		return nil, err
	}
	return s.update(ctx, *b, to, remark, action)
}

func (s *Service) update(ctx context.Context, b models.Booking, to models.QuoteStatus, remark, action string) ([]workflow.QuotationView, error) {
	req := models.UpdateQuoteStatusRequest{
		BookingID: b.BookingID,
		Status:    string(to),
		Remark:    strings.TrimSpace(remark),
	}
	if user, ok := session.UserFrom(ctx); ok && user.UpstreamUserID > 0 {
		req.UserID = strconv.FormatInt(user.UpstreamUserID, 10)
	}

	_, err := s.api.UpdateQuoteStatus(ctx, req)
	s.rec.Record(ctx, audit.Entry{Action: action, EntityType: "quotation", EntityID: b.BookingID, Payload: req, Err: err})
	if err != nil {
		return nil, fmt.Errorf("failed to update quotation %d: %w", b.BookingID, err)
	}

	if err := workflow.Settle(ctx, s.refreshDelay); err != nil {
		return nil, err
	}
	return s.List(ctx, Filter{})
}

func (s *Service) find(ctx context.Context, bookingID int64) (*models.Booking, error) {
	bookings, err := s.api.GetBookings(ctx, models.BookingFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load quotations: %w", err)
	}
	for i := range bookings {
		if bookings[i].BookingID == bookingID {
			return &bookings[i], nil
		}
	}
	return nil, fmt.Errorf("%w: quotation %d", workflow.ErrNotFound, bookingID)
}

func matches(b models.Booking, needle string) bool {
	for _, hay := range []string{b.BookingNo, b.ClientName, b.JobName, b.CreatedBy} {
		if strings.Contains(strings.ToLower(hay), needle) {
			return true
		}
	}
	return false
}
