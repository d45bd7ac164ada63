// Package dashboard assembles the landing-page summary from every workflow.
package dashboard

import (
	"context"
	"log"
	"time"

	"github.com/indusops/opsdesk/internal/models"
	"github.com/indusops/opsdesk/internal/services/quotation"
	"github.com/indusops/opsdesk/internal/services/ratequery"
	"github.com/indusops/opsdesk/internal/workflow"
	"golang.org/x/sync/errgroup"
)

const recentLimit = 5

type RateQuerySource interface {
	Board(ctx context.Context, scope ratequery.Scope) (workflow.Board, error)
}

type QuotationSource interface {
	List(ctx context.Context, f quotation.Filter) ([]workflow.QuotationView, error)
}

type DraftSource interface {
	List(ctx context.Context, module string) ([]models.Draft, error)
}

type EnquirySource interface {
	List(ctx context.Context, from, to, status string) ([]models.Enquiry, error)
}

// QuotationSummary counts quotations per status and lists those waiting on
// the caller
type QuotationSummary struct {
	Counts     map[string]int           `json:"counts"`
	Total      int                      `json:"total"`
	AwaitingMe []workflow.QuotationView `json:"awaitingMe"`
	HighUrgent int                      `json:"highUrgency"`
}

// Summary is the dashboard payload. A section whose source failed holds its
// empty value and the failure is reported in Errors under the section name.
type Summary struct {
	RateQueries     workflow.Board    `json:"rateQueries"`
	Quotations      QuotationSummary  `json:"quotations"`
	RecentDrafts    []models.Draft    `json:"recentDrafts"`
	RecentEnquiries []models.Enquiry  `json:"recentEnquiries"`
	Errors          map[string]string `json:"errors,omitempty"`
	GeneratedAt     time.Time         `json:"generatedAt"`
}

type Service struct {
	rates      RateQuerySource
	quotations QuotationSource
	drafts     DraftSource
	enquiries  EnquirySource
	now        func() time.Time
}

func NewService(rates RateQuerySource, quotations QuotationSource, drafts DraftSource, enquiries EnquirySource) *Service {
	return &Service{rates: rates, quotations: quotations, drafts: drafts, enquiries: enquiries, now: time.Now}
}

// Summary loads all sections concurrently. It never fails as a whole.
func (s *Service) Summary(ctx context.Context, scope ratequery.Scope) Summary {
	now := s.now()
	out := Summary{
		RateQueries:     workflow.EmptyBoard(now),
		Quotations:      emptyQuotations(),
		RecentDrafts:    []models.Draft{},
		RecentEnquiries: []models.Enquiry{},
		GeneratedAt:     now,
	}
	errs := make([]error, 4)

	// Branch errors are kept per section instead of cancelling siblings
	var g errgroup.Group
	g.Go(func() error {
		board, err := s.rates.Board(ctx, scope)
		if err != nil {
			errs[0] = err
			return nil
		}
		out.RateQueries = board
		return nil
	})
	g.Go(func() error {
		views, err := s.quotations.List(ctx, quotation.Filter{})
		if err != nil {
			errs[1] = err
			return nil
		}
		out.Quotations = summarizeQuotations(views)
		return nil
	})
	g.Go(func() error {
		list, err := s.drafts.List(ctx, "")
		if err != nil {
			errs[2] = err
			return nil
		}
		out.RecentDrafts = head(list, recentLimit)
		return nil
	})
	g.Go(func() error {
		to := now.Format("2006-01-02")
		from := now.AddDate(0, 0, -30).Format("2006-01-02")
		list, err := s.enquiries.List(ctx, from, to, "")
		if err != nil {
			errs[3] = err
			return nil
		}
		out.RecentEnquiries = head(list, recentLimit)
		return nil
	})
	_ = g.Wait()

	for i, name := range []string{"rateQueries", "quotations", "drafts", "enquiries"} {
		if errs[i] == nil {
			continue
		}
		if out.Errors == nil {
			out.Errors = map[string]string{}
		}
		out.Errors[name] = errs[i].Error()
		log.Printf("⚠️  dashboard %s: %v", name, errs[i])
	}
	return out
}

func emptyQuotations() QuotationSummary {
	counts := map[string]int{}
	for _, st := range models.QuoteStatuses {
		counts[string(st)] = 0
	}
	return QuotationSummary{Counts: counts, AwaitingMe: []workflow.QuotationView{}}
}

func summarizeQuotations(views []workflow.QuotationView) QuotationSummary {
	sum := emptyQuotations()
	sum.Total = len(views)
	for _, v := range views {
		sum.Counts[string(v.Status)]++
		if v.AwaitingMe {
			sum.AwaitingMe = append(sum.AwaitingMe, v)
		}
		if v.Urgency == workflow.UrgencyHigh && workflow.IsAwaitingApproval(v.Status) {
			sum.HighUrgent++
		}
	}
	return sum
}

func head[T any](list []T, n int) []T {
	if list == nil {
		return []T{}
	}
	if len(list) > n {
		return list[:n]
	}
	return list
}
