package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/indusops/opsdesk/internal/models"
	"github.com/indusops/opsdesk/internal/services/quotation"
	"github.com/indusops/opsdesk/internal/services/ratequery"
	"github.com/indusops/opsdesk/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rateSource struct {
	board workflow.Board
	err   error
}

func (r rateSource) Board(context.Context, ratequery.Scope) (workflow.Board, error) {
	return r.board, r.err
}

type quoteSource struct {
	views []workflow.QuotationView
	err   error
}

func (q quoteSource) List(context.Context, quotation.Filter) ([]workflow.QuotationView, error) {
	return q.views, q.err
}

type draftSource struct {
	drafts []models.Draft
	err    error
}

func (d draftSource) List(context.Context, string) ([]models.Draft, error) {
	return d.drafts, d.err
}

type enquirySource struct {
	from, to *string
	list     []models.Enquiry
	err      error
}

func (e enquirySource) List(_ context.Context, from, to, _ string) ([]models.Enquiry, error) {
	if e.from != nil {
		*e.from, *e.to = from, to
	}
	return e.list, e.err
}

var now = time.Date(2026, 10, 2, 12, 0, 0, 0, time.UTC)

func TestSummaryAllSections(t *testing.T) {
	board := workflow.EmptyBoard(now)
	board.Total = 3
	views := []workflow.QuotationView{
		{Booking: models.Booking{Status: models.QuoteSentToHOD}, AwaitingMe: true, Urgency: workflow.UrgencyHigh},
		{Booking: models.Booking{Status: models.QuoteApproved}, Urgency: workflow.UrgencyHigh},
		{Booking: models.Booking{Status: models.QuoteCosting}},
	}
	drafts := make([]models.Draft, 8)
	var from, to string

	s := NewService(rateSource{board: board}, quoteSource{views: views}, draftSource{drafts: drafts},
		enquirySource{from: &from, to: &to, list: []models.Enquiry{{EnquiryNo: "E-1"}}})
	s.now = func() time.Time { return now }

	sum := s.Summary(context.Background(), ratequery.ScopeAll)
	assert.Empty(t, sum.Errors)
	assert.Equal(t, 3, sum.RateQueries.Total)
	assert.Equal(t, 3, sum.Quotations.Total)
	assert.Equal(t, 1, sum.Quotations.Counts["Sent to HOD"])
	assert.Equal(t, 0, sum.Quotations.Counts["Disapproved"])
	assert.Len(t, sum.Quotations.AwaitingMe, 1)
	assert.Equal(t, 1, sum.Quotations.HighUrgent)
	assert.Len(t, sum.RecentDrafts, recentLimit)
	assert.Len(t, sum.RecentEnquiries, 1)
	assert.Equal(t, "2026-09-02", from)
	assert.Equal(t, "2026-10-02", to)
}

func TestSummaryFailedBranchesFallBack(t *testing.T) {
	s := NewService(
		rateSource{err: errors.New("rate queries down")},
		quoteSource{views: []workflow.QuotationView{{Booking: models.Booking{Status: models.QuoteCosting}}}},
		draftSource{err: errors.New("drafts down")},
		enquirySource{},
	)
	s.now = func() time.Time { return now }

	sum := s.Summary(context.Background(), ratequery.ScopeMine)
	require.Len(t, sum.Errors, 2)
	assert.Equal(t, "rate queries down", sum.Errors["rateQueries"])
	assert.Equal(t, "drafts down", sum.Errors["drafts"])

	assert.NotNil(t, sum.RateQueries.Pending, "failed board keeps its empty shape")
	assert.Equal(t, 0, sum.RateQueries.Total)
	assert.NotNil(t, sum.RecentDrafts)
	assert.Empty(t, sum.RecentDrafts)
	assert.NotNil(t, sum.RecentEnquiries, "nil upstream list becomes empty")
	assert.Equal(t, 1, sum.Quotations.Total)
}
