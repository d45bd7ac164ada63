package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/indusops/opsdesk/internal/config"
	"github.com/indusops/opsdesk/internal/models"
)

var t0 = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

func rq(id int64, status models.RateQueryStatus, created time.Time) models.RateQuery {
	return models.RateQuery{RequestID: id, CurrentStatus: status, CreatedAt: created}
}

func TestClassify(t *testing.T) {
	r := DefaultRules()
	now := t0.Add(25 * time.Hour)

	tests := []struct {
		name string
		q    models.RateQuery
		want Bucket
	}{
		{"pending past 24h is overdue", rq(1, models.RateQueryPending, t0), BucketOverdue},
		{"pending within 24h", rq(2, models.RateQueryPending, now.Add(-23*time.Hour)), BucketPending},
		{"exactly 24h is not yet overdue", rq(3, models.RateQueryPending, now.Add(-24*time.Hour)), BucketPending},
		{"responded never overdue", rq(4, models.RateQueryResponded, t0.Add(-30*24*time.Hour)), BucketResponded},
		{"escalated never overdue", rq(5, models.RateQueryEscalated, t0.Add(-30*24*time.Hour)), BucketEscalated},
		{"pending without timestamp", rq(6, models.RateQueryPending, time.Time{}), BucketPending},
		{"unknown status", rq(7, "Cancelled", t0), BucketOther},
		{"missing status never overdue", rq(8, models.NormalizeRateQueryStatus(""), t0.Add(-30*24*time.Hour)), BucketOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Classify(tt.q, now); got != tt.want {
				t.Errorf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestOverdueThresholdIsConfigurable(t *testing.T) {
	r := NewRules(config.WorkflowConfig{OverdueAfter: 4 * time.Hour})
	q := rq(1, models.RateQueryPending, t0)

	if r.Classify(q, t0.Add(5*time.Hour)) != BucketOverdue {
		t.Error("expected overdue after 5h with a 4h threshold")
	}
	if got := r.HoursOverdue(q, t0.Add(7*time.Hour)); got != 3 {
		t.Errorf("HoursOverdue = %d, want 3", got)
	}
	if got := HoursPending(q, t0.Add(7*time.Hour+30*time.Minute)); got != 7 {
		t.Errorf("HoursPending = %d, want 7", got)
	}
}

func TestBoardPlacesEachQueryOnce(t *testing.T) {
	r := DefaultRules()
	now := t0.Add(72 * time.Hour)
	queries := []models.RateQuery{
		rq(1, models.RateQueryPending, t0),                    // overdue, oldest
		rq(2, models.RateQueryPending, t0.Add(24*time.Hour)),  // overdue
		rq(3, models.RateQueryPending, now.Add(-time.Hour)),   // pending
		rq(4, models.RateQueryPending, now.Add(-2*time.Hour)), // pending
		rq(5, models.RateQueryResponded, t0),                  // responded
		rq(6, models.RateQueryEscalated, t0.Add(time.Hour)),   // escalated
	}

	b := r.BuildBoard(queries, now)

	if b.Total != len(queries) {
		t.Fatalf("Total = %d, want %d", b.Total, len(queries))
	}
	sum := len(b.Pending) + len(b.Overdue) + len(b.Responded) + len(b.Escalated) + len(b.Other)
	if sum != len(queries) {
		t.Fatalf("bucket sizes sum to %d, want %d", sum, len(queries))
	}
	if b.Counts[BucketOverdue] != 2 || b.Counts[BucketPending] != 2 {
		t.Errorf("unexpected counts %v", b.Counts)
	}
	if b.Overdue[0].RequestID != 1 {
		t.Errorf("overdue should list oldest first, got %d", b.Overdue[0].RequestID)
	}
	if b.Pending[0].RequestID != 3 {
		t.Errorf("pending should list newest first, got %d", b.Pending[0].RequestID)
	}
	for _, v := range b.Pending {
		if v.Overdue {
			t.Errorf("query %d in pending is flagged overdue", v.RequestID)
		}
	}
	if b.Overdue[0].Badge.Tone != ToneDanger {
		t.Errorf("overdue badge tone = %s", b.Overdue[0].Badge.Tone)
	}
}

func TestEmptyBoardShape(t *testing.T) {
	b := EmptyBoard(t0)
	if b.Pending == nil || b.Overdue == nil || b.Responded == nil || b.Escalated == nil {
		t.Error("empty board buckets must be non-nil")
	}
}

func TestRateQueryTransitions(t *testing.T) {
	tests := []struct {
		from, to models.RateQueryStatus
		ok       bool
	}{
		{models.RateQueryPending, models.RateQueryResponded, true},
		{models.RateQueryPending, models.RateQueryEscalated, true},
		{models.RateQueryEscalated, models.RateQueryResponded, true},
		{models.RateQueryEscalated, models.RateQueryEscalated, false},
		{models.RateQueryResponded, models.RateQueryEscalated, false},
		{models.RateQueryResponded, models.RateQueryResponded, false},
	}
	for _, tt := range tests {
		err := CheckRateQueryTransition(rq(1, tt.from, t0), tt.to)
		if tt.ok && err != nil {
			t.Errorf("%s -> %s: unexpected error %v", tt.from, tt.to, err)
		}
		if !tt.ok && !errors.Is(err, ErrIllegalTransition) {
			t.Errorf("%s -> %s: want ErrIllegalTransition, got %v", tt.from, tt.to, err)
		}
	}
}

func TestValidateRate(t *testing.T) {
	if err := ValidateRate(0); !errors.Is(err, ErrInvalid) {
		t.Errorf("zero rate: got %v", err)
	}
	if err := ValidateRate(-3); !errors.Is(err, ErrInvalid) {
		t.Errorf("negative rate: got %v", err)
	}
	if err := ValidateRate(0.01); err != nil {
		t.Errorf("positive rate: got %v", err)
	}
}

func TestDeriveLevel(t *testing.T) {
	r := DefaultRules()
	tests := []struct {
		name     string
		margin   float64
		status   models.QuoteStatus
		level    Level
		conflict bool
	}{
		{"thin margin costing", 4.5, models.QuoteCosting, LevelL2, false},
		{"healthy margin costing", 12, models.QuoteCosting, LevelL1, false},
		{"boundary margin 5 is L1", 5, models.QuoteCosting, LevelL1, false},
		{"status HOD overrides thin margin", 4.5, models.QuoteSentToHOD, LevelL1, true},
		{"status VH overrides healthy margin", 20, models.QuoteSentToVerticalHead, LevelL2, true},
		{"status VH agrees with margin", 3, models.QuoteSentToVerticalHead, LevelL2, false},
		{"approved falls back to margin", 2, models.QuoteApproved, LevelL2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, conflict := r.DeriveLevel(models.Booking{Margin: tt.margin, Status: tt.status})
			if level != tt.level || conflict != tt.conflict {
				t.Errorf("DeriveLevel() = (%s, %v), want (%s, %v)", level, conflict, tt.level, tt.conflict)
			}
		})
	}
}

func TestUrgencyAndRouting(t *testing.T) {
	r := DefaultRules()
	if r.Urgency(9.99) != UrgencyHigh || r.Urgency(10) != UrgencyNormal {
		t.Error("urgency threshold should be 10")
	}
	if r.RouteTarget(4) != models.QuoteSentToVerticalHead {
		t.Error("thin margin should route to vertical head")
	}
	if r.RouteTarget(8) != models.QuoteSentToHOD {
		t.Error("healthy margin should route to HOD")
	}

	r = NewRules(config.WorkflowConfig{L2MarginBelow: 8, HighUrgencyMarginBelow: 15})
	if r.RouteTarget(7) != models.QuoteSentToVerticalHead || r.Urgency(12) != UrgencyHigh {
		t.Error("configured thresholds not applied")
	}
}

func TestQuoteTransitions(t *testing.T) {
	tests := []struct {
		from, to models.QuoteStatus
		ok       bool
	}{
		{models.QuoteCosting, models.QuoteSentToHOD, true},
		{models.QuoteCosting, models.QuoteSentToVerticalHead, true},
		{models.QuoteCosting, models.QuoteApproved, false},
		{models.QuoteSentToHOD, models.QuoteApproved, true},
		{models.QuoteSentToVerticalHead, models.QuoteDisapproved, true},
		{models.QuoteApproved, models.QuoteDisapproved, false},
		{models.QuoteDisapproved, models.QuoteSentToHOD, false},
	}
	for _, tt := range tests {
		err := CheckQuoteTransition(models.Booking{BookingNo: "QT-1", Status: tt.from}, tt.to)
		if tt.ok != (err == nil) {
			t.Errorf("%s -> %s: got err %v", tt.from, tt.to, err)
		}
		if err != nil && !errors.Is(err, ErrIllegalTransition) {
			t.Errorf("%s -> %s: want ErrIllegalTransition, got %v", tt.from, tt.to, err)
		}
	}
}

func TestCanApprove(t *testing.T) {
	tests := []struct {
		role  string
		level Level
		ok    bool
	}{
		{models.RoleHOD, LevelL1, true},
		{models.RoleHOD, LevelL2, false},
		{models.RoleVerticalHead, LevelL2, true},
		{models.RoleVerticalHead, LevelL1, true},
		{models.RoleAdmin, LevelL2, true},
		{models.RoleKAM, LevelL1, false},
	}
	for _, tt := range tests {
		if got := CanApprove(tt.role, tt.level); got != tt.ok {
			t.Errorf("CanApprove(%s, %s) = %v", tt.role, tt.level, got)
		}
	}
	if err := CheckApprover(models.RoleHOD, LevelL2); !errors.Is(err, ErrForbidden) {
		t.Errorf("want ErrForbidden, got %v", err)
	}
}

func TestViewQuotationAwaitingMe(t *testing.T) {
	r := DefaultRules()
	b := models.Booking{BookingID: 1, Margin: 3, Status: models.QuoteSentToVerticalHead}

	if v := r.ViewQuotation(b, models.RoleHOD); v.AwaitingMe {
		t.Error("HOD should not be awaited on an L2 quote")
	}
	v := r.ViewQuotation(b, models.RoleVerticalHead)
	if !v.AwaitingMe || v.Approver != "Vertical Head" || v.Urgency != UrgencyHigh {
		t.Errorf("unexpected view %+v", v)
	}
}

func TestViewsDecodeDerivedFields(t *testing.T) {
	r := DefaultRules()

	data, err := json.Marshal(r.ViewRateQuery(rq(1, models.RateQueryPending, t0), t0.Add(30*time.Hour)))
	if err != nil {
		t.Fatal(err)
	}
	var rv RateQueryView
	if err := json.Unmarshal(data, &rv); err != nil {
		t.Fatal(err)
	}
	if rv.RequestID != 1 || rv.Bucket != BucketOverdue || !rv.Overdue || rv.HoursOverdue != 6 || rv.Badge.Tone != ToneDanger {
		t.Errorf("rate query view lost fields: %+v", rv)
	}

	data, err = json.Marshal(r.ViewQuotation(models.Booking{BookingID: 4, Margin: 3, Status: models.QuoteSentToVerticalHead}, models.RoleVerticalHead))
	if err != nil {
		t.Fatal(err)
	}
	var qv QuotationView
	if err := json.Unmarshal(data, &qv); err != nil {
		t.Fatal(err)
	}
	if qv.BookingID != 4 || qv.Level != LevelL2 || qv.Approver != "Vertical Head" || !qv.AwaitingMe || qv.Urgency != UrgencyHigh {
		t.Errorf("quotation view lost fields: %+v", qv)
	}
}

func TestStatusBadge(t *testing.T) {
	tests := []struct {
		in   string
		want Badge
	}{
		{"Pending", Badge{"Pending", ToneWarning}},
		{"  sent to   HOD ", Badge{"Sent to HOD", ToneWarning}},
		{"APPROVED", Badge{"Approved", ToneSuccess}},
		{"on hold", Badge{"On Hold", ToneNeutral}},
		{"", Badge{"Unknown", ToneNeutral}},
	}
	for _, tt := range tests {
		if got := StatusBadge(tt.in); got != tt.want {
			t.Errorf("StatusBadge(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestTimeline(t *testing.T) {
	forms := []models.ProjectForm{
		{FormID: 1, FormType: models.FormSDO, ProjectName: "Mango Pouch", BookingNo: "BK-7", CreatedAt: t0},
		{FormID: 2, FormType: models.FormJDO, ProjectName: "Mango Pouch", BookingNo: "bk-7", CreatedAt: t0.Add(time.Hour)},
		{FormID: 3, FormType: models.FormSDO, ProjectName: "Soap Carton", CreatedAt: t0.Add(2 * time.Hour)},
		{FormID: 4, FormType: models.FormPN, ProjectName: "soap  carton", CreatedAt: t0.Add(3 * time.Hour)},
		{FormID: 5, FormType: "Unknown", ProjectName: "Ignored", CreatedAt: t0},
		{FormID: 6, FormType: models.FormSDO, CreatedAt: t0},
	}

	got := Timeline(forms)
	if len(got) != 2 {
		t.Fatalf("got %d projects, want 2", len(got))
	}

	soap := got[0]
	if soap.Key != "project:soap carton" || soap.Current != models.FormPN || !soap.Complete || soap.Next != "" {
		t.Errorf("unexpected soap progress %+v", soap)
	}
	if len(soap.Missing) != 2 || soap.Missing[0] != models.FormJDO || soap.Missing[1] != models.FormCommercial {
		t.Errorf("soap missing = %v", soap.Missing)
	}

	mango := got[1]
	if mango.Current != models.FormJDO || mango.Next != models.FormCommercial || mango.Complete {
		t.Errorf("unexpected mango progress %+v", mango)
	}
	if len(mango.Completed) != 2 || mango.FormIDs["JDO"] != 2 {
		t.Errorf("mango completed = %v, ids = %v", mango.Completed, mango.FormIDs)
	}
}

func TestSettleHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if err := Settle(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Settle() = %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Settle did not return promptly on cancellation")
	}
	if err := Settle(context.Background(), time.Millisecond); err != nil {
		t.Errorf("Settle() = %v", err)
	}
}
