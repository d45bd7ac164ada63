package workflow

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/indusops/opsdesk/internal/models"
)

// Bucket is the board column a rate query is shown in
type Bucket string

const (
	BucketPending   Bucket = "pending"
	BucketOverdue   Bucket = "overdue"
	BucketResponded Bucket = "responded"
	BucketEscalated Bucket = "escalated"
	BucketOther     Bucket = "other"
)

// IsOverdue reports whether q is still Pending past the overdue threshold.
// Responded and Escalated queries are never overdue.
func (r Rules) IsOverdue(q models.RateQuery, now time.Time) bool {
	if q.CurrentStatus != models.RateQueryPending || q.CreatedAt.IsZero() {
		return false
	}
	return now.Sub(q.CreatedAt) > r.OverdueAfter
}

// Classify returns the single bucket q belongs to
func (r Rules) Classify(q models.RateQuery, now time.Time) Bucket {
	switch q.CurrentStatus {
	case models.RateQueryPending:
		if r.IsOverdue(q, now) {
			return BucketOverdue
		}
		return BucketPending
	case models.RateQueryResponded:
		return BucketResponded
	case models.RateQueryEscalated:
		return BucketEscalated
	}
	return BucketOther
}

// HoursPending is the whole number of hours since q was raised
func HoursPending(q models.RateQuery, now time.Time) int {
	if q.CreatedAt.IsZero() || now.Before(q.CreatedAt) {
		return 0
	}
	return int(now.Sub(q.CreatedAt).Hours())
}

// HoursOverdue is the whole number of hours q has spent past the threshold
func (r Rules) HoursOverdue(q models.RateQuery, now time.Time) int {
	if !r.IsOverdue(q, now) {
		return 0
	}
	return int(now.Sub(q.CreatedAt.Add(r.OverdueAfter)).Hours())
}

// RateQueryView is a rate query with its derived display fields
type RateQueryView struct {
	models.RateQuery
	Bucket       Bucket `json:"bucket"`
	Overdue      bool   `json:"overdue"`
	HoursPending int    `json:"hoursPending"`
	HoursOverdue int    `json:"hoursOverdue"`
	Badge        Badge  `json:"badge"`
}

// UnmarshalJSON decodes the record through its fallback mapping and then the
// derived fields, which the embedded decoder would otherwise swallow
func (v *RateQueryView) UnmarshalJSON(data []byte) error {
	if err := v.RateQuery.UnmarshalJSON(data); err != nil {
		return err
	}
	var derived struct {
		Bucket       Bucket `json:"bucket"`
		Overdue      bool   `json:"overdue"`
		HoursPending int    `json:"hoursPending"`
		HoursOverdue int    `json:"hoursOverdue"`
		Badge        Badge  `json:"badge"`
	}
	if err := json.Unmarshal(data, &derived); err != nil {
		return err
	}
	v.Bucket = derived.Bucket
	v.Overdue = derived.Overdue
	v.HoursPending = derived.HoursPending
	v.HoursOverdue = derived.HoursOverdue
	v.Badge = derived.Badge
	return nil
}

// ViewRateQuery derives the display fields of q at now
func (r Rules) ViewRateQuery(q models.RateQuery, now time.Time) RateQueryView {
	bucket := r.Classify(q, now)
	badge := StatusBadge(string(q.CurrentStatus))
	if bucket == BucketOverdue {
		badge = StatusBadge("overdue")
	}
	return RateQueryView{
		RateQuery:    q,
		Bucket:       bucket,
		Overdue:      bucket == BucketOverdue,
		HoursPending: HoursPending(q, now),
		HoursOverdue: r.HoursOverdue(q, now),
		Badge:        badge,
	}
}

// Board groups rate queries into their buckets
type Board struct {
	Pending     []RateQueryView `json:"pending"`
	Overdue     []RateQueryView `json:"overdue"`
	Responded   []RateQueryView `json:"responded"`
	Escalated   []RateQueryView `json:"escalated"`
	Other       []RateQueryView `json:"other,omitempty"`
	Counts      map[Bucket]int  `json:"counts"`
	Total       int             `json:"total"`
	GeneratedAt time.Time       `json:"generatedAt"`
}

// EmptyBoard has the same shape as a built board with no entries
func EmptyBoard(now time.Time) Board {
	return Board{
		Pending:   []RateQueryView{},
		Overdue:   []RateQueryView{},
		Responded: []RateQueryView{},
		Escalated: []RateQueryView{},
		Counts: map[Bucket]int{
			BucketPending: 0, BucketOverdue: 0, BucketResponded: 0, BucketEscalated: 0,
		},
		GeneratedAt: now,
	}
}

// BuildBoard places every query in exactly one bucket. Buckets are sorted
// newest first except Overdue, which lists the oldest first.
func (r Rules) BuildBoard(queries []models.RateQuery, now time.Time) Board {
	b := EmptyBoard(now)
	for _, q := range queries {
		v := r.ViewRateQuery(q, now)
		switch v.Bucket {
		case BucketPending:
			b.Pending = append(b.Pending, v)
		case BucketOverdue:
			b.Overdue = append(b.Overdue, v)
		case BucketResponded:
			b.Responded = append(b.Responded, v)
		case BucketEscalated:
			b.Escalated = append(b.Escalated, v)
		default:
			b.Other = append(b.Other, v)
		}
		b.Counts[v.Bucket]++
		b.Total++
	}

	newestFirst := func(list []RateQueryView) {
		sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	}
	newestFirst(b.Pending)
	newestFirst(b.Responded)
	newestFirst(b.Escalated)
	newestFirst(b.Other)
	sort.SliceStable(b.Overdue, func(i, j int) bool { return b.Overdue[i].CreatedAt.Before(b.Overdue[j].CreatedAt) })
	return b
}

// CanTransitionRateQuery reports whether from -> to is allowed.
// Pending may become Responded or Escalated, Escalated may become Responded.
func CanTransitionRateQuery(from, to models.RateQueryStatus) bool {
	switch from {
	case models.RateQueryPending:
		return to == models.RateQueryResponded || to == models.RateQueryEscalated
	case models.RateQueryEscalated:
		return to == models.RateQueryResponded
	}
	return false
}

// CheckRateQueryTransition returns ErrIllegalTransition when q cannot move to to
func CheckRateQueryTransition(q models.RateQuery, to models.RateQueryStatus) error {
	if !CanTransitionRateQuery(q.CurrentStatus, to) {
		return fmt.Errorf("%w: rate query %d is %s, cannot become %s", ErrIllegalTransition, q.RequestID, q.CurrentStatus, to)
	}
	return nil
}

// ValidateRate rejects non-positive rates
func ValidateRate(rate float64) error {
	if rate <= 0 {
		return fmt.Errorf("%w: rate must be greater than zero", ErrInvalid)
	}
	return nil
}
