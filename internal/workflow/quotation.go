package workflow

import (
	"encoding/json"
	"fmt"

	"github.com/indusops/opsdesk/internal/models"
)

// Level is the approval tier a quotation needs
type Level string

const (
	LevelL1 Level = "L1" // HOD
	LevelL2 Level = "L2" // Vertical Head
)

// Approver names the role that signs off on a level
func (l Level) Approver() string {
	if l == LevelL2 {
		return "Vertical Head"
	}
	return "HOD"
}

type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyNormal Urgency = "normal"
)

// MarginLevel derives the level from margin alone
func (r Rules) MarginLevel(margin float64) Level {
	if margin < r.L2MarginBelow {
		return LevelL2
	}
	return LevelL1
}

// DeriveLevel returns the displayed level of b. A status naming an approver
// wins over the margin; conflict is true when the two disagree.
func (r Rules) DeriveLevel(b models.Booking) (level Level, conflict bool) {
	byMargin := r.MarginLevel(b.Margin)
	switch b.Status {
	case models.QuoteSentToHOD:
		return LevelL1, byMargin != LevelL1
	case models.QuoteSentToVerticalHead:
		return LevelL2, byMargin != LevelL2
	}
	return byMargin, false
}

// Urgency flags thin-margin quotations
func (r Rules) Urgency(margin float64) Urgency {
	if margin < r.HighUrgencyMarginBelow {
		return UrgencyHigh
	}
	return UrgencyNormal
}

// RouteTarget is the status a costed quotation is sent to for approval
func (r Rules) RouteTarget(margin float64) models.QuoteStatus {
	if r.MarginLevel(margin) == LevelL2 {
		return models.QuoteSentToVerticalHead
	}
	return models.QuoteSentToHOD
}

// QuotationView is a booking with its derived approval fields
type QuotationView struct {
	models.Booking
	Level         Level   `json:"level"`
	LevelConflict bool    `json:"levelConflict"`
	Approver      string  `json:"approver"`
	Urgency       Urgency `json:"urgency"`
	Badge         Badge   `json:"badge"`
	AwaitingMe    bool    `json:"awaitingMe"`
}

// UnmarshalJSON decodes the booking and then the derived approval fields
func (v *QuotationView) UnmarshalJSON(data []byte) error {
	if err := v.Booking.UnmarshalJSON(data); err != nil {
		return err
	}
	var derived struct {
		Level         Level   `json:"level"`
		LevelConflict bool    `json:"levelConflict"`
		Approver      string  `json:"approver"`
		Urgency       Urgency `json:"urgency"`
		Badge         Badge   `json:"badge"`
		AwaitingMe    bool    `json:"awaitingMe"`
	}
	if err := json.Unmarshal(data, &derived); err != nil {
		return err
	}
	v.Level = derived.Level
	v.LevelConflict = derived.LevelConflict
	v.Approver = derived.Approver
	v.Urgency = derived.Urgency
	v.Badge = derived.Badge
	v.AwaitingMe = derived.AwaitingMe
	return nil
}

// ViewQuotation derives display fields for b as seen by a user with role
func (r Rules) ViewQuotation(b models.Booking, role string) QuotationView {
	level, conflict := r.DeriveLevel(b)
	return QuotationView{
		Booking:       b,
		Level:         level,
		LevelConflict: conflict,
		Approver:      level.Approver(),
		Urgency:       r.Urgency(b.Margin),
		Badge:         StatusBadge(string(b.Status)),
		AwaitingMe:    IsAwaitingApproval(b.Status) && CanApprove(role, level),
	}
}

// IsAwaitingApproval reports whether status sits with an approver
func IsAwaitingApproval(s models.QuoteStatus) bool {
	return s == models.QuoteSentToHOD || s == models.QuoteSentToVerticalHead
}

// CanTransitionQuote reports whether from -> to is allowed
func CanTransitionQuote(from, to models.QuoteStatus) bool {
	switch from {
	case models.QuoteCosting:
		return IsAwaitingApproval(to)
	case models.QuoteSentToHOD, models.QuoteSentToVerticalHead:
		return to == models.QuoteApproved || to == models.QuoteDisapproved
	}
	return false
}

// CheckQuoteTransition returns ErrIllegalTransition when b cannot move to to
func CheckQuoteTransition(b models.Booking, to models.QuoteStatus) error {
	if !CanTransitionQuote(b.Status, to) {
		return fmt.Errorf("%w: quotation %s is %q, cannot become %q", ErrIllegalTransition, bookingRef(b), b.Status, to)
	}
	return nil
}

// CanApprove reports whether role may decide a quotation at level.
// L2 needs a vertical head; L1 accepts an HOD or anyone above.
func CanApprove(role string, level Level) bool {
	switch role {
	case models.RoleAdmin, models.RoleVerticalHead:
		return true
	case models.RoleHOD:
		return level == LevelL1
	}
	return false
}

// CheckApprover returns ErrForbidden when role cannot decide at level
func CheckApprover(role string, level Level) error {
	if !CanApprove(role, level) {
		return fmt.Errorf("%w: %s approval needs %s", ErrForbidden, level, level.Approver())
	}
	return nil
}

func bookingRef(b models.Booking) string {
	if b.BookingNo != "" {
		return b.BookingNo
	}
	return fmt.Sprintf("#%d", b.BookingID)
}
