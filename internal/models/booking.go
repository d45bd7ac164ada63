package models

import (
	"strings"
	"time"
)

// QuoteStatus is the approval status of a booking (quotation)
type QuoteStatus string

const (
	QuoteCosting            QuoteStatus = "Costing"
	QuoteSentToHOD          QuoteStatus = "Sent to HOD"
	QuoteSentToVerticalHead QuoteStatus = "Sent to Vertical Head"
	QuoteApproved           QuoteStatus = "Approved"
	QuoteDisapproved        QuoteStatus = "Disapproved"
)

// QuoteStatuses lists the known statuses in workflow order
var QuoteStatuses = []QuoteStatus{QuoteCosting, QuoteSentToHOD, QuoteSentToVerticalHead, QuoteApproved, QuoteDisapproved}

// NormalizeQuoteStatus maps upstream spellings onto the known statuses
func NormalizeQuoteStatus(s string) QuoteStatus {
	key := strings.ToLower(strings.Join(strings.Fields(s), " "))
	switch key {
	case "", "costing", "draft", "new":
		return QuoteCosting
	case "sent to hod", "senttohod", "pending hod":
		return QuoteSentToHOD
	case "sent to vertical head", "senttoverticalhead", "pending vertical head":
		return QuoteSentToVerticalHead
	case "approved", "approve":
		return QuoteApproved
	case "disapproved", "rejected", "reject":
		return QuoteDisapproved
	}
	return QuoteStatus(strings.TrimSpace(s))
}

// Booking is the upstream term for a quotation
type Booking struct {
	BookingID  int64       `json:"bookingId"`
	BookingNo  string      `json:"bookingNo"`
	ClientName string      `json:"clientName,omitempty"`
	JobName    string      `json:"jobName,omitempty"`
	Quantity   float64     `json:"quantity,omitempty"`
	Status     QuoteStatus `json:"status"`
	Margin     float64     `json:"margin"`
	QuotedCost float64     `json:"quotedCost"`
	FinalCost  float64     `json:"finalCost"`
	Remark     string      `json:"remark,omitempty"`
	CreatedBy  string      `json:"createdBy,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// UnmarshalJSON decodes a booking from any of the casings upstream emits
func (b *Booking) UnmarshalJSON(data []byte) error {
	m, err := decodeFields(data)
	if err != nil {
		return err
	}
	*b = Booking{
		BookingID:  m.int64("bookingId", "BookingID", "BookingId", "booking_id"),
		BookingNo:  m.str("bookingNo", "BookingNo", "booking_no", "QuotationNo"),
		ClientName: m.str("clientName", "ClientName", "LedgerName", "client_name"),
		JobName:    m.str("jobName", "JobName", "job_name", "ProductName"),
		Quantity:   m.float("quantity", "Quantity", "OrderQuantity"),
		Status:     NormalizeQuoteStatus(m.str("status", "Status", "QuoteStatus", "quote_status")),
		Margin:     m.float("margin", "Margin", "MarginPercent", "margin_percent"),
		QuotedCost: m.float("quotedCost", "QuotedCost", "quoted_cost", "QuotedAmount"),
		FinalCost:  m.float("finalCost", "FinalCost", "final_cost", "TotalCost"),
		Remark:     m.str("remark", "Remark", "Remarks", "remarks"),
		CreatedBy:  m.str("createdBy", "CreatedBy", "created_by", "UserName"),
		CreatedAt:  m.time("createdAt", "CreatedAt", "CreatedDate", "BookingDate", "created_at"),
	}
	return nil
}

// BookingFilter is the body of getbookingdata
type BookingFilter struct {
	FromDate string `json:"FromDate,omitempty"`
	ToDate   string `json:"ToDate,omitempty"`
	Status   string `json:"Status,omitempty"`
}

// UpdateQuoteStatusRequest is the body of updateqoutestatus
type UpdateQuoteStatusRequest struct {
	BookingID int64  `json:"BookingID"`
	Status    string `json:"Status"`
	Remark    string `json:"Remark,omitempty"`
	UserID    string `json:"UserID,omitempty"`
}
