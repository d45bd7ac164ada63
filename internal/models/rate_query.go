package models

import (
	"strings"
	"time"
)

// RateQueryStatus is the upstream lifecycle status of a rate query
type RateQueryStatus string

const (
	RateQueryPending   RateQueryStatus = "Pending"
	RateQueryResponded RateQueryStatus = "Responded"
	RateQueryEscalated RateQueryStatus = "Escalated"
	RateQueryUnknown   RateQueryStatus = "Unknown"
)

// NormalizeRateQueryStatus maps whatever casing upstream returns onto the known
// statuses. Unknown values are kept verbatim; a missing status is Unknown.
func NormalizeRateQueryStatus(s string) RateQueryStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return RateQueryUnknown
	case "pending", "open":
		return RateQueryPending
	case "responded", "answered", "completed":
		return RateQueryResponded
	case "escalated":
		return RateQueryEscalated
	}
	return RateQueryStatus(strings.TrimSpace(s))
}

// RateQuery is a KAM's request for a material/process rate, answered by
// Purchase or Operations.
type RateQuery struct {
	RequestID      int64           `json:"requestId"`
	RequestorID    int64           `json:"requestorId"`
	RequestorName  string          `json:"requestorName,omitempty"`
	Department     string          `json:"department"`
	RequestMessage string          `json:"requestMessage"`
	CurrentStatus  RateQueryStatus `json:"currentStatus"`
	Rate           *float64        `json:"rate,omitempty"`
	RespondedBy    string          `json:"respondedBy,omitempty"`
	EscalatedTo    string          `json:"escalatedTo,omitempty"`
	Remarks        string          `json:"remarks,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	RespondedAt    *time.Time      `json:"respondedAt,omitempty"`
}

// UnmarshalJSON decodes a rate query from any of the casings upstream emits
func (q *RateQuery) UnmarshalJSON(data []byte) error {
	m, err := decodeFields(data)
	if err != nil {
		return err
	}
	*q = RateQuery{
		RequestID:      m.int64("requestId", "RequestID", "RequestId", "request_id", "id", "ID"),
		RequestorID:    m.int64("requestorId", "RequestorID", "RequestorId", "requestor_id", "UserID"),
		RequestorName:  m.str("requestorName", "RequestorName", "requestor_name", "UserName"),
		Department:     m.str("department", "Department", "DepartmentName", "department_name"),
		RequestMessage: m.str("requestMessage", "RequestMessage", "request_message", "Message", "message"),
		CurrentStatus:  NormalizeRateQueryStatus(m.str("currentStatus", "CurrentStatus", "current_status", "Status", "status")),
		Rate:           m.floatPtr("rate", "Rate", "ProvidedRate", "provided_rate"),
		RespondedBy:    m.str("respondedBy", "RespondedBy", "responded_by"),
		EscalatedTo:    m.str("escalatedTo", "EscalatedTo", "escalated_to"),
		Remarks:        m.str("remarks", "Remarks", "Remark", "remark"),
		CreatedAt:      m.time("createdAt", "CreatedAt", "created_at", "CreatedDate", "RequestDate"),
		RespondedAt:    m.timePtr("respondedAt", "RespondedAt", "responded_at", "ResponseDate"),
	}
	return nil
}

// IsTerminal reports whether no further transitions are possible
func (q RateQuery) IsTerminal() bool {
	return q.CurrentStatus == RateQueryResponded
}

// CreateRateQueryRequest is the payload for createRateRequest
type CreateRateQueryRequest struct {
	RequestorID    int64  `json:"requestorId"`
	Department     string `json:"department"`
	RequestMessage string `json:"requestMessage"`
}

// ProvideRateRequest is the payload for provideRate
type ProvideRateRequest struct {
	RequestID   int64   `json:"requestId"`
	Rate        float64 `json:"rate"`
	RespondedBy int64   `json:"respondedBy"`
	Remarks     string  `json:"remarks,omitempty"`
}

// EscalateRateQueryRequest is the payload for escalateRateRequest
type EscalateRateQueryRequest struct {
	RequestID   int64  `json:"requestId"`
	EscalatedBy int64  `json:"escalatedBy"`
	Remarks     string `json:"remarks,omitempty"`
}
