package models

import "time"

// Enquiry is an incoming customer inquiry
type Enquiry struct {
	EnquiryID   int64     `json:"enquiryId"`
	EnquiryNo   string    `json:"enquiryNo"`
	EnquiryDate time.Time `json:"enquiryDate"`
	ClientName  string    `json:"clientName"`
	ProductName string    `json:"productName"`
	Quantity    float64   `json:"quantity"`
	SalesPerson string    `json:"salesPerson,omitempty"`
	Status      string    `json:"status"`
	Remark      string    `json:"remark,omitempty"`
}

// UnmarshalJSON decodes an enquiry from any of the casings upstream emits
func (e *Enquiry) UnmarshalJSON(data []byte) error {
	m, err := decodeFields(data)
	if err != nil {
		return err
	}
	*e = Enquiry{
		EnquiryID:   m.int64("enquiryId", "EnquiryID", "EnquiryId", "enquiry_id"),
		EnquiryNo:   m.str("enquiryNo", "EnquiryNo", "EnquiryNumber", "enquiry_no"),
		EnquiryDate: m.time("enquiryDate", "EnquiryDate", "enquiry_date", "CreatedDate"),
		ClientName:  m.str("clientName", "ClientName", "LedgerName", "client_name"),
		ProductName: m.str("productName", "ProductName", "JobName", "product_name"),
		Quantity:    m.float("quantity", "Quantity", "Qty"),
		SalesPerson: m.str("salesPerson", "SalesPerson", "SalesPersonName", "EmployeeName"),
		Status:      m.str("status", "Status", "EnquiryStatus"),
		Remark:      m.str("remark", "Remark", "Remarks"),
	}
	if e.Status == "" {
		e.Status = "Open"
	}
	return nil
}

// EnquiryFilter is the body of getmshowlistdata
type EnquiryFilter struct {
	FromDate string `json:"FromDate,omitempty"`
	ToDate   string `json:"ToDate,omitempty"`
	Status   string `json:"Status,omitempty"`
}

// CreateEnquiryRequest is the body of saveenquiry
type CreateEnquiryRequest struct {
	EnquiryNo    string  `json:"EnquiryNo"`
	ClientID     int64   `json:"ClientID,omitempty"`
	ClientName   string  `json:"ClientName"`
	ProductName  string  `json:"ProductName"`
	Quantity     float64 `json:"Quantity"`
	Remark       string  `json:"Remark,omitempty"`
	SalesPerson  string  `json:"SalesPerson,omitempty"`
	ProductionID string  `json:"ProductionUnitID,omitempty"`
}
