package models

import (
	"encoding/json"
	"strings"
	"time"
)

// ProjectFormType identifies a project-stage document
type ProjectFormType string

const (
	FormSDO        ProjectFormType = "SDO"
	FormJDO        ProjectFormType = "JDO"
	FormCommercial ProjectFormType = "Commercial"
	FormPN         ProjectFormType = "PN"
)

// ProjectFormTypes lists stages in the order a project moves through them
var ProjectFormTypes = []ProjectFormType{FormSDO, FormJDO, FormCommercial, FormPN}

// ParseProjectFormType matches a form type case-insensitively
func ParseProjectFormType(s string) (ProjectFormType, bool) {
	for _, ft := range ProjectFormTypes {
		if strings.EqualFold(string(ft), strings.TrimSpace(s)) {
			return ft, true
		}
	}
	return "", false
}

// ProjectForm is an opaque stage document stored upstream as a JSON blob
type ProjectForm struct {
	FormID       int64                  `json:"formId"`
	FormType     ProjectFormType        `json:"formType"`
	ProjectName  string                 `json:"projectName"`
	ClientName   string                 `json:"clientName,omitempty"`
	BookingNo    string                 `json:"bookingNo,omitempty"`
	CreatedBy    string                 `json:"createdBy,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
	FormDataJSON json.RawMessage        `json:"formDataJson,omitempty"`
	Fields       map[string]interface{} `json:"fields,omitempty"`
}

// UnmarshalJSON decodes a project form from any of the casings upstream emits
func (f *ProjectForm) UnmarshalJSON(data []byte) error {
	m, err := decodeFields(data)
	if err != nil {
		return err
	}
	ft, ok := ParseProjectFormType(m.str("formType", "FormType", "form_type", "Type"))
	if !ok {
		ft = ProjectFormType(m.str("formType", "FormType", "form_type", "Type"))
	}
	*f = ProjectForm{
		FormID:       m.int64("formId", "FormID", "FormId", "form_id", "ID", "id"),
		FormType:     ft,
		ProjectName:  m.str("projectName", "ProjectName", "project_name", "JobName"),
		ClientName:   m.str("clientName", "ClientName", "client_name", "LedgerName"),
		BookingNo:    m.str("bookingNo", "BookingNo", "booking_no", "QuotationNo"),
		CreatedBy:    m.str("createdBy", "CreatedBy", "created_by"),
		CreatedAt:    m.time("createdAt", "CreatedAt", "created_at", "CreatedDate"),
		FormDataJSON: m.raw("formDataJson", "FormDataJSON", "FormDataJson", "form_data_json", "FormData"),
	}
	if fields, ok := m["fields"].(map[string]interface{}); ok {
		f.Fields = fields
	}
	return nil
}

// SaveProjectFormRequest is the body of save-JDO-SDO
type SaveProjectFormRequest struct {
	FormID       int64  `json:"FormID,omitempty"`
	FormType     string `json:"FormType"`
	ProjectName  string `json:"ProjectName"`
	ClientName   string `json:"ClientName,omitempty"`
	BookingNo    string `json:"BookingNo,omitempty"`
	UserID       string `json:"UserID,omitempty"`
	FormDataJSON string `json:"FormDataJSON"`
}
