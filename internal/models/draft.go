package models

import (
	"encoding/json"
	"time"
)

// Draft form types
const (
	FormTypeDynamicFill = "DynamicFill"
	FormTypeManualForm  = "ManualForm"
)

// Draft is a saved, possibly auto-saved, form state
type Draft struct {
	DraftID      int64           `json:"draftId"`
	DraftName    string          `json:"draftName"`
	Module       string          `json:"module"`
	FormType     string          `json:"formType"`
	IsAutoSave   bool            `json:"isAutoSave"`
	UserID       int64           `json:"userId,omitempty"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	FormDataJSON json.RawMessage `json:"formDataJson,omitempty"`
}

// UnmarshalJSON decodes a draft from any of the casings upstream emits
func (d *Draft) UnmarshalJSON(data []byte) error {
	m, err := decodeFields(data)
	if err != nil {
		return err
	}
	*d = Draft{
		DraftID:      m.int64("draftId", "DraftID", "DraftId", "draft_id", "id"),
		DraftName:    m.str("draftName", "DraftName", "draft_name", "Name"),
		Module:       m.str("module", "Module", "ModuleName"),
		FormType:     m.str("formType", "FormType", "form_type"),
		IsAutoSave:   m.boolean("isAutoSave", "IsAutoSave", "is_auto_save", "AutoSave"),
		UserID:       m.int64("userId", "UserID", "UserId", "user_id"),
		UpdatedAt:    m.time("updatedAt", "UpdatedAt", "updated_at", "ModifiedDate", "CreatedAt"),
		FormDataJSON: m.raw("formDataJson", "FormDataJSON", "FormDataJson", "form_data_json", "FormData"),
	}
	return nil
}

// SaveDraftRequest is the body sent to the draft save endpoint
type SaveDraftRequest struct {
	DraftID      int64  `json:"DraftID,omitempty"`
	DraftName    string `json:"DraftName"`
	Module       string `json:"Module"`
	FormType     string `json:"FormType"`
	IsAutoSave   bool   `json:"IsAutoSave"`
	UserID       int64  `json:"UserID"`
	FormDataJSON string `json:"FormDataJSON"`
}

// DeleteOldDraftsRequest removes drafts older than OlderThanDays
type DeleteOldDraftsRequest struct {
	UserID        int64 `json:"UserID"`
	OlderThanDays int   `json:"OlderThanDays"`
}
