package drafts

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/indusops/opsdesk/internal/config"
	"github.com/indusops/opsdesk/internal/models"
	"github.com/indusops/opsdesk/internal/services/audit"
	"github.com/indusops/opsdesk/internal/session"
	"github.com/indusops/opsdesk/internal/upstream"
	"github.com/indusops/opsdesk/internal/utils"
	"github.com/indusops/opsdesk/internal/workflow"
)

// Upstream is the part of the upstream client this service uses
type Upstream interface {
	ListDrafts(ctx context.Context, userID int64, module string) ([]models.Draft, error)
	GetDraft(ctx context.Context, draftID int64) (*models.Draft, error)
	SaveDraft(ctx context.Context, req models.SaveDraftRequest) (*upstream.Result, error)
	DeleteDraft(ctx context.Context, draftID int64) (*upstream.Result, error)
	DeleteOldDrafts(ctx context.Context, req models.DeleteOldDraftsRequest) (*upstream.Result, error)
}

// LoadedDraft is a draft with its form data decoded for rehydration
type LoadedDraft struct {
	models.Draft
	FormData interface{} `json:"formData"`
}

// UnmarshalJSON keeps formData, which the embedded Draft decoder drops
func (d *LoadedDraft) UnmarshalJSON(data []byte) error {
	if err := d.Draft.UnmarshalJSON(data); err != nil {
		return err
	}
	var rest struct {
		FormData interface{} `json:"formData"`
	}
	if err := json.Unmarshal(data, &rest); err != nil {
		return err
	}
	d.FormData = rest.FormData
	return nil
}

// SaveInput is a draft as submitted by a form
type SaveInput struct {
	DraftID    int64           `json:"draftId,omitempty"`
	DraftName  string          `json:"draftName"`
	Module     string          `json:"module"`
	FormType   string          `json:"formType"`
	IsAutoSave bool            `json:"isAutoSave"`
	FormData   json.RawMessage `json:"formData"`
}

// Service manages the caller's saved form drafts
type Service struct {
	api           Upstream
	rec           audit.Recorder
	retentionDays int
	now           func() time.Time
}

func NewService(api Upstream, rec audit.Recorder, cfg config.WorkflowConfig) *Service {
	days := cfg.DraftRetentionDays
	if days <= 0 {
		days = 30
	}
	return &Service{api: api, rec: rec, retentionDays: days, now: time.Now}
}

// List returns the caller's drafts for module (all modules when empty),
// most recently updated first
func (s *Service) List(ctx context.Context, module string) ([]models.Draft, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.api.ListDrafts(ctx, userID, strings.TrimSpace(module))
	if err != nil {
		return nil, fmt.Errorf("failed to load drafts: %w", err)
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].UpdatedAt.After(list[j].UpdatedAt) })
	return list, nil
}

// Get loads one of the caller's drafts and decodes its form data, however
// many times the upstream encoded it
func (s *Service) Get(ctx context.Context, draftID int64) (*LoadedDraft, error) {
	d, err := s.owned(ctx, draftID)
	if err != nil {
		return nil, err
	}

	loaded := &LoadedDraft{Draft: *d, FormData: map[string]interface{}{}}
	if len(d.FormDataJSON) > 0 {
		if v, err := utils.Unwrap(d.FormDataJSON); err == nil && v != nil {
			loaded.FormData = v
		}
	}
	return loaded, nil
}

// Save creates or updates a draft. Autosaves and unnamed drafts get a
// generated name.
func (s *Service) Save(ctx context.Context, in SaveInput) (*upstream.Result, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	in.Module = strings.TrimSpace(in.Module)
	if in.Module == "" {
		return nil, fmt.Errorf("%w: module is required", workflow.ErrInvalid)
	}
	formType, err := normalizeFormType(in.FormType)
	if err != nil {
		return nil, err
	}
	if len(in.FormData) == 0 || !json.Valid(in.FormData) {
		return nil, fmt.Errorf("%w: form data must be valid JSON", workflow.ErrInvalid)
	}
	if in.DraftID != 0 {
		if _, err := s.owned(ctx, in.DraftID); err != nil {
			return nil, err
		}
	}

	name := strings.TrimSpace(in.DraftName)
	if name == "" {
		prefix := "Draft"
		if in.IsAutoSave {
			prefix = "Autosave"
		}
		name = fmt.Sprintf("%s - %s - %s", prefix, in.Module, s.now().Format("02 Jan 2006 15:04"))
	}

	req := models.SaveDraftRequest{
		DraftID:      in.DraftID,
		DraftName:    name,
		Module:       in.Module,
		FormType:     formType,
		IsAutoSave:   in.IsAutoSave,
		UserID:       userID,
		FormDataJSON: string(in.FormData),
	}
	res, err := s.api.SaveDraft(ctx, req)
	id := in.DraftID
	if res != nil && res.ID != 0 {
		id = res.ID
	}
	// Autosaves fire constantly; only manual saves go to the activity log
	if !in.IsAutoSave || err != nil {
		s.rec.Record(ctx, audit.Entry{Action: "draft.saved", EntityType: "draft", EntityID: id, Payload: map[string]interface{}{"name": name, "module": in.Module}, Err: err})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}
	return res, nil
}

// Delete removes one of the caller's drafts
func (s *Service) Delete(ctx context.Context, draftID int64) error {
	if _, err := s.owned(ctx, draftID); err != nil {
		return err
	}
	_, err := s.api.DeleteDraft(ctx, draftID)
	s.rec.Record(ctx, audit.Entry{Action: "draft.deleted", EntityType: "draft", EntityID: draftID, Err: err})
	if err != nil {
		return fmt.Errorf("failed to delete draft %d: %w", draftID, err)
	}
	return nil
}

// DeleteOld removes the caller's drafts older than days, or the configured
// retention when days is not positive
func (s *Service) DeleteOld(ctx context.Context, days int) (*upstream.Result, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	return s.deleteOld(ctx, userID, days)
}

// DeleteOldFor is DeleteOld on behalf of userID, for background cleanup
func (s *Service) DeleteOldFor(ctx context.Context, userID int64, days int) (*upstream.Result, error) {
	return s.deleteOld(ctx, userID, days)
}

func (s *Service) deleteOld(ctx context.Context, userID int64, days int) (*upstream.Result, error) {
	if days <= 0 {
		days = s.retentionDays
	}
	req := models.DeleteOldDraftsRequest{UserID: userID, OlderThanDays: days}
	res, err := s.api.DeleteOldDrafts(ctx, req)
	s.rec.Record(ctx, audit.Entry{Action: "draft.cleanup", EntityType: "draft", EntityID: userID, Payload: req, Err: err})
	if err != nil {
		return nil, fmt.Errorf("failed to delete old drafts: %w", err)
	}
	return res, nil
}

// owned loads draftID and hides it unless the caller owns it. Drafts the
// upstream returns without an owner are treated as the caller's.
func (s *Service) owned(ctx context.Context, draftID int64) (*models.Draft, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	d, err := s.api.GetDraft(ctx, draftID)
	if err != nil {
		if upstream.IsNotFound(err) {
			return nil, fmt.Errorf("%w: draft %d", workflow.ErrNotFound, draftID)
		}
		return nil, fmt.Errorf("failed to load draft %d: %w", draftID, err)
	}
	if d == nil || d.DraftID == 0 || (d.UserID != 0 && d.UserID != userID) {
		return nil, fmt.Errorf("%w: draft %d", workflow.ErrNotFound, draftID)
	}
	return d, nil
}

func normalizeFormType(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", strings.ToLower(models.FormTypeManualForm):
		return models.FormTypeManualForm, nil
	case strings.ToLower(models.FormTypeDynamicFill):
		return models.FormTypeDynamicFill, nil
	}
	return "", fmt.Errorf("%w: unknown form type %q", workflow.ErrInvalid, s)
}

func callerID(ctx context.Context) (int64, error) {
	user, ok := session.UserFrom(ctx)
	if !ok || user.UpstreamUserID == 0 {
		return 0, fmt.Errorf("%w: caller has no upstream user id", workflow.ErrForbidden)
	}
	return user.UpstreamUserID, nil
}
