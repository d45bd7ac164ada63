package projects

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/indusops/opsdesk/internal/models"
	"github.com/indusops/opsdesk/internal/services/audit"
	"github.com/indusops/opsdesk/internal/session"
	"github.com/indusops/opsdesk/internal/upstream"
	"github.com/indusops/opsdesk/internal/utils"
	"github.com/indusops/opsdesk/internal/workflow"
	"golang.org/x/sync/errgroup"
)

// Upstream is the part of the upstream client this service uses
type Upstream interface {
	SaveProjectForm(ctx context.Context, req models.SaveProjectFormRequest) (*upstream.Result, error)
	ListProjectForms(ctx context.Context, formType models.ProjectFormType) ([]models.ProjectForm, error)
}

// SaveInput is a stage document as submitted by a form
type SaveInput struct {
	FormID      int64           `json:"formId,omitempty"`
	FormType    string          `json:"formType"`
	ProjectName string          `json:"projectName"`
	ClientName  string          `json:"clientName,omitempty"`
	BookingNo   string          `json:"bookingNo,omitempty"`
	FormData    json.RawMessage `json:"formData"`
}

// Service tracks SDO/JDO/Commercial/PN stage documents
type Service struct {
	api Upstream
	rec audit.Recorder
}

func NewService(api Upstream, rec audit.Recorder) *Service {
	return &Service{api: api, rec: rec}
}

// List returns forms of one type, or of every type when formType is empty,
// newest first. Each form's JSON blob is decoded into Fields.
func (s *Service) List(ctx context.Context, formType string) ([]models.ProjectForm, error) {
	var types []models.ProjectFormType
	if strings.TrimSpace(formType) == "" {
		types = models.ProjectFormTypes
	} else {
		ft, ok := models.ParseProjectFormType(formType)
		if !ok {
			return nil, fmt.Errorf("%w: unknown form type %q", workflow.ErrInvalid, formType)
		}
		types = []models.ProjectFormType{ft}
	}

	results := make([][]models.ProjectForm, len(types))
	g, gctx := errgroup.WithContext(ctx)
	for i, ft := range types {
		i, ft := i, ft
		g.Go(func() error {
			forms, err := s.api.ListProjectForms(gctx, ft)
			if err != nil {
				return fmt.Errorf("failed to load %s forms: %w", ft, err)
			}
			results[i] = forms
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []models.ProjectForm
	for i, forms := range results {
		for _, f := range forms {
			if f.FormType == "" {
				f.FormType = types[i]
			}
			if f.Fields == nil {
				f.Fields = decodeFields(f.FormDataJSON)
			}
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if out == nil {
		out = []models.ProjectForm{}
	}
	return out, nil
}

// Timeline groups every stage document by project and reports progress
func (s *Service) Timeline(ctx context.Context) ([]workflow.ProjectProgress, error) {
	forms, err := s.List(ctx, "")
	if err != nil {
		return nil, err
	}
	return workflow.Timeline(forms), nil
}

// Save stores a stage document. The form data must be a JSON object.
func (s *Service) Save(ctx context.Context, in SaveInput) (*upstream.Result, error) {
	ft, ok := models.ParseProjectFormType(in.FormType)
	if !ok {
		return nil, fmt.Errorf("%w: unknown form type %q", workflow.ErrInvalid, in.FormType)
	}
	name := strings.TrimSpace(in.ProjectName)
	if name == "" {
		return nil, fmt.Errorf("%w: project name is required", workflow.ErrInvalid)
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(in.FormData, &obj); err != nil || obj == nil {
		return nil, fmt.Errorf("%w: form data must be a JSON object", workflow.ErrInvalid)
	}

	req := models.SaveProjectFormRequest{
		FormID:       in.FormID,
		FormType:     string(ft),
		ProjectName:  name,
		ClientName:   strings.TrimSpace(in.ClientName),
		BookingNo:    strings.TrimSpace(in.BookingNo),
		FormDataJSON: string(in.FormData),
	}
	if user, ok := session.UserFrom(ctx); ok && user.UpstreamUserID > 0 {
		req.UserID = strconv.FormatInt(user.UpstreamUserID, 10)
	}

	res, err := s.api.SaveProjectForm(ctx, req)
	id := in.FormID
	if res != nil && res.ID != 0 {
		id = res.ID
	}
	s.rec.Record(ctx, audit.Entry{
		Action:     "project." + strings.ToLower(string(ft)) + ".saved",
		EntityType: "project_form",
		EntityID:   id,
		Payload:    map[string]string{"formType": string(ft), "projectName": name, "bookingNo": req.BookingNo},
		Err:        err,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save %s form: %w", ft, err)
	}
	return res, nil
}

func decodeFields(raw json.RawMessage) map[string]interface{} {
	if len(raw) == 0 {
		return map[string]interface{}{}
	}
	v, err := utils.Unwrap(raw)
	if err != nil {
		return map[string]interface{}{}
	}
	if m, ok := v.(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{}
}
