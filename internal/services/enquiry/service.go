package enquiry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/indusops/opsdesk/internal/models"
	"github.com/indusops/opsdesk/internal/services/audit"
	"github.com/indusops/opsdesk/internal/session"
	"github.com/indusops/opsdesk/internal/upstream"
	"github.com/indusops/opsdesk/internal/workflow"
)

const dateLayout = "2006-01-02"

// Upstream is the part of the upstream client this service uses
type Upstream interface {
	ListEnquiries(ctx context.Context, filter models.EnquiryFilter) ([]models.Enquiry, error)
	NextEnquiryNo(ctx context.Context) (string, error)
	CreateEnquiry(ctx context.Context, req models.CreateEnquiryRequest) (*upstream.Result, error)
}

// CreateInput is an inquiry as captured by the intake form
type CreateInput struct {
	EnquiryNo   string  `json:"enquiryNo,omitempty"`
	ClientID    int64   `json:"clientId,omitempty"`
	ClientName  string  `json:"clientName"`
	ProductName string  `json:"productName"`
	Quantity    float64 `json:"quantity"`
	Remark      string  `json:"remark,omitempty"`
}

// Service handles customer inquiry intake
type Service struct {
	api Upstream
	rec audit.Recorder
}

func NewService(api Upstream, rec audit.Recorder) *Service {
	return &Service{api: api, rec: rec}
}

// List returns inquiries between from and to (YYYY-MM-DD, either may be
// empty), optionally narrowed by status, newest first
func (s *Service) List(ctx context.Context, from, to, status string) ([]models.Enquiry, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	var fromT, toT time.Time
	var err error
	if from != "" {
		if fromT, err = time.Parse(dateLayout, from); err != nil {
			return nil, fmt.Errorf("%w: from date %q is not YYYY-MM-DD", workflow.ErrInvalid, from)
		}
	}
	if to != "" {
		if toT, err = time.Parse(dateLayout, to); err != nil {
			return nil, fmt.Errorf("%w: to date %q is not YYYY-MM-DD", workflow.ErrInvalid, to)
		}
	}
	if from != "" && to != "" && toT.Before(fromT) {
		return nil, fmt.Errorf("%w: from date is after to date", workflow.ErrInvalid)
	}

	status = strings.TrimSpace(status)
	list, err := s.api.ListEnquiries(ctx, models.EnquiryFilter{FromDate: from, ToDate: to, Status: status})
	if err != nil {
		return nil, fmt.Errorf("failed to load enquiries: %w", err)
	}

	out := make([]models.Enquiry, 0, len(list))
	for _, e := range list {
		if status != "" && !strings.EqualFold(e.Status, status) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].EnquiryDate.After(out[j].EnquiryDate) })
	return out, nil
}

// NextNumber asks upstream for the next inquiry number
func (s *Service) NextNumber(ctx context.Context) (string, error) {
	no, err := s.api.NextEnquiryNo(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get next enquiry number: %w", err)
	}
	return no, nil
}

// Create records a new inquiry. A missing number is fetched from upstream.
func (s *Service) Create(ctx context.Context, in CreateInput) (*upstream.Result, error) {
	in.ClientName = strings.TrimSpace(in.ClientName)
	in.ProductName = strings.TrimSpace(in.ProductName)
	if in.ClientName == "" && in.ClientID == 0 {
		return nil, fmt.Errorf("%w: client is required", workflow.ErrInvalid)
	}
	if in.ProductName == "" {
		return nil, fmt.Errorf("%w: product is required", workflow.ErrInvalid)
	}
	if in.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be greater than zero", workflow.ErrInvalid)
	}

	no := strings.TrimSpace(in.EnquiryNo)
	if no == "" {
		var err error
		if no, err = s.NextNumber(ctx); err != nil {
			return nil, err
		}
	}

	req := models.CreateEnquiryRequest{
		EnquiryNo:   no,
		ClientID:    in.ClientID,
		ClientName:  in.ClientName,
		ProductName: in.ProductName,
		Quantity:    in.Quantity,
		Remark:      strings.TrimSpace(in.Remark),
	}
	if user, ok := session.UserFrom(ctx); ok {
		req.SalesPerson = user.Name
	}
	if id, ok := upstream.IdentityFrom(ctx); ok {
		req.ProductionID = id.ProductionUnitID
	}

	res, err := s.api.CreateEnquiry(ctx, req)
	var id int64
	if res != nil {
		id = res.ID
	}
	s.rec.Record(ctx, audit.Entry{Action: "enquiry.created", EntityType: "enquiry", EntityID: id, Payload: req, Err: err})
	if err != nil {
		return nil, fmt.Errorf("failed to create enquiry %s: %w", no, err)
	}
	if res == nil {
		res = &upstream.Result{}
	}
	if res.Message == "" {
		res.Message = "Enquiry " + no + " saved"
	}
	return res, nil
}
