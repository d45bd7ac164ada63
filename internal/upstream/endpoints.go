package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/indusops/opsdesk/internal/models"
	"github.com/indusops/opsdesk/internal/utils"
)

const (
	PathEnquiryList   = "/api/enquiry/getmshowlistdata"
	PathEnquiryNumber = "/api/enquiry/getenquiryno"
	PathEnquirySave   = "/api/enquiry/saveenquiry"

	PathBookingData       = "/api/planwindow/getbookingdata"
	PathUpdateQuoteStatus = "/api/planwindow/updateqoutestatus"
	PathClients           = "/api/planwindow/GetSbClient"

	PathProductionUnits = "/api/othermaster/getproductionunits"
	PathSaveProjectForm = "/api/othermaster/save-JDO-SDO"
	PathProjectForms    = "/api/othermaster/get-JDO-SDO"

	PathRateCreate   = "/api/ratequery/createRateRequest"
	PathRateProvide  = "/api/ratequery/provideRate"
	PathRateEscalate = "/api/ratequery/escalateRateRequest"
	PathRateForUser  = "/api/ratequery/getUserRateRequests"
	PathRateAll      = "/api/ratequery/getAllRateRequests"

	PathDraftList      = "/api/drafts/getDrafts"
	PathDraftGet       = "/api/drafts/getDraft"
	PathDraftSave      = "/api/drafts/saveDraft"
	PathDraftDelete    = "/api/drafts/deleteDraft"
	PathDraftDeleteOld = "/api/drafts/deleteOldDrafts"

	PathCostingChat = "/api/aicosting/chat"
)

// --- Enquiries ---

func (c *Client) ListEnquiries(ctx context.Context, filter models.EnquiryFilter) ([]models.Enquiry, error) {
	var out []models.Enquiry
	if err := c.GetList(ctx, http.MethodPost, PathEnquiryList, nil, filter, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// NextEnquiryNo returns the number the next saved enquiry should carry
func (c *Client) NextEnquiryNo(ctx context.Context) (string, error) {
	raw, err := c.Do(ctx, http.MethodGet, PathEnquiryNumber, nil, nil)
	if err != nil {
		return "", err
	}
	v, err := utils.Unwrap(raw)
	if err != nil {
		return "", fmt.Errorf("%w: decoding %s: %v", ErrTransport, PathEnquiryNumber, err)
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case float64:
		return strconv.FormatInt(int64(t), 10), nil
	case map[string]interface{}:
		for _, key := range []string{"enquiryNo", "EnquiryNo", "EnquiryNumber", "data", "Data"} {
			switch n := t[key].(type) {
			case string:
				return n, nil
			case float64:
				return strconv.FormatInt(int64(n), 10), nil
			}
		}
	case []interface{}:
		if len(t) > 0 {
			if obj, ok := t[0].(map[string]interface{}); ok {
				if n, ok := obj["EnquiryNo"].(string); ok {
					return n, nil
				}
			}
		}
	}
	return "", fmt.Errorf("%w: no enquiry number in response", ErrTransport)
}

func (c *Client) CreateEnquiry(ctx context.Context, req models.CreateEnquiryRequest) (*Result, error) {
	return c.Action(ctx, http.MethodPost, PathEnquirySave, req)
}

// --- Bookings (quotations) ---

func (c *Client) GetBookings(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	var out []models.Booking
	if err := c.GetList(ctx, http.MethodPost, PathBookingData, nil, filter, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateQuoteStatus(ctx context.Context, req models.UpdateQuoteStatusRequest) (*Result, error) {
	return c.Action(ctx, http.MethodPost, PathUpdateQuoteStatus, req)
}

// --- Masters ---

func (c *Client) GetClients(ctx context.Context) ([]models.Client, error) {
	var out []models.Client
	if err := c.GetList(ctx, http.MethodGet, PathClients, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetProductionUnits(ctx context.Context) ([]models.ProductionUnit, error) {
	var out []models.ProductionUnit
	if err := c.GetList(ctx, http.MethodGet, PathProductionUnits, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// --- Project forms ---

func (c *Client) SaveProjectForm(ctx context.Context, req models.SaveProjectFormRequest) (*Result, error) {
	return c.Action(ctx, http.MethodPost, PathSaveProjectForm, req)
}

// ListProjectForms returns saved forms, optionally narrowed to one type
func (c *Client) ListProjectForms(ctx context.Context, formType models.ProjectFormType) ([]models.ProjectForm, error) {
	var query url.Values
	if formType != "" {
		query = url.Values{"FormType": {string(formType)}}
	}
	var out []models.ProjectForm
	if err := c.GetList(ctx, http.MethodGet, PathProjectForms, query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// --- Rate queries ---

func (c *Client) CreateRateRequest(ctx context.Context, req models.CreateRateQueryRequest) (*Result, error) {
	return c.Action(ctx, http.MethodPost, PathRateCreate, req)
}

func (c *Client) ProvideRate(ctx context.Context, req models.ProvideRateRequest) (*Result, error) {
	return c.Action(ctx, http.MethodPost, PathRateProvide, req)
}

func (c *Client) EscalateRateRequest(ctx context.Context, req models.EscalateRateQueryRequest) (*Result, error) {
	return c.Action(ctx, http.MethodPost, PathRateEscalate, req)
}

func (c *Client) GetUserRateRequests(ctx context.Context, userID int64) ([]models.RateQuery, error) {
	query := url.Values{"userId": {strconv.FormatInt(userID, 10)}}
	var out []models.RateQuery
	if err := c.GetList(ctx, http.MethodGet, PathRateForUser, query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetAllRateRequests(ctx context.Context) ([]models.RateQuery, error) {
	var out []models.RateQuery
	if err := c.GetList(ctx, http.MethodGet, PathRateAll, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// --- Drafts ---

// ListDrafts returns the user's drafts; an empty module lists all of them
func (c *Client) ListDrafts(ctx context.Context, userID int64, module string) ([]models.Draft, error) {
	query := url.Values{"UserID": {strconv.FormatInt(userID, 10)}}
	if module != "" {
		query.Set("Module", module)
	}
	var out []models.Draft
	if err := c.GetList(ctx, http.MethodGet, PathDraftList, query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetDraft(ctx context.Context, draftID int64) (*models.Draft, error) {
	query := url.Values{"DraftID": {strconv.FormatInt(draftID, 10)}}
	var out models.Draft
	if err := c.GetObject(ctx, http.MethodGet, PathDraftGet, query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SaveDraft(ctx context.Context, req models.SaveDraftRequest) (*Result, error) {
	return c.Action(ctx, http.MethodPost, PathDraftSave, req)
}

func (c *Client) DeleteDraft(ctx context.Context, draftID int64) (*Result, error) {
	return c.Action(ctx, http.MethodPost, PathDraftDelete, map[string]int64{"DraftID": draftID})
}

func (c *Client) DeleteOldDrafts(ctx context.Context, req models.DeleteOldDraftsRequest) (*Result, error) {
	return c.Action(ctx, http.MethodPost, PathDraftDeleteOld, req)
}

// --- Costing chat ---

// ChatTurn is one message of the structured conversation
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatState is the conversational state posted on every turn
type ChatState struct {
	SessionID string                 `json:"sessionId"`
	Messages  []ChatTurn             `json:"messages"`
	Fields    map[string]interface{} `json:"fields"`
}

// ChatReply is the assistant's answer plus any fields it extracted
type ChatReply struct {
	Reply    string                 `json:"reply"`
	Fields   map[string]interface{} `json:"fields,omitempty"`
	Complete bool                   `json:"complete"`
}

// CostingChat posts the state and decodes the assistant reply
func (c *Client) CostingChat(ctx context.Context, state ChatState) (*ChatReply, error) {
	raw, err := c.Do(ctx, http.MethodPost, PathCostingChat, nil, state)
	if err != nil {
		return nil, err
	}
	return ParseChatReply(raw)
}

// ParseChatReply accepts the reply in any of the shapes the assistant emits
func ParseChatReply(raw []byte) (*ChatReply, error) {
	v, err := utils.Unwrap(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding chat reply: %v", ErrTransport, err)
	}
	if s, ok := v.(string); ok {
		return &ChatReply{Reply: s}, nil
	}
	obj := utils.ExtractObject(v)
	if obj == nil {
		return nil, fmt.Errorf("%w: unexpected chat reply shape", ErrTransport)
	}

	reply := &ChatReply{}
	for _, key := range []string{"reply", "Reply", "message", "Message", "response", "answer"} {
		if s, ok := obj[key].(string); ok && s != "" {
			reply.Reply = s
			break
		}
	}
	for _, key := range []string{"fields", "Fields", "extractedFields", "state"} {
		if f, ok := obj[key].(map[string]interface{}); ok {
			reply.Fields = f
			break
		}
	}
	for _, key := range []string{"complete", "Complete", "isComplete", "done"} {
		if b, ok := obj[key].(bool); ok {
			reply.Complete = b
			break
		}
	}
	if st, ok := obj["status"].(string); ok && st == models.ChatStatusComplete {
		reply.Complete = true
	}
	return reply, nil
}

