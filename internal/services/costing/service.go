// Package costing runs the AI-assisted costing chat and turns a finished
// conversation into a printable quotation.
package costing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/indusops/opsdesk/internal/config"
	"github.com/indusops/opsdesk/internal/models"
	"github.com/indusops/opsdesk/internal/services/audit"
	"github.com/indusops/opsdesk/internal/services/printer"
	"github.com/indusops/opsdesk/internal/session"
	"github.com/indusops/opsdesk/internal/upstream"
	"github.com/indusops/opsdesk/internal/workflow"
	"gorm.io/datatypes"
)

const defaultTitle = "New costing"

// TurnResult is the outcome of one user message
type TurnResult struct {
	Session   *models.ChatSession    `json:"session"`
	Reply     string                 `json:"reply"`
	Fields    map[string]interface{} `json:"fields"`
	Complete  bool                   `json:"complete"`
	Quotation *printer.Quotation     `json:"quotation,omitempty"`
}

type Service struct {
	store     Store
	assistant Assistant
	rec       audit.Recorder
	company   string
	now       func() time.Time
}

func NewService(store Store, assistant Assistant, rec audit.Recorder, cfg config.CostingConfig) *Service {
	company := cfg.CompanyName
	if company == "" {
		company = "Indus Packaging"
	}
	return &Service{store: store, assistant: assistant, rec: rec, company: company, now: time.Now}
}

// CreateSession starts an empty conversation owned by the caller
func (s *Service) CreateSession(ctx context.Context, title string) (*models.ChatSession, error) {
	user, ok := session.UserFrom(ctx)
	if !ok {
		return nil, fmt.Errorf("%w: no caller", workflow.ErrForbidden)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultTitle
	}
	cs := &models.ChatSession{
		ID:     uuid.NewString(),
		UserID: user.ID,
		Title:  title,
		Status: models.ChatStatusActive,
		State:  datatypes.JSON(`{}`),
	}
	if err := s.store.Create(ctx, cs); err != nil {
		return nil, err
	}
	return cs, nil
}

// GetSession loads a conversation with its messages. Only the owner and
// admins may read it.
func (s *Service) GetSession(ctx context.Context, id string) (*models.ChatSession, error) {
	cs, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	user, _ := session.UserFrom(ctx)
	if cs.UserID != user.ID && user.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: chat session %s belongs to another user", workflow.ErrForbidden, id)
	}
	return cs, nil
}

// SendMessage appends the caller's message, asks the assistant, merges the
// extracted fields into the session state and persists both turns. When the
// assistant reports the costing complete and the fields price out, the
// session gets a quotation number.
func (s *Service) SendMessage(ctx context.Context, id, content string) (*TurnResult, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: message is empty", workflow.ErrInvalid)
	}
	cs, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := Fields(cs)
	state := upstream.ChatState{SessionID: cs.ID, Fields: fields}
	for _, m := range cs.Messages {
		state.Messages = append(state.Messages, upstream.ChatTurn{Role: m.Role, Content: m.Content})
	}
	state.Messages = append(state.Messages, upstream.ChatTurn{Role: "user", Content: content})

	reply, err := s.assistant.Reply(ctx, state)
	if err != nil {
		s.rec.Record(ctx, audit.Entry{Action: "costing.message", EntityType: "chat_session", Payload: map[string]string{"sessionId": cs.ID}, Err: err})
		return nil, fmt.Errorf("costing assistant failed: %w", err)
	}

	for k, v := range reply.Fields {
		if v == nil {
			delete(fields, k)
			continue
		}
		fields[k] = v
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode costing state: %w", err)
	}
	cs.State = datatypes.JSON(raw)
	if cs.Title == defaultTitle {
		if t := titleFrom(fields); t != "" {
			cs.Title = t
		}
	}

	result := &TurnResult{Session: cs, Reply: reply.Reply, Fields: fields}
	if reply.Complete {
		no := cs.QuotationNo
		if no == "" {
			no = quotationNo(s.now(), cs.ID)
		}
		if q, err := BuildQuote(no, s.now(), fields); err == nil {
			wasComplete := cs.Status == models.ChatStatusComplete
			cs.QuotationNo = no
			cs.Status = models.ChatStatusComplete
			result.Complete = true
			result.Quotation = &q
			if !wasComplete {
				s.rec.Record(ctx, audit.Entry{Action: "costing.completed", EntityType: "chat_session", Payload: map[string]interface{}{"sessionId": cs.ID, "quotationNo": no, "total": q.Total}})
			}
		}
	}

	now := s.now()
	msgs := []models.ChatMessage{
		{Role: "user", Content: content, CreatedAt: now},
		{Role: "assistant", Content: reply.Reply, CreatedAt: now},
	}
	if err := s.store.Append(ctx, cs, msgs...); err != nil {
		return nil, err
	}
	return result, nil
}

// Quotation prices a completed session
func (s *Service) Quotation(ctx context.Context, id string) (*printer.Quotation, error) {
	cs, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if cs.QuotationNo == "" {
		return nil, fmt.Errorf("%w: costing %s is not complete", workflow.ErrInvalid, id)
	}
	q, err := BuildQuote(cs.QuotationNo, cs.UpdatedAt, Fields(cs))
	if err != nil {
		return nil, err
	}
	if q.Date.IsZero() {
		q.Date = s.now()
	}
	if user, ok := session.UserFrom(ctx); ok {
		q.PreparedBy = user.Name
	}
	return &q, nil
}

// QuotationPDF renders a completed session's quotation
func (s *Service) QuotationPDF(ctx context.Context, id string) ([]byte, string, error) {
	q, err := s.Quotation(ctx, id)
	if err != nil {
		return nil, "", err
	}
	pdf, err := printer.QuotationPDF(*q, s.company)
	if err != nil {
		return nil, "", err
	}
	return pdf, q.QuotationNo + ".pdf", nil
}

// Fields decodes a session's collected costing fields
func Fields(cs *models.ChatSession) map[string]interface{} {
	fields := map[string]interface{}{}
	if len(cs.State) > 0 {
		_ = json.Unmarshal(cs.State, &fields)
	}
	if fields == nil {
		fields = map[string]interface{}{}
	}
	return fields
}

func titleFrom(fields map[string]interface{}) string {
	client, product := text(fields, "clientName", "client"), text(fields, "productName", "product")
	switch {
	case client != "" && product != "":
		return client + " - " + product
	case product != "":
		return product
	}
	return client
}

// quotationNo is AIQ-<date>-<first four hex digits of the session id>
func quotationNo(now time.Time, sessionID string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(sessionID, "-", ""))
	if len(suffix) > 4 {
		suffix = suffix[:4]
	}
	return "AIQ-" + now.Format("20060102") + "-" + suffix
}
