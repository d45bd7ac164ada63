package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/indusops/opsdesk/internal/config"
	"github.com/indusops/opsdesk/internal/utils"
	"golang.org/x/time/rate"
)

// Client talks to the Indus Analytics REST API
type Client struct {
	BaseURL    string
	Username   string
	Password   string
	Identity   Identity // used when the request context carries none
	HttpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new upstream client
func NewClient(cfg config.UpstreamConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 10
	}
	return &Client{
		BaseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		Username: cfg.Username,
		Password: cfg.Password,
		Identity: Identity{
			CompanyID:        cfg.CompanyID,
			UserID:           cfg.UserID,
			Fyear:            cfg.Fyear,
			ProductionUnitID: cfg.ProductionUnitID,
		},
		HttpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), int(rps)+1),
	}
}

// Do performs a request and returns the raw body of a successful response.
// Non-2xx statuses and {success:false} bodies become *APIError.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body interface{}) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrTransport, method, path, err)
	}

	endpoint := c.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	c.setHeaders(ctx, req, body != nil)

	resp, err := c.HttpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrTransport, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := extractMessage(raw)
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg, Path: path}
	}

	if v, err := utils.Unwrap(raw); err == nil {
		if msg, failed := reportedFailure(v); failed {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: msg, Path: path, Reported: true}
		}
	}

	return raw, nil
}

func (c *Client) setHeaders(ctx context.Context, req *http.Request, hasBody bool) {
	id, ok := IdentityFrom(ctx)
	if ok {
		id = id.merge(c.Identity)
	} else {
		id = c.Identity
	}

	if c.Username != "" || c.Password != "" {
		req.SetBasicAuth(c.Username, c.Password)
	}
	req.Header.Set("Accept", "application/json")
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("CompanyID", id.CompanyID)
	req.Header.Set("UserID", id.UserID)
	req.Header.Set("Fyear", id.Fyear)
	req.Header.Set("ProductionUnitID", id.ProductionUnitID)
}

// GetList fetches path and decodes the record list into out
func (c *Client) GetList(ctx context.Context, method, path string, query url.Values, body interface{}, out interface{}) error {
	raw, err := c.Do(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if err := utils.DecodeList(raw, out); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", ErrTransport, path, err)
	}
	return nil
}

// GetObject fetches path and decodes the record object into out
func (c *Client) GetObject(ctx context.Context, method, path string, query url.Values, body interface{}, out interface{}) error {
	raw, err := c.Do(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if err := utils.DecodeObject(raw, out); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", ErrTransport, path, err)
	}
	return nil
}

// Result is the outcome of a mutating call
type Result struct {
	Message string `json:"message,omitempty"`
	ID      int64  `json:"id,omitempty"`
}

// Action posts body to path and summarises the response
func (c *Client) Action(ctx context.Context, method, path string, body interface{}) (*Result, error) {
	raw, err := c.Do(ctx, method, path, nil, body)
	if err != nil {
		return nil, err
	}
	res := &Result{Message: extractMessage(raw)}
	if v, err := utils.Unwrap(raw); err == nil {
		res.ID = extractID(v)
	}
	return res, nil
}

// reportedFailure detects {success:false,...} style bodies
func reportedFailure(v interface{}) (string, bool) {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return "", false
	}
	for _, key := range []string{"success", "Success", "IsSuccess"} {
		flag, present := obj[key]
		if !present {
			continue
		}
		failed := false
		switch f := flag.(type) {
		case bool:
			failed = !f
		case string:
			failed = strings.EqualFold(f, "false")
		}
		if failed {
			msg := messageOf(obj)
			if msg == "" {
				msg = "request failed"
			}
			return msg, true
		}
		return "", false
	}
	if status, ok := obj["status"].(string); ok && strings.EqualFold(status, "fail") {
		return messageOf(obj), true
	}
	return "", false
}

func extractMessage(raw []byte) string {
	v, err := utils.Unwrap(raw)
	if err != nil {
		return strings.TrimSpace(string(raw))
	}
	switch t := v.(type) {
	case string:
		return t
	case map[string]interface{}:
		return messageOf(t)
	}
	return ""
}

func messageOf(obj map[string]interface{}) string {
	for _, key := range []string{"error", "Error", "message", "Message", "msg", "errorMessage"} {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func extractID(v interface{}) int64 {
	obj := utils.ExtractObject(v)
	if obj == nil {
		if f, ok := v.(float64); ok {
			return int64(f)
		}
		return 0
	}
	for _, key := range []string{"id", "ID", "Id", "requestId", "RequestID", "DraftID", "FormID", "EnquiryID", "BookingID"} {
		if f, ok := obj[key].(float64); ok {
			return int64(f)
		}
	}
	return 0
}
