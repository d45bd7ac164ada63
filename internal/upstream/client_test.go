package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/indusops/opsdesk/internal/config"
	"github.com/indusops/opsdesk/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.UpstreamConfig{
		BaseURL:          srv.URL,
		Username:         "svc",
		Password:         "secret",
		CompanyID:        "2",
		UserID:           "2",
		Fyear:            "2025-2026",
		ProductionUnitID: "1",
		Timeout:          5 * time.Second,
		RequestsPerSec:   100,
	})
}

func TestHeadersUseContextIdentity(t *testing.T) {
	var got http.Header
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(`[]`))
	})

	ctx := WithIdentity(context.Background(), Identity{UserID: "17", Fyear: "2026-2027"})
	_, err := c.GetAllRateRequests(ctx)
	require.NoError(t, err)

	assert.Equal(t, "2", got.Get("CompanyID"))
	assert.Equal(t, "17", got.Get("UserID"))
	assert.Equal(t, "2026-2027", got.Get("Fyear"))
	assert.Equal(t, "1", got.Get("ProductionUnitID"))
	assert.Contains(t, got.Get("Authorization"), "Basic ")
}

func TestHeadersFallBackToDefaultIdentity(t *testing.T) {
	var got http.Header
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(`{"data":[]}`))
	})

	_, err := c.GetClients(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2", got.Get("UserID"))
	assert.Equal(t, "2025-2026", got.Get("Fyear"))
}

func TestDoubleEncodedListIsDecoded(t *testing.T) {
	inner := `[{"RequestID":1,"CurrentStatus":"Pending","Department":"Purchase"},{"requestId":2,"currentStatus":"responded","rate":"18.5"}]`
	once, _ := json.Marshal(inner)
	twice, _ := json.Marshal(map[string]string{"d": string(once)})

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(twice)
	})

	list, err := c.GetAllRateRequests(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, models.RateQueryPending, list[0].CurrentStatus)
	assert.Equal(t, models.RateQueryResponded, list[1].CurrentStatus)
	require.NotNil(t, list[1].Rate)
	assert.Equal(t, 18.5, *list[1].Rate)
}

func TestNon2xxBecomesAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"FromDate is required"}`))
	})

	_, err := c.GetBookings(context.Background(), models.BookingFilter{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "FromDate is required", apiErr.Message)
	assert.False(t, apiErr.Reported)
}

func TestReportedFailureOn200(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"error":"Request already responded"}`))
	})

	_, err := c.ProvideRate(context.Background(), models.ProvideRateRequest{RequestID: 4, Rate: 10})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.Reported)
	assert.Equal(t, "Request already responded", apiErr.Message)
	assert.Equal(t, PathRateProvide, apiErr.Path)
}

func TestNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.GetDraft(context.Background(), 9)
	assert.True(t, IsNotFound(err))
}

func TestEmptyListIsNoRecord(t *testing.T) {
	for _, body := range []string{`[]`, `"[]"`} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		})

		d, err := c.GetDraft(context.Background(), 9)
		require.NoError(t, err, body)
		assert.Zero(t, d.DraftID, body)
	}
}

func TestTransportFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	c.BaseURL = "http://127.0.0.1:1"

	_, err := c.GetProductionUnits(context.Background())
	assert.ErrorIs(t, err, ErrTransport)
}

func TestUnparseableBodyIsTransportError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>gateway</html>`))
	})

	_, err := c.GetProductionUnits(context.Background())
	assert.ErrorIs(t, err, ErrTransport)
}

func TestActionReturnsMessageAndID(t *testing.T) {
	var body map[string]interface{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`{"success":true,"message":"Saved","data":{"DraftID":31}}`))
	})

	res, err := c.SaveDraft(context.Background(), models.SaveDraftRequest{DraftName: "Carton", Module: "costing", FormDataJSON: `{"gsm":120}`})
	require.NoError(t, err)
	assert.Equal(t, "Saved", res.Message)
	assert.Equal(t, int64(31), res.ID)
	assert.Equal(t, "Carton", body["DraftName"])
}

func TestNextEnquiryNoShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"plain string", `"ENQ/26/0042"`, "ENQ/26/0042"},
		{"object", `{"EnquiryNo":"ENQ/26/0043"}`, "ENQ/26/0043"},
		{"number", `44`, "44"},
		{"array of rows", `[{"EnquiryNo":"ENQ/26/0045"}]`, "ENQ/26/0045"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			got, err := c.NextEnquiryNo(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseChatReply(t *testing.T) {
	reply, err := ParseChatReply([]byte(`{"reply":"What board grade?","fields":{"quantity":5000},"complete":false}`))
	require.NoError(t, err)
	assert.Equal(t, "What board grade?", reply.Reply)
	assert.Equal(t, 5000.0, reply.Fields["quantity"])
	assert.False(t, reply.Complete)

	reply, err = ParseChatReply([]byte(`"Thanks, the quotation is ready"`))
	require.NoError(t, err)
	assert.Equal(t, "Thanks, the quotation is ready", reply.Reply)

	reply, err = ParseChatReply([]byte(`{"data":{"message":"Done","status":"complete"}}`))
	require.NoError(t, err)
	assert.True(t, reply.Complete)
	assert.Equal(t, "Done", reply.Reply)
}

func TestCancelledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GetAllRateRequests(ctx)
	assert.ErrorIs(t, err, ErrTransport)
}
