package handlers

import (
	"net/http"
	"strconv"

	"github.com/indusops/opsdesk/internal/services/audit"
	"github.com/indusops/opsdesk/internal/session"
	"github.com/indusops/opsdesk/internal/websocket"
)

// getDashboard aggregates the landing page. Sections that fail are reported
// in the errors map instead of failing the whole response.
func (r *Router) getDashboard(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, r.svc.Dashboard.Summary(req.Context(), scopeParam(req)))
}

func (r *Router) listActivity(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	f := audit.Filter{EntityType: q.Get("entityType"), Limit: limit}
	if mine, _ := strconv.ParseBool(q.Get("mine")); mine {
		if u, ok := session.UserFrom(req.Context()); ok {
			f.UserID = u.ID
		}
	}
	logs, err := r.svc.Audit.List(req.Context(), f)
	if err != nil {
		respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, logs)
}

func (r *Router) serveWs(w http.ResponseWriter, req *http.Request) {
	u, _ := session.UserFrom(req.Context())
	websocket.ServeWs(r.hub, w, req, u.ID)
}
