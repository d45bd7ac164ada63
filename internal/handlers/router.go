package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/indusops/opsdesk/internal/buildinfo"
	"github.com/indusops/opsdesk/internal/config"
	"github.com/indusops/opsdesk/internal/database"
	"github.com/indusops/opsdesk/internal/middleware"
	"github.com/indusops/opsdesk/internal/models"
	"github.com/indusops/opsdesk/internal/services/audit"
	"github.com/indusops/opsdesk/internal/services/costing"
	"github.com/indusops/opsdesk/internal/services/dashboard"
	"github.com/indusops/opsdesk/internal/services/drafts"
	"github.com/indusops/opsdesk/internal/services/enquiry"
	"github.com/indusops/opsdesk/internal/services/masters"
	"github.com/indusops/opsdesk/internal/services/projects"
	"github.com/indusops/opsdesk/internal/services/quotation"
	"github.com/indusops/opsdesk/internal/services/ratequery"
	"github.com/indusops/opsdesk/internal/websocket"
	"github.com/indusops/opsdesk/internal/workflow"
)

const maxBodyBytes = 1 << 20

// Services are the domain services the handlers delegate to
type Services struct {
	Audit     *audit.Service
	RateQuery *ratequery.Service
	Quotation *quotation.Service
	Drafts    *drafts.Service
	Projects  *projects.Service
	Enquiry   *enquiry.Service
	Masters   *masters.Service
	Dashboard *dashboard.Service
	Costing   *costing.Service
}

// Router wraps the mux router and everything the handlers need
type Router struct {
	*mux.Router
	cfg     *config.Config
	db      *database.DB
	hub     *websocket.Hub
	limiter *middleware.RateLimiter
	svc     Services
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(cfg *config.Config, db *database.DB, hub *websocket.Hub, limiter *middleware.RateLimiter, svc Services) *Router {
	r := &Router{
		Router:  mux.NewRouter(),
		cfg:     cfg,
		db:      db,
		hub:     hub,
		limiter: limiter,
		svc:     svc,
	}
	if limiter != nil {
		r.Use(limiter.Limit)
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// Auth routes
	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", r.login).Methods("POST")
	auth.HandleFunc("/refresh", r.refresh).Methods("POST")
	auth.HandleFunc("/logout", r.logout).Methods("POST")
	register := auth.PathPrefix("/register").Subrouter()
	register.Use(middleware.Auth(cfg.JWTSecret), middleware.RequireRole())
	register.HandleFunc("", r.register).Methods("POST")

	// Live events
	ws := r.PathPrefix("/ws").Subrouter()
	ws.Use(middleware.Auth(cfg.JWTSecret))
	ws.HandleFunc("", r.serveWs).Methods("GET")

	// API routes (protected)
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.Auth(cfg.JWTSecret))
	api.HandleFunc("/status", r.getStatus).Methods("GET")
	api.HandleFunc("/me", r.me).Methods("GET")
	api.HandleFunc("/dashboard", r.getDashboard).Methods("GET")
	api.HandleFunc("/activity", r.listActivity).Methods("GET")

	// Enquiries
	api.HandleFunc("/enquiries", r.listEnquiries).Methods("GET")
	api.HandleFunc("/enquiries/next-number", r.nextEnquiryNumber).Methods("GET")
	api.HandleFunc("/enquiries", r.createEnquiry).Methods("POST")

	// Rate queries
	api.HandleFunc("/rate-queries", r.listRateQueries).Methods("GET")
	api.HandleFunc("/rate-queries/board", r.rateQueryBoard).Methods("GET")
	api.HandleFunc("/rate-queries/export", r.exportRateQueries).Methods("GET")
	api.Handle("/rate-queries", guard(r.createRateQuery, models.RoleKAM)).Methods("POST")
	api.Handle("/rate-queries/{id:[0-9]+}/rate", guard(r.provideRate, models.RolePurchase, models.RoleOperations)).Methods("POST")
	api.Handle("/rate-queries/{id:[0-9]+}/escalate", guard(r.escalateRateQuery, models.RolePurchase, models.RoleOperations)).Methods("POST")

	// Quotations
	api.HandleFunc("/quotations", r.listQuotations).Methods("GET")
	api.HandleFunc("/quotations/export", r.exportQuotations).Methods("GET")
	api.Handle("/quotations/{id:[0-9]+}/submit", guard(r.submitQuotation, models.RoleKAM)).Methods("POST")
	api.Handle("/quotations/{id:[0-9]+}/approve", guard(r.approveQuotation, models.RoleHOD, models.RoleVerticalHead)).Methods("POST")
	api.Handle("/quotations/{id:[0-9]+}/disapprove", guard(r.disapproveQuotation, models.RoleHOD, models.RoleVerticalHead)).Methods("POST")

	// Drafts
	api.HandleFunc("/drafts", r.listDrafts).Methods("GET")
	api.HandleFunc("/drafts", r.saveDraft).Methods("POST")
	api.HandleFunc("/drafts/cleanup", r.cleanupDrafts).Methods("POST")
	api.HandleFunc("/drafts/{id:[0-9]+}", r.getDraft).Methods("GET")
	api.HandleFunc("/drafts/{id:[0-9]+}", r.deleteDraft).Methods("DELETE")

	// Projects
	api.HandleFunc("/projects/forms", r.listProjectForms).Methods("GET")
	api.HandleFunc("/projects/forms", r.saveProjectForm).Methods("POST")
	api.HandleFunc("/projects/timeline", r.projectTimeline).Methods("GET")

	// Masters
	api.HandleFunc("/masters/production-units", r.listProductionUnits).Methods("GET")
	api.HandleFunc("/masters/clients", r.listClients).Methods("GET")

	// Costing chat
	api.HandleFunc("/costing/sessions", r.createCostingSession).Methods("POST")
	api.HandleFunc("/costing/sessions/{id}", r.getCostingSession).Methods("GET")
	api.HandleFunc("/costing/sessions/{id}/messages", r.sendCostingMessage).Methods("POST")
	api.HandleFunc("/costing/sessions/{id}/quotation", r.getCostingQuotation).Methods("GET")
	api.HandleFunc("/costing/sessions/{id}/quotation.pdf", r.costingQuotationPDF).Methods("GET")

	// Static files
	if publicDir := cfg.FrontendDir; publicDir != "" {
		if _, err := os.Stat(publicDir); err == nil {
			r.PathPrefix("/").Handler(spaHandler{dir: publicDir})
		}
	}

	return r
}

func guard(h http.HandlerFunc, roles ...string) http.Handler {
	return middleware.RequireRole(roles...)(h)
}

// spaHandler serves built frontend assets and falls back to index.html so
// client-side routes survive a reload
type spaHandler struct {
	dir string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	path := filepath.Join(h.dir, filepath.Clean("/"+req.URL.Path))
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		http.ServeFile(w, req, filepath.Join(h.dir, "index.html"))
		return
	}
	http.FileServer(http.Dir(h.dir)).ServeHTTP(w, req)
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	status := "ok"
	if r.db != nil {
		if sqlDB, err := r.db.DB.DB(); err != nil || sqlDB.PingContext(req.Context()) != nil {
			status = "degraded"
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": status})
}

// getStatus returns the current status
func (r *Router) getStatus(w http.ResponseWriter, req *http.Request) {
	clients := 0
	if r.hub != nil {
		clients = r.hub.Count()
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "running",
		"build":       buildinfo.Current(),
		"liveClients": clients,
	})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondFile sends a download
func respondFile(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// decodeBody reads a JSON request body into v
func decodeBody(w http.ResponseWriter, req *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request payload: %v", workflow.ErrInvalid, err)
	}
	return nil
}

// decodeOptionalBody is decodeBody for endpoints whose body may be omitted
func decodeOptionalBody(w http.ResponseWriter, req *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: invalid request payload: %v", workflow.ErrInvalid, err)
	}
	return nil
}

// pathID reads the numeric {id} route variable
func pathID(req *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(req)["id"], 10, 64)
	return id
}
