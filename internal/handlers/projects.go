package handlers

import (
	"net/http"

	"github.com/indusops/opsdesk/internal/services/projects"
)

func (r *Router) listProjectForms(w http.ResponseWriter, req *http.Request) {
	forms, err := r.svc.Projects.List(req.Context(), req.URL.Query().Get("type"))
	if err != nil {
		respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, forms)
}

func (r *Router) saveProjectForm(w http.ResponseWriter, req *http.Request) {
	var in projects.SaveInput
	if err := decodeBody(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	res, err := r.svc.Projects.Save(req.Context(), in)
	if err != nil {
		respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// projectTimeline reports how far each project has progressed through the
// stage documents
func (r *Router) projectTimeline(w http.ResponseWriter, req *http.Request) {
	progress, err := r.svc.Projects.Timeline(req.Context())
	if err != nil {
		respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, progress)
}
