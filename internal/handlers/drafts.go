package handlers

import (
	"net/http"

	"github.com/indusops/opsdesk/internal/services/drafts"
)

func (r *Router) listDrafts(w http.ResponseWriter, req *http.Request) {
	list, err := r.svc.Drafts.List(req.Context(), req.URL.Query().Get("module"))
	if err != nil {
		respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (r *Router) getDraft(w http.ResponseWriter, req *http.Request) {
	d, err := r.svc.Drafts.Get(req.Context(), pathID(req))
	if err != nil {
		respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

// saveDraft creates or updates a draft; autosaves go through the same path
func (r *Router) saveDraft(w http.ResponseWriter, req *http.Request) {
	var in drafts.SaveInput
	if err := decodeBody(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	res, err := r.svc.Drafts.Save(req.Context(), in)
	if err != nil {
		respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (r *Router) deleteDraft(w http.ResponseWriter, req *http.Request) {
	if err := r.svc.Drafts.Delete(req.Context(), pathID(req)); err != nil {
		respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Draft deleted"})
}

// cleanupDrafts removes the caller's drafts older than the given number of
// days, or the configured retention when days is omitted
func (r *Router) cleanupDrafts(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Days int `json:"days"`
	}
	if req.ContentLength != 0 {
		if err := decodeBody(w, req, &body); err != nil {
			respondErr(w, req, err)
			return
		}
	}
	res, err := r.svc.Drafts.DeleteOld(req.Context(), body.Days)
	if err != nil {
		respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}
