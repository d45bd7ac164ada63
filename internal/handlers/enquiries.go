package handlers

import (
	"net/http"

	"github.com/indusops/opsdesk/internal/services/enquiry"
)

func (r *Router) listEnquiries(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	list, err := r.svc.Enquiry.List(req.Context(), q.Get("from"), q.Get("to"), q.Get("status"))
	if err != nil {
		respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (r *Router) nextEnquiryNumber(w http.ResponseWriter, req *http.Request) {
	no, err := r.svc.Enquiry.NextNumber(req.Context())
	if err != nil {
		respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"enquiryNo": no})
}

func (r *Router) createEnquiry(w http.ResponseWriter, req *http.Request) {
	var in enquiry.CreateInput
	if err := decodeBody(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	res, err := r.svc.Enquiry.Create(req.Context(), in)
	if err != nil {
		respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusCreated, res)
}
