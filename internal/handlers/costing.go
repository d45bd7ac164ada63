package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (r *Router) createCostingSession(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Title string `json:"title"`
	}
	if req.ContentLength != 0 {
		if err := decodeBody(w, req, &body); err != nil {
			respondErr(w, req, err)
			return
		}
	}
	cs, err := r.svc.Costing.CreateSession(req.Context(), body.Title)
	if err != nil {
		respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusCreated, cs)
}

func (r *Router) getCostingSession(w http.ResponseWriter, req *http.Request) {
	cs, err := r.svc.Costing.GetSession(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, cs)
}

// sendCostingMessage runs one chat turn. The response carries the assistant
// reply, the fields gathered so far and the priced quotation once complete.
func (r *Router) sendCostingMessage(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Message string `json:"message"`
	}
	if err := decodeBody(w, req, &body); err != nil {
		respondErr(w, req, err)
		return
	}
	res, err := r.svc.Costing.SendMessage(req.Context(), mux.Vars(req)["id"], body.Message)
	if err != nil {
		respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (r *Router) getCostingQuotation(w http.ResponseWriter, req *http.Request) {
	q, err := r.svc.Costing.Quotation(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, q)
}

func (r *Router) costingQuotationPDF(w http.ResponseWriter, req *http.Request) {
	pdf, filename, err := r.svc.Costing.QuotationPDF(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		respondErr(w, req, err)
		return
	}
	respondFile(w, "application/pdf", filename, pdf)
}
