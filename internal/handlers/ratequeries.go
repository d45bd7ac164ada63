package handlers

import (
	"net/http"

	"github.com/indusops/opsdesk/internal/services/printer"
	"github.com/indusops/opsdesk/internal/services/ratequery"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func scopeParam(req *http.Request) ratequery.Scope {
	return ratequery.ParseScope(req.URL.Query().Get("scope"))
}

func (r *Router) listRateQueries(w http.ResponseWriter, req *http.Request) {
	views, err := r.svc.RateQuery.List(req.Context(), scopeParam(req))
	if err != nil {
		respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, views)
}

func (r *Router) rateQueryBoard(w http.ResponseWriter, req *http.Request) {
	board, err := r.svc.RateQuery.Board(req.Context(), scopeParam(req))
	if err != nil {
		respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, board)
}

func (r *Router) exportRateQueries(w http.ResponseWriter, req *http.Request) {
	views, err := r.svc.RateQuery.List(req.Context(), scopeParam(req))
	if err != nil {
		respondErr(w, req, err)
		return
	}
	data, err := printer.RateQueriesWorkbook(views)
	if err != nil {
		respondErr(w, req, err)
		return
	}
	respondFile(w, xlsxContentType, "rate-queries.xlsx", data)
}

// createRateQuery raises a new rate query and returns the refreshed list
func (r *Router) createRateQuery(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Message string `json:"message"`
	}
	if err := decodeBody(w, req, &body); err != nil {
		respondErr(w, req, err)
		return
	}
	views, err := r.svc.RateQuery.Create(req.Context(), body.Message)
	if err != nil {
		respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusCreated, views)
}

func (r *Router) provideRate(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Rate    float64 `json:"rate"`
		Remarks string  `json:"remarks"`
	}
	if err := decodeBody(w, req, &body); err != nil {
		respondErr(w, req, err)
		return
	}
	views, err := r.svc.RateQuery.ProvideRate(req.Context(), pathID(req), body.Rate, body.Remarks)
	if err != nil {
		respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, views)
}

func (r *Router) escalateRateQuery(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Remarks string `json:"remarks"`
	}
	if err := decodeOptionalBody(w, req, &body); err != nil {
		respondErr(w, req, err)
		return
	}
	views, err := r.svc.RateQuery.Escalate(req.Context(), pathID(req), body.Remarks)
	if err != nil {
		respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, views)
}
