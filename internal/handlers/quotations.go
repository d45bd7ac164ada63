package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/indusops/opsdesk/internal/services/quotation"
	"github.com/indusops/opsdesk/internal/workflow"
)

func quotationFilter(req *http.Request) quotation.Filter {
	q := req.URL.Query()
	awaiting, _ := strconv.ParseBool(q.Get("awaitingMe"))
	return quotation.Filter{
		FromDate:   q.Get("from"),
		ToDate:     q.Get("to"),
		Status:     q.Get("status"),
		Level:      q.Get("level"),
		Search:     q.Get("q"),
		AwaitingMe: awaiting,
	}
}

func (r *Router) listQuotations(w http.ResponseWriter, req *http.Request) {
	views, err := r.svc.Quotation.List(req.Context(), quotationFilter(req))
	if err != nil {
		respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, views)
}

func (r *Router) exportQuotations(w http.ResponseWriter, req *http.Request) {
	data, err := r.svc.Quotation.Export(req.Context(), quotationFilter(req))
	if err != nil {
		respondErr(w, req, err)
		return
	}
	respondFile(w, xlsxContentType, "quotations.xlsx", data)
}

func (r *Router) submitQuotation(w http.ResponseWriter, req *http.Request) {
	r.decideQuotation(w, req, r.svc.Quotation.SendForApproval)
}

func (r *Router) approveQuotation(w http.ResponseWriter, req *http.Request) {
	r.decideQuotation(w, req, r.svc.Quotation.Approve)
}

func (r *Router) disapproveQuotation(w http.ResponseWriter, req *http.Request) {
	r.decideQuotation(w, req, r.svc.Quotation.Disapprove)
}

type quotationAction func(ctx context.Context, bookingID int64, remark string) ([]workflow.QuotationView, error)

// decideQuotation reads the optional remark and applies action to the
// booking in the path
func (r *Router) decideQuotation(w http.ResponseWriter, req *http.Request, action quotationAction) {
	var body struct {
		Remark string `json:"remark"`
	}
	if req.ContentLength != 0 {
		if err := decodeBody(w, req, &body); err != nil {
			respondErr(w, req, err)
			return
		}
	}
	views, err := action(req.Context(), pathID(req), body.Remark)
	if err != nil {
		respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, views)
}
