package handlers

import "net/http"

func (r *Router) listProductionUnits(w http.ResponseWriter, req *http.Request) {
	units, err := r.svc.Masters.ProductionUnits(req.Context())
	if err != nil {
		respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, units)
}

func (r *Router) listClients(w http.ResponseWriter, req *http.Request) {
	clients, err := r.svc.Masters.Clients(req.Context())
	if err != nil {
		respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, clients)
}
