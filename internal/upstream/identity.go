package upstream

import "context"

// Identity is sent as custom headers on every upstream call
type Identity struct {
	CompanyID        string `json:"companyId"`
	UserID           string `json:"userId"`
	Fyear            string `json:"fyear"`
	ProductionUnitID string `json:"productionUnitId"`
}

type identityKey struct{}

// WithIdentity returns a context whose upstream calls are made as id
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored in ctx, if any
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// merge fills blank fields of id from fallback
func (id Identity) merge(fallback Identity) Identity {
	if id.CompanyID == "" {
		id.CompanyID = fallback.CompanyID
	}
	if id.UserID == "" {
		id.UserID = fallback.UserID
	}
	if id.Fyear == "" {
		id.Fyear = fallback.Fyear
	}
	if id.ProductionUnitID == "" {
		id.ProductionUnitID = fallback.ProductionUnitID
	}
	return id
}
