// Package session carries the authenticated caller through request contexts.
package session

import (
	"context"
	"strconv"

	"github.com/indusops/opsdesk/internal/models"
	"github.com/indusops/opsdesk/internal/upstream"
)

// User is the caller as known locally and upstream
type User struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	Role           string `json:"role"`
	Department     string `json:"department"`
	UpstreamUserID int64  `json:"upstreamUserId"`
	IP             string `json:"-"`
}

// FromAccount maps a local login onto the caller and the upstream identity
// its requests are made under. Empty identity fields fall back to the
// client defaults.
func FromAccount(a models.UserAuth) (User, upstream.Identity) {
	u := User{
		ID:             a.ID,
		Email:          a.Email,
		Name:           a.Name,
		Role:           a.Role,
		Department:     a.Department,
		UpstreamUserID: a.UpstreamUserID,
	}
	if u.Name == "" {
		u.Name = a.Username
	}
	id := upstream.Identity{
		CompanyID:        a.CompanyID,
		Fyear:            a.Fyear,
		ProductionUnitID: a.ProductionUnitID,
	}
	if a.UpstreamUserID > 0 {
		id.UserID = strconv.FormatInt(a.UpstreamUserID, 10)
	}
	return u, id
}

type userKey struct{}

// WithUser stores u in ctx together with the upstream identity derived from
// it, so upstream calls made with the returned context act as u.
func WithUser(ctx context.Context, u User, id upstream.Identity) context.Context {
	if id.UserID == "" && u.UpstreamUserID > 0 {
		id.UserID = strconv.FormatInt(u.UpstreamUserID, 10)
	}
	ctx = context.WithValue(ctx, userKey{}, u)
	return upstream.WithIdentity(ctx, id)
}

// UserFrom returns the caller stored in ctx
func UserFrom(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userKey{}).(User)
	return u, ok
}

// Actor returns a display name for logs, "system" when ctx has no caller
func Actor(ctx context.Context) string {
	u, ok := UserFrom(ctx)
	if !ok {
		return "system"
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
