package session

import (
	"context"
	"testing"

	"github.com/indusops/opsdesk/internal/models"
	"github.com/indusops/opsdesk/internal/upstream"
)

func TestWithUserSetsIdentity(t *testing.T) {
	ctx := WithUser(context.Background(), User{Name: "Asha", UpstreamUserID: 4}, upstream.Identity{CompanyID: "2"})

	u, ok := UserFrom(ctx)
	if !ok || u.Name != "Asha" {
		t.Fatalf("UserFrom() = %+v, %v", u, ok)
	}
	id, ok := upstream.IdentityFrom(ctx)
	if !ok || id.UserID != "4" || id.CompanyID != "2" {
		t.Errorf("identity = %+v", id)
	}
	if Actor(ctx) != "Asha" {
		t.Errorf("Actor() = %s", Actor(ctx))
	}
}

func TestActorWithoutUser(t *testing.T) {
	if got := Actor(context.Background()); got != "system" {
		t.Errorf("Actor() = %s, want system", got)
	}
}

func TestFromAccount(t *testing.T) {
	u, id := FromAccount(models.UserAuth{ID: "abc", Username: "ravi", Role: "purchase", UpstreamUserID: 7, CompanyID: "2"})
	if u.Name != "ravi" || u.Role != "purchase" || u.UpstreamUserID != 7 {
		t.Errorf("user = %+v", u)
	}
	if id.UserID != "7" || id.CompanyID != "2" || id.Fyear != "" {
		t.Errorf("identity = %+v", id)
	}
}
