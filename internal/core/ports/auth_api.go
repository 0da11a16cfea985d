package ports

import (
	"context"

	"github.com/tobiusaolo/Carryitrentals-sub000/internal/core/domain"
)

// AuthAPI is the client surface of the remote authentication endpoints
// exposed by the property-management backend. Implementations translate
// transport and status failures into domain sentinel errors; they never
// panic across this boundary.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (domain.TokenPair, error)
	CurrentUser(ctx context.Context, accessToken string) (*domain.User, error)
	Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error)
}
