package ports

import (
	"context"

	"github.com/globely/globely-api/internal/core/domain"
)

// AuthResult is returned by successful register and login calls.
type AuthResult struct {
	User  *domain.User
	Token string
}

type AccountService interface {
	Register(ctx context.Context, username, email, password string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Profile(ctx context.Context, userID string) (*domain.User, error)
}
