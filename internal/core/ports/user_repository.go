package ports

import (
	"context"

	"github.com/globely/globely-api/internal/core/domain"
)

// UserRepository is the document store for user records and their embedded
// favorites list.
type UserRepository interface {
	// Create inserts a new user and returns it with its generated ID.
	// A duplicate email yields domain.ErrUserExists.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)

	// AddFavorite appends fav unless an entry with the same country code is
	// already present, in which case it returns domain.ErrFavoriteExists.
	AddFavorite(ctx context.Context, userID string, fav domain.Favorite) error
	// RemoveFavorite drops the entry with the given country code, returning
	// domain.ErrFavoriteNotFound when there is none.
	RemoveFavorite(ctx context.Context, userID, countryCode string) error
}
