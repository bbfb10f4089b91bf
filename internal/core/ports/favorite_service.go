package ports

import (
	"context"

	"github.com/globely/globely-api/internal/core/domain"
)

// AddFavoriteInput is the DTO passed from the transport layer to FavoriteService.
type AddFavoriteInput struct {
	CountryCode string
	Name        string
	Flag        string
}

type FavoriteService interface {
	List(ctx context.Context, userID string) ([]domain.Favorite, error)
	Add(ctx context.Context, userID string, in AddFavoriteInput) error
	Remove(ctx context.Context, userID, countryCode string) error
}
