package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/globely/globely-api/internal/core/domain"
	"github.com/globely/globely-api/internal/core/ports"
)

// FavoriteService manages the favorites list embedded in a user document.
type FavoriteService struct {
	repo ports.UserRepository
	log  zerolog.Logger
}

func NewFavoriteService(repo ports.UserRepository, log zerolog.Logger) *FavoriteService {
	return &FavoriteService{repo: repo, log: log}
}

// List returns the user's favorites in insertion order. The result is never nil.
func (s *FavoriteService) List(ctx context.Context, userID string) ([]domain.Favorite, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Favorites == nil {
		return []domain.Favorite{}, nil
	}
	return user.Favorites, nil
}

// Add appends a favorite. Adding a code that is already present is an error,
// not a no-op.
func (s *FavoriteService) Add(ctx context.Context, userID string, in ports.AddFavoriteInput) error {
	in.CountryCode = strings.TrimSpace(in.CountryCode)
	in.Name = strings.TrimSpace(in.Name)
	in.Flag = strings.TrimSpace(in.Flag)
	if in.CountryCode == "" || in.Name == "" || in.Flag == "" {
		return domain.NewValidationError("cca3, name and flag are required")
	}

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.HasFavorite(in.CountryCode) {
		return domain.ErrFavoriteExists
	}

	fav := domain.Favorite{CountryCode: in.CountryCode, Name: in.Name, Flag: in.Flag}
	if err := s.repo.AddFavorite(ctx, user.ID, fav); err != nil {
		if errors.Is(err, domain.ErrFavoriteExists) || errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("add favorite: %w", err)
	}

	s.log.Debug().Str("user_id", user.ID).Str("cca3", in.CountryCode).Msg("favorite added")
	return nil
}

// Remove drops the favorite with the given code.
func (s *FavoriteService) Remove(ctx context.Context, userID, countryCode string) error {
	countryCode = strings.TrimSpace(countryCode)
	if countryCode == "" {
		return domain.NewValidationError("country code is required")
	}

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}
	if !user.HasFavorite(countryCode) {
		return domain.ErrFavoriteNotFound
	}

	if err := s.repo.RemoveFavorite(ctx, user.ID, countryCode); err != nil {
		if errors.Is(err, domain.ErrFavoriteNotFound) || errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("remove favorite: %w", err)
	}

	s.log.Debug().Str("user_id", user.ID).Str("cca3", countryCode).Msg("favorite removed")
	return nil
}

func (s *FavoriteService) findUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}
