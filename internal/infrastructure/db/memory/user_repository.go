// Package memory is a process-local user store for development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/globely/globely-api/internal/core/domain"
)

type UserRepository struct {
	mu      sync.RWMutex
	byID    map[string]*domain.User
	byEmail map[string]string
	now     func() time.Time
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]string),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func clone(u *domain.User) *domain.User {
	c := *u
	c.Favorites = make([]domain.Favorite, len(u.Favorites))
	copy(c.Favorites, u.Favorites)
	return &c
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := domain.NormalizeEmail(user.Email)
	if _, ok := r.byEmail[email]; ok {
		return nil, domain.ErrUserExists
	}

	stored := clone(user)
	stored.ID = primitive.NewObjectID().Hex()
	stored.Email = email
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = r.now()
	}
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = stored.CreatedAt
	}

	r.byID[stored.ID] = stored
	r.byEmail[email] = stored.ID
	return clone(stored), nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return clone(r.byID[id]), nil
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return clone(u), nil
}

func (r *UserRepository) AddFavorite(_ context.Context, userID string, fav domain.Favorite) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if u.HasFavorite(fav.CountryCode) {
		return domain.ErrFavoriteExists
	}
	u.Favorites = append(u.Favorites, fav)
	u.UpdatedAt = r.now()
	return nil
}

func (r *UserRepository) RemoveFavorite(_ context.Context, userID, countryCode string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	i := u.FavoriteIndex(countryCode)
	if i < 0 {
		return domain.ErrFavoriteNotFound
	}
	u.Favorites = append(u.Favorites[:i], u.Favorites[i+1:]...)
	u.UpdatedAt = r.now()
	return nil
}

// Ping always succeeds; it lets the readiness probe treat both stores alike.
func (r *UserRepository) Ping(context.Context) error { return nil }
