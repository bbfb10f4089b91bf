package domain

import (
	"strings"
	"time"
)

// User is the account aggregate. Favorites are owned by the user document and
// are never addressed on their own.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Favorites    []Favorite `json:"favorites"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Identity is what a verified bearer token resolves to.
type Identity struct {
	UserID string
	Email  string
}

// FavoriteIndex returns the position of the favorite with the given country
// code, or -1.
func (u *User) FavoriteIndex(countryCode string) int {
	for i, f := range u.Favorites {
		if f.CountryCode == countryCode {
			return i
		}
	}
	return -1
}

// HasFavorite reports whether countryCode is already in the list.
func (u *User) HasFavorite(countryCode string) bool {
	return u.FavoriteIndex(countryCode) >= 0
}

// NormalizeEmail is applied before every lookup and insert so that uniqueness
// is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
