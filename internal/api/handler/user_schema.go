package handler

import (
	"github.com/globely/globely-api/internal/core/domain"
)

// messageResponse is the {success, message} envelope. Error responses use the
// same shape with success=false.
type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// --- Account ---

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type authResponse struct {
	Success bool        `json:"success"`
	User    userSummary `json:"user"`
	Token   string      `json:"token"`
}

func newAuthResponse(user *domain.User, token string) authResponse {
	return authResponse{
		Success: true,
		User:    userSummary{ID: user.ID, Username: user.Username, Email: user.Email},
		Token:   token,
	}
}

// --- Favorites ---

type addFavoriteRequest struct {
	CountryCode string `json:"cca3" validate:"required,len=3,alpha"`
	Name        string `json:"name" validate:"required"`
	Flag        string `json:"flag" validate:"required"`
}

type removeFavoriteRequest struct {
	CountryCode string `param:"cca3" validate:"required"`
}

type favoritesResponse struct {
	Success   bool              `json:"success"`
	Favorites []domain.Favorite `json:"favorites"`
}
