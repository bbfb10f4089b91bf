package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/globely/globely-api/internal/api/metrics"
	"github.com/globely/globely-api/internal/core/ports"
)

// FavoriteHandler serves the authenticated user's favorites list.
type FavoriteHandler struct {
	favorites ports.FavoriteService
}

func NewFavoriteHandler(favorites ports.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{favorites: favorites}
}

// List returns the caller's favorites in insertion order.
//
// @Summary      List favorites
// @Tags         favorites
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  favoritesResponse
// @Failure      401  {object}  messageResponse
// @Failure      404  {object}  messageResponse
// @Router       /api/users/favorites [get]
func (h *FavoriteHandler) List(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	favs, err := h.favorites.List(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, favoritesResponse{Success: true, Favorites: favs})
}

// Add appends a country to the caller's favorites.
//
// @Summary      Add favorite
// @Tags         favorites
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      addFavoriteRequest  true  "Country snapshot"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  messageResponse
// @Failure      401   {object}  messageResponse
// @Failure      404   {object}  messageResponse
// @Router       /api/users/favorites [post]
func (h *FavoriteHandler) Add(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req addFavoriteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	in := ports.AddFavoriteInput{
		CountryCode: strings.ToUpper(req.CountryCode),
		Name:        req.Name,
		Flag:        req.Flag,
	}
	if err := h.favorites.Add(c.Request().Context(), userID, in); err != nil {
		return err
	}

	metrics.FavoritesChangesTotal.WithLabelValues("add").Inc()
	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: "Country added to favorites"})
}

// Remove deletes a country from the caller's favorites.
//
// @Summary      Remove favorite
// @Tags         favorites
// @Produce      json
// @Security     BearerAuth
// @Param        cca3  path      string  true  "ISO 3166-1 alpha-3 code"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  messageResponse
// @Failure      401   {object}  messageResponse
// @Failure      404   {object}  messageResponse
// @Router       /api/users/favorites/{cca3} [delete]
func (h *FavoriteHandler) Remove(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req removeFavoriteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.favorites.Remove(c.Request().Context(), userID, strings.ToUpper(req.CountryCode)); err != nil {
		return err
	}

	metrics.FavoritesChangesTotal.WithLabelValues("remove").Inc()
	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: "Country removed from favorites"})
}
