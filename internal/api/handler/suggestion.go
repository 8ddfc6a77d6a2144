package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/sportup/internal/domain/suggestion"
)

type SuggestionHandler struct {
	suggestionService SuggestionServiceInterface
}

func NewSuggestionHandler(suggestionService SuggestionServiceInterface) *SuggestionHandler {
	return &SuggestionHandler{suggestionService: suggestionService}
}

type LocationSuggestionRequest struct {
	UserPreferences          string `json:"userPreferences" validate:"required"`
	SportsCategory           string `json:"sportsCategory" validate:"required"`
	City                     string `json:"city" validate:"required"`
	AreaPreferences          string `json:"areaPreferences" validate:"required"`
	GeographicalDistribution string `json:"geographicalDistribution" validate:"required"`
}

// SuggestLocation は条件に合う会場を提案する
// POST /api/v1/suggestions/location
func (h *SuggestionHandler) SuggestLocation(c echo.Context) error {
	var req LocationSuggestionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "リクエストの形式が不正です")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.suggestionService.SuggestLocation(c.Request().Context(), suggestion.Input{
		UserPreferences:          req.UserPreferences,
		SportsCategory:           req.SportsCategory,
		City:                     req.City,
		AreaPreferences:          req.AreaPreferences,
		GeographicalDistribution: req.GeographicalDistribution,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}
