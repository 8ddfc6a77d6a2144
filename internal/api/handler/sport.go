package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/sportup/internal/domain/sport"
)

type SportResponse struct {
	Name  string        `json:"name"`
	Slug  string        `json:"slug"`
	Image ImageResponse `json:"image"`
}

// ListSports は競技カテゴリ一覧を表示順に返す
// GET /api/v1/sports
func ListSports(c echo.Context) error {
	categories := sport.Categories()
	resp := make([]SportResponse, len(categories))
	for i, name := range categories {
		img := sport.ImageFor(name)
		resp[i] = SportResponse{
			Name:  name,
			Slug:  sport.Slug(name),
			Image: ImageResponse{Path: img.Path, Placeholder: img.Placeholder},
		}
	}
	return c.JSON(http.StatusOK, resp)
}
