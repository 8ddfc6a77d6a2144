package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/sportup/internal/api/middleware"
)

// Handlers はルーティング対象のハンドラー一式
type Handlers struct {
	Health     *HealthHandler
	Event      *EventHandler
	Profile    *ProfileHandler
	Suggestion *SuggestionHandler
}

// RegisterRoutes は /health, /ready と /api/v1 配下のルートを登録する
// authenticate は全 /api/v1 ルートに適用され、書き込み系は認証必須になる
func RegisterRoutes(e *echo.Echo, h Handlers, authenticate echo.MiddlewareFunc) {
	e.GET("/health", h.Health.Check)
	e.GET("/ready", h.Health.Ready)

	v1 := e.Group("/api/v1", authenticate)
	v1.GET("/sports", ListSports)
	v1.GET("/events", h.Event.List)
	v1.GET("/events/:id", h.Event.GetByID)

	auth := middleware.RequireAuth()
	v1.POST("/events", h.Event.Create, auth)
	v1.PUT("/events/:id", h.Event.Update, auth)
	v1.DELETE("/events/:id", h.Event.Delete, auth)
	v1.POST("/events/:id/join", h.Event.Join, auth)
	v1.POST("/events/:id/leave", h.Event.Leave, auth)
	v1.GET("/me/events/created", h.Event.ListCreated, auth)
	v1.GET("/me/events/joined", h.Event.ListJoined, auth)

	v1.POST("/profile", h.Profile.Signup, auth)
	v1.GET("/profile", h.Profile.Get, auth)
	v1.PUT("/profile", h.Profile.Update, auth)
	v1.POST("/profile/photo", h.Profile.UploadPhoto, auth)
	v1.GET("/profile/skill-levels", h.Profile.SkillLevels)

	v1.POST("/suggestions/location", h.Suggestion.SuggestLocation, auth)
}
