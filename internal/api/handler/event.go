package handler

import (
	"iter"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/sportup/internal/api/middleware"
	"github.com/sanosuguru/sportup/internal/application"
	"github.com/sanosuguru/sportup/internal/domain/event"
	"github.com/sanosuguru/sportup/internal/domain/sport"
)

type EventHandler struct {
	eventService EventServiceInterface
}

func NewEventHandler(eventService EventServiceInterface) *EventHandler {
	return &EventHandler{eventService: eventService}
}

type EventRequest struct {
	Name            string `json:"name" validate:"required"`
	SportCategory   string `json:"sportCategory" validate:"required"`
	City            string `json:"city" validate:"required"`
	Area            string `json:"area" validate:"required"`
	DateTime        string `json:"dateTime" validate:"required"`
	Description     string `json:"description" validate:"required"`
	MaxParticipants *int   `json:"maxParticipants,omitempty" validate:"omitempty,gt=0"`
}

func (r EventRequest) toInput() (application.CreateEventInput, error) {
	dateTime, err := time.Parse(time.RFC3339, r.DateTime)
	if err != nil {
		return application.CreateEventInput{}, echo.NewHTTPError(http.StatusBadRequest, "開催日時の形式が不正です")
	}
	return application.CreateEventInput{
		Name:            r.Name,
		SportCategory:   r.SportCategory,
		City:            r.City,
		Area:            r.Area,
		DateTime:        dateTime,
		Description:     r.Description,
		MaxParticipants: r.MaxParticipants,
	}, nil
}

type ImageResponse struct {
	Path        string `json:"path"`
	Placeholder string `json:"placeholder"`
}

type EventResponse struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	SportCategory    string        `json:"sportCategory"`
	City             string        `json:"city"`
	Area             string        `json:"area"`
	DateTime         string        `json:"dateTime"`
	Description      string        `json:"description"`
	MaxParticipants  *int          `json:"maxParticipants"`
	ParticipantsUIDs []string      `json:"participantsUids"`
	ParticipantCount int           `json:"participantCount"`
	RemainingSpots   *int          `json:"remainingSpots"`
	IsFull           bool          `json:"isFull"`
	CreatedByUID     string        `json:"createdByUid"`
	CreatorName      string        `json:"creatorName"`
	Image            ImageResponse `json:"image"`
	CreatedAt        string        `json:"createdAt"`
	UpdatedAt        string        `json:"updatedAt"`
}

func toEventResponse(e *event.Event) *EventResponse {
	img := sport.ImageFor(e.SportCategory)
	resp := &EventResponse{
		ID:               e.ID,
		Name:             e.Name,
		SportCategory:    e.SportCategory,
		City:             e.City,
		Area:             e.Area,
		DateTime:         e.DateTime.Format(time.RFC3339),
		Description:      e.Description,
		MaxParticipants:  e.MaxParticipants,
		ParticipantsUIDs: e.ParticipantIDs,
		ParticipantCount: e.ParticipantCount(),
		IsFull:           e.IsFull(),
		CreatedByUID:     e.CreatedByUID,
		CreatorName:      e.CreatorName,
		Image:            ImageResponse{Path: img.Path, Placeholder: img.Placeholder},
		CreatedAt:        e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        e.UpdatedAt.Format(time.RFC3339),
	}
	if resp.ParticipantsUIDs == nil {
		resp.ParticipantsUIDs = []string{}
	}
	if remaining, ok := e.RemainingSpots(); ok {
		resp.RemainingSpots = &remaining
	}
	return resp
}

func toEventResponses(seq iter.Seq[*event.Event]) []*EventResponse {
	responses := []*EventResponse{}
	for e := range seq {
		responses = append(responses, toEventResponse(e))
	}
	return responses
}

// Create はイベントを作成する
// POST /api/v1/events
func (h *EventHandler) Create(c echo.Context) error {
	var req EventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "リクエストの形式が不正です")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	input, err := req.toInput()
	if err != nil {
		return err
	}

	e, err := h.eventService.CreateEvent(c.Request().Context(), middleware.Actor(c), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toEventResponse(e))
}

// GetByID は指定IDのイベントを取得する
// GET /api/v1/events/:id
func (h *EventHandler) GetByID(c echo.Context) error {
	e, err := h.eventService.GetEvent(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEventResponse(e))
}

// List はイベント一覧を開催日時順に返す
// GET /api/v1/events?date=YYYY-MM-DD&tz=Asia/Tokyo&sport=&city=&q=
func (h *EventHandler) List(c echo.Context) error {
	f := event.Filter{
		SportCategory: c.QueryParam("sport"),
		City:          c.QueryParam("city"),
		Text:          c.QueryParam("q"),
	}
	if raw := c.QueryParam("date"); raw != "" {
		loc := time.UTC
		if tz := c.QueryParam("tz"); tz != "" {
			l, err := time.LoadLocation(tz)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "タイムゾーンが不正です")
			}
			loc = l
		}
		day, err := time.ParseInLocation(time.DateOnly, raw, loc)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "日付の形式が不正です")
		}
		f.Date = day
	}

	events, err := h.eventService.ListEvents(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEventResponses(events))
}

// Update はイベントを更新する
// PUT /api/v1/events/:id
func (h *EventHandler) Update(c echo.Context) error {
	var req EventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "リクエストの形式が不正です")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	input, err := req.toInput()
	if err != nil {
		return err
	}

	e, err := h.eventService.UpdateEvent(c.Request().Context(), middleware.Actor(c), application.UpdateEventInput{
		ID:               c.Param("id"),
		CreateEventInput: input,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEventResponse(e))
}

// Delete はイベントを削除する
// DELETE /api/v1/events/:id
func (h *EventHandler) Delete(c echo.Context) error {
	if err := h.eventService.DeleteEvent(c.Request().Context(), middleware.Actor(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Join はイベントに参加する
// POST /api/v1/events/:id/join
func (h *EventHandler) Join(c echo.Context) error {
	e, err := h.eventService.JoinEvent(c.Request().Context(), middleware.Actor(c).UID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEventResponse(e))
}

// Leave はイベントから離脱する
// POST /api/v1/events/:id/leave
func (h *EventHandler) Leave(c echo.Context) error {
	e, err := h.eventService.LeaveEvent(c.Request().Context(), middleware.Actor(c).UID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEventResponse(e))
}

// ListJoined は参加中のイベントを返す
// GET /api/v1/me/events/joined
func (h *EventHandler) ListJoined(c echo.Context) error {
	events, err := h.eventService.ListEventsByParticipant(c.Request().Context(), middleware.Actor(c).UID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEventResponses(events))
}

// ListCreated は作成したイベントを返す
// GET /api/v1/me/events/created
func (h *EventHandler) ListCreated(c echo.Context) error {
	events, err := h.eventService.ListEventsByCreator(c.Request().Context(), middleware.Actor(c).UID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEventResponses(events))
}
