package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/sanosuguru/sportup/internal/application"
	"github.com/sanosuguru/sportup/internal/domain/event"
	"github.com/sanosuguru/sportup/internal/domain/identity"
	"github.com/sanosuguru/sportup/internal/domain/profile"
	"github.com/sanosuguru/sportup/internal/domain/store"
	"github.com/sanosuguru/sportup/internal/domain/suggestion"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"イベントの検証エラー", fmt.Errorf("バリデーションエラー: %w", &event.ValidationError{Field: "name", Err: event.ErrInvalidName}), http.StatusBadRequest},
		{"都市の長さ超過", fmt.Errorf("バリデーションエラー: %w", (&event.Details{Name: "Futsal", SportCategory: "Football", City: strings.Repeat("c", 300)}).Validate()), http.StatusBadRequest},
		{"プロフィールの検証エラー", profile.NewValidationError("skillLevel", profile.ErrInvalidSkillLevel), http.StatusBadRequest},
		{"提案の入力不足", suggestion.ErrInputRequired, http.StatusBadRequest},
		{"不正なトークン", fmt.Errorf("%w: expired", identity.ErrInvalidToken), http.StatusUnauthorized},
		{"イベントの権限なし", event.ErrNotAuthorized, http.StatusForbidden},
		{"他人のプロフィール", profile.ErrNotOwner, http.StatusForbidden},
		{"イベントなし", event.ErrEventNotFound, http.StatusNotFound},
		{"プロフィールなし", profile.ErrProfileNotFound, http.StatusNotFound},
		{"満員", event.ErrEventFull, http.StatusConflict},
		{"ストア障害", fmt.Errorf("query: %w: %w", store.ErrUnavailable, errors.New("dial tcp")), http.StatusServiceUnavailable},
		{"提案サービス停止", suggestion.ErrUnavailable, http.StatusServiceUnavailable},
		{"写真の保存先なし", application.ErrPhotoStorageUnavailable, http.StatusServiceUnavailable},
		{"HTTPError", echo.NewHTTPError(http.StatusTeapot, "teapot"), http.StatusTeapot},
		{"未分類", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

func TestCustomHTTPErrorHandler(t *testing.T) {
	e := echo.New()

	t.Run("検証エラーはフィールドを含む", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)

		CustomHTTPErrorHandler(&event.ValidationError{Field: "area", Err: event.ErrInvalidArea}, c)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"`+event.ErrInvalidArea.Error()+`","code":400,"field":"area"}`, rec.Body.String())
	})

	t.Run("内部エラーの詳細は返さない", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

		CustomHTTPErrorHandler(errors.New("pq: password authentication failed"), c)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "password")
	})

	t.Run("送信済みのレスポンスは変更しない", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		_ = c.NoContent(http.StatusAccepted)

		CustomHTTPErrorHandler(event.ErrEventFull, c)

		assert.Equal(t, http.StatusAccepted, rec.Code)
	})
}
