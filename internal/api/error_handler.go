package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sanosuguru/sportup/internal/application"
	"github.com/sanosuguru/sportup/internal/domain/event"
	"github.com/sanosuguru/sportup/internal/domain/identity"
	"github.com/sanosuguru/sportup/internal/domain/profile"
	"github.com/sanosuguru/sportup/internal/domain/store"
	"github.com/sanosuguru/sportup/internal/domain/suggestion"
	"github.com/sanosuguru/sportup/internal/pkg/logger"
)

// ErrorResponse はエラーレスポンスの統一フォーマット
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code,omitempty"`
	Field string `json:"field,omitempty"`
}

// CustomHTTPErrorHandler はカスタムエラーハンドラー
// ドメインエラーをステータスコードに変換する
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	resp := toErrorResponse(err)

	// エラーログを出力（5xx エラーの場合）
	if resp.Code >= 500 {
		logger.Error("サーバーエラー",
			zap.Int("status", resp.Code),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(resp.Code)
	} else {
		err = c.JSON(resp.Code, resp)
	}
	if err != nil {
		logger.Error("エラーレスポンス送信失敗", zap.Error(err))
	}
}

// StatusCode はエラーに対応するHTTPステータスコードを返す
func StatusCode(err error) int {
	return toErrorResponse(err).Code
}

func toErrorResponse(err error) ErrorResponse {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		message, ok := he.Message.(string)
		if !ok {
			message = http.StatusText(he.Code)
		}
		return ErrorResponse{Error: message, Code: he.Code}
	}

	var eventValidation *event.ValidationError
	if errors.As(err, &eventValidation) {
		return ErrorResponse{Error: eventValidation.Err.Error(), Code: http.StatusBadRequest, Field: eventValidation.Field}
	}
	var profileValidation *profile.ValidationError
	if errors.As(err, &profileValidation) {
		return ErrorResponse{Error: profileValidation.Err.Error(), Code: http.StatusBadRequest, Field: profileValidation.Field}
	}

	switch {
	case errors.Is(err, event.ErrValidation),
		errors.Is(err, profile.ErrValidation),
		errors.Is(err, suggestion.ErrInputRequired):
		return ErrorResponse{Error: rootMessage(err), Code: http.StatusBadRequest}
	case errors.Is(err, identity.ErrInvalidToken):
		return ErrorResponse{Error: identity.ErrInvalidToken.Error(), Code: http.StatusUnauthorized}
	case errors.Is(err, event.ErrNotAuthorized):
		return ErrorResponse{Error: event.ErrNotAuthorized.Error(), Code: http.StatusForbidden}
	case errors.Is(err, profile.ErrNotOwner):
		return ErrorResponse{Error: profile.ErrNotOwner.Error(), Code: http.StatusForbidden}
	case errors.Is(err, event.ErrEventNotFound):
		return ErrorResponse{Error: event.ErrEventNotFound.Error(), Code: http.StatusNotFound}
	case errors.Is(err, profile.ErrProfileNotFound):
		return ErrorResponse{Error: profile.ErrProfileNotFound.Error(), Code: http.StatusNotFound}
	case errors.Is(err, event.ErrEventFull):
		return ErrorResponse{Error: event.ErrEventFull.Error(), Code: http.StatusConflict}
	case errors.Is(err, store.ErrUnavailable):
		return ErrorResponse{Error: store.ErrUnavailable.Error(), Code: http.StatusServiceUnavailable}
	case errors.Is(err, suggestion.ErrUnavailable):
		return ErrorResponse{Error: suggestion.ErrUnavailable.Error(), Code: http.StatusServiceUnavailable}
	case errors.Is(err, application.ErrPhotoStorageUnavailable):
		return ErrorResponse{Error: application.ErrPhotoStorageUnavailable.Error(), Code: http.StatusServiceUnavailable}
	}

	return ErrorResponse{Error: "内部サーバーエラー", Code: http.StatusInternalServerError}
}

func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
