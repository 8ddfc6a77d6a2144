package api

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Name     string `json:"name" validate:"required"`
	Capacity *int   `json:"maxParticipants" validate:"omitempty,gt=0"`
}

func TestCustomValidator_Validate(t *testing.T) {
	v := NewValidator()

	t.Run("正常", func(t *testing.T) {
		capacity := 3
		assert.NoError(t, v.Validate(&sampleRequest{Name: "x", Capacity: &capacity}))
	})

	t.Run("必須項目は json 名で報告する", func(t *testing.T) {
		err := v.Validate(&sampleRequest{})

		var he *echo.HTTPError
		require.ErrorAs(t, err, &he)
		assert.Equal(t, http.StatusBadRequest, he.Code)
		assert.Equal(t, "name: 必須項目です", he.Message)
	})

	t.Run("0以下の定員", func(t *testing.T) {
		capacity := 0
		err := v.Validate(&sampleRequest{Name: "x", Capacity: &capacity})

		var he *echo.HTTPError
		require.ErrorAs(t, err, &he)
		assert.Contains(t, he.Message, "maxParticipants")
	})
}
