package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestColumnTime(t *testing.T) {
	in := time.Date(2026, 6, 1, 10, 0, 0, 123456789, time.UTC)

	got := columnTime(in)

	assert.Equal(t, 123456000, got.Nanosecond())
	assert.True(t, got.Equal(columnTime(got)), "丸め済みの値は変化しない")
}
