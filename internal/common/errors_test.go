package common

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserError(t *testing.T) {
	inner := errors.New("disk full")
	err := NewUserError("could not save model", inner)

	assert.Equal(t, "could not save model: disk full", err.Error())
	assert.ErrorIs(t, err, inner)

	bare := NewUserError("nothing to do", nil)
	assert.Equal(t, "nothing to do", bare.Error())
}

func TestIsUnavailable(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "not loaded", err: ErrModelNotLoaded, want: true},
		{name: "wrapped not fitted", err: fmt.Errorf("predict: %w", ErrModelNotFitted), want: true},
		{name: "invalid input", err: InvalidInputf("topk must be positive"), want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUnavailable(tt.err))
		})
	}
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	_, err = ParseLevel("loud")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewHandler(t *testing.T) {
	var buf bytes.Buffer
	h, err := NewHandler(&buf, slog.LevelInfo, "json")
	require.NoError(t, err)

	slog.New(h).Info("hello", "k", "v")
	assert.Contains(t, buf.String(), `"k":"v"`)

	_, err = NewHandler(&buf, slog.LevelInfo, "xml")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
