package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jonathan/internx-match/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &types.ValidationError{Field: "rating", Message: "out of range"}, http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("record: %w", &types.ValidationError{Message: "bad"}), http.StatusBadRequest},
		{"not authorized", types.ErrNotAuthorized, http.StatusUnauthorized},
		{"not found", fmt.Errorf("session x: %w", types.ErrNotFound), http.StatusNotFound},
		{"invalid state", fmt.Errorf("complete: %w", types.ErrInvalidState), http.StatusConflict},
		{"prerequisite", types.ErrPrerequisiteNotMet, http.StatusPreconditionFailed},
		{"scoring", fmt.Errorf("score: %w", types.ErrScoringUnavailable), http.StatusServiceUnavailable},
		{"store", types.NewStoreError("insert", errors.New("conn refused")), http.StatusServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestClientMessage_HidesInternals(t *testing.T) {
	storeErr := types.NewStoreError("insert", errors.New("password authentication failed for user internx"))
	assert.Equal(t, "store unavailable, retry later", clientMessage(storeErr, HTTPStatus(storeErr)))

	internal := errors.New("nil pointer somewhere")
	assert.Equal(t, "internal error", clientMessage(internal, HTTPStatus(internal)))

	notFound := fmt.Errorf("session abc: %w", types.ErrNotFound)
	assert.Equal(t, "session abc: not found", clientMessage(notFound, HTTPStatus(notFound)))
}
