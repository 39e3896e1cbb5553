package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/studydeck/api/internal/api/shared"
	"github.com/studydeck/api/internal/service"
	"github.com/studydeck/api/internal/service/auth"
	"github.com/studydeck/api/internal/service/review"
	"github.com/studydeck/api/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid token", auth.ErrInvalidToken, http.StatusUnauthorized},
		{"expired token", auth.ErrExpiredToken, http.StatusUnauthorized},
		{"invalid credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{"deck not owned", service.ErrDeckNotOwned, http.StatusForbidden},
		{"review deck not owned", review.ErrDeckNotOwned, http.StatusForbidden},
		{"deck not found", service.ErrDeckNotFound, http.StatusNotFound},
		{"review deck not found", review.ErrDeckNotFound, http.StatusNotFound},
		{"card not found", review.ErrCardNotFound, http.StatusNotFound},
		{"store user not found", store.ErrUserNotFound, http.StatusNotFound},
		{"username exists", store.ErrUsernameExists, http.StatusConflict},
		{"invalid grade", review.ErrInvalidGrade, http.StatusBadRequest},
		{"empty card batch", service.ErrNoCards, http.StatusBadRequest},
		{"invalid entity", store.ErrInvalidEntity, http.StatusBadRequest},
		{"unknown error", fmt.Errorf("boom"), http.StatusInternalServerError},
		{"wrapped sentinel", fmt.Errorf("outer: %w", review.ErrDeckNotOwned), http.StatusForbidden},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
	assert.Equal(t, "You do not own this deck", GetSafeErrorMessage(review.ErrDeckNotOwned))
	assert.Equal(t, "Deck not found", GetSafeErrorMessage(review.ErrDeckNotFound))
	assert.Equal(t, "Card not found", GetSafeErrorMessage(review.ErrCardNotFound))
	assert.Equal(t, "Username already taken", GetSafeErrorMessage(store.ErrUsernameExists))
	assert.Equal(t, "Grade must be an integer between 1 and 5", GetSafeErrorMessage(review.ErrInvalidGrade))

	// Internal detail never leaks for unknown errors.
	leaky := fmt.Errorf("pq: connection refused host=10.0.0.5 user=admin")
	msg := GetSafeErrorMessage(leaky)
	assert.Equal(t, "An unexpected error occurred", msg)
	assert.NotContains(t, msg, "10.0.0.5")
}

func TestSanitizeValidationError(t *testing.T) {
	t.Parallel()

	err := shared.ValidateRequest(RegisterRequest{Username: "sam", Password: "short"})
	assert.Error(t, err)
	assert.Equal(t, "Invalid Password: too short", SanitizeValidationError(err))

	err = shared.ValidateRequest(LoginRequest{Password: "something"})
	assert.Error(t, err)
	assert.Equal(t, "Invalid Username: required field", SanitizeValidationError(err))

	assert.Equal(t, "Validation error", SanitizeValidationError(fmt.Errorf("something else")))
}
