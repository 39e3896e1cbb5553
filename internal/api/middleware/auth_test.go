package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studydeck/api/internal/service/auth"
)

// stubJWTService validates a single known token.
type stubJWTService struct {
	validToken string
	userID     uuid.UUID
	err        error
}

func (s *stubJWTService) GenerateToken(_ context.Context, _ uuid.UUID) (string, error) {
	return s.validToken, nil
}

func (s *stubJWTService) ValidateToken(_ context.Context, tokenString string) (*auth.Claims, error) {
	if s.err != nil {
		return nil, s.err
	}
	if tokenString != s.validToken {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Claims{UserID: s.userID}, nil
}

func runAuthenticated(t *testing.T, jwtService auth.JWTService, authHeader string) (*httptest.ResponseRecorder, uuid.UUID, bool) {
	t.Helper()

	var gotUserID uuid.UUID
	var called bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		gotUserID, _ = GetUserID(r)
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	recorder := httptest.NewRecorder()

	NewAuthMiddleware(jwtService).Authenticate(next).ServeHTTP(recorder, req)
	return recorder, gotUserID, called
}

func TestAuthenticateValidToken(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	jwtService := &stubJWTService{validToken: "good-token", userID: userID}

	recorder, gotUserID, called := runAuthenticated(t, jwtService, "Bearer good-token")

	require.True(t, called, "handler should run for a valid token")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, userID, gotUserID)
}

func TestAuthenticateRejections(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		authHeader string
		err        error
	}{
		{"missing header", "", nil},
		{"no bearer prefix", "good-token", nil},
		{"wrong scheme", "Basic good-token", nil},
		{"invalid token", "Bearer bad-token", nil},
		{"expired token", "Bearer good-token", auth.ErrExpiredToken},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			jwtService := &stubJWTService{validToken: "good-token", userID: uuid.New(), err: tc.err}

			recorder, _, called := runAuthenticated(t, jwtService, tc.authHeader)

			assert.False(t, called, "handler should not run")
			assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		})
	}
}

func TestGetUserIDMissing(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	_, ok := GetUserID(req)
	assert.False(t, ok)
}
