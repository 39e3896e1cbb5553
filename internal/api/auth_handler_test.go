package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studydeck/api/internal/domain"
	"github.com/studydeck/api/internal/service/auth"
	"github.com/studydeck/api/internal/store"
)

// memUserStore is an in-memory store.UserStore for handler tests.
type memUserStore struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

var _ store.UserStore = (*memUserStore)(nil)

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]*domain.User)}
}

func (s *memUserStore) Create(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.Username]; exists {
		return store.ErrUsernameExists
	}
	copied := *user
	s.users[user.Username] = &copied
	return nil
}

func (s *memUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.ID == id {
			copied := *user
			return &copied, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (s *memUserStore) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[username]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

// stubJWTService issues predictable tokens without signing anything.
type stubJWTService struct {
	generateErr error
}

var _ auth.JWTService = (*stubJWTService)(nil)

func (s *stubJWTService) GenerateToken(_ context.Context, userID uuid.UUID) (string, error) {
	if s.generateErr != nil {
		return "", s.generateErr
	}
	return "token-" + userID.String(), nil
}

func (s *stubJWTService) ValidateToken(_ context.Context, tokenString string) (*auth.Claims, error) {
	const prefix = "token-"
	if len(tokenString) <= len(prefix) || tokenString[:len(prefix)] != prefix {
		return nil, auth.ErrInvalidToken
	}
	userID, err := uuid.Parse(tokenString[len(prefix):])
	if err != nil {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Claims{UserID: userID}, nil
}

func newAuthTestHandler() (*AuthHandler, *memUserStore) {
	userStore := newMemUserStore()
	handler := NewAuthHandler(userStore, &stubJWTService{}, auth.NewBcryptHasher())
	return handler, userStore
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	handler(recorder, req)
	return recorder
}

func TestRegister(t *testing.T) {
	t.Parallel()
	handler, userStore := newAuthTestHandler()

	recorder := postJSON(t, handler.Register, "/auth/register", RegisterRequest{
		Username: "alex",
		Password: "correct horse battery",
	})

	require.Equal(t, http.StatusCreated, recorder.Code)

	var resp AuthResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.NotEqual(t, uuid.Nil, resp.UserID)
	assert.Equal(t, "token-"+resp.UserID.String(), resp.Token)

	// The stored password is hashed, never plaintext.
	user, err := userStore.GetByUsername(context.Background(), "alex")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery", user.HashedPassword)
	assert.NotEmpty(t, user.HashedPassword)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	t.Parallel()
	handler, _ := newAuthTestHandler()

	first := postJSON(t, handler.Register, "/auth/register", RegisterRequest{
		Username: "alex",
		Password: "correct horse battery",
	})
	require.Equal(t, http.StatusCreated, first.Code)

	second := postJSON(t, handler.Register, "/auth/register", RegisterRequest{
		Username: "alex",
		Password: "a different password",
	})
	assert.Equal(t, http.StatusConflict, second.Code)
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()
	handler, _ := newAuthTestHandler()

	testCases := []struct {
		name string
		req  RegisterRequest
	}{
		{"missing username", RegisterRequest{Password: "correct horse battery"}},
		{"short password", RegisterRequest{Username: "alex", Password: "short"}},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			recorder := postJSON(t, handler.Register, "/auth/register", tc.req)
			assert.Equal(t, http.StatusBadRequest, recorder.Code)
		})
	}
}

func TestRegisterMalformedBody(t *testing.T) {
	t.Parallel()
	handler, _ := newAuthTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader([]byte("{not json")))
	recorder := httptest.NewRecorder()
	handler.Register(recorder, req)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestLogin(t *testing.T) {
	t.Parallel()
	handler, _ := newAuthTestHandler()

	registered := postJSON(t, handler.Register, "/auth/register", RegisterRequest{
		Username: "alex",
		Password: "correct horse battery",
	})
	require.Equal(t, http.StatusCreated, registered.Code)

	recorder := postJSON(t, handler.Login, "/auth/login", LoginRequest{
		Username: "alex",
		Password: "correct horse battery",
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	var resp AuthResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.NotEmpty(t, resp.Token)
}

func TestLoginBadCredentials(t *testing.T) {
	t.Parallel()
	handler, _ := newAuthTestHandler()

	registered := postJSON(t, handler.Register, "/auth/register", RegisterRequest{
		Username: "alex",
		Password: "correct horse battery",
	})
	require.Equal(t, http.StatusCreated, registered.Code)

	// Wrong password and unknown user produce the same status and message.
	wrongPassword := postJSON(t, handler.Login, "/auth/login", LoginRequest{
		Username: "alex",
		Password: "wrong password",
	})
	unknownUser := postJSON(t, handler.Login, "/auth/login", LoginRequest{
		Username: "nobody",
		Password: "whatever else",
	})

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownUser.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownUser.Body.String())
}

func TestRegisterTokenFailure(t *testing.T) {
	t.Parallel()
	handler := NewAuthHandler(
		newMemUserStore(),
		&stubJWTService{generateErr: fmt.Errorf("signing key unavailable")},
		auth.NewBcryptHasher(),
	)

	recorder := postJSON(t, handler.Register, "/auth/register", RegisterRequest{
		Username: "alex",
		Password: "correct horse battery",
	})
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
}
