package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	t.Parallel()

	user, err := NewUser("alice", "$2a$10$fakehashfakehashfakehash")
	require.NoError(t, err)

	assert.Equal(t, "alice", user.Username)
	assert.NotEmpty(t, user.HashedPassword)
	assert.False(t, user.CreatedAt.IsZero())
}

func TestNewUserValidation(t *testing.T) {
	t.Parallel()

	_, err := NewUser("", "hash")
	assert.ErrorIs(t, err, ErrUsernameEmpty)

	_, err = NewUser("alice", "")
	assert.ErrorIs(t, err, ErrPasswordHashEmpty)

	_, err = NewUser(strings.Repeat("a", maxUsernameLen+1), "hash")
	assert.ErrorIs(t, err, ErrUsernameTooLong)
}
