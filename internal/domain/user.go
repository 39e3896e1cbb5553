package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// User-specific validation errors
var (
	// ErrUserIDEmpty is returned when a user ID is empty or nil.
	ErrUserIDEmpty = errors.New("user ID cannot be empty")

	// ErrUsernameEmpty is returned when a username is empty.
	ErrUsernameEmpty = errors.New("username cannot be empty")

	// ErrUsernameTooLong is returned when a username exceeds the maximum length.
	ErrUsernameTooLong = errors.New("username cannot exceed 50 characters")

	// ErrPasswordHashEmpty is returned when a user's password hash is empty.
	ErrPasswordHashEmpty = errors.New("user password hash cannot be empty")
)

// maxUsernameLen caps usernames at a length that fits the database column.
const maxUsernameLen = 50

// User represents a registered account. A user owns zero or more decks;
// ownership is recorded on the deck side as an immutable OwnerID.
type User struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	HashedPassword string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewUser creates a new User with the given username and already-hashed
// password. It generates a new UUID for the user ID and sets the
// creation/update timestamps. Returns an error if validation fails.
func NewUser(username, hashedPassword string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:             uuid.New(),
		Username:       username,
		HashedPassword: hashedPassword,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
// Returns an error if any field fails validation.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrUserIDEmpty
	}

	if u.Username == "" {
		return ErrUsernameEmpty
	}

	if len(u.Username) > maxUsernameLen {
		return ErrUsernameTooLong
	}

	if u.HashedPassword == "" {
		return ErrPasswordHashEmpty
	}

	return nil
}
