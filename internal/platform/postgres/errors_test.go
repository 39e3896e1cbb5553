package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/studydeck/api/internal/store"
)

func TestMapError(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		err     error
		wantErr error
	}{
		{name: "nil error", err: nil, wantErr: nil},
		{name: "no rows maps to not found", err: sql.ErrNoRows, wantErr: store.ErrNotFound},
		{
			name:    "wrapped no rows maps to not found",
			err:     fmt.Errorf("query failed: %w", sql.ErrNoRows),
			wantErr: store.ErrNotFound,
		},
		{
			name:    "unique violation maps to duplicate",
			err:     &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "users_username_key"},
			wantErr: store.ErrDuplicate,
		},
		{
			name:    "foreign key violation maps to invalid entity",
			err:     &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "cards_deck_id_fkey"},
			wantErr: store.ErrInvalidEntity,
		},
		{
			name:    "check violation maps to invalid entity",
			err:     &pgconn.PgError{Code: checkViolationCode, ConstraintName: "cards_ease_check"},
			wantErr: store.ErrInvalidEntity,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			mapped := MapError(tc.err)
			if tc.wantErr == nil {
				assert.NoError(t, mapped)
			} else {
				assert.ErrorIs(t, mapped, tc.wantErr)
			}
		})
	}
}

func TestMapErrorPassesThroughUnknown(t *testing.T) {
	t.Parallel()

	unknown := errors.New("connection reset")
	assert.Equal(t, unknown, MapError(unknown))
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: uniqueViolationCode}))
	assert.True(t, IsUniqueViolation(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: uniqueViolationCode})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: foreignKeyViolationCode}))
	assert.False(t, IsUniqueViolation(errors.New("plain error")))
}
