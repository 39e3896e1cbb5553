// Package review implements the review workflow: building the queue of
// cards due for study in a deck and applying a grading event to a single
// card. Both operations are gated by the deck ownership check.
package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/studydeck/api/internal/domain"
)

// DefaultDueLimit caps the review queue when the caller does not say otherwise.
const DefaultDueLimit = 20

// DeckReviewService provides the two review operations over a deck.
type DeckReviewService interface {
	// GetDueCards returns the cards in the deck that are due for review at
	// the time of the call, as flattened due-card views, capped at the
	// configured limit and ordered by ascending next review time then card
	// ID. An empty deck or a deck with nothing due yields an empty slice,
	// not an error.
	//
	// Returns ErrDeckNotFound if the deck does not exist and
	// ErrDeckNotOwned if it belongs to a different user.
	GetDueCards(ctx context.Context, userID, deckID uuid.UUID) ([]*domain.DueCard, error)

	// SubmitGrade applies a grading event to a single card and persists the
	// new scheduling state, returning the updated card. The persisted write
	// touches only the graded card, so concurrent grades of different cards
	// in the same deck both survive.
	//
	// Returns ErrDeckNotFound or ErrCardNotFound if the deck or card does
	// not exist, ErrDeckNotOwned if the deck belongs to a different user,
	// and ErrInvalidGrade if grade is outside [1,5]. On any error the
	// card's stored state is unchanged.
	SubmitGrade(ctx context.Context, userID, deckID, cardID uuid.UUID, grade int) (*domain.Card, error)
}

// Common error types for DeckReviewService
var (
	// ErrDeckNotFound indicates that the deck does not exist.
	ErrDeckNotFound = errors.New("deck not found")

	// ErrCardNotFound indicates that the card does not exist in the deck.
	ErrCardNotFound = errors.New("card not found")

	// ErrDeckNotOwned indicates that the user does not own the deck.
	ErrDeckNotOwned = errors.New("unauthorized access: deck not owned by user")

	// ErrInvalidGrade indicates a grade outside the accepted [1,5] range.
	ErrInvalidGrade = errors.New("invalid grade")
)

// ServiceError wraps errors from the review service with additional
// context, so consumers can differentiate failures with errors.As instead
// of string matching.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "get_due_cards", "submit_grade")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}
