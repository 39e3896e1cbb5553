package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Card-specific validation errors
var (
	// ErrCardIDEmpty is returned when a card ID is empty or nil.
	ErrCardIDEmpty = errors.New("card ID cannot be empty")

	// ErrCardDeckIDEmpty is returned when a card's deck ID is empty or nil.
	ErrCardDeckIDEmpty = errors.New("card deck ID cannot be empty")

	// ErrCardFrontEmpty is returned when a card's front text is empty.
	ErrCardFrontEmpty = errors.New("card front text cannot be empty")

	// ErrCardBackEmpty is returned when a card's back text is empty.
	ErrCardBackEmpty = errors.New("card back text cannot be empty")

	// ErrCardEaseOutOfRange is returned when a card's ease is outside [1,5].
	ErrCardEaseOutOfRange = errors.New("card ease must be between 1 and 5")

	// ErrCardIntervalNegative is returned when a card's interval is negative.
	ErrCardIntervalNegative = errors.New("card interval cannot be negative")
)

// Default scheduling state for a freshly created card.
const (
	// DefaultEase is the ease assigned to a card that has never been graded.
	DefaultEase = 2.5

	// MinEase and MaxEase bound the ease a grading event may assign.
	MinEase = 1.0
	MaxEase = 5.0
)

// Card is the unit of scheduling: a front/back text pair plus the spaced
// repetition state (ease, interval, next review time). Front and back are
// fixed after creation; only grading mutates a card.
type Card struct {
	ID           uuid.UUID `json:"id"`
	DeckID       uuid.UUID `json:"deck_id"`
	Front        string    `json:"front"`
	Back         string    `json:"back"`
	Ease         float64   `json:"ease"`
	Interval     int       `json:"interval"`
	NextReviewAt time.Time `json:"next_review_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewCard creates a new Card in the given deck with default scheduling
// state: ease 2.5, interval 0, due immediately. Returns an error if
// validation fails.
func NewCard(deckID uuid.UUID, front, back string) (*Card, error) {
	now := time.Now().UTC()
	card := &Card{
		ID:           uuid.New(),
		DeckID:       deckID,
		Front:        front,
		Back:         back,
		Ease:         DefaultEase,
		Interval:     0,
		NextReviewAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Card has valid data.
// Returns an error if any field fails validation.
func (c *Card) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}

	if c.DeckID == uuid.Nil {
		return ErrCardDeckIDEmpty
	}

	if c.Front == "" {
		return ErrCardFrontEmpty
	}

	if c.Back == "" {
		return ErrCardBackEmpty
	}

	if c.Ease < MinEase || c.Ease > MaxEase {
		return ErrCardEaseOutOfRange
	}

	if c.Interval < 0 {
		return ErrCardIntervalNegative
	}

	return nil
}

// IsDue reports whether the card is due for review at the given time.
func (c *Card) IsDue(now time.Time) bool {
	return !c.NextReviewAt.After(now)
}

// DueCard is the flattened projection of a due card returned by the review
// queue: the owning deck's identity is denormalized onto each row so the
// client can render a queue spanning metadata without extra lookups.
type DueCard struct {
	DeckID       uuid.UUID `json:"deck_id"`
	DeckName     string    `json:"deck_name"`
	CardID       uuid.UUID `json:"card_id"`
	Front        string    `json:"front"`
	Back         string    `json:"back"`
	Ease         float64   `json:"ease"`
	Interval     int       `json:"interval"`
	NextReviewAt time.Time `json:"next_review_at"`
}
