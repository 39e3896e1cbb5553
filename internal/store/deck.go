package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/studydeck/api/internal/domain"
)

// DeckStore defines the interface for deck and card data persistence.
// A deck is the aggregate root for its cards: cards are created, read, and
// destroyed only through their deck, and every card operation is scoped by
// the deck ID.
type DeckStore interface {
	// Create saves a new deck to the store.
	// Returns validation errors from the domain Deck if data is invalid.
	// Returns ErrInvalidEntity if the owner does not exist.
	Create(ctx context.Context, deck *domain.Deck) error

	// GetByID retrieves a deck by its unique ID.
	// Returns ErrDeckNotFound if the deck does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error)

	// ListByOwner retrieves all decks owned by the given user, ordered by
	// creation time.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Deck, error)

	// Delete removes a deck and all of its cards.
	// Returns ErrDeckNotFound if the deck does not exist.
	//
	// Card removal relies on the ON DELETE CASCADE constraint on the cards
	// table; if the schema changes, this method must delete cards explicitly.
	Delete(ctx context.Context, id uuid.UUID) error

	// AddCards saves a batch of new cards to the given deck. This is the
	// only card creation path. The operation is atomic: either every card
	// is created or none.
	// Returns validation errors if any card data is invalid.
	// Returns ErrDeckNotFound if the deck does not exist.
	AddCards(ctx context.Context, deckID uuid.UUID, cards []*domain.Card) error

	// GetCard retrieves a single card by ID, scoped to the given deck.
	// Returns ErrCardNotFound if the card does not exist in that deck.
	GetCard(ctx context.Context, deckID, cardID uuid.UUID) (*domain.Card, error)

	// UpdateCardScheduling persists a card's scheduling state (ease,
	// interval, next review time) as a single row update scoped by
	// (card ID, deck ID). Because only the one row is touched, concurrent
	// updates to different cards in the same deck never interfere.
	// Returns ErrCardNotFound if the card does not exist in that deck.
	UpdateCardScheduling(ctx context.Context, card *domain.Card) error

	// GetDueCards retrieves the cards in the deck whose next review time is
	// at or before now, projected onto the flattened due-card view, capped
	// at limit. Results are ordered by ascending next review time, then
	// card ID, so the queue is deterministic.
	GetDueCards(ctx context.Context, deckID uuid.UUID, now time.Time, limit int) ([]*domain.DueCard, error)

	// WithTx returns a new store instance that executes against the provided
	// transaction. Used with RunInTransaction for multi-statement operations.
	WithTx(tx *sql.Tx) DeckStore
}
