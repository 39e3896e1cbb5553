package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/studydeck/api/internal/domain"
	"github.com/studydeck/api/internal/store"
)

// CardContent is the caller-supplied content for a new card.
type CardContent struct {
	Front string
	Back  string
}

// DeckService provides deck management operations. Every operation that
// targets an existing deck verifies that the caller owns it before acting.
type DeckService interface {
	// CreateDeck creates a new empty deck owned by the given user.
	CreateDeck(ctx context.Context, ownerID uuid.UUID, name, description string) (*domain.Deck, error)

	// GetDeck retrieves a deck by ID. Returns ErrDeckNotFound if the deck
	// does not exist, ErrDeckNotOwned if the caller is not the owner.
	GetDeck(ctx context.Context, userID, deckID uuid.UUID) (*domain.Deck, error)

	// ListDecks retrieves all decks owned by the given user.
	ListDecks(ctx context.Context, ownerID uuid.UUID) ([]*domain.Deck, error)

	// DeleteDeck removes a deck and all of its cards.
	DeleteDeck(ctx context.Context, userID, deckID uuid.UUID) error

	// AddCards creates a batch of cards in the deck. The batch is atomic:
	// either every card is created or none. New cards are due immediately.
	AddCards(ctx context.Context, userID, deckID uuid.UUID, contents []CardContent) ([]*domain.Card, error)
}

// Common sentinel errors for DeckService
var (
	// ErrDeckNotFound indicates that the deck does not exist
	ErrDeckNotFound = errors.New("deck not found")

	// ErrDeckNotOwned indicates that the deck exists but belongs to another user
	ErrDeckNotOwned = errors.New("deck not owned by user")

	// ErrNoCards indicates an empty card batch was submitted
	ErrNoCards = errors.New("at least one card is required")
)

// DeckServiceError wraps errors from the deck service with context.
type DeckServiceError struct {
	// Operation is the operation that failed (e.g., "create_deck", "add_cards")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for DeckServiceError.
func (e *DeckServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("deck service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("deck service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *DeckServiceError) Unwrap() error {
	return e.Err
}

// NewDeckServiceError creates a new DeckServiceError.
// It returns known sentinel errors directly without wrapping.
func NewDeckServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrDeckNotFound) || errors.Is(err, ErrDeckNotOwned) || errors.Is(err, ErrNoCards) {
		return err
	}

	if errors.Is(err, store.ErrDeckNotFound) {
		return ErrDeckNotFound
	}

	return &DeckServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// deckServiceImpl implements the DeckService interface
type deckServiceImpl struct {
	deckStore store.DeckStore
	db        *sql.DB
	logger    *slog.Logger
}

// NewDeckService creates a new DeckService.
// The db handle is used to open transactions for multi-statement operations;
// it must be the same database the deck store reads from.
func NewDeckService(deckStore store.DeckStore, db *sql.DB, logger *slog.Logger) DeckService {
	if deckStore == nil {
		panic("deckStore cannot be nil")
	}
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &deckServiceImpl{
		deckStore: deckStore,
		db:        db,
		logger:    logger.With(slog.String("component", "deck_service")),
	}
}

// CreateDeck creates a new empty deck owned by the given user.
func (s *deckServiceImpl) CreateDeck(
	ctx context.Context,
	ownerID uuid.UUID,
	name, description string,
) (*domain.Deck, error) {
	deck, err := domain.NewDeck(ownerID, name, description)
	if err != nil {
		s.logger.Warn("failed to create deck object",
			"error", err,
			"owner_id", ownerID)
		return nil, NewDeckServiceError("create_deck", "invalid deck data", err)
	}

	if err := s.deckStore.Create(ctx, deck); err != nil {
		s.logger.Error("failed to save deck",
			"error", err,
			"deck_id", deck.ID,
			"owner_id", ownerID)
		return nil, NewDeckServiceError("create_deck", "failed to save deck", err)
	}

	s.logger.Info("deck created",
		"deck_id", deck.ID,
		"owner_id", ownerID)
	return deck, nil
}

// GetDeck retrieves a deck after verifying ownership.
func (s *deckServiceImpl) GetDeck(
	ctx context.Context,
	userID, deckID uuid.UUID,
) (*domain.Deck, error) {
	return s.authorizeDeck(ctx, userID, deckID, s.deckStore)
}

// ListDecks retrieves all decks owned by the given user.
func (s *deckServiceImpl) ListDecks(ctx context.Context, ownerID uuid.UUID) ([]*domain.Deck, error) {
	decks, err := s.deckStore.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("failed to list decks",
			"error", err,
			"owner_id", ownerID)
		return nil, NewDeckServiceError("list_decks", "failed to list decks", err)
	}
	return decks, nil
}

// DeleteDeck removes a deck and its cards after verifying ownership.
func (s *deckServiceImpl) DeleteDeck(ctx context.Context, userID, deckID uuid.UUID) error {
	if _, err := s.authorizeDeck(ctx, userID, deckID, s.deckStore); err != nil {
		return err
	}

	if err := s.deckStore.Delete(ctx, deckID); err != nil {
		s.logger.Error("failed to delete deck",
			"error", err,
			"deck_id", deckID)
		return NewDeckServiceError("delete_deck", "failed to delete deck", err)
	}

	s.logger.Info("deck deleted",
		"deck_id", deckID,
		"owner_id", userID)
	return nil
}

// AddCards creates a batch of cards in the deck. Ownership is re-checked
// inside the transaction so the deck cannot disappear between the check and
// the inserts.
func (s *deckServiceImpl) AddCards(
	ctx context.Context,
	userID, deckID uuid.UUID,
	contents []CardContent,
) ([]*domain.Card, error) {
	if len(contents) == 0 {
		return nil, ErrNoCards
	}

	cards := make([]*domain.Card, 0, len(contents))
	for _, content := range contents {
		card, err := domain.NewCard(deckID, content.Front, content.Back)
		if err != nil {
			s.logger.Warn("failed to create card object",
				"error", err,
				"deck_id", deckID)
			return nil, NewDeckServiceError("add_cards", "invalid card data", err)
		}
		cards = append(cards, card)
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.deckStore.WithTx(tx)

		if _, err := s.authorizeDeck(ctx, userID, deckID, txStore); err != nil {
			return err
		}

		if err := txStore.AddCards(ctx, deckID, cards); err != nil {
			s.logger.Error("failed to add cards in transaction",
				"error", err,
				"deck_id", deckID,
				"count", len(cards))
			return NewDeckServiceError("add_cards", "failed to save cards", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("cards added",
		"deck_id", deckID,
		"owner_id", userID,
		"count", len(cards))
	return cards, nil
}

// authorizeDeck loads the deck and verifies the caller owns it.
func (s *deckServiceImpl) authorizeDeck(
	ctx context.Context,
	userID, deckID uuid.UUID,
	deckStore store.DeckStore,
) (*domain.Deck, error) {
	deck, err := deckStore.GetByID(ctx, deckID)
	if err != nil {
		if errors.Is(err, store.ErrDeckNotFound) {
			s.logger.Debug("deck not found",
				"deck_id", deckID,
				"user_id", userID)
			return nil, ErrDeckNotFound
		}
		s.logger.Error("failed to retrieve deck",
			"error", err,
			"deck_id", deckID)
		return nil, NewDeckServiceError("get_deck", "failed to retrieve deck", err)
	}

	if !deck.IsOwnedBy(userID) {
		s.logger.Warn("deck access denied",
			"deck_id", deckID,
			"owner_id", deck.OwnerID,
			"user_id", userID)
		return nil, ErrDeckNotOwned
	}

	return deck, nil
}
