package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/studydeck/api/internal/domain"
	"github.com/studydeck/api/internal/platform/logger"
	"github.com/studydeck/api/internal/store"
)

// PostgresDeckStore implements the store.DeckStore interface
// using a PostgreSQL database as the storage backend.
type PostgresDeckStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresDeckStore creates a new PostgreSQL implementation of the DeckStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresDeckStore(db store.DBTX, log *slog.Logger) *PostgresDeckStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if log == nil {
		log = slog.Default()
	}

	return &PostgresDeckStore{
		db:     db,
		logger: log.With(slog.String("component", "deck_store")),
	}
}

// Ensure PostgresDeckStore implements store.DeckStore interface
var _ store.DeckStore = (*PostgresDeckStore)(nil)

// WithTx implements store.DeckStore.WithTx
// It returns a new store instance bound to the provided transaction.
func (s *PostgresDeckStore) WithTx(tx *sql.Tx) store.DeckStore {
	return &PostgresDeckStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.DeckStore.Create
// Returns store.ErrInvalidEntity if the owner does not exist (foreign key violation).
func (s *PostgresDeckStore) Create(ctx context.Context, deck *domain.Deck) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := deck.Validate(); err != nil {
		log.Warn("deck validation failed during create",
			slog.String("error", err.Error()),
			slog.String("deck_id", deck.ID.String()))
		return err
	}

	query := `
		INSERT INTO decks (id, owner_id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		deck.ID,
		deck.OwnerID,
		deck.Name,
		deck.Description,
		deck.CreatedAt,
		deck.UpdatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during deck creation",
				slog.String("deck_id", deck.ID.String()),
				slog.String("owner_id", deck.OwnerID.String()))
			return fmt.Errorf("%w: owner with ID %s not found",
				store.ErrInvalidEntity, deck.OwnerID)
		}

		log.Error("failed to create deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", deck.ID.String()))
		return MapError(err)
	}

	log.Info("deck created successfully",
		slog.String("deck_id", deck.ID.String()),
		slog.String("owner_id", deck.OwnerID.String()))
	return nil
}

// GetByID implements store.DeckStore.GetByID
// Returns store.ErrDeckNotFound if the deck does not exist.
func (s *PostgresDeckStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, owner_id, name, description, created_at, updated_at
		FROM decks
		WHERE id = $1
	`
	var deck domain.Deck
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&deck.ID,
		&deck.OwnerID,
		&deck.Name,
		&deck.Description,
		&deck.CreatedAt,
		&deck.UpdatedAt,
	)
	if err != nil {
		mapped := MapError(err)
		if store.IsNotFoundError(mapped) {
			log.Debug("deck not found", slog.String("deck_id", id.String()))
			return nil, store.ErrDeckNotFound
		}

		log.Error("failed to get deck by ID",
			slog.String("error", err.Error()),
			slog.String("deck_id", id.String()))
		return nil, mapped
	}

	return &deck, nil
}

// ListByOwner implements store.DeckStore.ListByOwner
func (s *PostgresDeckStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, owner_id, name, description, created_at, updated_at
		FROM decks
		WHERE owner_id = $1
		ORDER BY created_at, id
	`
	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		log.Error("failed to list decks",
			slog.String("error", err.Error()),
			slog.String("owner_id", ownerID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn("failed to close rows", slog.String("error", closeErr.Error()))
		}
	}()

	decks := make([]*domain.Deck, 0)
	for rows.Next() {
		var deck domain.Deck
		if err := rows.Scan(
			&deck.ID,
			&deck.OwnerID,
			&deck.Name,
			&deck.Description,
			&deck.CreatedAt,
			&deck.UpdatedAt,
		); err != nil {
			log.Error("failed to scan deck row",
				slog.String("error", err.Error()),
				slog.String("owner_id", ownerID.String()))
			return nil, MapError(err)
		}
		decks = append(decks, &deck)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return decks, nil
}

// Delete implements store.DeckStore.Delete
// Card rows are removed by the ON DELETE CASCADE constraint on cards.deck_id.
// Returns store.ErrDeckNotFound if the deck does not exist.
func (s *PostgresDeckStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM decks WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "deck"); err != nil {
		log.Debug("deck not found for delete", slog.String("deck_id", id.String()))
		return store.ErrDeckNotFound
	}

	log.Info("deck deleted successfully", slog.String("deck_id", id.String()))
	return nil
}

// AddCards implements store.DeckStore.AddCards
// IMPORTANT: run this within a transaction (store.RunInTransaction with a
// tx-bound store) so the batch is all-or-nothing.
// Returns store.ErrDeckNotFound if the deck does not exist.
func (s *PostgresDeckStore) AddCards(ctx context.Context, deckID uuid.UUID, cards []*domain.Card) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(cards) == 0 {
		return nil
	}

	for _, card := range cards {
		if card.DeckID != deckID {
			return fmt.Errorf("%w: card %s does not belong to deck %s",
				store.ErrInvalidEntity, card.ID, deckID)
		}
		if err := card.Validate(); err != nil {
			log.Warn("card validation failed during bulk add",
				slog.String("error", err.Error()),
				slog.String("card_id", card.ID.String()))
			return err
		}
	}

	query := `
		INSERT INTO cards (id, deck_id, front, back, ease, interval, next_review_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	for _, card := range cards {
		_, err := s.db.ExecContext(
			ctx,
			query,
			card.ID,
			card.DeckID,
			card.Front,
			card.Back,
			card.Ease,
			card.Interval,
			card.NextReviewAt,
			card.CreatedAt,
			card.UpdatedAt,
		)
		if err != nil {
			if IsForeignKeyViolation(err) {
				log.Warn("deck not found during bulk card add",
					slog.String("deck_id", deckID.String()))
				return store.ErrDeckNotFound
			}

			log.Error("failed to insert card",
				slog.String("error", err.Error()),
				slog.String("card_id", card.ID.String()),
				slog.String("deck_id", deckID.String()))
			return MapError(err)
		}
	}

	log.Info("cards added successfully",
		slog.String("deck_id", deckID.String()),
		slog.Int("count", len(cards)))
	return nil
}

// GetCard implements store.DeckStore.GetCard
// Returns store.ErrCardNotFound if the card does not exist in the deck.
func (s *PostgresDeckStore) GetCard(ctx context.Context, deckID, cardID uuid.UUID) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, deck_id, front, back, ease, interval, next_review_at, created_at, updated_at
		FROM cards
		WHERE id = $1 AND deck_id = $2
	`
	var card domain.Card
	err := s.db.QueryRowContext(ctx, query, cardID, deckID).Scan(
		&card.ID,
		&card.DeckID,
		&card.Front,
		&card.Back,
		&card.Ease,
		&card.Interval,
		&card.NextReviewAt,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		mapped := MapError(err)
		if store.IsNotFoundError(mapped) {
			log.Debug("card not found",
				slog.String("card_id", cardID.String()),
				slog.String("deck_id", deckID.String()))
			return nil, store.ErrCardNotFound
		}

		log.Error("failed to get card",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return nil, mapped
	}

	return &card, nil
}

// UpdateCardScheduling implements store.DeckStore.UpdateCardScheduling
// The update touches a single row identified by (id, deck_id), so two
// concurrent grades of different cards in the same deck cannot overwrite
// each other's state.
// Returns store.ErrCardNotFound if the card does not exist in the deck.
func (s *PostgresDeckStore) UpdateCardScheduling(ctx context.Context, card *domain.Card) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		log.Warn("card validation failed during scheduling update",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return err
	}

	query := `
		UPDATE cards
		SET ease = $3, interval = $4, next_review_at = $5, updated_at = $6
		WHERE id = $1 AND deck_id = $2
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		card.ID,
		card.DeckID,
		card.Ease,
		card.Interval,
		card.NextReviewAt,
		card.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to update card scheduling",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "card"); err != nil {
		log.Debug("card not found for scheduling update",
			slog.String("card_id", card.ID.String()),
			slog.String("deck_id", card.DeckID.String()))
		return store.ErrCardNotFound
	}

	log.Debug("card scheduling updated",
		slog.String("card_id", card.ID.String()),
		slog.Int("interval", card.Interval),
		slog.Float64("ease", card.Ease),
		slog.Time("next_review_at", card.NextReviewAt))
	return nil
}

// GetDueCards implements store.DeckStore.GetDueCards
// The deck name is denormalized onto each row via the join so callers get
// the complete due-card view in one query. Ordering by next_review_at then
// id keeps the queue deterministic.
func (s *PostgresDeckStore) GetDueCards(
	ctx context.Context,
	deckID uuid.UUID,
	now time.Time,
	limit int,
) ([]*domain.DueCard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT d.id, d.name, c.id, c.front, c.back, c.ease, c.interval, c.next_review_at
		FROM cards c
		JOIN decks d ON d.id = c.deck_id
		WHERE c.deck_id = $1 AND c.next_review_at <= $2
		ORDER BY c.next_review_at, c.id
		LIMIT $3
	`
	rows, err := s.db.QueryContext(ctx, query, deckID, now, limit)
	if err != nil {
		log.Error("failed to query due cards",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn("failed to close rows", slog.String("error", closeErr.Error()))
		}
	}()

	due := make([]*domain.DueCard, 0)
	for rows.Next() {
		var dc domain.DueCard
		if err := rows.Scan(
			&dc.DeckID,
			&dc.DeckName,
			&dc.CardID,
			&dc.Front,
			&dc.Back,
			&dc.Ease,
			&dc.Interval,
			&dc.NextReviewAt,
		); err != nil {
			log.Error("failed to scan due card row",
				slog.String("error", err.Error()),
				slog.String("deck_id", deckID.String()))
			return nil, MapError(err)
		}
		due = append(due, &dc)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return due, nil
}
