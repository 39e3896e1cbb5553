package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/studydeck/api/internal/domain"
	"github.com/studydeck/api/internal/domain/srs"
	"github.com/studydeck/api/internal/platform/logger"
	"github.com/studydeck/api/internal/store"
)

// Verify interface compliance at compile time
var _ DeckReviewService = (*deckReviewServiceImpl)(nil)

// deckReviewServiceImpl implements the DeckReviewService interface.
type deckReviewServiceImpl struct {
	deckStore store.DeckStore
	scheduler srs.Scheduler
	logger    *slog.Logger
	timeFunc  func() time.Time // Injectable for deterministic testing
	dueLimit  int
}

// Option customizes a DeckReviewService created by NewDeckReviewService.
type Option func(*deckReviewServiceImpl)

// WithTimeFunc overrides the clock the service uses to decide what is due
// and to anchor rescheduling.
func WithTimeFunc(fn func() time.Time) Option {
	return func(s *deckReviewServiceImpl) {
		s.timeFunc = fn
	}
}

// WithDueLimit overrides the maximum number of cards returned per queue.
func WithDueLimit(limit int) Option {
	return func(s *deckReviewServiceImpl) {
		s.dueLimit = limit
	}
}

// NewDeckReviewService creates a new DeckReviewService implementation.
func NewDeckReviewService(
	deckStore store.DeckStore,
	scheduler srs.Scheduler,
	log *slog.Logger,
	opts ...Option,
) DeckReviewService {
	if deckStore == nil {
		panic("deckStore cannot be nil")
	}
	if scheduler == nil {
		panic("scheduler cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	svc := &deckReviewServiceImpl{
		deckStore: deckStore,
		scheduler: scheduler,
		logger:    log.With(slog.String("component", "deck_review_service")),
		timeFunc:  time.Now,
		dueLimit:  DefaultDueLimit,
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc
}

// GetDueCards implements DeckReviewService.GetDueCards.
func (s *deckReviewServiceImpl) GetDueCards(
	ctx context.Context,
	userID, deckID uuid.UUID,
) ([]*domain.DueCard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("building due queue",
		slog.String("user_id", userID.String()),
		slog.String("deck_id", deckID.String()))

	deck, err := s.authorizeDeck(ctx, log, userID, deckID)
	if err != nil {
		return nil, err
	}

	now := s.timeFunc().UTC()
	due, err := s.deckStore.GetDueCards(ctx, deck.ID, now, s.dueLimit)
	if err != nil {
		log.Error("failed to fetch due cards",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return nil, &ServiceError{
			Operation: "get_due_cards",
			Message:   "failed to fetch due cards",
			Err:       err,
		}
	}

	log.Debug("due queue built",
		slog.String("deck_id", deckID.String()),
		slog.Int("count", len(due)))
	return due, nil
}

// SubmitGrade implements DeckReviewService.SubmitGrade.
func (s *deckReviewServiceImpl) SubmitGrade(
	ctx context.Context,
	userID, deckID, cardID uuid.UUID,
	grade int,
) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("processing grade",
		slog.String("user_id", userID.String()),
		slog.String("deck_id", deckID.String()),
		slog.String("card_id", cardID.String()),
		slog.Int("grade", grade))

	deck, err := s.authorizeDeck(ctx, log, userID, deckID)
	if err != nil {
		return nil, err
	}

	card, err := s.deckStore.GetCard(ctx, deck.ID, cardID)
	if err != nil {
		if errors.Is(err, store.ErrCardNotFound) {
			log.Warn("card not found for grading",
				slog.String("deck_id", deckID.String()),
				slog.String("card_id", cardID.String()))
			return nil, ErrCardNotFound
		}
		return nil, &ServiceError{
			Operation: "submit_grade",
			Message:   "failed to get card",
			Err:       err,
		}
	}

	// Range check before the engine runs; nothing has been written yet, so
	// a bad grade leaves the card exactly as it was.
	if !srs.IsValidGrade(grade) {
		log.Warn("invalid grade",
			slog.String("card_id", cardID.String()),
			slog.Int("grade", grade))
		return nil, fmt.Errorf("%w: %d is outside [%d,%d]", ErrInvalidGrade, grade, srs.MinGrade, srs.MaxGrade)
	}

	now := s.timeFunc().UTC()
	updated, err := s.scheduler.Grade(card, grade, now)
	if err != nil {
		if errors.Is(err, srs.ErrInvalidGrade) {
			return nil, ErrInvalidGrade
		}
		return nil, &ServiceError{
			Operation: "submit_grade",
			Message:   "failed to compute next review",
			Err:       err,
		}
	}

	if err := s.deckStore.UpdateCardScheduling(ctx, updated); err != nil {
		if errors.Is(err, store.ErrCardNotFound) {
			return nil, ErrCardNotFound
		}
		log.Error("failed to persist card scheduling",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return nil, &ServiceError{
			Operation: "submit_grade",
			Message:   "failed to persist updated card",
			Err:       err,
		}
	}

	log.Debug("grade processed",
		slog.String("card_id", cardID.String()),
		slog.Int("grade", grade),
		slog.Float64("ease", updated.Ease),
		slog.Int("interval", updated.Interval),
		slog.Time("next_review_at", updated.NextReviewAt))

	return updated, nil
}

// authorizeDeck looks the deck up and applies the ownership check. A
// missing deck and a deck owned by someone else are distinct outcomes;
// callers must not collapse one into the other.
func (s *deckReviewServiceImpl) authorizeDeck(
	ctx context.Context,
	log *slog.Logger,
	userID, deckID uuid.UUID,
) (*domain.Deck, error) {
	deck, err := s.deckStore.GetByID(ctx, deckID)
	if err != nil {
		if errors.Is(err, store.ErrDeckNotFound) {
			log.Debug("deck not found", slog.String("deck_id", deckID.String()))
			return nil, ErrDeckNotFound
		}
		return nil, &ServiceError{
			Operation: "authorize_deck",
			Message:   "failed to get deck",
			Err:       err,
		}
	}

	if !deck.IsOwnedBy(userID) {
		log.Warn("user does not own deck",
			slog.String("user_id", userID.String()),
			slog.String("deck_id", deckID.String()),
			slog.String("owner_id", deck.OwnerID.String()))
		return nil, ErrDeckNotOwned
	}

	return deck, nil
}
