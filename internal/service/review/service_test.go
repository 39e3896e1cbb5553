package review

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studydeck/api/internal/domain"
	"github.com/studydeck/api/internal/domain/srs"
	"github.com/studydeck/api/internal/store"
)

// fakeDeckStore is a mutex-guarded in-memory store.DeckStore used to test
// the coordinator without a database.
type fakeDeckStore struct {
	mu    sync.Mutex
	decks map[uuid.UUID]*domain.Deck
	cards map[uuid.UUID]*domain.Card
}

var _ store.DeckStore = (*fakeDeckStore)(nil)

func newFakeDeckStore() *fakeDeckStore {
	return &fakeDeckStore{
		decks: make(map[uuid.UUID]*domain.Deck),
		cards: make(map[uuid.UUID]*domain.Card),
	}
}

func (f *fakeDeckStore) WithTx(_ *sql.Tx) store.DeckStore {
	return f
}

func (f *fakeDeckStore) Create(_ context.Context, deck *domain.Deck) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *deck
	f.decks[deck.ID] = &copied
	return nil
}

func (f *fakeDeckStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Deck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	deck, ok := f.decks[id]
	if !ok {
		return nil, store.ErrDeckNotFound
	}
	copied := *deck
	return &copied, nil
}

func (f *fakeDeckStore) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*domain.Deck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Deck, 0)
	for _, deck := range f.decks {
		if deck.OwnerID == ownerID {
			copied := *deck
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeDeckStore) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.decks[id]; !ok {
		return store.ErrDeckNotFound
	}
	delete(f.decks, id)
	for cardID, card := range f.cards {
		if card.DeckID == id {
			delete(f.cards, cardID)
		}
	}
	return nil
}

func (f *fakeDeckStore) AddCards(_ context.Context, deckID uuid.UUID, cards []*domain.Card) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.decks[deckID]; !ok {
		return store.ErrDeckNotFound
	}
	for _, card := range cards {
		copied := *card
		f.cards[card.ID] = &copied
	}
	return nil
}

func (f *fakeDeckStore) GetCard(_ context.Context, deckID, cardID uuid.UUID) (*domain.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	card, ok := f.cards[cardID]
	if !ok || card.DeckID != deckID {
		return nil, store.ErrCardNotFound
	}
	copied := *card
	return &copied, nil
}

func (f *fakeDeckStore) UpdateCardScheduling(_ context.Context, card *domain.Card) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.cards[card.ID]
	if !ok || existing.DeckID != card.DeckID {
		return store.ErrCardNotFound
	}
	// Only the scheduling fields move, like the single-row UPDATE does.
	existing.Ease = card.Ease
	existing.Interval = card.Interval
	existing.NextReviewAt = card.NextReviewAt
	existing.UpdatedAt = card.UpdatedAt
	return nil
}

func (f *fakeDeckStore) GetDueCards(
	_ context.Context,
	deckID uuid.UUID,
	now time.Time,
	limit int,
) ([]*domain.DueCard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	deck, ok := f.decks[deckID]
	if !ok {
		return nil, store.ErrDeckNotFound
	}
	due := make([]*domain.DueCard, 0)
	for _, card := range f.cards {
		if card.DeckID != deckID || card.NextReviewAt.After(now) {
			continue
		}
		due = append(due, &domain.DueCard{
			DeckID:       deck.ID,
			DeckName:     deck.Name,
			CardID:       card.ID,
			Front:        card.Front,
			Back:         card.Back,
			Ease:         card.Ease,
			Interval:     card.Interval,
			NextReviewAt: card.NextReviewAt,
		})
	}
	// Ascending next review time, then card ID.
	for i := 0; i < len(due); i++ {
		for j := i + 1; j < len(due); j++ {
			if due[j].NextReviewAt.Before(due[i].NextReviewAt) ||
				(due[j].NextReviewAt.Equal(due[i].NextReviewAt) &&
					due[j].CardID.String() < due[i].CardID.String()) {
				due[i], due[j] = due[j], due[i]
			}
		}
	}
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

type fixture struct {
	svc     DeckReviewService
	store   *fakeDeckStore
	ownerID uuid.UUID
	deck    *domain.Deck
	now     time.Time
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	fs := newFakeDeckStore()
	ownerID := uuid.New()
	deck, err := domain.NewDeck(ownerID, "Geography", "Capitals")
	require.NoError(t, err)
	require.NoError(t, fs.Create(context.Background(), deck))

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	allOpts := append([]Option{WithTimeFunc(func() time.Time { return now })}, opts...)

	return &fixture{
		svc:     NewDeckReviewService(fs, srs.NewScheduler(), nil, allOpts...),
		store:   fs,
		ownerID: ownerID,
		deck:    deck,
		now:     now,
	}
}

func (fx *fixture) addCard(t *testing.T, nextReview time.Time) *domain.Card {
	t.Helper()
	card, err := domain.NewCard(fx.deck.ID, "front "+uuid.NewString(), "back")
	require.NoError(t, err)
	card.NextReviewAt = nextReview
	require.NoError(t, fx.store.AddCards(context.Background(), fx.deck.ID, []*domain.Card{card}))
	return card
}

func TestGetDueCardsDeckNotFound(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)

	_, err := fx.svc.GetDueCards(context.Background(), fx.ownerID, uuid.New())
	assert.ErrorIs(t, err, ErrDeckNotFound)
}

func TestGetDueCardsNotOwned(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)
	fx.addCard(t, fx.now.Add(-time.Hour))

	_, err := fx.svc.GetDueCards(context.Background(), uuid.New(), fx.deck.ID)
	assert.ErrorIs(t, err, ErrDeckNotOwned)
}

func TestGetDueCardsEmptyDeck(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)

	due, err := fx.svc.GetDueCards(context.Background(), fx.ownerID, fx.deck.ID)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestGetDueCardsExcludesFutureCards(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)
	dueCard := fx.addCard(t, fx.now.Add(-time.Hour))
	boundary := fx.addCard(t, fx.now)
	fx.addCard(t, fx.now.Add(time.Minute))

	due, err := fx.svc.GetDueCards(context.Background(), fx.ownerID, fx.deck.ID)
	require.NoError(t, err)
	require.Len(t, due, 2, "a card due exactly now is included, a future card is not")

	gotIDs := []uuid.UUID{due[0].CardID, due[1].CardID}
	assert.Contains(t, gotIDs, dueCard.ID)
	assert.Contains(t, gotIDs, boundary.ID)
}

func TestGetDueCardsOrderingAndProjection(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)
	second := fx.addCard(t, fx.now.Add(-time.Hour))
	first := fx.addCard(t, fx.now.Add(-2*time.Hour))

	due, err := fx.svc.GetDueCards(context.Background(), fx.ownerID, fx.deck.ID)
	require.NoError(t, err)
	require.Len(t, due, 2)

	assert.Equal(t, first.ID, due[0].CardID)
	assert.Equal(t, second.ID, due[1].CardID)

	assert.Equal(t, fx.deck.ID, due[0].DeckID)
	assert.Equal(t, fx.deck.Name, due[0].DeckName)
	assert.Equal(t, first.Front, due[0].Front)
	assert.Equal(t, first.Back, due[0].Back)
	assert.Equal(t, first.Ease, due[0].Ease)
	assert.Equal(t, first.Interval, due[0].Interval)
}

func TestGetDueCardsRespectsLimit(t *testing.T) {
	t.Parallel()
	fx := newFixture(t, WithDueLimit(5))
	for i := 0; i < 12; i++ {
		fx.addCard(t, fx.now.Add(-time.Duration(i+1)*time.Minute))
	}

	due, err := fx.svc.GetDueCards(context.Background(), fx.ownerID, fx.deck.ID)
	require.NoError(t, err)
	assert.Len(t, due, 5)
}

func TestGetDueCardsDefaultLimit(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)
	for i := 0; i < DefaultDueLimit+7; i++ {
		fx.addCard(t, fx.now.Add(-time.Duration(i+1)*time.Minute))
	}

	due, err := fx.svc.GetDueCards(context.Background(), fx.ownerID, fx.deck.ID)
	require.NoError(t, err)
	assert.Len(t, due, DefaultDueLimit)
}

func TestSubmitGradeHappyPath(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)
	card := fx.addCard(t, fx.now)

	updated, err := fx.svc.SubmitGrade(context.Background(), fx.ownerID, fx.deck.ID, card.ID, 4)
	require.NoError(t, err)

	assert.Equal(t, 4.0, updated.Ease)
	assert.Equal(t, 1, updated.Interval)
	assert.Equal(t, fx.now.AddDate(0, 0, 1), updated.NextReviewAt)

	// The new state is persisted, not just returned.
	stored, err := fx.store.GetCard(context.Background(), fx.deck.ID, card.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Interval, stored.Interval)
	assert.Equal(t, updated.Ease, stored.Ease)
	assert.Equal(t, updated.NextReviewAt, stored.NextReviewAt)
}

func TestSubmitGradeDeckNotFound(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)

	_, err := fx.svc.SubmitGrade(context.Background(), fx.ownerID, uuid.New(), uuid.New(), 3)
	assert.ErrorIs(t, err, ErrDeckNotFound)
}

func TestSubmitGradeCardNotFound(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)

	_, err := fx.svc.SubmitGrade(context.Background(), fx.ownerID, fx.deck.ID, uuid.New(), 3)
	assert.ErrorIs(t, err, ErrCardNotFound)
}

func TestSubmitGradeNotOwnedLeavesStateUnchanged(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)
	card := fx.addCard(t, fx.now)

	_, err := fx.svc.SubmitGrade(context.Background(), uuid.New(), fx.deck.ID, card.ID, 5)
	assert.ErrorIs(t, err, ErrDeckNotOwned)

	stored, getErr := fx.store.GetCard(context.Background(), fx.deck.ID, card.ID)
	require.NoError(t, getErr)
	assert.Equal(t, card.Ease, stored.Ease)
	assert.Equal(t, card.Interval, stored.Interval)
	assert.Equal(t, card.NextReviewAt, stored.NextReviewAt)
}

func TestSubmitGradeOutOfRangeLeavesStateUnchanged(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)
	card := fx.addCard(t, fx.now)

	for _, grade := range []int{0, 6} {
		_, err := fx.svc.SubmitGrade(context.Background(), fx.ownerID, fx.deck.ID, card.ID, grade)
		assert.ErrorIs(t, err, ErrInvalidGrade, "grade %d", grade)

		stored, getErr := fx.store.GetCard(context.Background(), fx.deck.ID, card.ID)
		require.NoError(t, getErr)
		assert.Equal(t, card.Ease, stored.Ease, "grade %d", grade)
		assert.Equal(t, card.Interval, stored.Interval, "grade %d", grade)
		assert.Equal(t, card.NextReviewAt, stored.NextReviewAt, "grade %d", grade)
	}
}

func TestSubmitGradeConcurrentDistinctCards(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)
	cardA := fx.addCard(t, fx.now)
	cardB := fx.addCard(t, fx.now)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, cardID := range []uuid.UUID{cardA.ID, cardB.ID} {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			if _, err := fx.svc.SubmitGrade(context.Background(), fx.ownerID, fx.deck.ID, id, 4); err != nil {
				errs <- fmt.Errorf("card %s: %w", id, err)
			}
		}(cardID)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}

	// Neither update was lost.
	for _, cardID := range []uuid.UUID{cardA.ID, cardB.ID} {
		stored, err := fx.store.GetCard(context.Background(), fx.deck.ID, cardID)
		require.NoError(t, err)
		assert.Equal(t, 1, stored.Interval, "card %s", cardID)
		assert.Equal(t, 4.0, stored.Ease, "card %s", cardID)
	}
}

func TestSubmitGradeGrowthAcrossCalls(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)
	card := fx.addCard(t, fx.now)

	want := []int{1, 3, 7, 15, 31}
	for _, expected := range want {
		updated, err := fx.svc.SubmitGrade(context.Background(), fx.ownerID, fx.deck.ID, card.ID, 5)
		require.NoError(t, err)
		require.Equal(t, expected, updated.Interval)
	}
}
