package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/studydeck/api/internal/domain"
)

// RegisterRequest represents the registration request payload.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest represents the login request payload.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse represents the response returned after successful
// registration or login.
type AuthResponse struct {
	UserID uuid.UUID `json:"user_id"`
	Token  string    `json:"token"`
}

// CreateDeckRequest represents the deck creation request payload.
type CreateDeckRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

// DeckResponse represents the response data for a deck.
type DeckResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewCardRequest is a single card in a bulk add request.
type NewCardRequest struct {
	Front string `json:"front" validate:"required"`
	Back  string `json:"back" validate:"required"`
}

// AddCardsRequest represents the bulk card creation request payload.
type AddCardsRequest struct {
	Cards []NewCardRequest `json:"cards" validate:"required,min=1,dive"`
}

// CardResponse represents the response data for a card.
type CardResponse struct {
	ID           string    `json:"id"`
	DeckID       string    `json:"deck_id"`
	Front        string    `json:"front"`
	Back         string    `json:"back"`
	Ease         float64   `json:"ease"`
	Interval     int       `json:"interval"`
	NextReviewAt time.Time `json:"next_review_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SubmitGradeRequest represents the request body for grading a card review.
// Grade range checks happen in the scheduling engine; the handler only
// requires the field to be present.
type SubmitGradeRequest struct {
	Grade *int `json:"grade" validate:"required"`
}

// DueCardResponse is one entry in the review queue.
type DueCardResponse struct {
	DeckID       string    `json:"deck_id"`
	DeckName     string    `json:"deck_name"`
	CardID       string    `json:"card_id"`
	Front        string    `json:"front"`
	Back         string    `json:"back"`
	Ease         float64   `json:"ease"`
	Interval     int       `json:"interval"`
	NextReviewAt time.Time `json:"next_review_at"`
}

// ReviewQueueResponse represents the due-card queue for a deck.
type ReviewQueueResponse struct {
	Cards []DueCardResponse `json:"cards"`
	Count int               `json:"count"`
}

// deckToResponse converts a domain.Deck to a DeckResponse.
func deckToResponse(deck *domain.Deck) DeckResponse {
	return DeckResponse{
		ID:          deck.ID.String(),
		Name:        deck.Name,
		Description: deck.Description,
		CreatedAt:   deck.CreatedAt,
		UpdatedAt:   deck.UpdatedAt,
	}
}

// cardToResponse converts a domain.Card to a CardResponse.
func cardToResponse(card *domain.Card) CardResponse {
	return CardResponse{
		ID:           card.ID.String(),
		DeckID:       card.DeckID.String(),
		Front:        card.Front,
		Back:         card.Back,
		Ease:         card.Ease,
		Interval:     card.Interval,
		NextReviewAt: card.NextReviewAt,
		CreatedAt:    card.CreatedAt,
		UpdatedAt:    card.UpdatedAt,
	}
}

// dueCardToResponse converts a domain.DueCard to a DueCardResponse.
func dueCardToResponse(dc *domain.DueCard) DueCardResponse {
	return DueCardResponse{
		DeckID:       dc.DeckID.String(),
		DeckName:     dc.DeckName,
		CardID:       dc.CardID.String(),
		Front:        dc.Front,
		Back:         dc.Back,
		Ease:         dc.Ease,
		Interval:     dc.Interval,
		NextReviewAt: dc.NextReviewAt,
	}
}
