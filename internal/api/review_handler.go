package api

import (
	"log/slog"
	"net/http"

	"github.com/studydeck/api/internal/api/shared"
	"github.com/studydeck/api/internal/platform/logger"
	"github.com/studydeck/api/internal/service/review"
)

// ReviewHandler handles review session HTTP requests: fetching the due-card
// queue for a deck and submitting grades.
type ReviewHandler struct {
	reviewService review.DeckReviewService
	logger        *slog.Logger
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviewService review.DeckReviewService, log *slog.Logger) *ReviewHandler {
	if reviewService == nil {
		panic("reviewService cannot be nil for ReviewHandler")
	}
	if log == nil {
		log = slog.Default()
	}

	return &ReviewHandler{
		reviewService: reviewService,
		logger:        log.With(slog.String("component", "review_handler")),
	}
}

// GetDueCards handles GET /decks/{id}/review requests.
// It returns the deck's due cards ordered by next review time. An empty
// queue is a normal response, not an error.
func (h *ReviewHandler) GetDueCards(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := userIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	deckID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	dueCards, err := h.reviewService.GetDueCards(r.Context(), userID, deckID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	cards := make([]DueCardResponse, 0, len(dueCards))
	for _, dc := range dueCards {
		cards = append(cards, dueCardToResponse(dc))
	}

	log.Debug("review queue fetched",
		slog.String("deck_id", deckID.String()),
		slog.String("user_id", userID.String()),
		slog.Int("count", len(cards)))
	shared.RespondWithJSON(w, r, http.StatusOK, ReviewQueueResponse{
		Cards: cards,
		Count: len(cards),
	})
}

// SubmitGrade handles POST /decks/{id}/cards/{cardID}/review requests.
// It applies the grade to the card's schedule and returns the updated card.
func (h *ReviewHandler) SubmitGrade(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := userIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	deckID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	cardID, ok := parseIDParam(w, r, "cardID")
	if !ok {
		return
	}

	var req SubmitGradeRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	card, err := h.reviewService.SubmitGrade(r.Context(), userID, deckID, cardID, *req.Grade)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("grade submitted",
		slog.String("deck_id", deckID.String()),
		slog.String("card_id", cardID.String()),
		slog.Int("grade", *req.Grade),
		slog.Int("interval", card.Interval))
	shared.RespondWithJSON(w, r, http.StatusOK, cardToResponse(card))
}
