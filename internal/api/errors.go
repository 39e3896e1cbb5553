package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/studydeck/api/internal/domain"
	"github.com/studydeck/api/internal/domain/srs"
	"github.com/studydeck/api/internal/service"
	"github.com/studydeck/api/internal/service/auth"
	"github.com/studydeck/api/internal/service/review"
	"github.com/studydeck/api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized

	// Authorization errors: the deck exists but belongs to someone else
	case errors.Is(err, service.ErrDeckNotOwned),
		errors.Is(err, review.ErrDeckNotOwned):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrDeckNotFound),
		errors.Is(err, store.ErrCardNotFound),
		errors.Is(err, service.ErrDeckNotFound),
		errors.Is(err, review.ErrDeckNotFound),
		errors.Is(err, review.ErrCardNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrUsernameExists):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, srs.ErrInvalidGrade),
		errors.Is(err, review.ErrInvalidGrade),
		errors.Is(err, service.ErrNoCards),
		errors.Is(err, domain.ErrDeckNameEmpty),
		errors.Is(err, domain.ErrCardFrontEmpty),
		errors.Is(err, domain.ErrCardBackEmpty):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return "Invalid token"

	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid credentials"

	// Authorization errors
	case errors.Is(err, service.ErrDeckNotOwned),
		errors.Is(err, review.ErrDeckNotOwned):
		return "You do not own this deck"

	// Not found errors
	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"

	case errors.Is(err, store.ErrDeckNotFound),
		errors.Is(err, service.ErrDeckNotFound),
		errors.Is(err, review.ErrDeckNotFound):
		return "Deck not found"

	case errors.Is(err, store.ErrCardNotFound),
		errors.Is(err, review.ErrCardNotFound):
		return "Card not found"

	// Conflict errors
	case errors.Is(err, store.ErrUsernameExists):
		return "Username already taken"

	// Bad request errors
	case errors.Is(err, srs.ErrInvalidGrade),
		errors.Is(err, review.ErrInvalidGrade):
		return "Grade must be an integer between 1 and 5"

	case errors.Is(err, service.ErrNoCards):
		return "At least one card is required"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Example format: "Key: 'LoginRequest.Username' Error:Field validation
	// for 'Username' failed on the 'required' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "gte":
		return "too small"
	case "lte":
		return "too large"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
