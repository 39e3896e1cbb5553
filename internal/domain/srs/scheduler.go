// Package srs implements the spaced repetition scheduling engine. The
// policy is deliberately simple: a grade overwrites the card's ease, a
// passing grade doubles-and-increments the interval, a failing grade
// resets it to one day. Given the same prior state, grade, and clock
// reading the result is fully determined.
package srs

import (
	"errors"
	"time"

	"github.com/studydeck/api/internal/domain"
)

// Common errors
var (
	ErrNilCard      = errors.New("card cannot be nil")
	ErrInvalidGrade = errors.New("grade must be an integer between 1 and 5")
)

// Grade bounds and the passing threshold.
const (
	MinGrade = 1
	MaxGrade = 5

	// passingGrade is the lowest grade that grows the interval instead of
	// resetting it.
	passingGrade = 3
)

// Scheduler computes the next review state for a card after a grading
// event. Implementations must be pure: no I/O, no clock reads (the caller
// supplies now), no dependence on other cards.
type Scheduler interface {
	// Grade applies the grading event to the card and returns a new card
	// with updated ease, interval, and next review time. The input card is
	// not modified. Returns ErrInvalidGrade if grade is outside [1,5].
	Grade(card *domain.Card, grade int, now time.Time) (*domain.Card, error)
}

// defaultScheduler is the standard implementation of the Scheduler interface.
type defaultScheduler struct{}

// NewScheduler creates the standard scheduler.
func NewScheduler() Scheduler {
	return &defaultScheduler{}
}

// Grade implements Scheduler.Grade.
//
// The interval growth for repeated passing grades starting from a new card
// is 1, 3, 7, 15, 31, ... (2^n - 1). Any failing grade collapses the
// interval to 1 regardless of accumulated growth. The next review time is
// always now plus the new interval in days, anchored at the grading moment
// rather than the card's previous due time.
func (s *defaultScheduler) Grade(card *domain.Card, grade int, now time.Time) (*domain.Card, error) {
	if card == nil {
		return nil, ErrNilCard
	}

	if !IsValidGrade(grade) {
		return nil, ErrInvalidGrade
	}

	updated := *card

	// The grade replaces the ease outright; it is not blended with the
	// prior value.
	updated.Ease = float64(grade)

	if grade >= passingGrade {
		updated.Interval = card.Interval*2 + 1
	} else {
		updated.Interval = 1
	}

	updated.NextReviewAt = now.AddDate(0, 0, updated.Interval)
	updated.UpdatedAt = now

	return &updated, nil
}

// IsValidGrade reports whether the grade is inside the accepted [1,5] range.
func IsValidGrade(grade int) bool {
	return grade >= MinGrade && grade <= MaxGrade
}
