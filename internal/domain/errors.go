// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyDeck is returned when a card is requested from a deck with no cards.
	ErrEmptyDeck = errors.New("deck has no cards")

	// ErrCardNotFound is returned when a card id is not part of the deck.
	ErrCardNotFound = errors.New("card not found in deck")

	// ErrNoteMissing is returned when a note answer is evaluated against a card
	// that carries no note.
	ErrNoteMissing = errors.New("card has no note")

	// ErrDuplicateCard is returned when a card id is added to a deck twice.
	ErrDuplicateCard = errors.New("card already in deck")

	// ErrIndexOutOfRange is returned when a deck position is outside the card sequence.
	ErrIndexOutOfRange = errors.New("deck index out of range")
)
