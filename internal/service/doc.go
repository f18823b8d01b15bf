// Package service contains the application use cases that sit between the
// HTTP layer and the stores.
//
// DeckService manages decks and their cards, including generated note decks.
// Study turns live in the study subpackage.
//
// Service methods return sentinel errors (ErrDeckNotFound, ErrInvalidInput,
// ...) for expected conditions and wrap anything unexpected in a
// DeckServiceError. Callers use errors.Is/errors.As; the API layer maps the
// sentinels to status codes.
package service
