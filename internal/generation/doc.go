// Package generation builds note identification decks. A Generator draws
// random notes for a key signature from an injected random source, so the
// same seed always produces the same deck.
package generation
