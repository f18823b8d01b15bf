// Package domain contains the study entities of the application: notes,
// cards and decks. A deck's card order is its study queue, so the types here
// keep that order explicit and expose the id lookups the scheduler relies on.
package domain
