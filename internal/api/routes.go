package api

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the deck and study endpoints under r.
func RegisterRoutes(r chi.Router, decks *DeckHandler, studyH *StudyHandler) {
	r.Route("/decks", func(r chi.Router) {
		r.Get("/", decks.ListDecks)
		r.Post("/", decks.CreateDeck)
		r.Post("/generate", decks.GenerateDeck)

		r.Route("/{deckID}", func(r chi.Router) {
			r.Get("/", decks.GetDeck)
			r.Delete("/", decks.DeleteDeck)

			r.Post("/cards", decks.AddCard)
			r.Delete("/cards/{cardID}", decks.RemoveCard)

			r.Post("/session", studyH.StartSession)
			r.Get("/session", studyH.GetSession)
			r.Delete("/session", studyH.EndSession)

			r.Get("/next", studyH.NextCard)
			r.Post("/cards/{cardID}/answer", studyH.SubmitAnswer)
			r.Post("/cards/{cardID}/result", studyH.RecordResult)
		})
	})
}
