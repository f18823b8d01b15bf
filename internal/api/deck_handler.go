package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/phrazzld/scry-notes/internal/api/shared"
	"github.com/phrazzld/scry-notes/internal/platform/logger"
	"github.com/phrazzld/scry-notes/internal/service"
	"github.com/phrazzld/scry-notes/internal/service/study"
)

// DeckHandler handles deck and card management requests.
type DeckHandler struct {
	decks  service.DeckService
	study  study.StudyService
	logger *slog.Logger
}

// NewDeckHandler creates a new DeckHandler. The study service is used to
// close a deck's session when the deck is deleted.
func NewDeckHandler(decks service.DeckService, studySvc study.StudyService, logger *slog.Logger) *DeckHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for DeckHandler")
	}
	return &DeckHandler{
		decks:  decks,
		study:  studySvc,
		logger: logger.With(slog.String("component", "deck_handler")),
	}
}

// ListDecks handles GET /api/decks.
func (h *DeckHandler) ListDecks(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.decks.ListDecks(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list decks")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, summaries)
}

// CreateDeck handles POST /api/decks.
func (h *DeckHandler) CreateDeck(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req CreateDeckRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	inputs := make([]service.CardInput, 0, len(req.Cards))
	for _, c := range req.Cards {
		input, err := c.toInput()
		if err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
		inputs = append(inputs, input)
	}

	deck, err := h.decks.CreateDeck(r.Context(), req.Name, req.Description, inputs)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create deck")
		return
	}

	log.Debug("deck created via API", slog.String("deck_id", deck.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, deckToResponse(deck))
}

// GenerateDeck handles POST /api/decks/generate.
func (h *DeckHandler) GenerateDeck(w http.ResponseWriter, r *http.Request) {
	var req GenerateDeckRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	deck, err := h.decks.GenerateDeck(r.Context(), req.toDomain())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to generate deck")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, deckToResponse(deck))
}

// GetDeck handles GET /api/decks/{deckID}.
func (h *DeckHandler) GetDeck(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathUUIDs(w, r, "deckID")
	if !ok {
		return
	}

	deck, err := h.decks.GetDeck(r.Context(), ids[0])
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get deck")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, deckToResponse(deck))
}

// DeleteDeck handles DELETE /api/decks/{deckID}.
func (h *DeckHandler) DeleteDeck(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	ids, ok := pathUUIDs(w, r, "deckID")
	if !ok {
		return
	}

	if err := h.decks.DeleteDeck(r.Context(), ids[0]); err != nil {
		HandleAPIError(w, r, err, "Failed to delete deck")
		return
	}

	if h.study != nil {
		if err := h.study.EndSession(r.Context(), ids[0]); err != nil && !errors.Is(err, study.ErrSessionNotFound) {
			log.Warn("failed to end session of deleted deck",
				slog.String("deck_id", ids[0].String()),
				slog.String("error", err.Error()))
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddCard handles POST /api/decks/{deckID}/cards.
func (h *DeckHandler) AddCard(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathUUIDs(w, r, "deckID")
	if !ok {
		return
	}

	var req CardRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	input, err := req.toInput()
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	card, err := h.decks.AddCard(r.Context(), ids[0], input)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to add card")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, cardToResponse(card, true))
}

// RemoveCard handles DELETE /api/decks/{deckID}/cards/{cardID}.
func (h *DeckHandler) RemoveCard(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathUUIDs(w, r, "deckID", "cardID")
	if !ok {
		return
	}

	if err := h.decks.RemoveCard(r.Context(), ids[0], ids[1]); err != nil {
		HandleAPIError(w, r, err, "Failed to remove card")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
