package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/scry-notes/internal/api/shared"
	"github.com/phrazzld/scry-notes/internal/platform/logger"
	"github.com/phrazzld/scry-notes/internal/service/study"
)

// StudyHandler handles study session requests.
type StudyHandler struct {
	study  study.StudyService
	logger *slog.Logger
}

// NewStudyHandler creates a new StudyHandler.
func NewStudyHandler(studySvc study.StudyService, logger *slog.Logger) *StudyHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for StudyHandler")
	}
	return &StudyHandler{
		study:  studySvc,
		logger: logger.With(slog.String("component", "study_handler")),
	}
}

// StartSession handles POST /api/decks/{deckID}/session. An existing
// session is reset.
func (h *StudyHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathUUIDs(w, r, "deckID")
	if !ok {
		return
	}

	info, err := h.study.StartSession(r.Context(), ids[0])
	if err != nil {
		HandleAPIError(w, r, err, "Failed to start session")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, info)
}

// GetSession handles GET /api/decks/{deckID}/session.
func (h *StudyHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathUUIDs(w, r, "deckID")
	if !ok {
		return
	}

	info, err := h.study.Session(r.Context(), ids[0])
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get session")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, info)
}

// EndSession handles DELETE /api/decks/{deckID}/session.
func (h *StudyHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathUUIDs(w, r, "deckID")
	if !ok {
		return
	}

	if err := h.study.EndSession(r.Context(), ids[0]); err != nil {
		HandleAPIError(w, r, err, "Failed to end session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// NextCard handles GET /api/decks/{deckID}/next. The answer is withheld.
func (h *StudyHandler) NextCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	ids, ok := pathUUIDs(w, r, "deckID")
	if !ok {
		return
	}

	card, err := h.study.NextCard(r.Context(), ids[0])
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get next card")
		return
	}

	log.Debug("presenting card",
		slog.String("deck_id", ids[0].String()),
		slog.String("card_id", card.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, cardToResponse(card, false))
}

// SubmitAnswer handles POST /api/decks/{deckID}/cards/{cardID}/answer.
func (h *StudyHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathUUIDs(w, r, "deckID", "cardID")
	if !ok {
		return
	}

	var req AnswerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	answer, err := req.toDomain()
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	result, err := h.study.SubmitAnswer(r.Context(), ids[0], ids[1], answer)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to submit answer")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, reviewToResponse(result))
}

// RecordResult handles POST /api/decks/{deckID}/cards/{cardID}/result.
func (h *StudyHandler) RecordResult(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathUUIDs(w, r, "deckID", "cardID")
	if !ok {
		return
	}

	var req ResultRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.study.RecordResult(r.Context(), ids[0], ids[1], *req.Correct)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to record result")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, reviewToResponse(result))
}
