package study

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-notes/internal/domain"
	"github.com/phrazzld/scry-notes/internal/domain/notation"
	"github.com/phrazzld/scry-notes/internal/domain/schedule"
	"github.com/phrazzld/scry-notes/internal/events"
	"github.com/phrazzld/scry-notes/internal/platform/logger"
	"github.com/phrazzld/scry-notes/internal/store"
)

// Verify interface compliance at compile time
var _ StudyService = (*studyServiceImpl)(nil)

// studyServiceImpl implements the StudyService interface.
type studyServiceImpl struct {
	decks     store.DeckStore
	scheduler schedule.Scheduler
	emitter   events.EventEmitter
	sessions  *sessionRegistry
	now       func() time.Time
	logger    *slog.Logger
}

// NewStudyService creates a new StudyService implementation. historySize is
// the capacity of each session's recently-shown window. emitter may be nil.
func NewStudyService(
	decks store.DeckStore,
	scheduler schedule.Scheduler,
	emitter events.EventEmitter,
	historySize int,
	logger *slog.Logger,
) StudyService {
	if decks == nil {
		panic("decks cannot be nil")
	}
	if scheduler == nil {
		panic("scheduler cannot be nil")
	}
	if historySize <= 0 {
		historySize = schedule.NewDefaultParams().HistorySize
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &studyServiceImpl{
		decks:     decks,
		scheduler: scheduler,
		emitter:   emitter,
		sessions:  newSessionRegistry(historySize),
		now:       time.Now,
		logger:    logger.With(slog.String("component", "study_service")),
	}
}

// StartSession implements StudyService.StartSession.
func (s *studyServiceImpl) StartSession(ctx context.Context, deckID uuid.UUID) (*SessionInfo, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.loadDeck(ctx, deckID); err != nil {
		return nil, err
	}

	ds := s.sessions.acquire(deckID)
	defer ds.release()
	ds.session.Reset()

	log.Debug("study session started", slog.String("deck_id", deckID.String()))
	return snapshot(ds.session), nil
}

// EndSession implements StudyService.EndSession.
func (s *studyServiceImpl) EndSession(ctx context.Context, deckID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !s.sessions.remove(deckID) {
		return ErrSessionNotFound
	}

	log.Debug("study session ended", slog.String("deck_id", deckID.String()))
	return nil
}

// Session implements StudyService.Session.
func (s *studyServiceImpl) Session(ctx context.Context, deckID uuid.UUID) (*SessionInfo, error) {
	ds, ok := s.sessions.lookup(deckID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	ds.mu.Lock()
	defer ds.release()
	return snapshot(ds.session), nil
}

// NextCard implements StudyService.NextCard.
func (s *studyServiceImpl) NextCard(ctx context.Context, deckID uuid.UUID) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	ds := s.sessions.acquire(deckID)
	defer ds.release()

	deck, err := s.loadDeck(ctx, deckID)
	if err != nil {
		if errors.Is(err, ErrDeckNotFound) {
			s.sessions.remove(deckID)
		}
		return nil, err
	}

	card, err := s.scheduler.Next(deck, ds.session)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyDeck) {
			log.Debug("no cards to schedule", slog.String("deck_id", deckID.String()))
			return nil, ErrEmptyDeck
		}
		log.Error("failed to schedule next card",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return nil, NewNextCardError("failed to schedule next card", err)
	}

	log.Debug("scheduled next card",
		slog.String("deck_id", deckID.String()),
		slog.String("card_id", card.ID.String()))
	return card, nil
}

// SubmitAnswer implements StudyService.SubmitAnswer.
func (s *studyServiceImpl) SubmitAnswer(
	ctx context.Context,
	deckID, cardID uuid.UUID,
	answer notation.Answer,
) (*ReviewResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := answer.Validate(); err != nil {
		log.Warn("invalid answer",
			slog.String("deck_id", deckID.String()),
			slog.String("card_id", cardID.String()),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", ErrInvalidAnswer, err)
	}

	judge := func(card *domain.Card) (bool, error) {
		correct, err := notation.Check(card, answer)
		if errors.Is(err, domain.ErrNoteMissing) {
			return false, ErrNotNoteCard
		}
		return correct, err
	}

	result, err := s.applyResult(ctx, deckID, cardID, judge)
	if err != nil {
		return nil, passThroughOr(err, NewSubmitAnswerError("failed to submit answer", err))
	}
	return result, nil
}

// RecordResult implements StudyService.RecordResult.
func (s *studyServiceImpl) RecordResult(
	ctx context.Context,
	deckID, cardID uuid.UUID,
	correct bool,
) (*ReviewResult, error) {
	result, err := s.applyResult(ctx, deckID, cardID, func(*domain.Card) (bool, error) {
		return correct, nil
	})
	if err != nil {
		return nil, passThroughOr(err, NewRecordResultError("failed to record result", err))
	}
	return result, nil
}

// applyResult judges the card, repositions it and saves the deck while the
// deck's session lock is held.
func (s *studyServiceImpl) applyResult(
	ctx context.Context,
	deckID, cardID uuid.UUID,
	judge func(*domain.Card) (bool, error),
) (*ReviewResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	ds := s.sessions.acquire(deckID)
	defer ds.release()

	deck, err := s.loadDeck(ctx, deckID)
	if err != nil {
		return nil, err
	}

	card, err := deck.Card(cardID)
	if err != nil {
		log.Warn("card not found in deck",
			slog.String("deck_id", deckID.String()),
			slog.String("card_id", cardID.String()))
		return nil, ErrCardNotFound
	}

	correct, err := judge(card)
	if err != nil {
		return nil, err
	}

	// The session is only replaced once the deck has been saved.
	working := ds.session.Clone()
	now := s.now().UTC()
	placement, err := s.scheduler.OnResult(deck, working, cardID, correct, now)
	if err != nil {
		if errors.Is(err, domain.ErrCardNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to apply result: %w", err)
	}

	if err := s.decks.SaveDeck(ctx, deck); err != nil {
		if errors.Is(err, store.ErrDeckNotFound) {
			return nil, ErrDeckNotFound
		}
		log.Error("failed to save deck after review",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return nil, fmt.Errorf("failed to save deck: %w", err)
	}
	ds.session = working

	s.emit(ctx, events.NewReviewEvent(deckID, cardID, correct, placement.OldIndex, placement.NewIndex, now))

	log.Debug("review recorded",
		slog.String("deck_id", deckID.String()),
		slog.String("card_id", cardID.String()),
		slog.Bool("correct", correct),
		slog.Int("old_index", placement.OldIndex),
		slog.Int("new_index", placement.NewIndex))

	return &ReviewResult{
		Correct:  correct,
		Expected: card.CanonicalAnswer,
		OldIndex: placement.OldIndex,
		NewIndex: placement.NewIndex,
		Card:     card,
	}, nil
}

func (s *studyServiceImpl) loadDeck(ctx context.Context, deckID uuid.UUID) (*domain.Deck, error) {
	deck, err := s.decks.GetDeck(ctx, deckID)
	if err != nil {
		if errors.Is(err, store.ErrDeckNotFound) || store.IsNotFoundError(err) {
			return nil, ErrDeckNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to load deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return nil, fmt.Errorf("failed to load deck: %w", err)
	}
	return deck, nil
}

// emit publishes a review event. Handler failures are logged; the review
// itself has already been saved.
func (s *studyServiceImpl) emit(ctx context.Context, event *events.ReviewEvent) {
	if s.emitter == nil {
		return
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("failed to emit review event",
			slog.String("error", err.Error()),
			slog.String("event_id", event.ID.String()))
	}
}

// passThroughOr returns err unchanged when it is one of the service's
// sentinel errors, and wrapped otherwise.
func passThroughOr(err error, wrapped *ServiceError) error {
	for _, sentinel := range []error{
		ErrDeckNotFound, ErrCardNotFound, ErrNotNoteCard, ErrInvalidAnswer,
	} {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	return wrapped
}
