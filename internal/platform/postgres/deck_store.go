package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-notes/internal/domain"
	"github.com/phrazzld/scry-notes/internal/platform/logger"
	"github.com/phrazzld/scry-notes/internal/store"
)

// DeckStore implements store.DeckStore on PostgreSQL. A deck's queue order
// is kept in the cards.position column.
type DeckStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// Ensure DeckStore implements store.DeckStore interface
var _ store.DeckStore = (*DeckStore)(nil)

// NewDeckStore creates a new PostgreSQL implementation of the DeckStore interface.
// If logger is nil, a default logger will be used.
func NewDeckStore(db *sql.DB, logger *slog.Logger) *DeckStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeckStore{
		db:     db,
		logger: logger.With(slog.String("component", "deck_store")),
	}
}

const cardColumns = `id, prompt, canonical_answer, note_letter, note_accidental, note_octave,
	key_signature, time_signature, correct_count, incorrect_count, last_reviewed_at, created_at`

// CreateDeck implements store.DeckStore.CreateDeck.
func (s *DeckStore) CreateDeck(ctx context.Context, deck *domain.Deck) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := deck.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO decks (id, name, description, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5)`,
			deck.ID, deck.Name, deck.Description, deck.CreatedAt.UTC(), deck.UpdatedAt.UTC())
		if err != nil {
			return MapError(err)
		}

		for i, card := range deck.Cards() {
			if err := insertCard(ctx, tx, deck.ID, i, card); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("failed to create deck",
			slog.String("deck_id", deck.ID.String()),
			slog.String("error", err.Error()))
		return err
	}

	log.Debug("deck created",
		slog.String("deck_id", deck.ID.String()),
		slog.Int("card_count", deck.Len()))
	return nil
}

// GetDeck implements store.DeckStore.GetDeck.
func (s *DeckStore) GetDeck(ctx context.Context, id uuid.UUID) (*domain.Deck, error) {
	var (
		name, description    string
		createdAt, updatedAt time.Time
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT name, description, created_at, updated_at
		FROM decks
		WHERE id = $1`, id).Scan(&name, &description, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrDeckNotFound
		}
		return nil, MapError(err)
	}

	cards, err := s.loadCards(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	deck, err := domain.RestoreDeck(id, name, description, createdAt.UTC(), updatedAt.UTC(), cards)
	if err != nil {
		return nil, store.NewStoreError("deck", "get", "stored deck is invalid", err)
	}
	return deck, nil
}

// ListDecks implements store.DeckStore.ListDecks.
func (s *DeckStore) ListDecks(ctx context.Context) ([]domain.DeckSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.name, d.description, COUNT(c.id)
		FROM decks d
		LEFT JOIN cards c ON c.deck_id = d.id
		GROUP BY d.id
		ORDER BY d.created_at, d.id`)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	summaries := []domain.DeckSummary{}
	for rows.Next() {
		var sum domain.DeckSummary
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.Description, &sum.CardCount); err != nil {
			return nil, MapError(err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return summaries, nil
}

// DeleteDeck implements store.DeckStore.DeleteDeck. Cards go with the deck
// through the foreign key cascade.
func (s *DeckStore) DeleteDeck(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM decks WHERE id = $1`, id)
	if err != nil {
		return MapError(err)
	}
	if err := checkRowsAffected(result, store.ErrDeckNotFound); err != nil {
		return err
	}

	log.Debug("deck deleted", slog.String("deck_id", id.String()))
	return nil
}

// AddCard implements store.DeckStore.AddCard.
func (s *DeckStore) AddCard(ctx context.Context, deckID uuid.UUID, card *domain.Card) error {
	if err := card.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := lockDeck(ctx, tx, deckID); err != nil {
			return err
		}

		var next int
		err := tx.QueryRowContext(ctx, `
			SELECT COALESCE(MAX(position) + 1, 0) FROM cards WHERE deck_id = $1`,
			deckID).Scan(&next)
		if err != nil {
			return MapError(err)
		}

		if err := insertCard(ctx, tx, deckID, next, card); err != nil {
			return err
		}
		return touchDeck(ctx, tx, deckID)
	})
}

// RemoveCard implements store.DeckStore.RemoveCard. Cards behind the removed
// one move up a position so positions stay dense.
func (s *DeckStore) RemoveCard(ctx context.Context, deckID, cardID uuid.UUID) error {
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := lockDeck(ctx, tx, deckID); err != nil {
			return err
		}

		var position int
		err := tx.QueryRowContext(ctx, `
			DELETE FROM cards WHERE id = $1 AND deck_id = $2
			RETURNING position`, cardID, deckID).Scan(&position)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return store.ErrCardNotFound
			}
			return MapError(err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE cards SET position = position - 1
			WHERE deck_id = $1 AND position > $2`, deckID, position)
		if err != nil {
			return MapError(err)
		}
		return touchDeck(ctx, tx, deckID)
	})
}

// SaveDeck implements store.DeckStore.SaveDeck. Every card row is rewritten
// inside one transaction, so concurrent readers see either the old order or
// the new one.
func (s *DeckStore) SaveDeck(ctx context.Context, deck *domain.Deck) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := lockDeck(ctx, tx, deck.ID); err != nil {
			return err
		}

		cards := deck.Cards()
		for i, card := range cards {
			result, err := tx.ExecContext(ctx, `
				UPDATE cards
				SET position = $1, correct_count = $2, incorrect_count = $3, last_reviewed_at = $4
				WHERE id = $5 AND deck_id = $6`,
				i, card.CorrectCount, card.IncorrectCount, nullTime(card.LastReviewedAt),
				card.ID, deck.ID)
			if err != nil {
				return MapError(err)
			}
			if err := checkRowsAffected(result, fmt.Errorf("%w: card %s is not stored in deck %s",
				store.ErrConflict, card.ID, deck.ID)); err != nil {
				return err
			}
		}

		var stored int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM cards WHERE deck_id = $1`,
			deck.ID).Scan(&stored); err != nil {
			return MapError(err)
		}
		if stored != len(cards) {
			return fmt.Errorf("%w: deck %s holds %d cards, %d given",
				store.ErrConflict, deck.ID, stored, len(cards))
		}

		return touchDeck(ctx, tx, deck.ID)
	})
	if err != nil {
		log.Error("failed to save deck",
			slog.String("deck_id", deck.ID.String()),
			slog.String("error", err.Error()))
		return err
	}
	return nil
}

func (s *DeckStore) loadCards(ctx context.Context, db store.DBTX, deckID uuid.UUID) ([]*domain.Card, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+cardColumns+`
		FROM cards
		WHERE deck_id = $1
		ORDER BY position, created_at`, deckID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var cards []*domain.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return cards, nil
}

func scanCard(rows *sql.Rows) (*domain.Card, error) {
	var (
		card            domain.Card
		letter          sql.NullString
		accidental      string
		octave          sql.NullInt64
		keySig, timeSig sql.NullString
		lastReviewed    sql.NullTime
	)
	err := rows.Scan(&card.ID, &card.Prompt, &card.CanonicalAnswer,
		&letter, &accidental, &octave, &keySig, &timeSig,
		&card.CorrectCount, &card.IncorrectCount, &lastReviewed, &card.CreatedAt)
	if err != nil {
		return nil, MapError(err)
	}

	if letter.Valid {
		card.Note = &domain.Note{
			Letter:        domain.Letter(letter.String),
			Accidental:    domain.Accidental(accidental),
			Octave:        int(octave.Int64),
			KeySignature:  keySig.String,
			TimeSignature: timeSig.String,
		}
	}
	if lastReviewed.Valid {
		t := lastReviewed.Time.UTC()
		card.LastReviewedAt = &t
	}
	card.CreatedAt = card.CreatedAt.UTC()
	return &card, nil
}

func insertCard(ctx context.Context, tx store.DBTX, deckID uuid.UUID, position int, card *domain.Card) error {
	var (
		letter, keySig, timeSig sql.NullString
		octave                  sql.NullInt64
		accidental              string
	)
	if card.Note != nil {
		letter = sql.NullString{String: string(card.Note.Letter), Valid: true}
		accidental = string(card.Note.Accidental)
		octave = sql.NullInt64{Int64: int64(card.Note.Octave), Valid: true}
		keySig = sql.NullString{String: card.Note.KeySignature, Valid: true}
		timeSig = sql.NullString{String: card.Note.TimeSignature, Valid: true}
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO cards (id, deck_id, position, prompt, canonical_answer,
			note_letter, note_accidental, note_octave, key_signature, time_signature,
			correct_count, incorrect_count, last_reviewed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		card.ID, deckID, position, card.Prompt, card.CanonicalAnswer,
		letter, accidental, octave, keySig, timeSig,
		card.CorrectCount, card.IncorrectCount, nullTime(card.LastReviewedAt), card.CreatedAt.UTC())
	if err != nil {
		return MapError(err)
	}
	return nil
}

// lockDeck takes a row lock on the deck so concurrent writers to the same
// deck are serialized.
func lockDeck(ctx context.Context, tx store.DBTX, deckID uuid.UUID) error {
	var id uuid.UUID
	err := tx.QueryRowContext(ctx, `SELECT id FROM decks WHERE id = $1 FOR UPDATE`, deckID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrDeckNotFound
		}
		return MapError(err)
	}
	return nil
}

func touchDeck(ctx context.Context, tx store.DBTX, deckID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, `UPDATE decks SET updated_at = $1 WHERE id = $2`,
		time.Now().UTC(), deckID)
	return MapError(err)
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
