package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/flashcards/internal/apperror"
	"github.com/sakif/flashcards/internal/model"
	"github.com/sakif/flashcards/internal/repository"
)

// DeckRecorder receives committed-deck events. *metrics.Metrics satisfies it.
type DeckRecorder interface {
	DeckCreated(cards int)
}

type noopRecorder struct{}

func (noopRecorder) DeckCreated(int) {}

// DeckAuthoringService creates a deck and its cards as one unit.
type DeckAuthoringService struct {
	store    repository.Store
	recorder DeckRecorder
	logger   *slog.Logger
}

// NewDeckAuthoringService wires the service. recorder may be nil.
func NewDeckAuthoringService(store repository.Store, recorder DeckRecorder, logger *slog.Logger) *DeckAuthoringService {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &DeckAuthoringService{
		store:    store,
		recorder: recorder,
		logger:   logger,
	}
}

// CreateDeck validates the submission and persists the deck plus its
// well-formed rows.
//
// VALIDATION ORDER (first failure wins, nothing is persisted):
//  1. name non-empty after trimming and at most 255 characters → invalid_name
//  2. description at most 255 characters                       → invalid_description
//  3. between 1 and 10 rows submitted                           → invalid_card_count
//  4. owner exists                                              → NotFound/owner_not_found
//
// Rows whose trimmed question or trimmed answer is empty are dropped without
// error, so a deck can end up with fewer cards than submitted rows, even zero.
// The row count limit applies to what was submitted, before filtering.
//
// ATOMICITY:
// The owner lookup, the deck insert and every card insert share one
// transaction. Any failure after the deck insert rolls the whole unit back
// and is reported as ErrStore; the returned deck exists only after commit.
func (s *DeckAuthoringService) CreateDeck(ctx context.Context, ownerID int64, name, description string, rows []model.CardInput) (*model.Deck, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)

	if name == "" {
		return nil, apperror.ValidationFailed(apperror.CodeInvalidName, "name", "deck name is required")
	}
	if utf8.RuneCountInString(name) > MaxDeckNameLength {
		return nil, apperror.ValidationFailed(apperror.CodeInvalidName, "name",
			fmt.Sprintf("deck name must be %d characters or less", MaxDeckNameLength))
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return nil, apperror.ValidationFailed(apperror.CodeInvalidDescription, "description",
			fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
	}
	if len(rows) < MinCardsPerDeck || len(rows) > MaxCardsPerDeck {
		return nil, apperror.ValidationFailed(apperror.CodeInvalidCardCount, "cards",
			fmt.Sprintf("a deck needs between %d and %d cards, got %d", MinCardsPerDeck, MaxCardsPerDeck, len(rows)))
	}

	cards := wellFormed(rows)

	var deck *model.Deck
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Users().GetByID(ctx, ownerID); err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return apperror.OwnerNotFound(fmt.Sprint(ownerID))
			}
			return asStoreError("looking up deck owner", err)
		}

		d := &model.Deck{
			Name:        name,
			Description: description,
			OwnerID:     ownerID,
		}
		if err := tx.Decks().Create(ctx, d); err != nil {
			return asStoreError("creating deck", err)
		}

		// Past the deck insert every failure is a store failure.
		stored := make([]model.Card, 0, len(cards))
		for _, in := range cards {
			card := &model.Card{
				Question: in.Question,
				Answer:   in.Answer,
				DeckID:   d.ID,
			}
			if err := tx.Cards().Create(ctx, card); err != nil {
				return apperror.Store("creating card", err)
			}
			stored = append(stored, *card)
		}

		d.Cards = stored
		d.CardCount = len(stored)
		deck = d
		return nil
	})
	if err != nil {
		err = asStoreError("creating deck", err)
		if apperror.KindOf(err) == apperror.ErrStore {
			s.logger.Error("failed to create deck",
				slog.Int64("ownerID", ownerID),
				slog.String("name", name),
				slog.String("error", err.Error()),
			)
		}
		return nil, err
	}

	s.recorder.DeckCreated(deck.CardCount)
	s.logger.Info("deck created",
		slog.Int64("deckID", deck.ID),
		slog.Int64("ownerID", ownerID),
		slog.Int("submitted", len(rows)),
		slog.Int("stored", deck.CardCount),
	)
	return deck, nil
}

// wellFormed keeps rows whose trimmed question and answer are both
// non-empty, trimmed, in submission order.
func wellFormed(rows []model.CardInput) []model.CardInput {
	out := make([]model.CardInput, 0, len(rows))
	for _, row := range rows {
		q := strings.TrimSpace(row.Question)
		a := strings.TrimSpace(row.Answer)
		if q == "" || a == "" {
			continue
		}
		out = append(out, model.CardInput{Question: q, Answer: a})
	}
	return out
}
