package service

import (
	"context"
	"log/slog"

	"github.com/sakif/flashcards/internal/apperror"
	"github.com/sakif/flashcards/internal/model"
	"github.com/sakif/flashcards/internal/repository"
)

// MaxListLimit caps the page size of a paginated deck listing.
const MaxListLimit = 100

// AccessPolicy controls who may read or delete a deck.
type AccessPolicy struct {
	// EnforceOwnership rejects any requester other than the deck's owner
	// with ErrForbidden. When false, any caller who knows a deck id may read
	// or delete it.
	EnforceOwnership bool
}

// DeckAccessService serves the owner-scoped read and delete paths.
//
// Deck ids come in as strings from the boundary; every operation parses
// them with ParseID first, so a malformed id is invalid_id before any
// lookup happens.
type DeckAccessService struct {
	store  repository.Store
	policy AccessPolicy
	logger *slog.Logger
}

func NewDeckAccessService(store repository.Store, policy AccessPolicy, logger *slog.Logger) *DeckAccessService {
	return &DeckAccessService{
		store:  store,
		policy: policy,
		logger: logger,
	}
}

// ListDecksForUser returns the user's decks in creation order, each with
// CardCount, and with Cards when opts.IncludeCards is set.
//
// opts.Limit <= 0 returns every deck; a positive limit is capped at
// MaxListLimit. An unknown user is ErrNotFound, not an empty list.
func (s *DeckAccessService) ListDecksForUser(ctx context.Context, userID int64, opts repository.ListOptions) ([]model.Deck, error) {
	if opts.Limit > MaxListLimit {
		opts.Limit = MaxListLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	var decks []model.Deck
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Users().GetByID(ctx, userID); err != nil {
			return asStoreError("looking up user", err)
		}

		var err error
		decks, err = tx.Decks().ListByOwner(ctx, userID, opts)
		if err != nil {
			return asStoreError("listing decks", err)
		}
		return nil
	})
	if err != nil {
		err = asStoreError("listing decks", err)
		if apperror.KindOf(err) == apperror.ErrStore {
			s.logger.Error("failed to list decks",
				slog.Int64("userID", userID),
				slog.String("error", err.Error()),
			)
		}
		return nil, err
	}
	return decks, nil
}

// GetDeckCards returns a deck's cards in creation order.
func (s *DeckAccessService) GetDeckCards(ctx context.Context, requesterID int64, rawDeckID string) ([]model.Card, error) {
	_, cards, err := s.deckWithCards(ctx, requesterID, rawDeckID)
	if err != nil {
		return nil, err
	}
	return cards, nil
}

// GetDeckForStudy returns the deck's id, name and full card set.
func (s *DeckAccessService) GetDeckForStudy(ctx context.Context, requesterID int64, rawDeckID string) (*model.StudySession, error) {
	deck, cards, err := s.deckWithCards(ctx, requesterID, rawDeckID)
	if err != nil {
		return nil, err
	}

	return &model.StudySession{
		DeckID:   deck.ID,
		DeckName: deck.Name,
		Cards:    cards,
	}, nil
}

// deckWithCards loads an authorized deck and its cards in one transaction.
// A concurrent DeleteDeck lands either before (NotFound) or after (the full
// card set); the reader never sees the deck with part of its cards.
func (s *DeckAccessService) deckWithCards(ctx context.Context, requesterID int64, rawDeckID string) (*model.Deck, []model.Card, error) {
	var (
		deck  *model.Deck
		cards []model.Card
	)
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		var err error
		if deck, err = s.authorizedDeck(ctx, tx, requesterID, rawDeckID); err != nil {
			return err
		}
		if cards, err = tx.Cards().ListByDeck(ctx, deck.ID); err != nil {
			return asStoreError("listing cards", err)
		}
		return nil
	})
	if err != nil {
		err = asStoreError("loading deck cards", err)
		if apperror.KindOf(err) == apperror.ErrStore {
			s.logger.Error("failed to load deck cards",
				slog.String("deckID", rawDeckID),
				slog.String("error", err.Error()),
			)
		}
		return nil, nil, err
	}
	return deck, cards, nil
}

// DeleteDeck removes a deck and, by cascade, its cards.
//
// Checks run invalid_id, then NotFound, then ownership. The lookup, the
// check and the delete share one transaction.
func (s *DeckAccessService) DeleteDeck(ctx context.Context, requesterID int64, rawDeckID string) error {
	var deckID int64
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		deck, err := s.authorizedDeck(ctx, tx, requesterID, rawDeckID)
		if err != nil {
			return err
		}
		deckID = deck.ID
		return tx.Decks().Delete(ctx, deck.ID)
	})
	if err != nil {
		err = asStoreError("deleting deck", err)
		if apperror.KindOf(err) == apperror.ErrStore {
			s.logger.Error("failed to delete deck",
				slog.String("deckID", rawDeckID),
				slog.String("error", err.Error()),
			)
		}
		return err
	}

	s.logger.Info("deck deleted",
		slog.Int64("deckID", deckID),
		slog.Int64("requesterID", requesterID),
	)
	return nil
}

// authorizedDeck parses the id, loads the deck through store and applies
// the access policy.
func (s *DeckAccessService) authorizedDeck(ctx context.Context, store repository.Store, requesterID int64, rawDeckID string) (*model.Deck, error) {
	deckID, err := ParseID(rawDeckID)
	if err != nil {
		return nil, err
	}

	deck, err := store.Decks().GetByID(ctx, deckID)
	if err != nil {
		return nil, asStoreError("getting deck", err)
	}

	if s.policy.EnforceOwnership && deck.OwnerID != requesterID {
		s.logger.Info("deck access denied",
			slog.Int64("deckID", deckID),
			slog.Int64("requesterID", requesterID),
		)
		return nil, apperror.Forbidden("you do not own this deck")
	}
	return deck, nil
}
