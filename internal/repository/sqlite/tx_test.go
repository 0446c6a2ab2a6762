package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/flashcards/internal/apperror"
	"github.com/sakif/flashcards/internal/model"
	"github.com/sakif/flashcards/internal/repository"
)

func TestWithTx_Commit(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner")

	var deckID int64
	err := db.WithTx(ctx, func(tx repository.Store) error {
		deck := &model.Deck{Name: "committed", OwnerID: owner.ID}
		if err := tx.Decks().Create(ctx, deck); err != nil {
			return err
		}
		deckID = deck.ID
		return tx.Cards().Create(ctx, &model.Card{Question: "q", Answer: "a", DeckID: deck.ID})
	})
	if err != nil {
		t.Fatalf("WithTx() error = %v", err)
	}

	found, err := db.Decks().GetByID(ctx, deckID)
	if err != nil {
		t.Fatalf("GetByID() after commit: %v", err)
	}
	if found.CardCount != 1 {
		t.Errorf("CardCount = %d, want 1", found.CardCount)
	}
}

// A failure after the deck insert must not leave the deck behind.
func TestWithTx_RollbackOnError(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner")
	boom := errors.New("boom")

	var deckID int64
	err := db.WithTx(ctx, func(tx repository.Store) error {
		deck := &model.Deck{Name: "rolled back", OwnerID: owner.ID}
		if err := tx.Decks().Create(ctx, deck); err != nil {
			return err
		}
		deckID = deck.ID
		if err := tx.Cards().Create(ctx, &model.Card{Question: "q", Answer: "a", DeckID: deck.ID}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx() error = %v, want %v", err, boom)
	}

	if _, err := db.Decks().GetByID(ctx, deckID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("deck visible after rollback: err = %v", err)
	}
	var cards int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM cards`).Scan(&cards); err != nil {
		t.Fatalf("counting cards: %v", err)
	}
	if cards != 0 {
		t.Errorf("cards after rollback = %d, want 0", cards)
	}
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner")

	func() {
		defer func() {
			if recover() == nil {
				t.Error("WithTx() should re-panic")
			}
		}()
		_ = db.WithTx(ctx, func(tx repository.Store) error {
			if err := tx.Decks().Create(ctx, &model.Deck{Name: "panicked", OwnerID: owner.ID}); err != nil {
				return err
			}
			panic("mid-transaction failure")
		})
	}()

	decks, err := db.Decks().ListByOwner(ctx, owner.ID, repository.ListOptions{})
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}
	if len(decks) != 0 {
		t.Errorf("decks after panic rollback = %d, want 0", len(decks))
	}

	// The single pooled connection must be usable again.
	if err := db.Ping(ctx); err != nil {
		t.Errorf("Ping() after panic: %v", err)
	}
}

func TestWithTx_NestedJoinsOuterTransaction(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner")
	boom := errors.New("outer fails")

	err := db.WithTx(ctx, func(outer repository.Store) error {
		if err := outer.WithTx(ctx, func(inner repository.Store) error {
			return inner.Decks().Create(ctx, &model.Deck{Name: "inner", OwnerID: owner.ID})
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx() error = %v, want %v", err, boom)
	}

	decks, err := db.Decks().ListByOwner(ctx, owner.ID, repository.ListOptions{})
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}
	if len(decks) != 0 {
		t.Errorf("inner write survived outer rollback: %d decks", len(decks))
	}
}
