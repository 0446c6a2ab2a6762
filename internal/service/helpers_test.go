package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/sakif/flashcards/internal/auth"
	"github.com/sakif/flashcards/internal/model"
	"github.com/sakif/flashcards/internal/repository"
	"github.com/sakif/flashcards/internal/repository/sqlite"
)

// =========================================================================
// REAL STORE
// =========================================================================
//
// Service tests run against a real in-memory SQLite store with real
// migrations. Failures the store can't produce on demand are injected with
// faultyStore below.

func newTestStore(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.New(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening test store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedUser(t *testing.T, store repository.Store, username string) *model.User {
	t.Helper()
	user := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$2a$04$not-a-real-hash",
	}
	if err := store.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("seeding user %q: %v", username, err)
	}
	return user
}

func rows(pairs ...string) []model.CardInput {
	out := make([]model.CardInput, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, model.CardInput{Question: pairs[i], Answer: pairs[i+1]})
	}
	return out
}

func countRows(t *testing.T, store repository.Store, ownerID int64) (decks, cards int) {
	t.Helper()
	list, err := store.Decks().ListByOwner(context.Background(), ownerID, repository.ListOptions{})
	if err != nil {
		t.Fatalf("listing decks: %v", err)
	}
	for _, d := range list {
		cards += d.CardCount
	}
	return len(list), cards
}

// =========================================================================
// FAULT INJECTION
// =========================================================================

var errInjected = errors.New("injected store failure")

// faults is shared by a faultyStore and every transactional view derived
// from it, so counters survive WithTx.
type faults struct {
	failCardCreateAt int // 1-based; 0 disables
	cardCreates      int
	failDeckDelete   bool
	failUserLookup   bool

	// beforeListCards runs at the start of every Cards().ListByDeck, to
	// land another caller's write between a deck lookup and its card read.
	beforeListCards func()
}

// faultyStore wraps a real store and fails selected calls.
type faultyStore struct {
	repository.Store
	f *faults
}

func (s *faultyStore) Users() repository.UserRepository {
	return &faultyUsers{UserRepository: s.Store.Users(), f: s.f}
}

func (s *faultyStore) Decks() repository.DeckRepository {
	return &faultyDecks{DeckRepository: s.Store.Decks(), f: s.f}
}

func (s *faultyStore) Cards() repository.CardRepository {
	return &faultyCards{CardRepository: s.Store.Cards(), f: s.f}
}

func (s *faultyStore) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.Store.WithTx(ctx, func(tx repository.Store) error {
		return fn(&faultyStore{Store: tx, f: s.f})
	})
}

type faultyUsers struct {
	repository.UserRepository
	f *faults
}

func (u *faultyUsers) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if u.f.failUserLookup {
		return nil, errInjected
	}
	return u.UserRepository.GetByID(ctx, id)
}

type faultyDecks struct {
	repository.DeckRepository
	f *faults
}

func (d *faultyDecks) Delete(ctx context.Context, id int64) error {
	if d.f.failDeckDelete {
		return errInjected
	}
	return d.DeckRepository.Delete(ctx, id)
}

type faultyCards struct {
	repository.CardRepository
	f *faults
}

func (c *faultyCards) Create(ctx context.Context, card *model.Card) error {
	c.f.cardCreates++
	if c.f.failCardCreateAt > 0 && c.f.cardCreates == c.f.failCardCreateAt {
		return errInjected
	}
	return c.CardRepository.Create(ctx, card)
}

func (c *faultyCards) ListByDeck(ctx context.Context, deckID int64) ([]model.Card, error) {
	if c.f.beforeListCards != nil {
		c.f.beforeListCards()
	}
	return c.CardRepository.ListByDeck(ctx, deckID)
}

// =========================================================================
// PASSWORD HASHER FAKE
// =========================================================================

// brokenHasher fails every Hash with a non-length error and every Verify
// as if the stored hash were corrupt.
type brokenHasher struct{}

func (brokenHasher) Hash(string) (string, error) { return "", errInjected }
func (brokenHasher) Verify(string, string) error { return errInjected }

var _ PasswordHasher = brokenHasher{}

func testHasher() PasswordHasher {
	return auth.NewPasswordServiceForTest()
}
