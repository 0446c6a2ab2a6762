// Package repository declares the persistence contracts the services depend
// on. Implementations live in subpackages (see repository/sqlite).
package repository

import (
	"context"

	"github.com/sakif/flashcards/internal/model"
)

// ListOptions controls deck listing. Limit <= 0 means "no limit".
type ListOptions struct {
	Limit        int
	Offset       int
	IncludeCards bool
}

// UserRepository stores accounts.
//
// Create must report a duplicate username or email as an apperror.ErrConflict
// detected by the store's UNIQUE constraint, never by a prior read.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Delete(ctx context.Context, id int64) error
}

// DeckRepository stores decks. Delete cascades to the deck's cards.
type DeckRepository interface {
	Create(ctx context.Context, deck *model.Deck) error
	GetByID(ctx context.Context, id int64) (*model.Deck, error)
	ListByOwner(ctx context.Context, ownerID int64, opts ListOptions) ([]model.Deck, error)
	Delete(ctx context.Context, id int64) error
}

// CardRepository stores cards. Cards are only ever removed by cascade.
type CardRepository interface {
	Create(ctx context.Context, card *model.Card) error
	ListByDeck(ctx context.Context, deckID int64) ([]model.Card, error)
}

// Store groups the repositories behind one transactional boundary.
//
// WithTx runs fn against a Store bound to a single transaction: commit when
// fn returns nil, roll back when it returns an error or panics. Calling
// WithTx on a Store that is already transactional joins that transaction.
type Store interface {
	Users() UserRepository
	Decks() DeckRepository
	Cards() CardRepository
	WithTx(ctx context.Context, fn func(tx Store) error) error
}
