package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sakif/flashcards/internal/apperror"
	"github.com/sakif/flashcards/internal/model"
	"github.com/sakif/flashcards/internal/repository"
)

// compile-time check that *DeckDB implements repository.DeckRepository
var _ repository.DeckRepository = (*DeckDB)(nil)

// DeckDB is the decks table, bound to either the pool or a transaction.
type DeckDB struct {
	q querier
}

// deckColumns selects a deck plus its card count in one round trip.
const deckColumns = `d.id, d.name, d.description, d.owner_id, d.created_at,
	(SELECT COUNT(*) FROM cards c WHERE c.deck_id = d.id)`

// Create inserts a deck and fills in the generated ID and CreatedAt.
//
// The ID comes from SQLite (AUTOINCREMENT) via LastInsertId. Inside a
// transaction the id is visible to the same transaction immediately, which
// is what lets authoring insert the deck and then its cards in one unit.
//
// A missing owner trips the foreign key and comes back as OwnerNotFound.
func (d *DeckDB) Create(ctx context.Context, deck *model.Deck) error {
	deck.CreatedAt = time.Now().UTC()

	result, err := d.q.ExecContext(ctx,
		`INSERT INTO decks (name, description, owner_id, created_at)
		 VALUES (?, ?, ?, ?)`,
		deck.Name,
		deck.Description,
		deck.OwnerID,
		deck.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.OwnerNotFound(strconv.FormatInt(deck.OwnerID, 10))
		}
		return fmt.Errorf("sqlite: creating deck: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading deck id: %w", err)
	}
	deck.ID = id
	deck.CardCount = 0
	return nil
}

// GetByID retrieves a deck (with CardCount, without Cards).
// Returns apperror.ErrNotFound if the deck doesn't exist.
func (d *DeckDB) GetByID(ctx context.Context, id int64) (*model.Deck, error) {
	var deck model.Deck
	err := d.q.QueryRowContext(ctx,
		`SELECT `+deckColumns+`
		 FROM decks d
		 WHERE d.id = ?`,
		id,
	).Scan(
		&deck.ID,
		&deck.Name,
		&deck.Description,
		&deck.OwnerID,
		&deck.CreatedAt,
		&deck.CardCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("deck", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting deck %d: %w", id, err)
	}
	return &deck, nil
}

// ListByOwner returns the owner's decks in creation order.
//
// LIMIT -1 is SQLite for "no limit", used when opts.Limit <= 0.
//
// With opts.IncludeCards the cards of every deck on the page are loaded with
// one extra query (not one per deck). The deck rows are fully read and closed
// first: the pool has a single connection, so overlapping result sets would
// block forever.
func (d *DeckDB) ListByOwner(ctx context.Context, ownerID int64, opts repository.ListOptions) ([]model.Deck, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = -1
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	decks, err := d.listDecks(ctx, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	if !opts.IncludeCards || len(decks) == 0 {
		return decks, nil
	}

	byDeck, err := d.listOwnerCards(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for i := range decks {
		decks[i].Cards = byDeck[decks[i].ID]
		if decks[i].Cards == nil {
			decks[i].Cards = []model.Card{}
		}
	}
	return decks, nil
}

func (d *DeckDB) listDecks(ctx context.Context, ownerID int64, limit, offset int) ([]model.Deck, error) {
	rows, err := d.q.QueryContext(ctx,
		`SELECT `+deckColumns+`
		 FROM decks d
		 WHERE d.owner_id = ?
		 ORDER BY d.id
		 LIMIT ? OFFSET ?`,
		ownerID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing decks for owner %d: %w", ownerID, err)
	}
	defer rows.Close()

	decks := []model.Deck{}
	for rows.Next() {
		var deck model.Deck
		if err := rows.Scan(
			&deck.ID, &deck.Name, &deck.Description, &deck.OwnerID,
			&deck.CreatedAt, &deck.CardCount,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning deck row: %w", err)
		}
		decks = append(decks, deck)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating decks: %w", err)
	}
	return decks, nil
}

func (d *DeckDB) listOwnerCards(ctx context.Context, ownerID int64) (map[int64][]model.Card, error) {
	rows, err := d.q.QueryContext(ctx,
		`SELECT c.id, c.question, c.answer, c.deck_id, c.created_at
		 FROM cards c
		 JOIN decks d ON d.id = c.deck_id
		 WHERE d.owner_id = ?
		 ORDER BY c.id`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing cards for owner %d: %w", ownerID, err)
	}
	defer rows.Close()

	byDeck := make(map[int64][]model.Card)
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		byDeck[card.DeckID] = append(byDeck[card.DeckID], card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating cards: %w", err)
	}
	return byDeck, nil
}

// Delete removes a deck; ON DELETE CASCADE removes its cards in the same
// statement, so no reader ever sees a deck with only some of its cards.
func (d *DeckDB) Delete(ctx context.Context, id int64) error {
	result, err := d.q.ExecContext(ctx, `DELETE FROM decks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting deck %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("deck", strconv.FormatInt(id, 10))
	}
	return nil
}
