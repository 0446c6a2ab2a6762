package sqlite

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sakif/flashcards/internal/apperror"
	"github.com/sakif/flashcards/internal/model"
	"github.com/sakif/flashcards/internal/repository"
)

// compile-time check that *CardDB implements repository.CardRepository
var _ repository.CardRepository = (*CardDB)(nil)

// CardDB is the cards table, bound to either the pool or a transaction.
type CardDB struct {
	q querier
}

// Create inserts a card bound to card.DeckID.
// A deck id that doesn't exist trips the foreign key → apperror.NotFound.
func (c *CardDB) Create(ctx context.Context, card *model.Card) error {
	card.CreatedAt = time.Now().UTC()

	result, err := c.q.ExecContext(ctx,
		`INSERT INTO cards (question, answer, deck_id, created_at)
		 VALUES (?, ?, ?, ?)`,
		card.Question,
		card.Answer,
		card.DeckID,
		card.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("deck", strconv.FormatInt(card.DeckID, 10))
		}
		return fmt.Errorf("sqlite: creating card for deck %d: %w", card.DeckID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading card id: %w", err)
	}
	card.ID = id
	return nil
}

// ListByDeck returns a deck's cards in creation order. An unknown deck yields
// an empty slice; callers that care check the deck first.
func (c *CardDB) ListByDeck(ctx context.Context, deckID int64) ([]model.Card, error) {
	rows, err := c.q.QueryContext(ctx,
		`SELECT id, question, answer, deck_id, created_at
		 FROM cards
		 WHERE deck_id = ?
		 ORDER BY id`,
		deckID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing cards for deck %d: %w", deckID, err)
	}
	defer rows.Close()

	cards := []model.Card{}
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating cards: %w", err)
	}
	return cards, nil
}

// rowScanner is satisfied by *sql.Rows and *sql.Row.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (model.Card, error) {
	var card model.Card
	if err := row.Scan(&card.ID, &card.Question, &card.Answer, &card.DeckID, &card.CreatedAt); err != nil {
		return model.Card{}, fmt.Errorf("sqlite: scanning card row: %w", err)
	}
	return card, nil
}
