package model

import "time"

// Deck is a named, user-owned collection of study Cards.
//
// CardCount is filled by every read. Cards is only populated when the caller
// asks for the full list (study view, authoring result, list with cards),
// otherwise it is nil and omitted from JSON.
type Deck struct {
	ID          int64     `json:"id"          db:"id"`
	Name        string    `json:"name"        db:"name"`
	Description string    `json:"description" db:"description"`
	OwnerID     int64     `json:"ownerId"     db:"owner_id"`
	CardCount   int       `json:"cardCount"`
	Cards       []Card    `json:"cards,omitempty"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
}

// Card is a single question/answer pair belonging to exactly one Deck.
type Card struct {
	ID        int64     `json:"id"        db:"id"`
	Question  string    `json:"question"  db:"question"`
	Answer    string    `json:"answer"    db:"answer"`
	DeckID    int64     `json:"deckId"    db:"deck_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// CardInput is one submitted (question, answer) row before filtering.
type CardInput struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// StudySession is what the study view needs: the deck's display name, its
// id, and every card.
type StudySession struct {
	DeckID   int64  `json:"deckId"`
	DeckName string `json:"deckName"`
	Cards    []Card `json:"cards"`
}
