package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/flashcards/internal/apperror"
	"github.com/sakif/flashcards/internal/model"
	"github.com/sakif/flashcards/internal/repository"
	"github.com/sakif/flashcards/internal/service"
)

// DeckHandler serves the deck endpoints. Every route sits behind
// RequireAuth; the authenticated user id is the owner for creation and the
// requester for reads and deletes.
type DeckHandler struct {
	authoring *service.DeckAuthoringService
	access    *service.DeckAccessService
	logger    *slog.Logger
}

func NewDeckHandler(authoring *service.DeckAuthoringService, access *service.DeckAccessService, logger *slog.Logger) *DeckHandler {
	return &DeckHandler{
		authoring: authoring,
		access:    access,
		logger:    logger,
	}
}

type createDeckRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Cards       []model.CardInput `json:"cards"`
}

// HandleCreate creates a deck with its cards.
//
// HTTP: POST /api/decks
// REQUEST BODY:
//
//	{"name": "Capitals", "description": "Europe",
//	 "cards": [{"question": "France", "answer": "Paris"}, ...]}
//
// Rows with a blank question or answer are dropped by the service; the
// response shows what was actually stored.
func (h *DeckHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req createDeckRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	deck, err := h.authoring.CreateDeck(r.Context(), userID, req.Name, req.Description, req.Cards)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, deck)
}

// HandleList returns the caller's decks.
//
// HTTP: GET /api/decks?cards=true&limit=20&offset=40
//
// QUERY PARAMETERS (all optional):
//   - cards:  "true" embeds each deck's cards
//   - limit:  page size, capped by the service; omitted means everything
//   - offset: decks to skip
func (h *DeckHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	opts, err := listOptions(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	decks, err := h.access.ListDecksForUser(r.Context(), userID, opts)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, decks)
}

// HandleCards returns a deck's cards in creation order.
//
// HTTP: GET /api/decks/{id}/cards
//
// URL PARAMETERS:
// chi.URLParam(r, "id") extracts {id}. The raw string goes to the service,
// which owns the invalid_id check.
func (h *DeckHandler) HandleCards(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	cards, err := h.access.GetDeckCards(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, cards)
}

// HandleStudy returns the deck name and full card set for a study session.
//
// HTTP: GET /api/decks/{id}/study
func (h *DeckHandler) HandleStudy(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	session, err := h.access.GetDeckForStudy(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// HandleDelete removes a deck and its cards.
//
// HTTP: DELETE /api/decks/{id}
// Response: 204 No Content
func (h *DeckHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.access.DeleteDeck(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func listOptions(r *http.Request) (repository.ListOptions, error) {
	q := r.URL.Query()
	opts := repository.ListOptions{IncludeCards: q.Get("cards") == "true"}

	var err error
	if opts.Limit, err = nonNegativeParam(q.Get("limit"), "limit"); err != nil {
		return opts, err
	}
	if opts.Offset, err = nonNegativeParam(q.Get("offset"), "offset"); err != nil {
		return opts, err
	}
	return opts, nil
}

// nonNegativeParam parses an optional integer query parameter; "" is 0.
func nonNegativeParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperror.ValidationFailed("", name, name+" must be a non-negative integer")
	}
	return n, nil
}
