package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sakif/flashcards/internal/auth"
	"github.com/sakif/flashcards/internal/handler"
	"github.com/sakif/flashcards/internal/repository/sqlite"
	"github.com/sakif/flashcards/internal/service"
)

// testAPI wires the real services over an in-memory store behind a chi
// router laid out like the production one.
type testAPI struct {
	t      *testing.T
	db     *sqlite.DB
	tokens *auth.TokenService
	router http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("handler-test-secret-0123456789", time.Hour)
	require.NoError(t, err)

	accounts := service.NewAccountService(db.Users(), auth.NewPasswordServiceForTest(), logger)
	authoring := service.NewDeckAuthoringService(db, nil, logger)
	access := service.NewDeckAccessService(db, service.AccessPolicy{EnforceOwnership: true}, logger)

	authH := handler.NewAuthHandler(accounts, tokens, false, logger)
	deckH := handler.NewDeckHandler(authoring, access, logger)
	healthH := handler.NewHealthHandler(db, logger)

	r := chi.NewRouter()
	r.Get("/healthz", healthH.HandleHealth)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authH.HandleRegister)
		r.Post("/login", authH.HandleLogin)
		r.Post("/logout", authH.HandleLogout)
	})
	r.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))
		r.Get("/me", authH.HandleMe)
		r.Delete("/me", authH.HandleDeleteMe)
		r.Get("/decks", deckH.HandleList)
		r.Post("/decks", deckH.HandleCreate)
		r.Get("/decks/{id}/cards", deckH.HandleCards)
		r.Get("/decks/{id}/study", deckH.HandleStudy)
		r.Delete("/decks/{id}", deckH.HandleDelete)
	})

	return &testAPI{t: t, db: db, tokens: tokens, router: r}
}

// do sends a request; token, when non-empty, goes in a Bearer header.
func (a *testAPI) do(method, path, body, token string) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

// signUp registers username (password "secret") and logs in, returning the
// session token.
func (a *testAPI) signUp(username string) string {
	a.t.Helper()
	rr := a.do(http.MethodPost, "/auth/register",
		`{"username":"`+username+`","email":"`+username+`@example.com","password":"secret","confirmPassword":"secret"}`, "")
	require.Equal(a.t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = a.do(http.MethodPost, "/auth/login", `{"username":"`+username+`","password":"secret"}`, "")
	require.Equal(a.t, http.StatusOK, rr.Code, rr.Body.String())

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(a.t, json.NewDecoder(rr.Body).Decode(&body))
	require.NotEmpty(a.t, body.Token)
	return body.Token
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	raw := rr.Body.Bytes()
	require.NoError(t, json.Unmarshal(raw, &v), "body: %s", raw)
	return v
}
