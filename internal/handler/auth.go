package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/flashcards/internal/apperror"
	"github.com/sakif/flashcards/internal/auth"
	"github.com/sakif/flashcards/internal/model"
	"github.com/sakif/flashcards/internal/service"
)

// AuthHandler handles account and session endpoints.
//
// ENDPOINTS:
//   - HandleRegister → create a local account
//   - HandleLogin    → check credentials, issue a JWT (cookie + body)
//   - HandleLogout   → clear the JWT cookie
//   - HandleMe       → return the currently logged-in user's profile
//   - HandleDeleteMe → delete the account and everything it owns
//
// DEPENDENCY CHAIN:
//   - accounts *service.AccountService → registration, password checks
//   - tokens   *auth.TokenService      → issues JWT access tokens
type AuthHandler struct {
	accounts     *service.AccountService
	tokens       *auth.TokenService
	secureCookie bool
	validate     *validator.Validate
	logger       *slog.Logger
}

// NewAuthHandler creates an AuthHandler. secureCookie sets the Secure flag on
// the session cookie; turn it on whenever the server sits behind HTTPS.
func NewAuthHandler(accounts *service.AccountService, tokens *auth.TokenService, secureCookie bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		accounts:     accounts,
		tokens:       tokens,
		secureCookie: secureCookie,
		validate:     newValidator(),
		logger:       logger,
	}
}

type registerRequest struct {
	Username        string `json:"username" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,max=100,email"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// loginResponse carries the token for clients that cannot use cookies.
type loginResponse struct {
	Token     string      `json:"token"`
	ExpiresIn int64       `json:"expiresIn"` // seconds
	User      *model.User `json:"user"`
}

// HandleRegister creates an account.
//
// HTTP: POST /auth/register
// Body: {"username", "email", "password", "confirmPassword"}
// Response: 201 with the user (never the hash), 409 on a taken username or
// email, 400 on a bad form or mismatched confirmation.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := validateRequest(h.validate, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.accounts.Register(r.Context(), req.Username, req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// HandleLogin authenticates and starts a session.
//
// HTTP: POST /auth/login
// Body: {"username", "password"}
//
// ONE ANSWER FOR BOTH FAILURES:
// An unknown username and a wrong password both get the same 401 body, so
// the endpoint cannot be used to probe which usernames exist.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := validateRequest(h.validate, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.accounts.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if kind := apperror.KindOf(err); kind == apperror.ErrNotFound || kind == apperror.ErrCredential {
			err = apperror.Credential(apperror.CodeInvalidCredential, "invalid username or password")
		}
		writeError(w, h.logger, err)
		return
	}

	token, err := h.tokens.Generate(user.ID)
	if err != nil {
		writeError(w, h.logger, fmt.Errorf("issuing token: %w", err))
		return
	}

	h.setSessionCookie(w, token, int(h.tokens.TTL().Seconds()))
	h.logger.Info("user logged in", slog.Int64("userID", user.ID))

	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresIn: int64(h.tokens.TTL().Seconds()),
		User:      user,
	})
}

// HandleLogout clears the JWT cookie, effectively logging the user out.
//
// HTTP: POST /auth/logout
//
// WHY POST AND NOT GET?
// Logout is a state-changing operation. Using GET would be vulnerable to
// CSRF and to browsers pre-fetching the URL.
//
// Since we're stateless (JWT), "logout" just means deleting the client-side
// cookie. The token stays valid until it expires.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.setSessionCookie(w, "", -1)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the currently authenticated user's profile.
//
// HTTP: GET /api/me
// Auth: Required (RequireAuth middleware sets userID in context)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	user, err := h.accounts.GetUser(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleDeleteMe deletes the caller's account. Decks and cards go with it.
//
// HTTP: DELETE /api/me
// Response: 204 No Content, session cookie cleared.
func (h *AuthHandler) HandleDeleteMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.accounts.DeleteAccount(r.Context(), userID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.setSessionCookie(w, "", -1)
	w.WriteHeader(http.StatusNoContent)
}

// setSessionCookie writes the session cookie. maxAge < 0 deletes it.
//
// The cookie is:
//   - HttpOnly: JavaScript can't read it
//   - SameSite=Lax: not sent on cross-site POSTs
//   - Secure: only over HTTPS, when configured
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// requireUser reads the authenticated user id set by RequireAuth. On a
// protected route it is always present; the 401 covers a miswired router.
func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "valid authentication required",
		})
	}
	return userID, ok
}
