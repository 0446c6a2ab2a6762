package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/flashcards/internal/apperror"
	"github.com/sakif/flashcards/internal/auth"
	"github.com/sakif/flashcards/internal/model"
	"github.com/sakif/flashcards/internal/repository"
)

// PasswordHasher is the hashing collaborator. *auth.PasswordService
// satisfies it; Verify must return auth.ErrPasswordMismatch on a wrong
// password.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(hash, plaintext string) error
}

var _ PasswordHasher = (*auth.PasswordService)(nil)

// AccountService registers and authenticates local username/password
// accounts.
//
//	AuthHandler (HTTP) → AccountService → UserRepository (DB)
//	                                    ↘ PasswordHasher (bcrypt)
//
// Token issuance is NOT done here: the handler turns an authenticated user
// into a session token.
type AccountService struct {
	users     repository.UserRepository
	passwords PasswordHasher
	logger    *slog.Logger
}

func NewAccountService(users repository.UserRepository, passwords PasswordHasher, logger *slog.Logger) *AccountService {
	return &AccountService{
		users:     users,
		passwords: passwords,
		logger:    logger,
	}
}

// Register creates a new account.
//
// CHECK ORDER (first failure wins, nothing is written on failure):
//  1. username, email and password present (username/email trimmed first)
//  2. password == confirmPassword, else Credential/password_mismatch
//  3. hash the password (>72 bytes → Validation/invalid_password)
//  4. insert; a duplicate username or email is caught by the UNIQUE
//     constraint and comes back from the repository as ErrConflict
func (s *AccountService) Register(ctx context.Context, username, email, password, confirmPassword string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	switch {
	case username == "":
		return nil, apperror.ValidationFailed(apperror.CodeInvalidUsername, "username", "username is required")
	case utf8.RuneCountInString(username) > MaxUsernameLength:
		return nil, apperror.ValidationFailed(apperror.CodeInvalidUsername, "username",
			fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
	case email == "":
		return nil, apperror.ValidationFailed(apperror.CodeInvalidEmail, "email", "email is required")
	case utf8.RuneCountInString(email) > MaxEmailLength:
		return nil, apperror.ValidationFailed(apperror.CodeInvalidEmail, "email",
			fmt.Sprintf("email must be %d characters or less", MaxEmailLength))
	case password == "":
		return nil, apperror.ValidationFailed(apperror.CodeInvalidPassword, "password", "password is required")
	}

	if password != confirmPassword {
		return nil, apperror.Credential(apperror.CodePasswordMismatch, "passwords do not match")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, apperror.ValidationFailed(apperror.CodeInvalidPassword, "password",
				fmt.Sprintf("password must be %d bytes or fewer", auth.MaxPasswordBytes))
		}
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, apperror.Store("hashing password", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to create user",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, asStoreError("creating user", err)
	}

	s.logger.Info("user registered",
		slog.Int64("userID", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// Authenticate checks a username/password pair.
//
// Unknown username → ErrNotFound; wrong password → ErrCredential with code
// invalid_credential. The HTTP layer renders both as the same 401 so the
// response does not reveal which usernames exist.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("failed to look up user", slog.String("error", err.Error()))
		return nil, asStoreError("looking up user", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Info("login rejected", slog.Int64("userID", user.ID))
			return nil, apperror.Credential(apperror.CodeInvalidCredential, "invalid username or password")
		}
		s.logger.Error("stored password hash unusable",
			slog.Int64("userID", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Store("verifying password", err)
	}

	return user, nil
}

// GetUser backs GET /api/me.
func (s *AccountService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, asStoreError("getting user", err)
	}
	return user, nil
}

// DeleteAccount removes the user; the schema cascades to their decks and
// cards in the same statement.
func (s *AccountService) DeleteAccount(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Error("failed to delete user",
				slog.Int64("userID", id),
				slog.String("error", err.Error()),
			)
		}
		return asStoreError("deleting user", err)
	}

	s.logger.Info("account deleted", slog.Int64("userID", id))
	return nil
}
