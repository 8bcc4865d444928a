package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"memwatch/internal/model"
	"memwatch/internal/token"
	"memwatch/pkg/apierror"
)

// UserStore is the slice of the credential store the auth service needs.
// Implemented by repository.UserRepository.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	Create(ctx context.Context, user model.User) error
}

type AuthService struct {
	users    UserStore
	codec    *token.Codec
	tokenTTL time.Duration
}

func NewAuthService(users UserStore, codec *token.Codec, tokenTTL time.Duration) *AuthService {
	return &AuthService{users: users, codec: codec, tokenTTL: tokenTTL}
}

// Authenticate turns a username/password pair into the stored user record,
// or a definite 401 rejection. The activated flag is deliberately not
// consulted here: a deactivated user can still obtain a token but is
// turned away when using it against protected resources.
func (s *AuthService) Authenticate(ctx context.Context, username string, password string) (model.User, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, apierror.New("UNAUTHORIZED", "incorrect username or password", "", http.StatusUnauthorized)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("look up user: %w", err)
	}

	if !VerifyPassword(password, user.PasswordHash) {
		return model.User{}, apierror.New("UNAUTHORIZED", "incorrect username or password", "", http.StatusUnauthorized)
	}

	return user, nil
}

// Register creates a new, activated user. Duplicates are reported with a
// 406 whose message distinguishes account-exists (same username and
// email), username-exists and email-exists.
func (s *AuthService) Register(ctx context.Context, username string, email string, password string) (model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" || email == "" || password == "" {
		return model.User{}, apierror.New("BAD_REQUEST", "username, email and password are required", "", http.StatusBadRequest)
	}

	existing, err := s.users.FindByUsername(ctx, username)
	if err == nil {
		if existing.Email == email {
			return model.User{}, apierror.New("ALREADY_EXISTS", "this account already exists", username, http.StatusNotAcceptable)
		}
		return model.User{}, apierror.New("ALREADY_EXISTS", "this username already exists", username, http.StatusNotAcceptable)
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, fmt.Errorf("check username: %w", err)
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return model.User{}, apierror.New("ALREADY_EXISTS", "this email already exists", email, http.StatusNotAcceptable)
	} else if !errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, fmt.Errorf("check email: %w", err)
	}

	user := model.User{
		Username:     username,
		Email:        email,
		PasswordHash: HashPassword(password),
		Activated:    true,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return model.User{}, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

// IssueToken encodes a fresh access token for user with the configured TTL.
func (s *AuthService) IssueToken(user model.User) (string, error) {
	return s.codec.Encode(token.Claims{"username": user.Username}, s.tokenTTL)
}

// UserFromToken decodes an access token and loads the user it names. Any
// decode failure or unknown username collapses into a single 401; the
// caller learns nothing about which check failed.
func (s *AuthService) UserFromToken(ctx context.Context, tokenString string) (model.User, error) {
	unauthorized := apierror.New("UNAUTHORIZED", "could not validate credentials", "", http.StatusUnauthorized)

	claims, err := s.codec.Decode(tokenString)
	if err != nil {
		return model.User{}, unauthorized
	}

	username, _ := claims["username"].(string)
	if username == "" {
		return model.User{}, unauthorized
	}

	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, unauthorized
	}
	if err != nil {
		return model.User{}, fmt.Errorf("look up user: %w", err)
	}

	return user, nil
}
