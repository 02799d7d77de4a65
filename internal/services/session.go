package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abrahamjose02/Article-Feed-Api/internal/store"
	"github.com/abrahamjose02/Article-Feed-Api/internal/tokens"
	"github.com/abrahamjose02/Article-Feed-Api/types"
	"golang.org/x/crypto/bcrypt"
)

// SessionService issues and validates session token pairs.
type SessionService struct {
	users  UserRepository
	tokens *tokens.Service
	opts   Options
}

func NewSessionService(users UserRepository, tokenService *tokens.Service, opts Options) *SessionService {
	return &SessionService{
		users:  users,
		tokens: tokenService,
		opts:   opts.withDefaults(),
	}
}

func (s *SessionService) Login(ctx context.Context, email, password string) (types.User, tokens.Pair, error) {
	email = strings.TrimSpace(email)

	lookupCtx, cancel := withTimeout(ctx, s.opts.Timeout)
	defer cancel()
	user, err := s.users.GetByEmail(lookupCtx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, tokens.Pair{}, fmt.Errorf("%w: user", ErrNotFound)
		}
		return types.User{}, tokens.Pair{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, tokens.Pair{}, ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return types.User{}, tokens.Pair{}, err
	}
	return user, pair, nil
}

// Authenticate resolves an access token to the user id it was issued for.
func (s *SessionService) Authenticate(token string) (string, error) {
	if token == "" {
		return "", ErrUnauthenticated
	}
	userID, err := s.tokens.VerifyAccessToken(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return userID, nil
}

// Refresh exchanges a refresh token for a new access token. The refresh
// token itself is not rotated.
func (s *SessionService) Refresh(token string) (string, error) {
	if token == "" {
		return "", ErrUnauthenticated
	}
	userID, err := s.tokens.VerifyRefreshToken(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return s.tokens.IssueAccessToken(userID)
}

// AccessTTL and RefreshTTL expose token lifetimes for cookie expiry.
func (s *SessionService) AccessTTL() time.Duration { return s.tokens.AccessTTL() }

func (s *SessionService) RefreshTTL() time.Duration { return s.tokens.RefreshTTL() }
