package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abrahamjose02/Article-Feed-Api/internal/notify"
	"github.com/abrahamjose02/Article-Feed-Api/internal/store"
	"github.com/abrahamjose02/Article-Feed-Api/internal/tokens"
	"github.com/abrahamjose02/Article-Feed-Api/types"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	activationSubject = "Activate your account"
	activationBody    = "Your activation code is: %s"
)

type RegisterInput struct {
	FirstName   string
	LastName    string
	Phone       string
	Email       string
	DOB         string
	Password    string
	Preferences []string
}

// ProfileUpdate carries a partial profile. Empty strings leave the stored
// value alone; a nil Preferences keeps the stored list while a non-nil one,
// even empty, replaces it.
type ProfileUpdate struct {
	FirstName   string
	LastName    string
	Phone       string
	DOB         string
	Password    string
	Preferences []string
}

// AccountService owns registration, activation and profile management.
type AccountService struct {
	users    UserRepository
	tokens   *tokens.Service
	notifier Notifier
	opts     Options
}

func NewAccountService(users UserRepository, tokenService *tokens.Service, notifier Notifier, opts Options) *AccountService {
	return &AccountService{
		users:    users,
		tokens:   tokenService,
		notifier: notifier,
		opts:     opts.withDefaults(),
	}
}

// Register starts a registration and returns the activation envelope. The
// account is not persisted until Activate succeeds.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (string, error) {
	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" || in.Password == "" {
		return "", fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	if err := s.ensureEmailFree(ctx, in.Email); err != nil {
		return "", err
	}

	token, code, err := s.tokens.IssueActivationEnvelope(types.PendingUser{
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Phone:       in.Phone,
		Email:       in.Email,
		DOB:         in.DOB,
		Password:    in.Password,
		Preferences: in.Preferences,
	})
	if err != nil {
		return "", err
	}

	sendCtx, cancel := withTimeout(ctx, s.opts.Timeout)
	defer cancel()
	err = s.notifier.Send(sendCtx, notify.Message{
		To:      in.Email,
		Subject: activationSubject,
		Body:    fmt.Sprintf(activationBody, code),
	})
	if err != nil {
		s.opts.Logger.Warn("activation email not sent",
			zap.String("email", in.Email),
			zap.Error(err),
		)
	}

	return token, nil
}

// Activate turns a verified envelope into a persisted account.
func (s *AccountService) Activate(ctx context.Context, token, code string) (types.User, error) {
	result := s.tokens.VerifyActivationEnvelope(token)
	if result.Status != tokens.StatusValid || result.Code != code {
		return types.User{}, fmt.Errorf("%w: envelope %s", ErrInvalidActivation, result.Status)
	}
	pending := result.User

	if err := s.ensureEmailFree(ctx, pending.Email); err != nil {
		return types.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pending.Password), s.opts.BcryptCost)
	if err != nil {
		return types.User{}, fmt.Errorf("hash password: %w", err)
	}

	createCtx, cancel := withTimeout(ctx, s.opts.Timeout)
	defer cancel()
	user, err := s.users.Create(createCtx, types.User{
		Email:        pending.Email,
		PasswordHash: string(hash),
		FirstName:    pending.FirstName,
		LastName:     pending.LastName,
		Phone:        pending.Phone,
		DOB:          pending.DOB,
		Preferences:  pending.Preferences,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return types.User{}, ErrDuplicateAccount
		}
		return types.User{}, fmt.Errorf("create user: %w", err)
	}

	s.opts.Logger.Info("account activated", zap.String("user_id", user.ID))
	return user, nil
}

func (s *AccountService) UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (types.User, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return types.User{}, err
	}

	if in.FirstName != "" {
		user.FirstName = in.FirstName
	}
	if in.LastName != "" {
		user.LastName = in.LastName
	}
	if in.Phone != "" {
		user.Phone = in.Phone
	}
	if in.DOB != "" {
		user.DOB = in.DOB
	}
	if in.Preferences != nil {
		user.Preferences = in.Preferences
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.opts.BcryptCost)
		if err != nil {
			return types.User{}, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	updateCtx, cancel := withTimeout(ctx, s.opts.Timeout)
	defer cancel()
	updated, err := s.users.Update(updateCtx, user)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, fmt.Errorf("update user: %w", err)
	}
	return updated, nil
}

func (s *AccountService) Profile(ctx context.Context, userID string) (types.User, error) {
	if userID == "" {
		return types.User{}, ErrUnauthenticated
	}
	return loadUser(ctx, s.users, userID, s.opts.Timeout)
}

func (s *AccountService) ensureEmailFree(ctx context.Context, email string) error {
	lookupCtx, cancel := withTimeout(ctx, s.opts.Timeout)
	defer cancel()

	_, err := s.users.GetByEmail(lookupCtx, email)
	switch {
	case err == nil:
		return ErrDuplicateAccount
	case errors.Is(err, store.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("lookup user: %w", err)
	}
}

func loadUser(ctx context.Context, users UserRepository, userID string, timeout time.Duration) (types.User, error) {
	lookupCtx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	user, err := users.GetByID(lookupCtx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		return types.User{}, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}
