package services

import (
	"context"
	"errors"
	"time"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateAccount   = errors.New("user already exists")
	ErrInvalidActivation  = errors.New("invalid activation code")
	ErrNotFound           = errors.New("not found")
	// ErrForbidden is not returned for articles: a non-owner gets ErrNotFound.
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthenticated    = errors.New("user not authenticated")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrBlockedConflict    = errors.New("article is blocked by user")
	ErrOppositeReaction   = errors.New("opposite reaction must be undone first")
	ErrAlreadyBlocked     = errors.New("article already blocked")
	ErrUpload             = errors.New("image upload failed")
)

// DefaultCollaboratorTimeout bounds every repository, storage and
// notification call made by a service.
const DefaultCollaboratorTimeout = 10 * time.Second

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultCollaboratorTimeout
	}
	return context.WithTimeout(ctx, d)
}
