package services

import (
	"context"
	"io"
	"time"

	"github.com/abrahamjose02/Article-Feed-Api/internal/notify"
	"github.com/abrahamjose02/Article-Feed-Api/types"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
}

// ArticleRepository defines persistence operations for articles. The
// reaction and block writes are conditional: they return store.ErrConflict
// when the precondition does not hold at write time.
type ArticleRepository interface {
	Get(ctx context.Context, id string) (types.Article, error)
	ListFeed(ctx context.Context, tags []string, readerID string) ([]types.Article, error)
	ListByAuthor(ctx context.Context, authorID string) ([]types.Article, error)
	Create(ctx context.Context, article types.Article) (types.Article, error)
	UpdateContent(ctx context.Context, article types.Article) (types.Article, error)
	DeleteOwned(ctx context.Context, id, authorID string) error
	AddReaction(ctx context.Context, id, userID string, kind types.ReactionKind) (types.Article, error)
	RemoveReaction(ctx context.Context, id, userID string, kind types.ReactionKind) (types.Article, error)
	AddBlock(ctx context.Context, id, userID string) (types.Article, error)
}

// ImageUploader stores article images and returns their public URL.
type ImageUploader interface {
	Upload(ctx context.Context, content io.Reader, size int64, filename, contentType string) (string, error)
	Remove(ctx context.Context, url string) error
}

// Notifier delivers a message to a user.
type Notifier interface {
	Send(ctx context.Context, msg notify.Message) error
}

// Image is an uploaded file as received from the client.
type Image struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// Options are the knobs shared by every service.
type Options struct {
	// Timeout bounds each collaborator call. Zero means
	// DefaultCollaboratorTimeout.
	Timeout time.Duration

	// BcryptCost is used when hashing passwords. Zero means bcrypt.DefaultCost.
	BcryptCost int

	Logger *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultCollaboratorTimeout
	}
	if o.BcryptCost == 0 {
		o.BcryptCost = bcrypt.DefaultCost
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}
