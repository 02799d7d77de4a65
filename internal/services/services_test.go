package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/abrahamjose02/Article-Feed-Api/internal/notify"
	"github.com/abrahamjose02/Article-Feed-Api/internal/store"
	"github.com/abrahamjose02/Article-Feed-Api/internal/tokens"
	"github.com/abrahamjose02/Article-Feed-Api/types"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testOptions = Options{BcryptCost: bcrypt.MinCost}

type recordingNotifier struct {
	mu       sync.Mutex
	err      error
	messages []notify.Message
}

func (n *recordingNotifier) Send(ctx context.Context, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	return n.err
}

func (n *recordingNotifier) code(t *testing.T) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.Len(t, n.messages, 1)
	return strings.TrimPrefix(n.messages[0].Body, "Your activation code is: ")
}

type fakeUploader struct {
	mu       sync.Mutex
	err      error
	uploaded []string
	removed  []string
}

func (u *fakeUploader) Upload(ctx context.Context, content io.Reader, size int64, filename, contentType string) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	url := "https://cdn.test/" + filename
	u.uploaded = append(u.uploaded, url)
	return url, nil
}

func (u *fakeUploader) Remove(ctx context.Context, url string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.removed = append(u.removed, url)
	return nil
}

// flakyArticles fails the first conflicts conditional writes with
// store.ErrConflict, as if another request had won the race.
type flakyArticles struct {
	*store.MemoryArticleRepository
	conflicts int
	createErr error
	updateErr error
}

func (f *flakyArticles) AddReaction(ctx context.Context, id, userID string, kind types.ReactionKind) (types.Article, error) {
	if f.conflicts > 0 {
		f.conflicts--
		return types.Article{}, store.ErrConflict
	}
	return f.MemoryArticleRepository.AddReaction(ctx, id, userID, kind)
}

func (f *flakyArticles) AddBlock(ctx context.Context, id, userID string) (types.Article, error) {
	if f.conflicts > 0 {
		f.conflicts--
		return types.Article{}, store.ErrConflict
	}
	return f.MemoryArticleRepository.AddBlock(ctx, id, userID)
}

func (f *flakyArticles) Create(ctx context.Context, article types.Article) (types.Article, error) {
	if f.createErr != nil {
		return types.Article{}, f.createErr
	}
	return f.MemoryArticleRepository.Create(ctx, article)
}

func (f *flakyArticles) UpdateContent(ctx context.Context, article types.Article) (types.Article, error) {
	if f.updateErr != nil {
		return types.Article{}, f.updateErr
	}
	return f.MemoryArticleRepository.UpdateContent(ctx, article)
}

func newTokenService(t *testing.T) *tokens.Service {
	t.Helper()
	svc, err := tokens.NewService(tokens.Config{
		ActivationSecret: "activation",
		AccessSecret:     "access",
		RefreshSecret:    "refresh",
	})
	require.NoError(t, err)
	return svc
}

func seedUser(t *testing.T, mem *store.Memory, email, password string, preferences ...string) types.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user, err := mem.Users().Create(context.Background(), types.User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.Split(email, "@")[0],
		Preferences:  preferences,
	})
	require.NoError(t, err)
	return user
}

func seedArticle(t *testing.T, mem *store.Memory, authorID string, tags ...string) types.Article {
	t.Helper()
	article, err := mem.Articles().Create(context.Background(), types.Article{
		Title:       "Title",
		Description: "Description",
		Content:     "Content",
		Images:      []string{"https://cdn.test/seed.png"},
		Tags:        tags,
		Category:    types.CategoryScience,
		AuthorID:    authorID,
	})
	require.NoError(t, err)
	return article
}

// newExpiringTokens issues tokens that are already expired.
func newExpiringTokens(t *testing.T) *tokens.Service {
	t.Helper()
	svc, err := tokens.NewService(tokens.Config{
		ActivationSecret: "activation",
		AccessSecret:     "access",
		RefreshSecret:    "refresh",
		ActivationTTL:    -time.Minute,
		AccessTTL:        -time.Minute,
		RefreshTTL:       -time.Minute,
	})
	require.NoError(t, err)
	return svc
}

var errBackend = errors.New("backend unavailable")
