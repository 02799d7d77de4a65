package store

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/abrahamjose02/Article-Feed-Api/types"
	"github.com/google/uuid"
)

// Memory is a process-local store used for development (DB_DRIVER=memory)
// and tests. All state lives behind one mutex, so every conditional write is
// atomic with respect to the others.
type Memory struct {
	mu       sync.RWMutex
	users    map[string]types.User
	articles map[string]types.Article
}

func NewMemory() *Memory {
	return &Memory{
		users:    make(map[string]types.User),
		articles: make(map[string]types.Article),
	}
}

// Users returns a user repository view of m.
func (m *Memory) Users() *MemoryUserRepository {
	return &MemoryUserRepository{m: m}
}

// Articles returns an article repository view of m.
func (m *Memory) Articles() *MemoryArticleRepository {
	return &MemoryArticleRepository{m: m}
}

type MemoryUserRepository struct {
	m *Memory
}

func (r *MemoryUserRepository) GetByID(ctx context.Context, id string) (types.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	user, ok := r.m.users[id]
	if !ok {
		return types.User{}, ErrNotFound
	}
	return cloneUser(user), nil
}

func (r *MemoryUserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, user := range r.m.users {
		if user.Email == email {
			return cloneUser(user), nil
		}
	}
	return types.User{}, ErrNotFound
}

func (r *MemoryUserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	if err := ctx.Err(); err != nil {
		return types.User{}, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.m.users {
		if existing.Email == user.Email {
			return types.User{}, ErrDuplicate
		}
	}
	now := time.Now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Preferences == nil {
		user.Preferences = []string{}
	}
	r.m.users[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

func (r *MemoryUserRepository) Update(ctx context.Context, user types.User) (types.User, error) {
	if err := ctx.Err(); err != nil {
		return types.User{}, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	existing, ok := r.m.users[user.ID]
	if !ok {
		return types.User{}, ErrNotFound
	}
	user.Email = existing.Email
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = time.Now().UTC()
	if user.Preferences == nil {
		user.Preferences = []string{}
	}
	r.m.users[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

type MemoryArticleRepository struct {
	m *Memory
}

func (r *MemoryArticleRepository) Get(ctx context.Context, id string) (types.Article, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	article, ok := r.m.articles[id]
	if !ok {
		return types.Article{}, ErrNotFound
	}
	return cloneArticle(article), nil
}

func (r *MemoryArticleRepository) ListFeed(ctx context.Context, tags []string, readerID string) ([]types.Article, error) {
	return r.filter(func(a types.Article) bool {
		if slices.Contains(a.BlockedBy, readerID) {
			return false
		}
		return slices.ContainsFunc(a.Tags, func(tag string) bool {
			return slices.Contains(tags, tag)
		})
	}), nil
}

func (r *MemoryArticleRepository) ListByAuthor(ctx context.Context, authorID string) ([]types.Article, error) {
	return r.filter(func(a types.Article) bool {
		return a.AuthorID == authorID
	}), nil
}

func (r *MemoryArticleRepository) Create(ctx context.Context, article types.Article) (types.Article, error) {
	if err := ctx.Err(); err != nil {
		return types.Article{}, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	now := time.Now().UTC()
	article.ID = uuid.NewString()
	article.CreatedAt = now
	article.UpdatedAt = now
	article.LikedBy = []string{}
	article.DislikedBy = []string{}
	article.BlockedBy = []string{}
	article.Blocks = 0
	normalizeArticle(&article)
	r.m.articles[article.ID] = cloneArticle(article)
	return cloneArticle(article), nil
}

func (r *MemoryArticleRepository) UpdateContent(ctx context.Context, article types.Article) (types.Article, error) {
	if err := ctx.Err(); err != nil {
		return types.Article{}, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	existing, ok := r.m.articles[article.ID]
	if !ok || existing.AuthorID != article.AuthorID {
		return types.Article{}, ErrNotFound
	}
	existing.Title = article.Title
	existing.Description = article.Description
	existing.Content = article.Content
	existing.Images = slices.Clone(article.Images)
	existing.Tags = slices.Clone(article.Tags)
	existing.Category = article.Category
	existing.UpdatedAt = time.Now().UTC()
	normalizeArticle(&existing)
	r.m.articles[existing.ID] = existing
	return cloneArticle(existing), nil
}

func (r *MemoryArticleRepository) DeleteOwned(ctx context.Context, id, authorID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	existing, ok := r.m.articles[id]
	if !ok || existing.AuthorID != authorID {
		return ErrNotFound
	}
	delete(r.m.articles, id)
	return nil
}

func (r *MemoryArticleRepository) AddReaction(ctx context.Context, id, userID string, kind types.ReactionKind) (types.Article, error) {
	return r.mutate(ctx, id, func(a *types.Article) bool {
		if slices.Contains(a.LikedBy, userID) || slices.Contains(a.DislikedBy, userID) || slices.Contains(a.BlockedBy, userID) {
			return false
		}
		if kind == types.ReactionDislike {
			a.DislikedBy = append(a.DislikedBy, userID)
		} else {
			a.LikedBy = append(a.LikedBy, userID)
		}
		return true
	})
}

func (r *MemoryArticleRepository) RemoveReaction(ctx context.Context, id, userID string, kind types.ReactionKind) (types.Article, error) {
	return r.mutate(ctx, id, func(a *types.Article) bool {
		set := &a.LikedBy
		if kind == types.ReactionDislike {
			set = &a.DislikedBy
		}
		if !slices.Contains(*set, userID) || slices.Contains(a.BlockedBy, userID) {
			return false
		}
		*set = slices.DeleteFunc(*set, func(member string) bool { return member == userID })
		return true
	})
}

func (r *MemoryArticleRepository) AddBlock(ctx context.Context, id, userID string) (types.Article, error) {
	return r.mutate(ctx, id, func(a *types.Article) bool {
		if slices.Contains(a.BlockedBy, userID) {
			return false
		}
		a.BlockedBy = append(a.BlockedBy, userID)
		a.Blocks++
		return true
	})
}

// mutate applies fn to a copy of the article and stores it only when fn
// reports that its precondition held.
func (r *MemoryArticleRepository) mutate(ctx context.Context, id string, fn func(*types.Article) bool) (types.Article, error) {
	if err := ctx.Err(); err != nil {
		return types.Article{}, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	existing, ok := r.m.articles[id]
	if !ok {
		return types.Article{}, ErrConflict
	}
	article := cloneArticle(existing)
	if !fn(&article) {
		return types.Article{}, ErrConflict
	}
	r.m.articles[id] = article
	return cloneArticle(article), nil
}

func (r *MemoryArticleRepository) filter(keep func(types.Article) bool) []types.Article {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	articles := make([]types.Article, 0)
	for _, article := range r.m.articles {
		if keep(article) {
			articles = append(articles, cloneArticle(article))
		}
	}
	sort.Slice(articles, func(i, j int) bool {
		if articles[i].CreatedAt.Equal(articles[j].CreatedAt) {
			return articles[i].ID > articles[j].ID
		}
		return articles[i].CreatedAt.After(articles[j].CreatedAt)
	})
	return articles
}

func cloneUser(u types.User) types.User {
	u.Preferences = slices.Clone(u.Preferences)
	if u.Preferences == nil {
		u.Preferences = []string{}
	}
	return u
}

func cloneArticle(a types.Article) types.Article {
	a.Images = slices.Clone(a.Images)
	a.Tags = slices.Clone(a.Tags)
	a.LikedBy = slices.Clone(a.LikedBy)
	a.DislikedBy = slices.Clone(a.DislikedBy)
	a.BlockedBy = slices.Clone(a.BlockedBy)
	normalizeArticle(&a)
	return a
}
