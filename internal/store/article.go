package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/abrahamjose02/Article-Feed-Api/types"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const articleColumns = `id, title, description, content, images, tags, category, author_id, liked_by, disliked_by, blocked_by, blocks, created_at, updated_at`

// ArticleRepository handles persistence for articles. Reaction writes are
// single conditional UPDATE statements so that concurrent requests can never
// leave a user in both liked_by and disliked_by.
type ArticleRepository struct {
	db *sql.DB
}

func NewArticleRepository(db *sql.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *ArticleRepository) Get(ctx context.Context, id string) (types.Article, error) {
	if !validUUID(id) {
		return types.Article{}, ErrNotFound
	}
	const query = `SELECT ` + articleColumns + ` FROM articles WHERE id = $1`
	return scanArticle(r.db.QueryRowContext(ctx, query, id))
}

// ListFeed returns articles sharing at least one tag with tags that have not
// been blocked by readerID, newest first.
func (r *ArticleRepository) ListFeed(ctx context.Context, tags []string, readerID string) ([]types.Article, error) {
	const query = `
		SELECT ` + articleColumns + `
		FROM articles
		WHERE tags && $1::text[]
			AND NOT ($2 = ANY(blocked_by))
		ORDER BY created_at DESC`
	return r.list(ctx, query, pq.Array(tags), readerID)
}

func (r *ArticleRepository) ListByAuthor(ctx context.Context, authorID string) ([]types.Article, error) {
	if !validUUID(authorID) {
		return []types.Article{}, nil
	}
	const query = `
		SELECT ` + articleColumns + `
		FROM articles
		WHERE author_id = $1
		ORDER BY created_at DESC`
	return r.list(ctx, query, authorID)
}

func (r *ArticleRepository) Create(ctx context.Context, article types.Article) (types.Article, error) {
	now := time.Now().UTC()
	article.CreatedAt = now
	article.UpdatedAt = now
	article.LikedBy = []string{}
	article.DislikedBy = []string{}
	article.BlockedBy = []string{}
	article.Blocks = 0
	normalizeArticle(&article)

	const query = `
		INSERT INTO articles (title, description, content, images, tags, category, author_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		article.Title,
		article.Description,
		article.Content,
		pq.Array(article.Images),
		pq.Array(article.Tags),
		string(article.Category),
		article.AuthorID,
		article.CreatedAt,
		article.UpdatedAt,
	).Scan(&article.ID); err != nil {
		return types.Article{}, err
	}
	return article, nil
}

// UpdateContent overwrites the author-editable columns of an article owned by
// article.AuthorID. Reaction columns are left untouched.
func (r *ArticleRepository) UpdateContent(ctx context.Context, article types.Article) (types.Article, error) {
	if !validUUID(article.ID) || !validUUID(article.AuthorID) {
		return types.Article{}, ErrNotFound
	}
	normalizeArticle(&article)

	const query = `
		UPDATE articles
		SET title = $1,
			description = $2,
			content = $3,
			images = $4,
			tags = $5,
			category = $6,
			updated_at = $7
		WHERE id = $8 AND author_id = $9
		RETURNING ` + articleColumns
	return scanArticle(r.db.QueryRowContext(
		ctx,
		query,
		article.Title,
		article.Description,
		article.Content,
		pq.Array(article.Images),
		pq.Array(article.Tags),
		string(article.Category),
		time.Now().UTC(),
		article.ID,
		article.AuthorID,
	))
}

// DeleteOwned removes the article only if authorID wrote it.
func (r *ArticleRepository) DeleteOwned(ctx context.Context, id, authorID string) error {
	if !validUUID(id) || !validUUID(authorID) {
		return ErrNotFound
	}
	const query = `DELETE FROM articles WHERE id = $1 AND author_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, authorID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddReaction records a reaction of kind by userID, provided the user has no
// reaction of either kind and has not blocked the article. It returns
// ErrConflict when that precondition does not hold or the article is gone.
func (r *ArticleRepository) AddReaction(ctx context.Context, id, userID string, kind types.ReactionKind) (types.Article, error) {
	if !validUUID(id) {
		return types.Article{}, ErrNotFound
	}
	column, err := reactionColumn(kind)
	if err != nil {
		return types.Article{}, err
	}
	query := fmt.Sprintf(`
		UPDATE articles
		SET %[1]s = array_append(%[1]s, $2::text)
		WHERE id = $1
			AND NOT ($2 = ANY(liked_by))
			AND NOT ($2 = ANY(disliked_by))
			AND NOT ($2 = ANY(blocked_by))
		RETURNING `+articleColumns, column)
	return conditional(scanArticle(r.db.QueryRowContext(ctx, query, id, userID)))
}

// RemoveReaction withdraws a reaction of kind by userID, provided it exists
// and the user has not blocked the article.
func (r *ArticleRepository) RemoveReaction(ctx context.Context, id, userID string, kind types.ReactionKind) (types.Article, error) {
	if !validUUID(id) {
		return types.Article{}, ErrNotFound
	}
	column, err := reactionColumn(kind)
	if err != nil {
		return types.Article{}, err
	}
	query := fmt.Sprintf(`
		UPDATE articles
		SET %[1]s = array_remove(%[1]s, $2::text)
		WHERE id = $1
			AND $2 = ANY(%[1]s)
			AND NOT ($2 = ANY(blocked_by))
		RETURNING `+articleColumns, column)
	return conditional(scanArticle(r.db.QueryRowContext(ctx, query, id, userID)))
}

// AddBlock adds userID to blocked_by and bumps the counter in one statement.
func (r *ArticleRepository) AddBlock(ctx context.Context, id, userID string) (types.Article, error) {
	if !validUUID(id) {
		return types.Article{}, ErrNotFound
	}
	const query = `
		UPDATE articles
		SET blocked_by = array_append(blocked_by, $2::text),
			blocks = blocks + 1
		WHERE id = $1
			AND NOT ($2 = ANY(blocked_by))
		RETURNING ` + articleColumns
	return conditional(scanArticle(r.db.QueryRowContext(ctx, query, id, userID)))
}

func (r *ArticleRepository) list(ctx context.Context, query string, args ...any) ([]types.Article, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	articles := make([]types.Article, 0)
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return articles, nil
}

func scanArticle(row rowScanner) (types.Article, error) {
	var article types.Article
	var category string
	err := row.Scan(
		&article.ID,
		&article.Title,
		&article.Description,
		&article.Content,
		pq.Array(&article.Images),
		pq.Array(&article.Tags),
		&category,
		&article.AuthorID,
		pq.Array(&article.LikedBy),
		pq.Array(&article.DislikedBy),
		pq.Array(&article.BlockedBy),
		&article.Blocks,
		&article.CreatedAt,
		&article.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Article{}, ErrNotFound
		}
		return types.Article{}, err
	}
	article.Category = types.Category(category)
	normalizeArticle(&article)
	return article, nil
}

// conditional turns "no row matched" from a conditional UPDATE into
// ErrConflict.
func conditional(article types.Article, err error) (types.Article, error) {
	if errors.Is(err, ErrNotFound) {
		return types.Article{}, ErrConflict
	}
	return article, err
}

func reactionColumn(kind types.ReactionKind) (string, error) {
	switch kind {
	case types.ReactionLike:
		return "liked_by", nil
	case types.ReactionDislike:
		return "disliked_by", nil
	default:
		return "", fmt.Errorf("unknown reaction kind %q", kind)
	}
}

func normalizeArticle(article *types.Article) {
	for _, set := range []*[]string{&article.Images, &article.Tags, &article.LikedBy, &article.DislikedBy, &article.BlockedBy} {
		if *set == nil {
			*set = []string{}
		}
	}
}

func validUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
