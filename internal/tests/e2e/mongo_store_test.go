//go:build e2e

package e2e

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/abrahamjose02/Article-Feed-Api/config"
	"github.com/abrahamjose02/Article-Feed-Api/internal/store"
	"github.com/abrahamjose02/Article-Feed-Api/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

func openMongoStore(t *testing.T) *mongo.Database {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, database, err := store.OpenMongo(ctx, config.LoadConfig().Mongo)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Disconnect(context.Background())
	})
	return database
}

func createMongoArticle(t *testing.T, articles *store.MongoArticleRepository, authorID string) types.Article {
	t.Helper()
	article, err := articles.Create(context.Background(), types.Article{
		Title:       "Tides",
		Description: "Why the sea moves",
		Content:     "The moon pulls.",
		Images:      []string{"http://localhost:9000/articlefeed-e2e/tides.png"},
		Tags:        []string{"Science"},
		Category:    types.CategoryScience,
		AuthorID:    authorID,
	})
	require.NoError(t, err)
	return article
}

func TestMongoUsers_DuplicateEmail(t *testing.T) {
	users := store.NewMongoUserRepository(openMongoStore(t))
	ctx := context.Background()
	email := fmt.Sprintf("dup_%d@example.com", time.Now().UnixNano())

	created, err := users.Create(ctx, types.User{Email: email, PasswordHash: "hash"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	_, err = users.Create(ctx, types.User{Email: email, PasswordHash: "other"})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	got, err := users.GetByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, []string{}, got.Preferences)
}

func TestMongoArticles_ReactionPreconditions(t *testing.T) {
	articles := store.NewMongoArticleRepository(openMongoStore(t))
	ctx := context.Background()
	article := createMongoArticle(t, articles, "author")

	liked, err := articles.AddReaction(ctx, article.ID, "reader", types.ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, []string{"reader"}, liked.LikedBy)

	_, err = articles.AddReaction(ctx, article.ID, "reader", types.ReactionDislike)
	assert.ErrorIs(t, err, store.ErrConflict, "a like blocks a dislike")
	_, err = articles.AddReaction(ctx, article.ID, "reader", types.ReactionLike)
	assert.ErrorIs(t, err, store.ErrConflict, "a like is not added twice")

	stored, err := articles.Get(ctx, article.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"reader"}, stored.LikedBy)
	assert.Empty(t, stored.DislikedBy)

	unliked, err := articles.RemoveReaction(ctx, article.ID, "reader", types.ReactionLike)
	require.NoError(t, err)
	assert.Empty(t, unliked.LikedBy)
	_, err = articles.RemoveReaction(ctx, article.ID, "reader", types.ReactionLike)
	assert.ErrorIs(t, err, store.ErrConflict)

	disliked, err := articles.AddReaction(ctx, article.ID, "reader", types.ReactionDislike)
	require.NoError(t, err)
	assert.Equal(t, []string{"reader"}, disliked.DislikedBy)
}

func TestMongoArticles_BlockIsCountedOnce(t *testing.T) {
	articles := store.NewMongoArticleRepository(openMongoStore(t))
	ctx := context.Background()
	article := createMongoArticle(t, articles, "author")

	_, err := articles.AddReaction(ctx, article.ID, "reader", types.ReactionLike)
	require.NoError(t, err)

	blocked, err := articles.AddBlock(ctx, article.ID, "reader")
	require.NoError(t, err)
	assert.Equal(t, 1, blocked.Blocks)
	assert.Equal(t, []string{"reader"}, blocked.BlockedBy)
	assert.Equal(t, []string{"reader"}, blocked.LikedBy, "blocking keeps the existing like")

	_, err = articles.AddBlock(ctx, article.ID, "reader")
	assert.ErrorIs(t, err, store.ErrConflict)

	stored, err := articles.Get(ctx, article.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Blocks)

	_, err = articles.RemoveReaction(ctx, article.ID, "reader", types.ReactionLike)
	assert.ErrorIs(t, err, store.ErrConflict, "a blocked reader cannot withdraw a reaction")

	feed, err := articles.ListFeed(ctx, []string{"Science"}, "reader")
	require.NoError(t, err)
	for _, a := range feed {
		assert.NotEqual(t, article.ID, a.ID)
	}
}

func TestMongoArticles_DeleteOwned(t *testing.T) {
	articles := store.NewMongoArticleRepository(openMongoStore(t))
	ctx := context.Background()
	article := createMongoArticle(t, articles, "author")

	assert.ErrorIs(t, articles.DeleteOwned(ctx, article.ID, "someone-else"), store.ErrNotFound)
	assert.ErrorIs(t, articles.DeleteOwned(ctx, "not-an-object-id", "author"), store.ErrNotFound)
	assert.ErrorIs(t, articles.DeleteOwned(ctx, bson.NewObjectID().Hex(), "author"), store.ErrNotFound)

	require.NoError(t, articles.DeleteOwned(ctx, article.ID, "author"))
	_, err := articles.Get(ctx, article.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
