package store

import (
	"context"
	"errors"
	"time"

	"github.com/abrahamjose02/Article-Feed-Api/types"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type articleDocument struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	Title       string        `bson:"title"`
	Description string        `bson:"description"`
	Content     string        `bson:"content"`
	Images      []string      `bson:"images"`
	Tags        []string      `bson:"tags"`
	Category    string        `bson:"category"`
	AuthorID    string        `bson:"author_id"`
	LikedBy     []string      `bson:"liked_by"`
	DislikedBy  []string      `bson:"disliked_by"`
	BlockedBy   []string      `bson:"blocked_by"`
	Blocks      int           `bson:"blocks"`
	CreatedAt   time.Time     `bson:"created_at"`
	UpdatedAt   time.Time     `bson:"updated_at"`
}

func (d articleDocument) toArticle() types.Article {
	article := types.Article{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Content:     d.Content,
		Images:      d.Images,
		Tags:        d.Tags,
		Category:    types.Category(d.Category),
		AuthorID:    d.AuthorID,
		LikedBy:     d.LikedBy,
		DislikedBy:  d.DislikedBy,
		BlockedBy:   d.BlockedBy,
		Blocks:      d.Blocks,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	normalizeArticle(&article)
	return article
}

// MongoArticleRepository stores articles as documents whose reaction sets
// are arrays of user IDs. Every reaction write is a single FindOneAndUpdate
// whose filter encodes the precondition.
type MongoArticleRepository struct {
	coll *mongo.Collection
}

func NewMongoArticleRepository(db *mongo.Database) *MongoArticleRepository {
	return &MongoArticleRepository{coll: db.Collection(articlesCollection)}
}

func (r *MongoArticleRepository) Get(ctx context.Context, id string) (types.Article, error) {
	oid, ok := objectID(id)
	if !ok {
		return types.Article{}, ErrNotFound
	}
	var doc articleDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return types.Article{}, ErrNotFound
		}
		return types.Article{}, err
	}
	return doc.toArticle(), nil
}

func (r *MongoArticleRepository) ListFeed(ctx context.Context, tags []string, readerID string) ([]types.Article, error) {
	if len(tags) == 0 {
		return []types.Article{}, nil
	}
	return r.find(ctx, bson.M{
		"tags":       bson.M{"$in": tags},
		"blocked_by": bson.M{"$ne": readerID},
	})
}

func (r *MongoArticleRepository) ListByAuthor(ctx context.Context, authorID string) ([]types.Article, error) {
	return r.find(ctx, bson.M{"author_id": authorID})
}

func (r *MongoArticleRepository) Create(ctx context.Context, article types.Article) (types.Article, error) {
	now := time.Now().UTC()
	article.CreatedAt = now
	article.UpdatedAt = now
	article.LikedBy = []string{}
	article.DislikedBy = []string{}
	article.BlockedBy = []string{}
	article.Blocks = 0
	normalizeArticle(&article)

	doc := articleDocument{
		ID:          bson.NewObjectID(),
		Title:       article.Title,
		Description: article.Description,
		Content:     article.Content,
		Images:      article.Images,
		Tags:        article.Tags,
		Category:    string(article.Category),
		AuthorID:    article.AuthorID,
		LikedBy:     article.LikedBy,
		DislikedBy:  article.DislikedBy,
		BlockedBy:   article.BlockedBy,
		CreatedAt:   article.CreatedAt,
		UpdatedAt:   article.UpdatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return types.Article{}, err
	}
	article.ID = doc.ID.Hex()
	return article, nil
}

func (r *MongoArticleRepository) UpdateContent(ctx context.Context, article types.Article) (types.Article, error) {
	oid, ok := objectID(article.ID)
	if !ok {
		return types.Article{}, ErrNotFound
	}
	normalizeArticle(&article)

	updated, err := r.findOneAndUpdate(ctx,
		bson.M{"_id": oid, "author_id": article.AuthorID},
		bson.M{"$set": bson.M{
			"title":       article.Title,
			"description": article.Description,
			"content":     article.Content,
			"images":      article.Images,
			"tags":        article.Tags,
			"category":    string(article.Category),
			"updated_at":  time.Now().UTC(),
		}},
	)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.Article{}, ErrNotFound
	}
	return updated, err
}

func (r *MongoArticleRepository) DeleteOwned(ctx context.Context, id, authorID string) error {
	oid, ok := objectID(id)
	if !ok {
		return ErrNotFound
	}
	err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": oid, "author_id": authorID}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func (r *MongoArticleRepository) AddReaction(ctx context.Context, id, userID string, kind types.ReactionKind) (types.Article, error) {
	oid, ok := objectID(id)
	if !ok {
		return types.Article{}, ErrNotFound
	}
	field, err := reactionColumn(kind)
	if err != nil {
		return types.Article{}, err
	}
	return r.conditionalUpdate(ctx,
		bson.M{
			"_id":         oid,
			"liked_by":    bson.M{"$ne": userID},
			"disliked_by": bson.M{"$ne": userID},
			"blocked_by":  bson.M{"$ne": userID},
		},
		bson.M{"$addToSet": bson.M{field: userID}},
	)
}

func (r *MongoArticleRepository) RemoveReaction(ctx context.Context, id, userID string, kind types.ReactionKind) (types.Article, error) {
	oid, ok := objectID(id)
	if !ok {
		return types.Article{}, ErrNotFound
	}
	field, err := reactionColumn(kind)
	if err != nil {
		return types.Article{}, err
	}
	return r.conditionalUpdate(ctx,
		bson.M{
			"_id":        oid,
			field:        userID,
			"blocked_by": bson.M{"$ne": userID},
		},
		bson.M{"$pull": bson.M{field: userID}},
	)
}

func (r *MongoArticleRepository) AddBlock(ctx context.Context, id, userID string) (types.Article, error) {
	oid, ok := objectID(id)
	if !ok {
		return types.Article{}, ErrNotFound
	}
	return r.conditionalUpdate(ctx,
		bson.M{"_id": oid, "blocked_by": bson.M{"$ne": userID}},
		bson.M{
			"$addToSet": bson.M{"blocked_by": userID},
			"$inc":      bson.M{"blocks": 1},
		},
	)
}

func (r *MongoArticleRepository) conditionalUpdate(ctx context.Context, filter, update bson.M) (types.Article, error) {
	article, err := r.findOneAndUpdate(ctx, filter, update)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.Article{}, ErrConflict
	}
	return article, err
}

func (r *MongoArticleRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (types.Article, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc articleDocument
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return types.Article{}, err
	}
	return doc.toArticle(), nil
}

func (r *MongoArticleRepository) find(ctx context.Context, filter bson.M) ([]types.Article, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []articleDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	articles := make([]types.Article, 0, len(docs))
	for _, doc := range docs {
		articles = append(articles, doc.toArticle())
	}
	return articles, nil
}
