package types

import (
	"slices"
	"time"
)

// Category is the fixed topic an article is filed under.
type Category string

const (
	CategoryTechnology    Category = "Technology"
	CategoryHealth        Category = "Health"
	CategoryEducation     Category = "Education"
	CategoryLifestyle     Category = "Lifestyle"
	CategoryFinance       Category = "Finance"
	CategoryTravel        Category = "Travel"
	CategoryFood          Category = "Food"
	CategorySports        Category = "Sports"
	CategoryEntertainment Category = "Entertainment"
	CategoryScience       Category = "Science"
)

// Categories lists every accepted category.
var Categories = []Category{
	CategoryTechnology,
	CategoryHealth,
	CategoryEducation,
	CategoryLifestyle,
	CategoryFinance,
	CategoryTravel,
	CategoryFood,
	CategorySports,
	CategoryEntertainment,
	CategoryScience,
}

// Valid reports whether c is one of Categories.
func (c Category) Valid() bool {
	return slices.Contains(Categories, c)
}

// Article represents a published piece of content and the reactions
// other users have recorded against it.
type Article struct {
	// ID is the unique identifier of the article.
	ID string `json:"id" db:"id"`

	// Title is the headline of the article.
	Title string `json:"title" db:"title"`

	// Description is the short summary shown in the feed.
	Description string `json:"description" db:"description"`

	// Content is the full article body.
	Content string `json:"content" db:"content"`

	// Images holds the public URLs of the uploaded images. It is empty
	// only after the author explicitly removed the image.
	Images []string `json:"images" db:"images"`

	// Tags are matched against user preferences to build the feed.
	Tags []string `json:"tags" db:"tags"`

	// Category is one of the fixed Categories.
	Category Category `json:"category" db:"category"`

	// AuthorID references the user who created the article. It never
	// changes after creation.
	AuthorID string `json:"authorId" db:"author_id"`

	// LikedBy and DislikedBy are disjoint sets of user IDs.
	LikedBy    []string `json:"likedBy" db:"liked_by"`
	DislikedBy []string `json:"dislikedBy" db:"disliked_by"`

	// BlockedBy holds the users that hid this article from their feed.
	// Who blocked an article is not exposed to clients.
	BlockedBy []string `json:"-" db:"blocked_by"`

	// Blocks always equals len(BlockedBy).
	Blocks int `json:"blocks" db:"blocks"`

	// CreatedAt is the timestamp at which the article was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent content update.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// ArticleView is an article as presented to a specific reader. The
// reader-specific flags are derived on every read and never persisted.
type ArticleView struct {
	Article
	Author      *AuthorSummary `json:"author,omitempty"`
	HasLiked    bool           `json:"hasLiked"`
	HasDisliked bool           `json:"hasDisliked"`
}

// ReactionKind distinguishes the two toggleable reactions.
type ReactionKind string

const (
	ReactionLike    ReactionKind = "like"
	ReactionDislike ReactionKind = "dislike"
)

// Members returns the user set that records reactions of kind k.
func (a Article) Members(k ReactionKind) []string {
	if k == ReactionDislike {
		return a.DislikedBy
	}
	return a.LikedBy
}
