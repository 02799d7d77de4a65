package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/abrahamjose02/Article-Feed-Api/internal/store"
	"github.com/abrahamjose02/Article-Feed-Api/types"
	"go.uber.org/zap"
)

// maxReactionAttempts bounds how often a reaction is re-evaluated after its
// conditional write lost a race with another request on the same article.
const maxReactionAttempts = 3

var errReactionContention = errors.New("article state kept changing")

type ArticleInput struct {
	Title       string
	Description string
	Content     string
	// Tags is a comma-delimited list.
	Tags     string
	Category string
}

type ArticleUpdate struct {
	Title       string
	Description string
	Content     string
	Tags        string
	Category    string
	RemoveImage bool
	Image       *Image
}

// ReactionResult reports the reaction set touched by React after the write.
type ReactionResult struct {
	Kind    types.ReactionKind
	Count   int
	Members []string
	// Active reports whether the user holds the reaction after the call.
	Active bool
}

// ArticleService implements the article use-cases, including the
// like/dislike/block state machine.
type ArticleService struct {
	articles ArticleRepository
	users    UserRepository
	uploader ImageUploader
	opts     Options
}

func NewArticleService(articles ArticleRepository, users UserRepository, uploader ImageUploader, opts Options) *ArticleService {
	return &ArticleService{
		articles: articles,
		users:    users,
		uploader: uploader,
		opts:     opts.withDefaults(),
	}
}

// Feed returns the articles sharing a tag with the reader's preferences,
// minus those the reader blocked, newest first.
func (s *ArticleService) Feed(ctx context.Context, userID string) ([]types.ArticleView, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	user, err := loadUser(ctx, s.users, userID, s.opts.Timeout)
	if err != nil {
		return nil, err
	}
	if len(user.Preferences) == 0 {
		return []types.ArticleView{}, nil
	}

	listCtx, cancel := withTimeout(ctx, s.opts.Timeout)
	defer cancel()
	articles, err := s.articles.ListFeed(listCtx, user.Preferences, userID)
	if err != nil {
		return nil, fmt.Errorf("list feed: %w", err)
	}
	return s.views(ctx, articles, userID), nil
}

func (s *ArticleService) Create(ctx context.Context, userID string, in ArticleInput, image *Image) (types.Article, error) {
	if userID == "" {
		return types.Article{}, ErrUnauthenticated
	}
	if image == nil {
		return types.Article{}, fmt.Errorf("%w: image is required", ErrValidation)
	}
	article := types.Article{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Content:     in.Content,
		Tags:        ParseTags(in.Tags),
		Category:    types.Category(strings.TrimSpace(in.Category)),
		AuthorID:    userID,
	}
	if article.Title == "" || article.Description == "" || strings.TrimSpace(article.Content) == "" {
		return types.Article{}, fmt.Errorf("%w: title, description and content are required", ErrValidation)
	}
	if !article.Category.Valid() {
		return types.Article{}, fmt.Errorf("%w: invalid category %q", ErrValidation, article.Category)
	}

	url, err := s.upload(ctx, image)
	if err != nil {
		return types.Article{}, err
	}
	article.Images = []string{url}

	createCtx, cancel := withTimeout(ctx, s.opts.Timeout)
	defer cancel()
	created, err := s.articles.Create(createCtx, article)
	if err != nil {
		s.discardUpload(ctx, url)
		return types.Article{}, fmt.Errorf("create article: %w", err)
	}
	return created, nil
}

func (s *ArticleService) ListByAuthor(ctx context.Context, userID string) ([]types.Article, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	listCtx, cancel := withTimeout(ctx, s.opts.Timeout)
	defer cancel()
	articles, err := s.articles.ListByAuthor(listCtx, userID)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return articles, nil
}

func (s *ArticleService) Get(ctx context.Context, userID, articleID string) (types.ArticleView, error) {
	if userID == "" {
		return types.ArticleView{}, ErrUnauthenticated
	}
	article, err := s.load(ctx, articleID)
	if err != nil {
		return types.ArticleView{}, err
	}
	return s.views(ctx, []types.Article{article}, userID)[0], nil
}

// Update edits an article owned by userID. Articles that do not exist and
// articles written by someone else are both reported as ErrNotFound.
func (s *ArticleService) Update(ctx context.Context, userID, articleID string, in ArticleUpdate) (types.Article, error) {
	if userID == "" {
		return types.Article{}, ErrUnauthenticated
	}
	article, err := s.load(ctx, articleID)
	if err != nil {
		return types.Article{}, err
	}
	if article.AuthorID != userID {
		return types.Article{}, fmt.Errorf("%w: article %s", ErrNotFound, articleID)
	}

	if v := strings.TrimSpace(in.Title); v != "" {
		article.Title = v
	}
	if v := strings.TrimSpace(in.Description); v != "" {
		article.Description = v
	}
	if strings.TrimSpace(in.Content) != "" {
		article.Content = in.Content
	}
	if tags := ParseTags(in.Tags); len(tags) > 0 {
		article.Tags = tags
	}
	if v := strings.TrimSpace(in.Category); v != "" {
		category := types.Category(v)
		if !category.Valid() {
			return types.Article{}, fmt.Errorf("%w: invalid category %q", ErrValidation, v)
		}
		article.Category = category
	}

	var uploaded string
	switch {
	case in.RemoveImage:
		article.Images = []string{}
	case in.Image != nil:
		uploaded, err = s.upload(ctx, in.Image)
		if err != nil {
			return types.Article{}, err
		}
		article.Images = []string{uploaded}
	}

	updateCtx, cancel := withTimeout(ctx, s.opts.Timeout)
	defer cancel()
	updated, err := s.articles.UpdateContent(updateCtx, article)
	if err != nil {
		if uploaded != "" {
			s.discardUpload(ctx, uploaded)
		}
		if errors.Is(err, store.ErrNotFound) {
			return types.Article{}, fmt.Errorf("%w: article %s", ErrNotFound, articleID)
		}
		return types.Article{}, fmt.Errorf("update article: %w", err)
	}
	return updated, nil
}

func (s *ArticleService) Delete(ctx context.Context, userID, articleID string) error {
	if userID == "" {
		return ErrUnauthenticated
	}
	deleteCtx, cancel := withTimeout(ctx, s.opts.Timeout)
	defer cancel()
	if err := s.articles.DeleteOwned(deleteCtx, articleID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: article %s", ErrNotFound, articleID)
		}
		return fmt.Errorf("delete article: %w", err)
	}
	return nil
}

// React toggles a like or dislike. See Transition for the rules.
func (s *ArticleService) React(ctx context.Context, kind types.ReactionKind, userID, articleID string) (ReactionResult, error) {
	if userID == "" {
		return ReactionResult{}, ErrUnauthenticated
	}

	for attempt := 1; attempt <= maxReactionAttempts; attempt++ {
		article, err := s.load(ctx, articleID)
		if err != nil {
			return ReactionResult{}, err
		}

		action, err := Transition(ReactionStateOf(article, userID), kind)
		if err != nil {
			return ReactionResult{}, err
		}

		updated, err := s.applyReaction(ctx, action, articleID, userID, kind)
		if errors.Is(err, store.ErrConflict) {
			s.opts.Logger.Debug("reaction lost a race, re-evaluating",
				zap.String("article_id", articleID),
				zap.Int("attempt", attempt),
			)
			continue
		}
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ReactionResult{}, fmt.Errorf("%w: article %s", ErrNotFound, articleID)
			}
			return ReactionResult{}, fmt.Errorf("%s article: %w", kind, err)
		}

		members := updated.Members(kind)
		return ReactionResult{
			Kind:    kind,
			Count:   len(members),
			Members: members,
			Active:  action == ActionAdd,
		}, nil
	}
	return ReactionResult{}, fmt.Errorf("%s article %s: %w", kind, articleID, errReactionContention)
}

// Block hides the article from userID's feed and returns the new block
// count. Blocking does not withdraw an existing like or dislike.
func (s *ArticleService) Block(ctx context.Context, userID, articleID string) (int, error) {
	if userID == "" {
		return 0, ErrUnauthenticated
	}

	for attempt := 1; attempt <= maxReactionAttempts; attempt++ {
		article, err := s.load(ctx, articleID)
		if err != nil {
			return 0, err
		}
		if ReactionStateOf(article, userID) == StateBlocked {
			return 0, fmt.Errorf("%w: article %s", ErrAlreadyBlocked, articleID)
		}

		blockCtx, cancel := withTimeout(ctx, s.opts.Timeout)
		updated, err := s.articles.AddBlock(blockCtx, articleID, userID)
		cancel()
		if errors.Is(err, store.ErrConflict) {
			continue
		}
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return 0, fmt.Errorf("%w: article %s", ErrNotFound, articleID)
			}
			return 0, fmt.Errorf("block article: %w", err)
		}
		return updated.Blocks, nil
	}
	return 0, fmt.Errorf("block article %s: %w", articleID, errReactionContention)
}

// ParseTags splits a comma-delimited tag list, trimming whitespace and
// dropping empty entries.
func ParseTags(raw string) []string {
	tags := make([]string, 0)
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func (s *ArticleService) applyReaction(ctx context.Context, action ReactionAction, articleID, userID string, kind types.ReactionKind) (types.Article, error) {
	writeCtx, cancel := withTimeout(ctx, s.opts.Timeout)
	defer cancel()
	if action == ActionRemove {
		return s.articles.RemoveReaction(writeCtx, articleID, userID, kind)
	}
	return s.articles.AddReaction(writeCtx, articleID, userID, kind)
}

func (s *ArticleService) load(ctx context.Context, articleID string) (types.Article, error) {
	getCtx, cancel := withTimeout(ctx, s.opts.Timeout)
	defer cancel()
	article, err := s.articles.Get(getCtx, articleID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Article{}, fmt.Errorf("%w: article %s", ErrNotFound, articleID)
		}
		return types.Article{}, fmt.Errorf("load article: %w", err)
	}
	return article, nil
}

// views annotates articles for readerID. Authors that cannot be loaded are
// left out of the view rather than failing the whole listing.
func (s *ArticleService) views(ctx context.Context, articles []types.Article, readerID string) []types.ArticleView {
	authors := make(map[string]*types.AuthorSummary)
	views := make([]types.ArticleView, 0, len(articles))
	for _, article := range articles {
		author, seen := authors[article.AuthorID]
		if !seen {
			if user, err := loadUser(ctx, s.users, article.AuthorID, s.opts.Timeout); err == nil {
				author = &types.AuthorSummary{ID: user.ID, FirstName: user.FirstName, LastName: user.LastName}
			} else if !errors.Is(err, ErrNotFound) {
				s.opts.Logger.Warn("author lookup failed",
					zap.String("author_id", article.AuthorID),
					zap.Error(err),
				)
			}
			authors[article.AuthorID] = author
		}

		views = append(views, types.ArticleView{
			Article:     article,
			Author:      author,
			HasLiked:    slices.Contains(article.LikedBy, readerID),
			HasDisliked: slices.Contains(article.DislikedBy, readerID),
		})
	}
	return views
}

func (s *ArticleService) upload(ctx context.Context, image *Image) (string, error) {
	uploadCtx, cancel := withTimeout(ctx, s.opts.Timeout)
	defer cancel()
	url, err := s.uploader.Upload(uploadCtx, image.Content, image.Size, image.Filename, image.ContentType)
	if err != nil {
		s.opts.Logger.Error("image upload failed", zap.String("filename", image.Filename), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	return url, nil
}

func (s *ArticleService) discardUpload(ctx context.Context, url string) {
	removeCtx, cancel := withTimeout(context.WithoutCancel(ctx), s.opts.Timeout)
	defer cancel()
	if err := s.uploader.Remove(removeCtx, url); err != nil {
		s.opts.Logger.Warn("orphaned upload not removed", zap.String("url", url), zap.Error(err))
	}
}
