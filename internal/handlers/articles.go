package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/abrahamjose02/Article-Feed-Api/internal/services"
	"github.com/abrahamjose02/Article-Feed-Api/types"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	maxMultipartMemory = 8 << 20
	maxImageBytes      = 5 << 20
	formFieldImage     = "image"
	formFieldTitle     = "title"
	formFieldDesc      = "description"
	formFieldContent   = "content"
	formFieldTags      = "tags"
	formFieldCategory  = "category"
	formFieldRemove    = "removeImage"

	articleNotFound      = "Article not found"
	articleNotFoundOwned = "Article not found or unauthorized"
)

var allowedImageTypes = map[string]bool{
	"jpeg": true,
	"jpg":  true,
	"png":  true,
	"gif":  true,
}

// ArticleHandler provides HTTP handlers for articles and reactions.
type ArticleHandler struct {
	articles *services.ArticleService
	logger   *zap.Logger
}

// NewArticleHandler constructs a handler with the provided service.
func NewArticleHandler(articles *services.ArticleService, logger *zap.Logger) *ArticleHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArticleHandler{articles: articles, logger: logger}
}

// ArticleRouter registers article routes on the given router. Every route
// requires an authenticated session.
func ArticleRouter(r chi.Router, handler *ArticleHandler, sessions *services.SessionService) {
	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(sessions))
		r.Get("/", handler.Feed)
		r.Post("/create", handler.Create)
		r.Get("/user", handler.ListMine)
		r.Post("/like", handler.Like)
		r.Post("/dislike", handler.Dislike)
		r.Post("/block", handler.Block)
		r.Get("/{articleID}", handler.Get)
		r.Put("/{articleID}", handler.Update)
		r.Delete("/{articleID}", handler.Delete)
	})
}

// Feed returns the personalized feed of the current user.
func (h *ArticleHandler) Feed(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	articles, err := h.articles.Feed(r.Context(), userID)
	if err != nil {
		fail(w, r, h.logger, err, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, FeedResponse{Success: true, Articles: articles})
}

// Create publishes a new article from a multipart form carrying an image.
func (h *ArticleHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+maxMultipartMemory)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	image, err := parseImageFile(r.MultipartForm)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if image == nil {
		writeError(w, http.StatusBadRequest, "Image is required")
		return
	}

	article, err := h.articles.Create(r.Context(), userID, articleInput(r.MultipartForm), image)
	if err != nil {
		fail(w, r, h.logger, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, ArticleResponse{Success: true, Article: article})
}

// ListMine returns the articles written by the current user.
func (h *ArticleHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	articles, err := h.articles.ListByAuthor(r.Context(), userID)
	if err != nil {
		fail(w, r, h.logger, err, "")
		return
	}
	writeJSON(w, http.StatusOK, ArticleListResponse{Success: true, Articles: articles})
}

func (h *ArticleHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	view, err := h.articles.Get(r.Context(), userID, chi.URLParam(r, "articleID"))
	if err != nil {
		fail(w, r, h.logger, err, articleNotFound)
		return
	}
	writeJSON(w, http.StatusOK, ArticleViewResponse{Success: true, Article: view})
}

// Update edits an article owned by the current user. The body is either a
// multipart form, optionally carrying a replacement image, or JSON.
func (h *ArticleHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	update, err := parseArticleUpdate(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	article, err := h.articles.Update(r.Context(), userID, chi.URLParam(r, "articleID"), update)
	if err != nil {
		fail(w, r, h.logger, err, articleNotFoundOwned)
		return
	}
	writeJSON(w, http.StatusOK, ArticleResponse{Success: true, Article: article})
}

func (h *ArticleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.articles.Delete(r.Context(), userID, chi.URLParam(r, "articleID")); err != nil {
		fail(w, r, h.logger, err, articleNotFoundOwned)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Article deleted successfully"})
}

// Like toggles the current user's like on an article.
func (h *ArticleHandler) Like(w http.ResponseWriter, r *http.Request) {
	result, ok := h.react(w, r, types.ReactionLike)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, LikeResponse{
		Success:      true,
		Likes:        result.Count,
		HasLiked:     result.Active,
		ArticleLikes: result.Members,
	})
}

// Dislike toggles the current user's dislike on an article.
func (h *ArticleHandler) Dislike(w http.ResponseWriter, r *http.Request) {
	result, ok := h.react(w, r, types.ReactionDislike)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, DislikeResponse{
		Success:         true,
		Dislikes:        result.Count,
		HasDisliked:     result.Active,
		ArticleDislikes: result.Members,
	})
}

// Block hides an article from the current user's feed.
func (h *ArticleHandler) Block(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	articleID, ok := decodeArticleRef(w, r)
	if !ok {
		return
	}

	blocks, err := h.articles.Block(r.Context(), userID, articleID)
	if err != nil {
		fail(w, r, h.logger, err, articleNotFound)
		return
	}
	writeJSON(w, http.StatusOK, BlockResponse{Success: true, Blocks: blocks})
}

func (h *ArticleHandler) react(w http.ResponseWriter, r *http.Request, kind types.ReactionKind) (services.ReactionResult, bool) {
	userID, ok := requireUser(w, r)
	if !ok {
		return services.ReactionResult{}, false
	}
	articleID, ok := decodeArticleRef(w, r)
	if !ok {
		return services.ReactionResult{}, false
	}

	result, err := h.articles.React(r.Context(), kind, userID, articleID)
	if err != nil {
		if msg := reactionMessage(kind, err); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return services.ReactionResult{}, false
		}
		fail(w, r, h.logger, err, articleNotFound)
		return services.ReactionResult{}, false
	}
	return result, true
}

func reactionMessage(kind types.ReactionKind, err error) string {
	switch {
	case errors.Is(err, services.ErrBlockedConflict):
		return fmt.Sprintf("You cannot %s a blocked article.", kind)
	case errors.Is(err, services.ErrOppositeReaction):
		if kind == types.ReactionLike {
			return "You must undo disliking the article before liking it."
		}
		return "You must undo liking the article before disliking it."
	}
	return ""
}

type ArticleRef struct {
	ArticleID string `json:"articleId"`
}

type FeedResponse struct {
	Success  bool                `json:"success"`
	Articles []types.ArticleView `json:"articles"`
}

type ArticleListResponse struct {
	Success  bool            `json:"success"`
	Articles []types.Article `json:"articles"`
}

type ArticleResponse struct {
	Success bool          `json:"success"`
	Article types.Article `json:"article"`
}

type ArticleViewResponse struct {
	Success bool              `json:"success"`
	Article types.ArticleView `json:"article"`
}

type LikeResponse struct {
	Success      bool     `json:"success"`
	Likes        int      `json:"likes"`
	HasLiked     bool     `json:"hasLiked"`
	ArticleLikes []string `json:"articleLikes"`
}

type DislikeResponse struct {
	Success         bool     `json:"success"`
	Dislikes        int      `json:"dislikes"`
	HasDisliked     bool     `json:"hasDisliked"`
	ArticleDislikes []string `json:"articleDislikes"`
}

type BlockResponse struct {
	Success bool `json:"success"`
	Blocks  int  `json:"blocks"`
}

// ArticleUpdateRequest is the JSON form of an update.
type ArticleUpdateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	Tags        string `json:"tags"`
	Category    string `json:"category"`
	RemoveImage bool   `json:"removeImage"`
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "User not authenticated")
		return "", false
	}
	return userID, true
}

func decodeArticleRef(w http.ResponseWriter, r *http.Request) (string, bool) {
	var ref ArticleRef
	if err := decodeJSON(r, &ref); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return "", false
	}
	ref.ArticleID = strings.TrimSpace(ref.ArticleID)
	if ref.ArticleID == "" {
		writeError(w, http.StatusBadRequest, "Article id is required")
		return "", false
	}
	return ref.ArticleID, true
}

func articleInput(form *multipart.Form) services.ArticleInput {
	return services.ArticleInput{
		Title:       formValue(form, formFieldTitle),
		Description: formValue(form, formFieldDesc),
		Content:     formValue(form, formFieldContent),
		Tags:        strings.Join(form.Value[formFieldTags], ","),
		Category:    formValue(form, formFieldCategory),
	}
}

func parseArticleUpdate(w http.ResponseWriter, r *http.Request) (services.ArticleUpdate, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var req ArticleUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			return services.ArticleUpdate{}, errors.New("invalid request")
		}
		return services.ArticleUpdate{
			Title:       req.Title,
			Description: req.Description,
			Content:     req.Content,
			Tags:        req.Tags,
			Category:    req.Category,
			RemoveImage: req.RemoveImage,
		}, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+maxMultipartMemory)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return services.ArticleUpdate{}, errors.New("Invalid multipart form")
	}
	image, err := parseImageFile(r.MultipartForm)
	if err != nil {
		return services.ArticleUpdate{}, err
	}
	removeImage, _ := strconv.ParseBool(formValue(r.MultipartForm, formFieldRemove))

	in := articleInput(r.MultipartForm)
	return services.ArticleUpdate{
		Title:       in.Title,
		Description: in.Description,
		Content:     in.Content,
		Tags:        in.Tags,
		Category:    in.Category,
		RemoveImage: removeImage,
		Image:       image,
	}, nil
}

// parseImageFile returns the uploaded image, or nil if the form has none.
func parseImageFile(form *multipart.Form) (*services.Image, error) {
	if form == nil {
		return nil, errors.New("missing form data")
	}
	files := form.File[formFieldImage]
	if len(files) == 0 {
		return nil, nil
	}
	if len(files) > 1 {
		return nil, errors.New("Only one image is allowed")
	}

	header := files[0]
	if header.Size > maxImageBytes {
		return nil, errors.New("Image exceeds the 5MB limit")
	}
	contentType := header.Header.Get("Content-Type")
	if !allowedImage(header.Filename, contentType) {
		return nil, errors.New("Images only (jpeg, jpg, png, gif)")
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	data, err := readFileLimited(file, maxImageBytes)
	_ = file.Close()
	if err != nil {
		return nil, err
	}

	return &services.Image{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		Content:     bytes.NewReader(data),
	}, nil
}

// allowedImage requires both the file extension and the declared media type
// to name one of the accepted image formats.
func allowedImage(filename, contentType string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !allowedImageTypes[ext] {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	sub, ok := strings.CutPrefix(strings.ToLower(mediaType), "image/")
	return ok && allowedImageTypes[sub]
}

func formValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("Image exceeds the 5MB limit")
	}
	return data, nil
}
