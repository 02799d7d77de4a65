package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"

	"github.com/abrahamjose02/Article-Feed-Api/internal/notify"
	"github.com/abrahamjose02/Article-Feed-Api/internal/services"
	"github.com/abrahamjose02/Article-Feed-Api/internal/store"
	"github.com/abrahamjose02/Article-Feed-Api/internal/tokens"
	"github.com/abrahamjose02/Article-Feed-Api/types"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []notify.Message
}

func (n *recordingNotifier) Send(ctx context.Context, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	return nil
}

func (n *recordingNotifier) lastCode(t *testing.T) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.messages)
	body := n.messages[len(n.messages)-1].Body
	return strings.TrimSpace(strings.TrimPrefix(body, "Your activation code is:"))
}

type fakeUploader struct {
	mu      sync.Mutex
	fail    bool
	removed []string
}

func (u *fakeUploader) Upload(ctx context.Context, content io.Reader, size int64, filename, contentType string) (string, error) {
	if u.fail {
		return "", errors.New("bucket unavailable")
	}
	if _, err := io.Copy(io.Discard, content); err != nil {
		return "", err
	}
	return "https://cdn.test/articles/" + filename, nil
}

func (u *fakeUploader) Remove(ctx context.Context, url string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.removed = append(u.removed, url)
	return nil
}

type testEnv struct {
	router   http.Handler
	mem      *store.Memory
	tokens   *tokens.Service
	notifier *recordingNotifier
	uploader *fakeUploader
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tokenService, err := tokens.NewService(tokens.Config{
		ActivationSecret: "activation-secret",
		AccessSecret:     "access-secret",
		RefreshSecret:    "refresh-secret",
	})
	require.NoError(t, err)

	mem := store.NewMemory()
	notifier := &recordingNotifier{}
	uploader := &fakeUploader{}
	opts := services.Options{BcryptCost: bcrypt.MinCost}

	accounts := services.NewAccountService(mem.Users(), tokenService, notifier, opts)
	sessions := services.NewSessionService(mem.Users(), tokenService, opts)
	articles := services.NewArticleService(mem.Articles(), mem.Users(), uploader, opts)

	r := chi.NewRouter()
	r.Route("/api/auth", func(r chi.Router) {
		AuthRouter(r, NewAuthHandler(accounts, sessions, CookieOptions{SameSite: http.SameSiteLaxMode}, nil))
	})
	r.Route("/api/articles", func(r chi.Router) {
		ArticleRouter(r, NewArticleHandler(articles, nil), sessions)
	})

	return &testEnv{
		router:   r,
		mem:      mem,
		tokens:   tokenService,
		notifier: notifier,
		uploader: uploader,
	}
}

// seedUser stores an activated account and returns it with a valid access
// token.
func (e *testEnv) seedUser(t *testing.T, email string, preferences ...string) (types.User, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	user, err := e.mem.Users().Create(context.Background(), types.User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.Split(email, "@")[0],
		Preferences:  preferences,
	})
	require.NoError(t, err)
	token, err := e.tokens.IssueAccessToken(user.ID)
	require.NoError(t, err)
	return user, token
}

func (e *testEnv) seedArticle(t *testing.T, authorID, category string, tags ...string) types.Article {
	t.Helper()
	article, err := e.mem.Articles().Create(context.Background(), types.Article{
		Title:       "Title",
		Description: "Description",
		Content:     "Content",
		Images:      []string{"https://cdn.test/articles/seed.png"},
		Tags:        tags,
		Category:    types.Category(category),
		AuthorID:    authorID,
	})
	require.NoError(t, err)
	return article
}

func (e *testEnv) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	require.NoError(t, json.NewEncoder(&body).Encode(payload))
	return e.do(t, method, path, token, &body, "application/json")
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

type formFile struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

func multipartBody(t *testing.T, fields map[string]string, files ...formFile) (io.Reader, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.filename))
		header.Set("Content-Type", f.contentType)
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func pngFile() formFile {
	return formFile{field: "image", filename: "cover.png", contentType: "image/png", data: []byte("\x89PNG fake")}
}

func articleFields() map[string]string {
	return map[string]string{
		"title":       "Gravity",
		"description": "Why apples fall",
		"content":     "A long story about apples.",
		"tags":        "Science, Physics",
		"category":    "Science",
	}
}

func TestRegisterActivateLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(t, http.MethodPost, "/api/auth/register", "", RegisterRequest{
		FirstName:   "Ada",
		Email:       "ada@example.com",
		Password:    "secret",
		Preferences: []string{"Science"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	registered := decodeBody[RegisterResponse](t, rec)
	assert.True(t, registered.Success)
	assert.Equal(t, "Activation code sent to your email. Please verify to complete registration.", registered.Message)
	require.NotEmpty(t, registered.Token)

	code := env.notifier.lastCode(t)
	assert.Len(t, code, 4)

	rec = env.doJSON(t, http.MethodPost, "/api/auth/activate", "", ActivateRequest{Token: registered.Token, ActivationCode: code})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	activated := decodeBody[UserResponse](t, rec)
	assert.Equal(t, "User Registered Successfully", activated.Message)
	assert.Equal(t, "ada@example.com", activated.User.Email)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = env.doJSON(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "ada@example.com", Password: "secret"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Login successful", decodeBody[UserResponse](t, rec).Message)

	access := cookieByName(rec, accessTokenCookie)
	require.NotNil(t, access)
	assert.True(t, access.HttpOnly)
	assert.Equal(t, "/", access.Path)
	assert.Equal(t, 15*60, access.MaxAge)
	refresh := cookieByName(rec, refreshTokenCookie)
	require.NotNil(t, refresh)
	assert.Equal(t, 5*24*60*60, refresh.MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
	req.AddCookie(access)
	profile := httptest.NewRecorder()
	env.router.ServeHTTP(profile, req)
	require.Equal(t, http.StatusOK, profile.Code)
	assert.Equal(t, activated.User.ID, decodeBody[UserResponse](t, profile).User.ID)
}

func TestRegister_ExistingEmail(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "ada@example.com")

	rec := env.doJSON(t, http.MethodPost, "/api/auth/register", "", RegisterRequest{Email: "ada@example.com", Password: "secret"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "User already exists", decodeBody[ErrorResponse](t, rec).Message)
}

func TestActivate_WrongCode(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(t, http.MethodPost, "/api/auth/register", "", RegisterRequest{Email: "ada@example.com", Password: "secret"})
	require.Equal(t, http.StatusCreated, rec.Code)
	token := decodeBody[RegisterResponse](t, rec).Token

	wrong := "0000"
	if env.notifier.lastCode(t) == wrong {
		wrong = "0001"
	}
	rec = env.doJSON(t, http.MethodPost, "/api/auth/activate", "", ActivateRequest{Token: token, ActivationCode: wrong})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody[ErrorResponse](t, rec)
	assert.False(t, body.Success)
	assert.Equal(t, "Invalid Activation Code", body.Message)
}

func TestLogin_Failures(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "ada@example.com")

	rec := env.doJSON(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "ada@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid credentials", decodeBody[ErrorResponse](t, rec).Message)

	rec = env.doJSON(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "bob@example.com", Password: "secret"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", decodeBody[ErrorResponse](t, rec).Message)

	rec = env.doJSON(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Password: "secret"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.doJSON(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "ada@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid credentials", decodeBody[ErrorResponse](t, rec).Message)
}

func TestRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/auth/profile", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Not authorized, no token", decodeBody[ErrorResponse](t, rec).Message)

	rec = env.do(t, http.MethodGet, "/api/articles", "garbage", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Not authorized, token failed", decodeBody[ErrorResponse](t, rec).Message)

	user, _ := env.seedUser(t, "bob@example.com")
	refresh, err := env.tokens.IssueRefreshToken(user.ID)
	require.NoError(t, err)
	rec = env.do(t, http.MethodGet, "/api/auth/profile", refresh, nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "refresh token must not authenticate")
}

func TestRefreshAndLogout(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.seedUser(t, "ada@example.com")

	rec := env.do(t, http.MethodPost, "/api/auth/refresh", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	refresh, err := env.tokens.IssueRefreshToken(user.ID)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: refreshTokenCookie, Value: refresh})
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	access := cookieByName(rec, accessTokenCookie)
	require.NotNil(t, access)
	userID, err := env.tokens.VerifyAccessToken(access.Value)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)

	for range 2 {
		rec = env.do(t, http.MethodPost, "/api/auth/logout", "", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Logged out successfully", decodeBody[MessageResponse](t, rec).Message)
		for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
			cleared := cookieByName(rec, name)
			require.NotNil(t, cleared)
			assert.Empty(t, cleared.Value)
			assert.Negative(t, cleared.MaxAge)
		}
	}
}

func TestUpdateProfile_KeepsPreferencesWhenAbsent(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "ada@example.com", "Science")

	rec := env.do(t, http.MethodPost, "/api/auth/update", token, strings.NewReader(`{"firstName":"Augusta"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	user := decodeBody[UserResponse](t, rec).User
	assert.Equal(t, "Augusta", user.FirstName)
	assert.Equal(t, []string{"Science"}, user.Preferences)

	rec = env.do(t, http.MethodPost, "/api/auth/update", token, strings.NewReader(`{"preferences":[]}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[UserResponse](t, rec).User.Preferences)
}

func TestCreateArticle(t *testing.T) {
	env := newTestEnv(t)
	author, token := env.seedUser(t, "ada@example.com")

	body, contentType := multipartBody(t, articleFields(), pngFile())
	rec := env.do(t, http.MethodPost, "/api/articles/create", token, body, contentType)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decodeBody[ArticleResponse](t, rec).Article
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, author.ID, created.AuthorID)
	assert.Equal(t, []string{"Science", "Physics"}, created.Tags)
	assert.Equal(t, []string{"https://cdn.test/articles/cover.png"}, created.Images)
	assert.Empty(t, created.LikedBy)
	assert.Zero(t, created.Blocks)

	rec = env.do(t, http.MethodGet, "/api/articles/user", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[ArticleListResponse](t, rec).Articles, 1)
}

func TestCreateArticle_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		fields  map[string]string
		files   []formFile
		status  int
		message string
	}{
		{
			name:    "missing image",
			fields:  articleFields(),
			status:  http.StatusBadRequest,
			message: "Image is required",
		},
		{
			name:    "extension not allowed",
			fields:  articleFields(),
			files:   []formFile{{field: "image", filename: "cover.bmp", contentType: "image/png", data: []byte("x")}},
			status:  http.StatusBadRequest,
			message: "Images only (jpeg, jpg, png, gif)",
		},
		{
			name:    "content type not allowed",
			fields:  articleFields(),
			files:   []formFile{{field: "image", filename: "cover.png", contentType: "text/plain", data: []byte("x")}},
			status:  http.StatusBadRequest,
			message: "Images only (jpeg, jpg, png, gif)",
		},
		{
			name:    "too large",
			fields:  articleFields(),
			files:   []formFile{{field: "image", filename: "cover.jpg", contentType: "image/jpeg", data: bytes.Repeat([]byte("x"), maxImageBytes+1)}},
			status:  http.StatusBadRequest,
			message: "Image exceeds the 5MB limit",
		},
		{
			name: "invalid category",
			fields: func() map[string]string {
				f := articleFields()
				f["category"] = "Gossip"
				return f
			}(),
			files:  []formFile{pngFile()},
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			_, token := env.seedUser(t, "ada@example.com")

			body, contentType := multipartBody(t, tt.fields, tt.files...)
			rec := env.do(t, http.MethodPost, "/api/articles/create", token, body, contentType)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.message != "" {
				assert.Equal(t, tt.message, decodeBody[ErrorResponse](t, rec).Message)
			}
		})
	}
}

func TestCreateArticle_UploadFailure(t *testing.T) {
	env := newTestEnv(t)
	env.uploader.fail = true
	_, token := env.seedUser(t, "ada@example.com")

	body, contentType := multipartBody(t, articleFields(), pngFile())
	rec := env.do(t, http.MethodPost, "/api/articles/create", token, body, contentType)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Image upload failed", decodeBody[ErrorResponse](t, rec).Message)
}

func TestLikeDislikeStateMachine(t *testing.T) {
	env := newTestEnv(t)
	author, _ := env.seedUser(t, "author@example.com")
	reader, token := env.seedUser(t, "reader@example.com")
	article := env.seedArticle(t, author.ID, "Science", "Science")
	ref := ArticleRef{ArticleID: article.ID}

	rec := env.doJSON(t, http.MethodPost, "/api/articles/like", token, ref)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	liked := decodeBody[LikeResponse](t, rec)
	assert.Equal(t, 1, liked.Likes)
	assert.True(t, liked.HasLiked)
	assert.Equal(t, []string{reader.ID}, liked.ArticleLikes)

	rec = env.doJSON(t, http.MethodPost, "/api/articles/dislike", token, ref)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "You must undo liking the article before disliking it.", decodeBody[ErrorResponse](t, rec).Message)

	rec = env.doJSON(t, http.MethodPost, "/api/articles/like", token, ref)
	require.Equal(t, http.StatusOK, rec.Code)
	unliked := decodeBody[LikeResponse](t, rec)
	assert.Zero(t, unliked.Likes)
	assert.False(t, unliked.HasLiked)

	rec = env.doJSON(t, http.MethodPost, "/api/articles/dislike", token, ref)
	require.Equal(t, http.StatusOK, rec.Code)
	disliked := decodeBody[DislikeResponse](t, rec)
	assert.Equal(t, 1, disliked.Dislikes)
	assert.True(t, disliked.HasDisliked)

	rec = env.doJSON(t, http.MethodPost, "/api/articles/like", token, ref)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "You must undo disliking the article before liking it.", decodeBody[ErrorResponse](t, rec).Message)
}

func TestReaction_UnknownArticle(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "reader@example.com")

	rec := env.doJSON(t, http.MethodPost, "/api/articles/like", token, ArticleRef{ArticleID: "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Article not found", decodeBody[ErrorResponse](t, rec).Message)

	rec = env.doJSON(t, http.MethodPost, "/api/articles/like", token, ArticleRef{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBlockHidesArticleFromFeed(t *testing.T) {
	env := newTestEnv(t)
	author, _ := env.seedUser(t, "author@example.com")
	_, token := env.seedUser(t, "reader@example.com", "Science")
	article := env.seedArticle(t, author.ID, "Science", "Science")
	ref := ArticleRef{ArticleID: article.ID}

	rec := env.do(t, http.MethodGet, "/api/articles", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	feed := decodeBody[FeedResponse](t, rec)
	require.Len(t, feed.Articles, 1)
	require.NotNil(t, feed.Articles[0].Author)
	assert.Equal(t, author.ID, feed.Articles[0].Author.ID)

	rec = env.doJSON(t, http.MethodPost, "/api/articles/block", token, ref)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decodeBody[BlockResponse](t, rec).Blocks)

	rec = env.doJSON(t, http.MethodPost, "/api/articles/block", token, ref)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "You have already blocked this article.", decodeBody[ErrorResponse](t, rec).Message)

	rec = env.doJSON(t, http.MethodPost, "/api/articles/like", token, ref)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "You cannot like a blocked article.", decodeBody[ErrorResponse](t, rec).Message)

	rec = env.doJSON(t, http.MethodPost, "/api/articles/dislike", token, ref)
	assert.Equal(t, "You cannot dislike a blocked article.", decodeBody[ErrorResponse](t, rec).Message)

	rec = env.do(t, http.MethodGet, "/api/articles", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[FeedResponse](t, rec).Articles)
}

func TestFeed_MatchesPreferences(t *testing.T) {
	env := newTestEnv(t)
	author, _ := env.seedUser(t, "author@example.com")
	_, scienceToken := env.seedUser(t, "a@example.com", "Science")
	_, noPrefsToken := env.seedUser(t, "b@example.com")
	env.seedArticle(t, author.ID, "Science", "Science")
	env.seedArticle(t, author.ID, "Food", "Food")

	rec := env.do(t, http.MethodGet, "/api/articles", scienceToken, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	feed := decodeBody[FeedResponse](t, rec).Articles
	require.Len(t, feed, 1)
	assert.Equal(t, []string{"Science"}, feed[0].Tags)
	assert.False(t, feed[0].HasLiked)

	rec = env.do(t, http.MethodGet, "/api/articles", noPrefsToken, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"articles":[]}`, rec.Body.String())
}

func TestFeed_FollowsPreferenceUpdate(t *testing.T) {
	env := newTestEnv(t)
	author, _ := env.seedUser(t, "author@example.com")
	article := env.seedArticle(t, author.ID, "Science", "Science")

	rec := env.doJSON(t, http.MethodPost, "/api/auth/register", "", RegisterRequest{
		FirstName:   "Grace",
		Email:       "grace@example.com",
		Password:    "secret",
		Preferences: []string{"Food"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	registered := decodeBody[RegisterResponse](t, rec)

	rec = env.doJSON(t, http.MethodPost, "/api/auth/activate", "", ActivateRequest{
		Token:          registered.Token,
		ActivationCode: env.notifier.lastCode(t),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.doJSON(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "grace@example.com", Password: "secret"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	access := cookieByName(rec, accessTokenCookie)
	require.NotNil(t, access)
	token := access.Value

	rec = env.do(t, http.MethodGet, "/api/articles", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[FeedResponse](t, rec).Articles)

	rec = env.doJSON(t, http.MethodPost, "/api/auth/update", token, UpdateProfileRequest{Preferences: []string{"Food", "Science"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"Food", "Science"}, decodeBody[UserResponse](t, rec).User.Preferences)

	rec = env.do(t, http.MethodGet, "/api/articles", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	feed := decodeBody[FeedResponse](t, rec).Articles
	require.Len(t, feed, 1)
	assert.Equal(t, article.ID, feed[0].ID)
	assert.False(t, feed[0].HasLiked)
	assert.False(t, feed[0].HasDisliked)

	ref := ArticleRef{ArticleID: article.ID}
	rec = env.doJSON(t, http.MethodPost, "/api/articles/like", token, ref)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = env.doJSON(t, http.MethodPost, "/api/articles/dislike", token, ref)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	stored, err := env.mem.Articles().Get(context.Background(), article.ID)
	require.NoError(t, err)
	assert.Len(t, stored.LikedBy, 1)
	assert.Empty(t, stored.DislikedBy)
}

func TestUpdateAndDelete_OwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	author, authorToken := env.seedUser(t, "author@example.com")
	_, otherToken := env.seedUser(t, "other@example.com")
	article := env.seedArticle(t, author.ID, "Science", "Science")
	path := "/api/articles/" + article.ID

	rec := env.do(t, http.MethodPut, path, otherToken, strings.NewReader(`{"title":"Hijacked"}`), "application/json")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Article not found or unauthorized", decodeBody[ErrorResponse](t, rec).Message)

	rec = env.do(t, http.MethodDelete, path, otherToken, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	body, contentType := multipartBody(t, map[string]string{"title": "Gravity, revised", "tags": " , "}, pngFile())
	rec = env.do(t, http.MethodPut, path, authorToken, body, contentType)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody[ArticleResponse](t, rec).Article
	assert.Equal(t, "Gravity, revised", updated.Title)
	assert.Equal(t, []string{"Science"}, updated.Tags)
	assert.Equal(t, []string{"https://cdn.test/articles/cover.png"}, updated.Images)

	rec = env.do(t, http.MethodPut, path, authorToken, strings.NewReader(`{"removeImage":true}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[ArticleResponse](t, rec).Article.Images)

	rec = env.do(t, http.MethodGet, path, otherToken, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Gravity, revised", decodeBody[ArticleViewResponse](t, rec).Article.Title)

	rec = env.do(t, http.MethodDelete, path, authorToken, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Article deleted successfully", decodeBody[MessageResponse](t, rec).Message)

	rec = env.do(t, http.MethodGet, path, authorToken, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Article not found", decodeBody[ErrorResponse](t, rec).Message)
}

func TestParseSameSite(t *testing.T) {
	assert.Equal(t, http.SameSiteStrictMode, ParseSameSite("Strict"))
	assert.Equal(t, http.SameSiteNoneMode, ParseSameSite("none"))
	assert.Equal(t, http.SameSiteLaxMode, ParseSameSite(""))
	assert.Equal(t, http.SameSiteLaxMode, ParseSameSite("bogus"))
}
