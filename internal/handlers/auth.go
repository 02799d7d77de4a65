package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/abrahamjose02/Article-Feed-Api/internal/services"
	"github.com/abrahamjose02/Article-Feed-Api/internal/tokens"
	"github.com/abrahamjose02/Article-Feed-Api/types"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

// CookieOptions controls the attributes of the session cookies.
type CookieOptions struct {
	Secure   bool
	SameSite http.SameSite
}

// ParseSameSite maps "lax", "strict" or "none" to http.SameSite, defaulting
// to Lax.
func ParseSameSite(value string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// AuthHandler provides registration and session endpoints.
type AuthHandler struct {
	accounts *services.AccountService
	sessions *services.SessionService
	cookies  CookieOptions
	logger   *zap.Logger
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(accounts *services.AccountService, sessions *services.SessionService, cookies CookieOptions, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{
		accounts: accounts,
		sessions: sessions,
		cookies:  cookies,
		logger:   logger,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, handler *AuthHandler) {
	r.Post("/register", handler.Register)
	r.Post("/activate", handler.Activate)
	r.Post("/login", handler.Login)
	r.Post("/refresh", handler.Refresh)
	r.Post("/logout", handler.Logout)
	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(handler.sessions))
		r.Post("/update", handler.Update)
		r.Get("/profile", handler.Profile)
	})
}

// RequireAuth authenticates the access token from the accessToken cookie,
// falling back to an Authorization: Bearer header, and injects the user id
// into the request context.
func RequireAuth(sessions *services.SessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := accessToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "Not authorized, no token")
				return
			}
			userID, err := sessions.Authenticate(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Not authorized, token failed")
				return
			}
			next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), userID)))
		})
	}
}

// Register validates the payload and mails an activation code.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	token, err := h.accounts.Register(r.Context(), services.RegisterInput{
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		Phone:       strings.TrimSpace(req.Phone),
		Email:       req.Email,
		DOB:         strings.TrimSpace(req.DOB),
		Password:    req.Password,
		Preferences: req.Preferences,
	})
	if err != nil {
		fail(w, r, h.logger, err, "")
		return
	}

	writeJSON(w, http.StatusCreated, RegisterResponse{
		Success: true,
		Message: "Activation code sent to your email. Please verify to complete registration.",
		Token:   token,
	})
}

// Activate creates the account carried by a valid activation envelope.
func (h *AuthHandler) Activate(w http.ResponseWriter, r *http.Request) {
	var req ActivateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.accounts.Activate(r.Context(), req.Token, req.ActivationCode)
	if err != nil {
		fail(w, r, h.logger, err, "")
		return
	}

	writeJSON(w, http.StatusCreated, UserResponse{
		Success: true,
		Message: "User Registered Successfully",
		User:    user,
	})
}

// Login verifies credentials and sets both session cookies.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, pair, err := h.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		fail(w, r, h.logger, err, "User not found")
		return
	}

	h.setSessionCookies(w, pair)
	writeJSON(w, http.StatusOK, UserResponse{
		Success: true,
		Message: "Login successful",
		User:    user,
	})
}

// Refresh issues a new access token from the refresh cookie.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var token string
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
		token = cookie.Value
	}

	access, err := h.sessions.Refresh(token)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnauthenticated):
			writeError(w, http.StatusUnauthorized, "No refresh token")
		case errors.Is(err, services.ErrInvalidToken):
			writeError(w, http.StatusUnauthorized, "Invalid refresh token")
		default:
			fail(w, r, h.logger, err, "")
		}
		return
	}

	h.setCookie(w, accessTokenCookie, access, h.sessions.AccessTTL())
	writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Access token refreshed successfully"})
}

// Update applies a partial profile update for the authenticated user.
func (h *AuthHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.accounts.UpdateProfile(r.Context(), userID, services.ProfileUpdate{
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		Phone:       strings.TrimSpace(req.Phone),
		DOB:         strings.TrimSpace(req.DOB),
		Password:    req.Password,
		Preferences: req.Preferences,
	})
	if err != nil {
		fail(w, r, h.logger, err, "User not found")
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{
		Success: true,
		Message: "User updated successfully",
		User:    user,
	})
}

// Profile returns the authenticated user.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	user, err := h.accounts.Profile(r.Context(), userID)
	if err != nil {
		fail(w, r, h.logger, err, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, UserResponse{Success: true, User: user})
}

// Logout clears both session cookies. It needs no authentication and can be
// called repeatedly.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearCookie(w, accessTokenCookie)
	h.clearCookie(w, refreshTokenCookie)
	writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Logged out successfully"})
}

type RegisterRequest struct {
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	Phone       string   `json:"phone"`
	Email       string   `json:"email"`
	DOB         string   `json:"dob"`
	Password    string   `json:"password"`
	Preferences []string `json:"preferences"`
}

type ActivateRequest struct {
	Token          string `json:"token"`
	ActivationCode string `json:"activationCode"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest leaves Preferences nil when the field is absent,
// which keeps the stored preferences.
type UpdateProfileRequest struct {
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	Phone       string   `json:"phone"`
	DOB         string   `json:"dob"`
	Password    string   `json:"password"`
	Preferences []string `json:"preferences"`
}

type RegisterResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token"`
}

type UserResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
	User    types.User `json:"user"`
}

func (h *AuthHandler) setSessionCookies(w http.ResponseWriter, pair tokens.Pair) {
	h.setCookie(w, accessTokenCookie, pair.AccessToken, h.sessions.AccessTTL())
	h.setCookie(w, refreshTokenCookie, pair.RefreshToken, h.sessions.RefreshTTL())
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: h.cookies.SameSite,
	})
}

func (h *AuthHandler) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: h.cookies.SameSite,
	})
}

func accessToken(r *http.Request) string {
	if cookie, err := r.Cookie(accessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	token, err := bearerToken(r)
	if err != nil {
		return ""
	}
	return token
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
