package tokens

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/abrahamjose02/Article-Feed-Api/types"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrSigning      = errors.New("token signing failed")
	ErrMissingKey   = errors.New("token secret is required")
)

const (
	DefaultActivationTTL = 15 * time.Minute
	DefaultAccessTTL     = 15 * time.Minute
	DefaultRefreshTTL    = 5 * 24 * time.Hour

	minActivationCode = 1000
	maxActivationCode = 9999
)

// Config carries one secret and lifetime per token family.
type Config struct {
	ActivationSecret string
	AccessSecret     string
	RefreshSecret    string
	ActivationTTL    time.Duration
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
}

// Pair is what a successful login hands back to the client.
type Pair struct {
	AccessToken  string
	RefreshToken string
}

// Status classifies the outcome of verifying an activation envelope.
type Status int

const (
	StatusInvalid Status = iota
	StatusValid
	StatusExpired
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusExpired:
		return "expired"
	default:
		return "invalid"
	}
}

// ActivationResult is the tagged outcome of VerifyActivationEnvelope. User
// and Code are populated only when Status is StatusValid.
type ActivationResult struct {
	Status Status
	User   types.PendingUser
	Code   string
}

type activationClaims struct {
	User           types.PendingUser `json:"user"`
	ActivationCode string            `json:"activationCode"`
	jwt.RegisteredClaims
}

type sessionClaims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// Service issues and verifies HS256 tokens. It is safe for concurrent use.
type Service struct {
	activationSecret []byte
	accessSecret     []byte
	refreshSecret    []byte
	activationTTL    time.Duration
	accessTTL        time.Duration
	refreshTTL       time.Duration
	now              func() time.Time
}

func NewService(cfg Config) (*Service, error) {
	if strings.TrimSpace(cfg.ActivationSecret) == "" ||
		strings.TrimSpace(cfg.AccessSecret) == "" ||
		strings.TrimSpace(cfg.RefreshSecret) == "" {
		return nil, ErrMissingKey
	}

	s := &Service{
		activationSecret: []byte(cfg.ActivationSecret),
		accessSecret:     []byte(cfg.AccessSecret),
		refreshSecret:    []byte(cfg.RefreshSecret),
		activationTTL:    cfg.ActivationTTL,
		accessTTL:        cfg.AccessTTL,
		refreshTTL:       cfg.RefreshTTL,
		now:              time.Now,
	}
	if s.activationTTL == 0 {
		s.activationTTL = DefaultActivationTTL
	}
	if s.accessTTL == 0 {
		s.accessTTL = DefaultAccessTTL
	}
	if s.refreshTTL == 0 {
		s.refreshTTL = DefaultRefreshTTL
	}
	return s, nil
}

// IssueActivationEnvelope signs the pending registration together with a
// fresh 4-digit code. The code is returned separately so it can be mailed.
func (s *Service) IssueActivationEnvelope(pending types.PendingUser) (string, string, error) {
	code, err := activationCode()
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrSigning, err)
	}

	now := s.now()
	claims := activationClaims{
		User:           pending,
		ActivationCode: code,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.activationTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.activationSecret)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrSigning, err)
	}
	return token, code, nil
}

func (s *Service) VerifyActivationEnvelope(token string) ActivationResult {
	var claims activationClaims
	_, err := s.parse(token, &claims, s.activationSecret)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return ActivationResult{Status: StatusExpired}
	default:
		return ActivationResult{Status: StatusInvalid}
	}
	if claims.ActivationCode == "" {
		return ActivationResult{Status: StatusInvalid}
	}
	return ActivationResult{
		Status: StatusValid,
		User:   claims.User,
		Code:   claims.ActivationCode,
	}
}

func (s *Service) IssueAccessToken(userID string) (string, error) {
	return s.issueSession(userID, s.accessSecret, s.accessTTL)
}

func (s *Service) IssueRefreshToken(userID string) (string, error) {
	return s.issueSession(userID, s.refreshSecret, s.refreshTTL)
}

// IssuePair issues both session tokens for userID.
func (s *Service) IssuePair(userID string) (Pair, error) {
	access, err := s.IssueAccessToken(userID)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := s.IssueRefreshToken(userID)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) VerifyAccessToken(token string) (string, error) {
	return s.verifySession(token, s.accessSecret)
}

func (s *Service) VerifyRefreshToken(token string) (string, error) {
	return s.verifySession(token, s.refreshSecret)
}

// AccessTTL is the lifetime of access tokens, used for cookie Max-Age.
func (s *Service) AccessTTL() time.Duration { return s.accessTTL }

func (s *Service) RefreshTTL() time.Duration { return s.refreshTTL }

func (s *Service) issueSession(userID string, secret []byte, ttl time.Duration) (string, error) {
	now := s.now()
	claims := sessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigning, err)
	}
	return token, nil
}

func (s *Service) verifySession(token string, secret []byte) (string, error) {
	var claims sessionClaims
	if _, err := s.parse(token, &claims, secret); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if strings.TrimSpace(claims.UserID) == "" {
		return "", fmt.Errorf("%w: missing id", ErrInvalidToken)
	}
	return claims.UserID, nil
}

func (s *Service) parse(token string, claims jwt.Claims, secret []byte) (*jwt.Token, error) {
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return parsed, nil
}

func activationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(maxActivationCode-minActivationCode+1))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+minActivationCode), nil
}
