package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/models"
)

var (
	// ErrInvalidToken indicates a token that is malformed, signed with the wrong key or expired.
	ErrInvalidToken = errors.New("invalid token")
	// ErrSessionNotFound indicates the refresh token is not the one stored for its user.
	ErrSessionNotFound = errors.New("refresh token is expired or used")
)

// RefreshStore persists the single active refresh token of each user.
type RefreshStore interface {
	SetRefreshToken(ctx context.Context, userID, token string) error
	RefreshToken(ctx context.Context, userID string) (string, error)
}

// Manager issues and verifies the HS256 access/refresh token pair.
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration

	store   RefreshStore
	NowFunc func() time.Time
}

// NewManager constructs a Manager from the auth configuration.
func NewManager(cfg config.AuthConfig, store RefreshStore) *Manager {
	if store == nil {
		panic("auth: refresh store must not be nil")
	}
	return &Manager{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		store:         store,
	}
}

// Issue signs a new token pair for the user and stores the refresh token,
// invalidating any previously issued one.
func (m *Manager) Issue(ctx context.Context, userID string) (models.SessionTokens, error) {
	if userID == "" {
		return models.SessionTokens{}, errors.New("user id must be provided")
	}

	now := m.now()
	tokens := models.SessionTokens{
		AccessExpiresAt:  now.Add(m.accessTTL),
		RefreshExpiresAt: now.Add(m.refreshTTL),
	}

	var err error
	if tokens.AccessToken, err = sign(m.accessSecret, userID, now, tokens.AccessExpiresAt); err != nil {
		return models.SessionTokens{}, err
	}
	if tokens.RefreshToken, err = sign(m.refreshSecret, userID, now, tokens.RefreshExpiresAt); err != nil {
		return models.SessionTokens{}, err
	}

	if err := m.store.SetRefreshToken(ctx, userID, tokens.RefreshToken); err != nil {
		return models.SessionTokens{}, fmt.Errorf("store refresh token: %w", err)
	}
	return tokens, nil
}

// Refresh verifies refreshToken and rotates the pair. The token must match the
// one stored for its user, so each refresh token can be used once.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, string, error) {
	userID, err := m.parse(m.refreshSecret, refreshToken)
	if err != nil {
		return models.SessionTokens{}, "", err
	}

	stored, err := m.store.RefreshToken(ctx, userID)
	if err != nil {
		return models.SessionTokens{}, "", err
	}
	if stored == "" || stored != refreshToken {
		return models.SessionTokens{}, "", ErrSessionNotFound
	}

	tokens, err := m.Issue(ctx, userID)
	if err != nil {
		return models.SessionTokens{}, "", err
	}
	return tokens, userID, nil
}

// Revoke clears the stored refresh token for the user.
func (m *Manager) Revoke(ctx context.Context, userID string) error {
	if err := m.store.SetRefreshToken(ctx, userID, ""); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// VerifyAccess returns the user id carried by a valid access token.
func (m *Manager) VerifyAccess(token string) (string, error) {
	return m.parse(m.accessSecret, token)
}

func (m *Manager) parse(secret []byte, tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrInvalidToken
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func sign(secret []byte, userID string, issuedAt, expiresAt time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (m *Manager) now() time.Time {
	if m.NowFunc != nil {
		return m.NowFunc()
	}
	return time.Now().UTC()
}
