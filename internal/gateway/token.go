package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/hirelane/hirelane/internal/shared/infrastructure/kvstore"
)

// TokenKey is the storage key of the bearer token.
const TokenKey = "token"

// TokenStore holds the bearer token obtained at login.
type TokenStore interface {
	// Token returns the stored token, or "" when none is stored.
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}

// Sealer encrypts the token at rest.
type Sealer interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

// KVTokenStore keeps the token in a key/value store.
type KVTokenStore struct {
	store  kvstore.Store
	sealer Sealer
	sealed func(string) bool
}

// TokenStoreOption configures a KVTokenStore.
type TokenStoreOption func(*KVTokenStore)

// WithSealer encrypts tokens on write. isSealed tells sealed values from
// tokens written before a key was configured; those are returned as stored.
func WithSealer(sealer Sealer, isSealed func(string) bool) TokenStoreOption {
	return func(s *KVTokenStore) {
		s.sealer = sealer
		s.sealed = isSealed
	}
}

// NewKVTokenStore creates a token store on top of store.
func NewKVTokenStore(store kvstore.Store, opts ...TokenStoreOption) *KVTokenStore {
	s := &KVTokenStore{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *KVTokenStore) Token(ctx context.Context) (string, error) {
	v, ok, err := s.store.Get(ctx, TokenKey)
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	if !ok {
		return "", nil
	}
	v = strings.TrimSpace(v)
	if s.sealer != nil && s.sealed != nil && s.sealed(v) {
		plain, err := s.sealer.Open(v)
		if err != nil {
			return "", fmt.Errorf("%w: stored token cannot be decrypted: %v", ErrUnauthenticated, err)
		}
		return plain, nil
	}
	return v, nil
}

func (s *KVTokenStore) SetToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: empty token", ErrInvalidRequest)
	}
	if s.sealer != nil {
		sealed, err := s.sealer.Seal(token)
		if err != nil {
			return fmt.Errorf("seal token: %w", err)
		}
		token = sealed
	}
	return s.store.Set(ctx, TokenKey, token)
}

func (s *KVTokenStore) ClearToken(ctx context.Context) error {
	return s.store.Delete(ctx, TokenKey)
}

// storedTokenSource adapts a TokenStore to oauth2.TokenSource for one call.
type storedTokenSource struct {
	ctx   context.Context
	store TokenStore
	now   func() time.Time
}

// Token returns the stored token or an error wrapping ErrUnauthenticated.
func (s *storedTokenSource) Token() (*oauth2.Token, error) {
	raw, err := s.store.Token(s.ctx)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, fmt.Errorf("%w: no token stored", ErrUnauthenticated)
	}

	tok := &oauth2.Token{AccessToken: raw, TokenType: "Bearer"}
	if exp, ok := TokenExpiry(raw); ok {
		tok.Expiry = exp
		if !exp.After(s.now()) {
			return nil, fmt.Errorf("%w: token expired at %s", ErrUnauthenticated, exp.Format(time.RFC3339))
		}
	}
	return tok, nil
}

// TokenExpiry returns the exp claim of a JWT without verifying its signature.
// Opaque tokens and JWTs without exp report false.
func TokenExpiry(raw string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// TokenClaims returns selected unverified claims of a JWT for display.
func TokenClaims(raw string) (map[string]any, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, errors.New("token is not a JWT")
	}
	return claims, nil
}
