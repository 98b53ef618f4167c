// Package auth issues and verifies session tokens and gates HTTP handlers
// on a valid access token.
//
// Sessions are stateless: a short-lived access token and a long-lived
// refresh token, signed with different HMAC secrets. A refresh token only
// mints new access tokens; it is never rotated and cannot be revoked
// before it expires.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

type TokenType string

const (
	TypeAccess  TokenType = "access"
	TypeRefresh TokenType = "refresh"
)

// Claims are the registered JWT claims plus the token type.
type Claims struct {
	jwt.RegisteredClaims
	Type TokenType `json:"typ"`
}

// Token is a signed credential and the instant it stops being accepted.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

type TokenPair struct {
	Access  Token
	Refresh Token
}

type IssuerConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type Issuer struct {
	cfg IssuerConfig
}

// NewIssuer checks that both secrets are set and distinct and both
// lifetimes are positive.
func NewIssuer(cfg IssuerConfig) (*Issuer, error) {
	switch {
	case len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0:
		return nil, errors.New("auth: both token secrets are required")
	case string(cfg.AccessSecret) == string(cfg.RefreshSecret):
		return nil, errors.New("auth: access and refresh secrets must differ")
	case cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0:
		return nil, errors.New("auth: token lifetimes must be positive")
	}
	return &Issuer{cfg: cfg}, nil
}

// IssuePair mints an access and a refresh token for principalID at now.
// Token times are whole seconds, so a token expires at now+TTL truncated
// to the second; Token.ExpiresAt reports that truncated instant.
func (i *Issuer) IssuePair(principalID string, now time.Time) (TokenPair, error) {
	access, err := i.sign(principalID, TypeAccess, now, i.cfg.AccessTTL, i.cfg.AccessSecret)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := i.sign(principalID, TypeRefresh, now, i.cfg.RefreshTTL, i.cfg.RefreshSecret)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// VerifyAccess returns the principal named by an access token. An expired
// token yields common.ErrTokenExpired; any other defect, including a
// refresh token, yields common.ErrInvalidToken.
func (i *Issuer) VerifyAccess(token string, now time.Time) (string, error) {
	return verify(token, TypeAccess, i.cfg.AccessSecret, now)
}

// VerifyRefresh is VerifyAccess for refresh tokens.
func (i *Issuer) VerifyRefresh(token string, now time.Time) (string, error) {
	return verify(token, TypeRefresh, i.cfg.RefreshSecret, now)
}

// RefreshAccess mints a new access token from a valid refresh token. The
// refresh token itself is left untouched.
func (i *Issuer) RefreshAccess(refreshToken string, now time.Time) (Token, error) {
	principalID, err := i.VerifyRefresh(refreshToken, now)
	if err != nil {
		return Token{}, err
	}
	return i.sign(principalID, TypeAccess, now, i.cfg.AccessTTL, i.cfg.AccessSecret)
}

func (i *Issuer) sign(principalID string, typ TokenType, now time.Time, ttl time.Duration, secret []byte) (Token, error) {
	exp := jwt.NewNumericDate(now.Add(ttl))
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principalID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: exp,
		},
		Type: typ,
	})

	s, err := token.SignedString(secret)
	if err != nil {
		return Token{}, fmt.Errorf("%w: %w", common.ErrSigning, err)
	}
	return Token{Value: s, ExpiresAt: exp.Time}, nil
}

func verify(token string, want TokenType, secret []byte, now time.Time) (string, error) {
	claims := &Claims{}

	// Expiry is checked below against the caller's clock.
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}

	if claims.Type != want || claims.Subject == "" || claims.ExpiresAt == nil {
		return "", common.ErrInvalidToken
	}
	if now.After(claims.ExpiresAt.Time) {
		return "", common.ErrTokenExpired
	}

	return claims.Subject, nil
}
