// Package tokens mints and verifies the access/refresh JWT pair. The two token types are
// signed with different secrets and carry a typ claim so one can never stand in for the other.
package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

type AccessClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

type Issuer struct {
	cfg Config
	now func() time.Time
}

func NewIssuer(cfg Config) (*Issuer, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("tokens: access and refresh secrets are required")
	}
	if string(cfg.AccessSecret) == string(cfg.RefreshSecret) {
		return nil, errors.New("tokens: access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("tokens: TTLs must be positive")
	}
	return &Issuer{cfg: cfg, now: time.Now}, nil
}

// WithClock returns a copy of the issuer that reads time from now.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	cp := *i
	cp.now = now
	return &cp
}

func (i *Issuer) AccessTTL() time.Duration  { return i.cfg.AccessTTL }
func (i *Issuer) RefreshTTL() time.Duration { return i.cfg.RefreshTTL }

func (i *Issuer) IssueAccessToken(accountID uuid.UUID) (string, time.Time, error) {
	now := i.now().UTC()
	exp := now.Add(i.cfg.AccessTTL)
	claims := AccessClaims{
		Type: TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.cfg.Issuer,
			Subject:   accountID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.cfg.AccessSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, exp, nil
}

func (i *Issuer) IssueRefreshToken(accountID uuid.UUID) (string, time.Time, error) {
	now := i.now().UTC()
	exp := now.Add(i.cfg.RefreshTTL)
	claims := RefreshClaims{
		Type: TypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.cfg.Issuer,
			Subject:   accountID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.cfg.RefreshSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return signed, exp, nil
}

func (i *Issuer) VerifyAccessToken(token string) (uuid.UUID, error) {
	var claims AccessClaims
	if err := i.parse(token, &claims, i.cfg.AccessSecret); err != nil {
		return uuid.Nil, err
	}
	return subjectOf(claims.Type, TypeAccess, claims.Subject)
}

func (i *Issuer) VerifyRefreshToken(token string) (uuid.UUID, error) {
	var claims RefreshClaims
	if err := i.parse(token, &claims, i.cfg.RefreshSecret); err != nil {
		return uuid.Nil, err
	}
	return subjectOf(claims.Type, TypeRefresh, claims.Subject)
}

func (i *Issuer) parse(token string, claims jwt.Claims, secret []byte) error {
	if token == "" {
		return &Error{Kind: KindMalformed, Err: errors.New("empty token")}
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	}
	if i.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.cfg.Issuer))
	}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		return classify(err)
	}
	return nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return &Error{Kind: KindExpired, Err: err}
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return &Error{Kind: KindSignatureInvalid, Err: err}
	default:
		return &Error{Kind: KindMalformed, Err: err}
	}
}

func subjectOf(typ, want, sub string) (uuid.UUID, error) {
	if typ != want {
		return uuid.Nil, &Error{Kind: KindMalformed, Err: fmt.Errorf("unexpected token type %q", typ)}
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, &Error{Kind: KindMalformed, Err: fmt.Errorf("bad subject: %w", err)}
	}
	return id, nil
}
