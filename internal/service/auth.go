package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/videohub/internal/hash"
	"github.com/Skotchmaster/videohub/internal/logging"
	"github.com/Skotchmaster/videohub/internal/metrics"
	"github.com/Skotchmaster/videohub/internal/models"
	"github.com/Skotchmaster/videohub/internal/mykafka"
	"github.com/Skotchmaster/videohub/internal/repo"
	"github.com/Skotchmaster/videohub/internal/tokens"
)

type AccountStore interface {
	CreateAccount(ctx context.Context, a *models.Account) error
	GetAccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	FindAccountByLogin(ctx context.Context, username, email string) (*models.Account, error)
	SetRefreshToken(ctx context.Context, id uuid.UUID, digest string) error
	ReplaceRefreshToken(ctx context.Context, id uuid.UUID, oldDigest, newDigest string) (bool, error)
	UnsetRefreshToken(ctx context.Context, id uuid.UUID) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

type TokenPair struct {
	AccessToken  string
	AccessExp    time.Time
	RefreshToken string
	RefreshExp   time.Time
}

type LoginInput struct {
	Username string
	Email    string
	Password string
}

type RegisterInput struct {
	Username string
	Email    string
	FullName string
	Password string
}

type LoginResult struct {
	Account *models.Account
	Tokens  TokenPair
}

type AuthService struct {
	Accounts AccountStore
	Tokens   *tokens.Issuer
	Events   mykafka.Publisher
	Metrics  *metrics.Metrics
}

func NewAuthService(accounts AccountStore, issuer *tokens.Issuer, events mykafka.Publisher, m *metrics.Metrics) *AuthService {
	if events == nil {
		events = mykafka.Nop{}
	}
	return &AuthService{Accounts: accounts, Tokens: issuer, Events: events, Metrics: m}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// strip removes the credential material before an account leaves the service.
func strip(a *models.Account) *models.Account {
	out := *a
	out.PasswordHash = ""
	out.RefreshTokenHash = nil
	return &out
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (acc *models.Account, err error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")
	defer func() { s.Metrics.AuthOperation("register", outcome(err)) }()

	in.Username = normalize(in.Username)
	in.Email = normalize(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	if in.Username == "" || in.Email == "" || in.FullName == "" || in.Password == "" {
		l.Warn("register_error", "status", 400, "reason", "missing required fields")
		return nil, validation("username, email, full name and password are required")
	}
	if len(in.Password) > hash.MaxPasswordBytes {
		l.Warn("register_error", "status", 400, "reason", "password too long")
		return nil, validation("password is too long")
	}

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, internal(err)
	}

	a := &models.Account{
		Username:     in.Username,
		Email:        in.Email,
		FullName:     in.FullName,
		PasswordHash: pwHash,
	}
	if err := s.Accounts.CreateAccount(ctx, a); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			l.Warn("register_error", "status", 409, "reason", "username or email already taken")
			return nil, fmt.Errorf("%w: username or email already taken", ErrConflict)
		}
		l.Error("register_error", "status", 500, "error", err)
		return nil, internal(err)
	}

	s.publish(ctx, "user_registered", a.ID)
	l.Info("register_successful", "account_id", a.ID)
	return strip(a), nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (res *LoginResult, err error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")
	defer func() { s.Metrics.AuthOperation("login", outcome(err)) }()

	username, email := normalize(in.Username), normalize(in.Email)
	if (username == "" && email == "") || in.Password == "" {
		l.Warn("login_failed", "status", 400, "reason", "username or email and password are required")
		return nil, validation("username or email and password are required")
	}

	a, err := s.Accounts.FindAccountByLogin(ctx, username, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("login_failed", "status", 404, "reason", "account not found")
			return nil, fmt.Errorf("%w: account not found", ErrNotFound)
		}
		l.Error("login_failed", "status", 500, "error", err)
		return nil, internal(err)
	}

	if !hash.CheckPassword(a.PasswordHash, in.Password) {
		l.Warn("login_failed", "status", 401, "reason", "invalid password", "account_id", a.ID)
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issuePair(a.ID)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot issue tokens", "error", err)
		return nil, internal(err)
	}

	if err := s.Accounts.SetRefreshToken(ctx, a.ID, tokens.Sha256Hex(pair.RefreshToken)); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: account not found", ErrNotFound)
		}
		l.Error("login_failed", "status", 500, "reason", "cannot persist refresh token", "error", err)
		return nil, internal(err)
	}

	s.publish(ctx, "user_logged_in", a.ID)
	l.Info("login_successful", "account_id", a.ID)
	return &LoginResult{Account: strip(a), Tokens: *pair}, nil
}

// Refresh rotates the session: the presented token must be the one currently held
// in the account slot, and is replaced by a freshly issued one.
func (s *AuthService) Refresh(ctx context.Context, presented string) (pair *TokenPair, err error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")
	defer func() { s.Metrics.AuthOperation("refresh", outcome(err)) }()

	if presented == "" {
		l.Warn("refresh_failed", "status", 401, "reason", "missing refresh token")
		return nil, fmt.Errorf("%w: missing refresh token", ErrUnauthorized)
	}

	id, err := s.Tokens.VerifyRefreshToken(presented)
	if err != nil {
		l.Warn("refresh_failed", "status", 401, "reason", string(tokens.KindOf(err)))
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	a, err := s.Accounts.GetAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("refresh_failed", "status", 401, "reason", "account not found")
			return nil, fmt.Errorf("%w: account not found", ErrUnauthorized)
		}
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, internal(err)
	}

	oldDigest := tokens.Sha256Hex(presented)
	if a.RefreshTokenHash == nil || !tokens.DigestEqual(*a.RefreshTokenHash, oldDigest) {
		l.Warn("refresh_failed", "status", 401, "reason", "refresh token superseded or revoked", "account_id", a.ID)
		return nil, fmt.Errorf("%w: refresh token superseded or revoked", ErrUnauthorized)
	}

	pair, err = s.issuePair(a.ID)
	if err != nil {
		l.Error("refresh_failed", "status", 500, "reason", "cannot issue tokens", "error", err)
		return nil, internal(err)
	}

	swapped, err := s.Accounts.ReplaceRefreshToken(ctx, a.ID, oldDigest, tokens.Sha256Hex(pair.RefreshToken))
	if err != nil {
		l.Error("refresh_failed", "status", 500, "reason", "cannot persist refresh token", "error", err)
		return nil, internal(err)
	}
	if !swapped {
		l.Warn("refresh_failed", "status", 401, "reason", "concurrent rotation", "account_id", a.ID)
		return nil, fmt.Errorf("%w: refresh token superseded or revoked", ErrUnauthorized)
	}

	s.publish(ctx, "token_refreshed", a.ID)
	l.Info("refresh_successful", "account_id", a.ID)
	return pair, nil
}

// LogOut empties the session slot. Calling it on an already empty slot is not an error.
func (s *AuthService) LogOut(ctx context.Context, accountID uuid.UUID) (err error) {
	l := logging.FromContext(ctx).With("svc", "auth.logout")
	defer func() { s.Metrics.AuthOperation("logout", outcome(err)) }()

	if err := s.Accounts.UnsetRefreshToken(ctx, accountID); err != nil {
		l.Error("logout_failed", "status", 500, "reason", "cannot revoke refresh token", "error", err)
		return internal(err)
	}

	s.publish(ctx, "user_logged_out", accountID)
	l.Info("logout_successful", "account_id", accountID)
	return nil
}

// ChangePassword replaces the hash and revokes the outstanding refresh token.
func (s *AuthService) ChangePassword(ctx context.Context, accountID uuid.UUID, oldPassword, newPassword string) (err error) {
	l := logging.FromContext(ctx).With("svc", "auth.change_password")
	defer func() { s.Metrics.AuthOperation("change_password", outcome(err)) }()

	if oldPassword == "" || newPassword == "" {
		l.Warn("change_password_failed", "status", 400, "reason", "missing required fields")
		return validation("old and new password are required")
	}
	if len(newPassword) > hash.MaxPasswordBytes {
		l.Warn("change_password_failed", "status", 400, "reason", "password too long")
		return validation("new password is too long")
	}

	a, err := s.Accounts.GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("change_password_failed", "status", 404, "reason", "account not found")
			return fmt.Errorf("%w: account not found", ErrNotFound)
		}
		l.Error("change_password_failed", "status", 500, "error", err)
		return internal(err)
	}

	if !hash.CheckPassword(a.PasswordHash, oldPassword) {
		l.Warn("change_password_failed", "status", 401, "reason", "invalid old password", "account_id", a.ID)
		return ErrInvalidCredentials
	}

	pwHash, err := hash.HashPassword(newPassword)
	if err != nil {
		l.Error("change_password_failed", "status", 500, "reason", "cannot hash the password", "error", err)
		return internal(err)
	}

	if err := s.Accounts.UpdatePassword(ctx, a.ID, pwHash); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: account not found", ErrNotFound)
		}
		l.Error("change_password_failed", "status", 500, "error", err)
		return internal(err)
	}

	s.publish(ctx, "password_changed", a.ID)
	l.Info("change_password_successful", "account_id", a.ID)
	return nil
}

func (s *AuthService) CurrentAccount(ctx context.Context, accountID uuid.UUID) (*models.Account, error) {
	a, err := s.Accounts.GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: account not found", ErrNotFound)
		}
		logging.FromContext(ctx).Error("current_account_failed", "status", 500, "error", err)
		return nil, internal(err)
	}
	return strip(a), nil
}

func (s *AuthService) issuePair(id uuid.UUID) (*TokenPair, error) {
	access, accessExp, err := s.Tokens.IssueAccessToken(id)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.Tokens.IssueRefreshToken(id)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		AccessExp:    accessExp,
		RefreshToken: refresh,
		RefreshExp:   refreshExp,
	}, nil
}

func (s *AuthService) publish(ctx context.Context, eventType string, accountID uuid.UUID) {
	if s.Events == nil {
		return
	}
	ev := mykafka.Event{
		Type:       eventType,
		AccountID:  accountID.String(),
		OccurredAt: time.Now().UTC(),
	}
	if err := s.Events.PublishEvent(ctx, mykafka.TopicUserEvents, accountID.String(), ev); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "event", eventType, "error", err)
	}
}
