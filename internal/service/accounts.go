package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rjenterprise/poolhub/internal/auth"
	"github.com/rjenterprise/poolhub/internal/domain/account"
	"github.com/rjenterprise/poolhub/internal/jobs"
	"github.com/rjenterprise/poolhub/internal/security"
	"golang.org/x/crypto/bcrypt"
)

// Tokens issues and verifies bearer tokens. *auth.Manager satisfies it.
type Tokens interface {
	Issue(accountID, role string) (string, error)
	Verify(token string) (*auth.Claims, error)
}

type Accounts struct {
	store    AccountStore
	tokens   Tokens
	jobs     JobStore
	hashCost int
}

func NewAccounts(store AccountStore, tokens Tokens, jobStore JobStore) *Accounts {
	return &Accounts{
		store:    store,
		tokens:   tokens,
		jobs:     jobStore,
		hashCost: bcrypt.DefaultCost,
	}
}

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (s *Accounts) WithHashCost(cost int) *Accounts {
	s.hashCost = cost
	return s
}

// Register creates a user-role account and signs a token for it.
func (s *Accounts) Register(ctx context.Context, req account.RegisterRequest) (account.Session, error) {
	email := account.NormalizeEmail(req.Email)
	username := strings.TrimSpace(req.Username)

	_, err := s.store.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return account.Session{}, account.ErrEmailTaken
	case !errors.Is(err, account.ErrNotFound):
		return account.Session{}, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := security.HashPasswordCost(req.Password, s.hashCost)
	if err != nil {
		return account.Session{}, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.store.Create(ctx, account.New(username, email, hash, account.RoleUser))
	if err != nil {
		return account.Session{}, err
	}

	sess, err := s.session(created)
	if err != nil {
		return account.Session{}, err
	}

	enqueue(ctx, s.jobs, jobs.JobAccountWelcome, jobs.AccountWelcomePayload{
		AccountID: created.ID,
		Email:     created.Email,
		Username:  created.Username,
		RequestID: requestID(ctx),
	}, "welcome:"+created.ID)

	return sess, nil
}

// Login returns the same error whether the email is unknown or the password is wrong.
func (s *Accounts) Login(ctx context.Context, req account.LoginRequest) (account.Session, error) {
	a, err := s.store.GetByEmail(ctx, account.NormalizeEmail(req.Email))
	if errors.Is(err, account.ErrNotFound) {
		return account.Session{}, account.ErrInvalidCredentials
	}
	if err != nil {
		return account.Session{}, fmt.Errorf("lookup email: %w", err)
	}

	err = security.CheckPassword(a.PasswordHash, req.Password)
	switch {
	case errors.Is(err, security.ErrNotAHash):
		if !security.MatchesLegacyPlaintext(a.PasswordHash, req.Password) {
			return account.Session{}, account.ErrInvalidCredentials
		}
		s.migrateLegacyPassword(ctx, a, req.Password)
	case err != nil:
		return account.Session{}, account.ErrInvalidCredentials
	}

	return s.session(a)
}

func (s *Accounts) migrateLegacyPassword(ctx context.Context, a account.Account, plain string) {
	log := slog.Default().With("account_id", a.ID)

	hash, err := security.HashPasswordCost(plain, s.hashCost)
	if err != nil {
		log.ErrorContext(ctx, "legacy_password_hash_failed", "err", err)
		return
	}

	if err := s.store.UpdatePasswordHash(ctx, a.ID, a.PasswordHash, hash); err != nil {
		log.WarnContext(ctx, "legacy_password_migration_failed", "err", err)
		return
	}
	log.WarnContext(ctx, "legacy_password_migrated")
}

// Authenticate resolves a bearer token to the live account it names.
func (s *Accounts) Authenticate(ctx context.Context, token string) (account.Account, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return account.Account{}, account.ErrUnauthorized
	}

	a, err := s.store.GetByID(ctx, claims.AccountID)
	if errors.Is(err, account.ErrNotFound) || errors.Is(err, account.ErrInvalidID) {
		return account.Account{}, account.ErrUnauthorized
	}
	if err != nil {
		return account.Account{}, fmt.Errorf("resolve account: %w", err)
	}

	a.PasswordHash = ""
	return a, nil
}

func (s *Accounts) SetRole(ctx context.Context, accountID, role string) (account.Account, error) {
	r, ok := account.ParseRole(role)
	if !ok {
		return account.Account{}, account.ErrInvalidRole
	}

	a, err := s.store.UpdateRole(ctx, accountID, r)
	if err != nil {
		return account.Account{}, err
	}
	a.PasswordHash = ""
	return a, nil
}

// EnsureAdmin creates an admin account for email unless one already exists.
func (s *Accounts) EnsureAdmin(ctx context.Context, username, email, password string) (bool, error) {
	email = account.NormalizeEmail(email)
	if email == "" || password == "" {
		return false, nil
	}

	_, err := s.store.GetByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, account.ErrNotFound) {
		return false, err
	}

	hash, err := security.HashPasswordCost(password, s.hashCost)
	if err != nil {
		return false, err
	}

	if strings.TrimSpace(username) == "" {
		username = "admin"
	}

	if _, err := s.store.Create(ctx, account.New(username, email, hash, account.RoleAdmin)); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Accounts) session(a account.Account) (account.Session, error) {
	token, err := s.tokens.Issue(a.ID, string(a.Role))
	if err != nil {
		return account.Session{}, fmt.Errorf("issue token: %w", err)
	}
	a.PasswordHash = ""
	return account.Session{Account: a, Token: token}, nil
}
