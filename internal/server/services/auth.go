package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/dmitrijs2005/portfolio/internal/dbx"
	"github.com/dmitrijs2005/portfolio/internal/logging"
	"github.com/dmitrijs2005/portfolio/internal/server/auth"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
	"github.com/dmitrijs2005/portfolio/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/portfolio/internal/server/throttle"
	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer is satisfied by *auth.Issuer.
type TokenIssuer interface {
	IssuePair(principalID string, now time.Time) (auth.TokenPair, error)
	RefreshAccess(refreshToken string, now time.Time) (auth.Token, error)
}

// AuthService authenticates the administrative principal.
type AuthService struct {
	db      *sql.DB
	repos   repomanager.RepositoryManager
	issuer  TokenIssuer
	limiter throttle.Limiter
	timeout time.Duration
	logger  logging.Logger
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, issuer TokenIssuer, limiter throttle.Limiter, timeout time.Duration, logger logging.Logger) *AuthService {
	if limiter == nil {
		limiter = throttle.Disabled{}
	}
	return &AuthService{db: db, repos: m, issuer: issuer, limiter: limiter, timeout: timeout, logger: logger.With("module", "auth")}
}

// dummyHash keeps the cost of a login for an unknown email equal to the
// cost of a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("portfolio-dummy-password"), bcrypt.DefaultCost)

// Login verifies email and password and issues a token pair. Unknown
// emails and wrong passwords both yield common.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string, now time.Time) (auth.TokenPair, error) {
	identity := common.NormalizeEmail(email)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	locked, err := s.limiter.Locked(ctx, identity)
	if err != nil {
		s.logger.Warn(ctx, "login throttle unavailable", "error", err)
	}
	if locked {
		return auth.TokenPair{}, common.ErrTooManyAttempts
	}

	p, err := s.repos.Principals(s.db).GetByEmail(ctx, identity)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return auth.TokenPair{}, s.failed(ctx, identity)
	case err != nil:
		return auth.TokenPair{}, storeErr(err)
	}

	if err := bcrypt.CompareHashAndPassword(p.PasswordHash, []byte(password)); err != nil {
		return auth.TokenPair{}, s.failed(ctx, identity)
	}

	if err := s.limiter.Reset(ctx, identity); err != nil {
		s.logger.Warn(ctx, "login throttle reset failed", "error", err)
	}

	return s.issuer.IssuePair(p.ID, now)
}

func (s *AuthService) failed(ctx context.Context, identity string) error {
	locked, err := s.limiter.Fail(ctx, identity)
	if err != nil {
		s.logger.Warn(ctx, "login throttle unavailable", "error", err)
	}
	if locked {
		return common.ErrTooManyAttempts
	}
	return common.ErrInvalidCredentials
}

// Refresh mints a new access token from a refresh token. The refresh token
// is neither rotated nor extended.
func (s *AuthService) Refresh(refreshToken string, now time.Time) (auth.Token, error) {
	return s.issuer.RefreshAccess(refreshToken, now)
}

// SetPrincipal creates the administrative principal or replaces its
// password when it already exists.
func (s *AuthService) SetPrincipal(ctx context.Context, email, password string, now time.Time) (*models.Principal, error) {
	email, err := normalizeAddress(email)
	if err != nil {
		return nil, err
	}
	if len(password) < 8 {
		return nil, errors.Join(common.ErrorValidation, errors.New("password must have at least 8 characters"))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Join(common.ErrorValidation, err)
	}

	var out *models.Principal
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Principals(tx)

		existing, err := repo.GetByEmail(ctx, email)
		switch {
		case err == nil:
			if err := repo.UpdatePasswordHash(ctx, existing.ID, hash); err != nil {
				return err
			}
			existing.PasswordHash = hash
			out = existing
			return nil
		case errors.Is(err, common.ErrorNotFound):
			out, err = repo.Create(ctx, &models.Principal{Email: email, PasswordHash: hash, CreatedAt: now})
			return err
		default:
			return err
		}
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}
