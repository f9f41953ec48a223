package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"willvault/api/internal/auth"
	"willvault/api/internal/authpw"
	"willvault/api/internal/config"
	"willvault/api/internal/email"
	"willvault/api/internal/export"
	"willvault/api/internal/guidance"
	"willvault/api/internal/store"
	"willvault/api/internal/util"
	"willvault/api/internal/will"
	"willvault/api/internal/wizard"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	Email        string
	DisplayName  string
	JTI          string
	ExpiresAt    time.Time
}

// userStore is the account side of the database.
type userStore interface {
	GetUserByID(ctx context.Context, userID string) (store.User, error)
	RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error
	IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// refreshStore holds refresh tokens, in Postgres or Redis.
type refreshStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

type exporter interface {
	Preview(doc will.Document) (*export.Result, error)
	PDF(ctx context.Context, doc will.Document, ownerID string) (*export.Result, error)
}

type mailer interface {
	IsConfigured() bool
	SendReceipt(to string, data email.ReceiptData, pdf []byte) error
}

// Check is one readiness check, e.g. a database ping.
type Check func(ctx context.Context) error

type Deps struct {
	Config   config.Config
	Users    userStore
	Refresh  refreshStore
	Accounts *authpw.Service
	Wizards  *wizard.Registry
	Advisor  *guidance.Advisor
	Exporter exporter
	Mailer   mailer
	Checks   map[string]Check
	Logger   *zap.Logger
}

type Service struct {
	cfg      config.Config
	users    userStore
	refresh  refreshStore
	accounts *authpw.Service
	wizards  *wizard.Registry
	advisor  *guidance.Advisor
	exporter exporter
	mailer   mailer
	checks   map[string]Check
	logger   *zap.Logger
	now      func() time.Time
}

func New(deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	advisor := deps.Advisor
	if advisor == nil {
		advisor = guidance.NewAdvisor(nil, logger)
	}
	return &Service{
		cfg:      deps.Config,
		users:    deps.Users,
		refresh:  deps.Refresh,
		accounts: deps.Accounts,
		wizards:  deps.Wizards,
		advisor:  advisor,
		exporter: deps.Exporter,
		mailer:   deps.Mailer,
		checks:   deps.Checks,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) SignUp(ctx context.Context, req authpw.SignUpRequest) (Session, error) {
	if s.accounts == nil {
		return Session{}, errAuthUnavailable
	}
	user, err := s.accounts.SignUp(ctx, req)
	if err != nil {
		return Session{}, mapAccountError(err)
	}
	s.logger.Info("account created", zap.String("user_id", user.ID))
	return s.issueSession(ctx, user)
}

func (s *Service) SignIn(ctx context.Context, req authpw.SignInRequest) (Session, error) {
	if s.accounts == nil {
		return Session{}, errAuthUnavailable
	}
	user, err := s.accounts.SignIn(ctx, req)
	if err != nil {
		return Session{}, mapAccountError(err)
	}
	return s.issueSession(ctx, user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	if refreshToken == "" {
		return Session{}, auth.ErrInvalidToken
	}
	tokenHash := auth.HashToken(refreshToken)
	user, err := s.refresh.LookupRefreshSession(ctx, tokenHash)
	if errors.Is(err, store.ErrNotFound) {
		return Session{}, auth.ErrInvalidToken
	}
	if err != nil {
		return Session{}, err
	}
	if err := s.refresh.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := s.now()
	claims := auth.NewClaims(user.ID, user.Email, now, s.cfg.AccessTTL)
	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), claims)
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	if err := s.refresh.SaveRefreshSession(ctx, auth.HashToken(refresh), user.ID, now.Add(s.cfg.RefreshTTL)); err != nil {
		return Session{}, fmt.Errorf("save refresh session: %w", err)
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		Email:        user.Email,
		DisplayName:  user.DisplayName,
		JTI:          claims.ID,
		ExpiresAt:    claims.ExpiresAt.Time,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.users.IsAccessTokenRevoked(ctx, claims.ID)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}

	user, err := s.users.GetUserByID(ctx, claims.Subject)
	if errors.Is(err, store.ErrNotFound) {
		return Session{}, auth.ErrInvalidToken
	}
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:       token,
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		JTI:         claims.ID,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

// Logout revokes the access token and, when given, the refresh token.
// Revocation failures are logged; the client is signed out either way.
func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if session.JTI != "" {
		if err := s.users.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt); err != nil {
			s.logger.Warn("revoke access token", zap.String("user_id", session.UserID), zap.Error(err))
		}
	}
	if refreshToken != "" {
		if err := s.refresh.RevokeRefreshSession(ctx, auth.HashToken(refreshToken)); err != nil {
			s.logger.Warn("revoke refresh token", zap.String("user_id", session.UserID), zap.Error(err))
		}
	}
	return nil
}

// Ready runs every readiness check and reports the failures by name.
func (s *Service) Ready(ctx context.Context) map[string]error {
	results := make(map[string]error, len(s.checks))
	for name, check := range s.checks {
		results[name] = check(ctx)
	}
	return results
}

// Catalog is the static option data the questionnaire renders.
func (s *Service) Catalog() map[string]any {
	return map[string]any{
		"categoryGroups":      will.CategoryGroups,
		"jurisdictions":       will.Jurisdictions,
		"relationships":       will.Relationships,
		"techExperience":      will.TechExperienceLevels,
		"waitingPeriods":      will.WaitingPeriods,
		"verificationMethods": will.VerificationMethods,
		"plans":               will.Plans,
		"steps":               wizard.LastStep,
		"textFields":          wizard.TextFields(),
		"hostedGuidance":      s.advisor.Hosted(),
	}
}

var errAuthUnavailable = domainError(http.StatusServiceUnavailable, "AUTH_UNAVAILABLE", "Authentication service not configured", nil)

func mapAccountError(err error) error {
	switch {
	case errors.Is(err, authpw.ErrEmailTaken):
		return domainError(http.StatusConflict, "EMAIL_EXISTS", "Email already registered", nil)
	case errors.Is(err, authpw.ErrInvalidCredentials):
		return domainError(http.StatusUnauthorized, "INVALID_CREDENTIALS", err.Error(), nil)
	case errors.Is(err, authpw.ErrMissingFields),
		errors.Is(err, authpw.ErrInvalidEmail),
		errors.Is(err, authpw.ErrWeakPassword):
		return domainError(http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
	}
	return err
}
