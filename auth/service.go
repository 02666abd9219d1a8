package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/projecthub-backend/errs"
	"github.com/rpupo63/projecthub-backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"

	minPasswordLength = 6
)

type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*models.Credential, error)
	FindByID(ctx context.Context, uid uuid.UUID) (*models.Credential, error)
	Add(ctx context.Context, cred *models.Credential) error
	UpdatePassword(ctx context.Context, uid uuid.UUID, hash []byte) error
}

// CreateHook runs after a new identity is stored.
type CreateHook func(ctx context.Context, identity *Identity)

// Service is the identity provider: credentials, sign-in flows and session tokens.
type Service struct {
	creds    CredentialStore
	tokens   *TokenIssuer
	google   *GoogleProvider
	revoked  RevocationList
	onCreate []CreateHook
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(creds CredentialStore, tokens *TokenIssuer, google *GoogleProvider) *Service {
	return &Service{
		creds:   creds,
		tokens:  tokens,
		google:  google,
		revoked: NewMemoryRevocations(),
		logger:  log.With().Str("component", "authService").Logger(),
		now:     time.Now,
	}
}

// UseRevocations replaces the in-memory revocation list, e.g. with a Redis-backed one.
func (s *Service) UseRevocations(list RevocationList) {
	s.revoked = list
}

// OnIdentityCreated registers a hook fired once per new identity.
func (s *Service) OnIdentityCreated(hook CreateHook) {
	s.onCreate = append(s.onCreate, hook)
}

// Verify checks the token signature and expiry, then rejects signed-out tokens.
func (s *Service) Verify(ctx context.Context, token string) (*Identity, error) {
	identity, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	if identity.TokenID == "" {
		return identity, nil
	}
	revoked, err := s.revoked.IsRevoked(ctx, identity.TokenID)
	if err != nil {
		s.logger.Error().Err(err).Str("uid", identity.UID.String()).Msg("revocation check failed")
		return nil, err
	}
	if revoked {
		return nil, errs.NewUnauthenticatedError("session signed out")
	}
	return identity, nil
}

// SignOut revokes the identity's token until it would have expired.
func (s *Service) SignOut(ctx context.Context, identity *Identity) error {
	if identity == nil || identity.TokenID == "" {
		return nil
	}
	until := identity.ExpiresAt
	if until.IsZero() {
		until = s.now().Add(s.tokens.ttl)
	}
	if err := s.revoked.Revoke(ctx, identity.TokenID, until); err != nil {
		s.logger.Error().Err(err).Str("uid", identity.UID.String()).Msg("sign-out failed")
		return err
	}
	return nil
}

func (s *Service) SignUp(ctx context.Context, email, password, name string) (*Identity, string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, "", errs.NewInvalidFieldError("email", "email is required")
	}
	if len(password) < minPasswordLength {
		return nil, "", errs.NewInvalidFieldError("password", "password must be at least 6 characters")
	}

	existing, err := s.creds.FindByEmail(ctx, email)
	if err != nil && !errs.IsNotFound(err) {
		return nil, "", err
	}
	if existing != nil {
		return nil, "", errs.NewConflictError("email already in use")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", errs.NewInternalErrorWithCause("failed to hash password", err)
	}

	cred := &models.Credential{
		UID:          uuid.New(),
		Email:        email,
		DisplayName:  strings.TrimSpace(name),
		PasswordHash: hash,
		Provider:     ProviderPassword,
		CreatedAt:    s.now(),
	}
	if err := s.creds.Add(ctx, cred); err != nil {
		s.logger.Error().Err(err).Str("email", email).Msg("sign-up failed")
		return nil, "", err
	}

	identity := identityFromCredential(cred)
	s.fireCreated(ctx, identity)
	return s.issue(identity)
}

func (s *Service) SignIn(ctx context.Context, email, password string) (*Identity, string, error) {
	cred, err := s.creds.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errs.IsNotFound(err) {
			return nil, "", errs.NewUnauthenticatedError("invalid email or password")
		}
		return nil, "", err
	}
	if len(cred.PasswordHash) == 0 || bcrypt.CompareHashAndPassword(cred.PasswordHash, []byte(password)) != nil {
		return nil, "", errs.NewUnauthenticatedError("invalid email or password")
	}
	return s.issue(identityFromCredential(cred))
}

// SignInWithGoogle exchanges an authorization code, creating the identity on first login.
func (s *Service) SignInWithGoogle(ctx context.Context, code string) (*Identity, string, error) {
	if s.google == nil {
		return nil, "", errs.NewInvalidInputError("google sign-in is not configured")
	}
	info, err := s.google.Exchange(ctx, code)
	if err != nil {
		return nil, "", err
	}

	email := normalizeEmail(info.Email)
	cred, err := s.creds.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return s.issue(identityFromCredential(cred))
	case !errs.IsNotFound(err):
		return nil, "", err
	}

	cred = &models.Credential{
		UID:         uuid.New(),
		Email:       email,
		DisplayName: info.Name,
		Provider:    ProviderGoogle,
		CreatedAt:   s.now(),
	}
	if info.Picture != "" {
		cred.PhotoURL = &info.Picture
	}
	if err := s.creds.Add(ctx, cred); err != nil {
		s.logger.Error().Err(err).Str("email", email).Msg("google sign-up failed")
		return nil, "", err
	}

	identity := identityFromCredential(cred)
	s.fireCreated(ctx, identity)
	return s.issue(identity)
}

// GoogleAuthURL returns the consent page URL for state.
func (s *Service) GoogleAuthURL(state string) (string, error) {
	if s.google == nil {
		return "", errs.NewInvalidInputError("google sign-in is not configured")
	}
	return s.google.AuthURL(state), nil
}

// ChangePassword re-checks the current password before storing the new one.
func (s *Service) ChangePassword(ctx context.Context, uid uuid.UUID, current, next string) error {
	if len(next) < minPasswordLength {
		return errs.NewInvalidFieldError("newPassword", "password must be at least 6 characters")
	}
	cred, err := s.creds.FindByID(ctx, uid)
	if err != nil {
		return err
	}
	if len(cred.PasswordHash) == 0 {
		return errs.NewInvalidInputError("account has no password credential")
	}
	if bcrypt.CompareHashAndPassword(cred.PasswordHash, []byte(current)) != nil {
		return errs.NewPermissionDeniedError("current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return errs.NewInternalErrorWithCause("failed to hash password", err)
	}
	if err := s.creds.UpdatePassword(ctx, uid, hash); err != nil {
		s.logger.Error().Err(err).Str("uid", uid.String()).Msg("password change failed")
		return err
	}
	return nil
}

func (s *Service) issue(identity *Identity) (*Identity, string, error) {
	token, err := s.tokens.Issue(identity)
	if err != nil {
		return nil, "", err
	}
	return identity, token, nil
}

func (s *Service) fireCreated(ctx context.Context, identity *Identity) {
	for _, hook := range s.onCreate {
		hook(ctx, identity)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
