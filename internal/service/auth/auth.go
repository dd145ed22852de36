package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/authd/internal/apperrors"
	"github.com/nkiryanov/authd/internal/logger"
	"github.com/nkiryanov/authd/internal/models"
	"github.com/nkiryanov/authd/internal/repository"
	"github.com/nkiryanov/authd/internal/service/auth/signer"
	"github.com/nkiryanov/authd/internal/service/auth/tokenstore"
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

type Config struct {
	// Hasher to use during registration or login
	// BcryptHasher is used if not set
	Hasher PasswordHasher

	// Logger for best effort cleanup failures
	// No-op logger is used if not set
	Logger logger.Logger
}

// Service is the token lifecycle engine: registration, login, refresh
// rotation and revocation. Stateless, safe for concurrent use.
type Service struct {
	signer *signer.Signer
	tokens *tokenstore.Store
	hasher PasswordHasher

	userRepo repository.UserRepo

	logger logger.Logger
}

func NewService(cfg Config, signer *signer.Signer, tokens *tokenstore.Store, userRepo repository.UserRepo) (*Service, error) {
	if signer == nil || tokens == nil || userRepo == nil {
		return nil, errors.New("signer, token store and user repo must not be nil")
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = BcryptHasher{}
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	return &Service{
		signer:   signer,
		tokens:   tokens,
		hasher:   hasher,
		userRepo: userRepo,
		logger:   log,
	}, nil
}

// Register creates the user and issues the first token pair
// Fails with conflict kind if the email is already taken
func (s *Service) Register(ctx context.Context, email string, password string, meta tokenstore.Meta) (models.User, models.TokenPair, error) {
	var pair models.TokenPair

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, pair, apperrors.Wrap(err, apperrors.KindBadRequest, "can't use this as password")
	}

	user, err := s.userRepo.CreateUser(ctx, email, hash)
	if err != nil {
		return user, pair, err
	}

	pair, err = s.issue(ctx, user, meta)
	return user, pair, err
}

// Login verifies credentials and issues a fresh token pair.
// The error is the same for unknown email and wrong password, so callers
// can't probe which accounts exist. Earlier sessions stay valid: several
// concurrent sessions per user are allowed.
func (s *Service) Login(ctx context.Context, email string, password string, meta tokenstore.Meta) (models.TokenPair, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, email)
	switch {
	case apperrors.IsKind(err, apperrors.KindNotFound):
		return models.TokenPair{}, apperrors.Unauthorized("invalid credentials")
	case err != nil:
		// Storage failure, not a credential mismatch: surface it as is
		return models.TokenPair{}, fmt.Errorf("error while looking up user. Err: %w", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.TokenPair{}, apperrors.Unauthorized("invalid credentials")
	}

	return s.issue(ctx, user, meta)
}

// Refresh exchanges a valid refresh token for a new pair and rotates the
// stored record. A token refreshes exactly once: replays observe not found.
func (s *Service) Refresh(ctx context.Context, rawToken string, meta tokenstore.Meta) (models.TokenPair, error) {
	var pair models.TokenPair

	if rawToken == "" {
		return pair, apperrors.BadRequest("refresh token is required")
	}

	claims, err := s.signer.VerifyRefresh(rawToken)
	if err != nil {
		return pair, apperrors.Wrap(err, apperrors.KindUnauthorized, "invalid refresh token")
	}

	stored, err := s.tokens.Find(ctx, rawToken)
	if err != nil {
		return pair, apperrors.Wrap(err, apperrors.KindUnauthorized, "refresh token not found")
	}

	// Presenting a revoked token purges it: the replay window closes for good
	if stored.Revoked {
		s.cleanup(ctx, stored)
		return pair, apperrors.Unauthorized("refresh token revoked")
	}

	if stored.ExpiresAt.Before(time.Now()) {
		s.cleanup(ctx, stored)
		return pair, apperrors.Unauthorized("refresh token expired")
	}

	// Re-issue for the subject of the verified claims, same as issuance
	user := models.User{ID: claims.UserID, Email: claims.Email}

	// Delete old record before saving the new one. A crash in between
	// leaves the session logged out, never two valid tokens. The loser of
	// a concurrent rotation race fails here with not found.
	if err := s.tokens.Delete(ctx, stored); err != nil {
		return pair, apperrors.Wrap(err, apperrors.KindUnauthorized, "refresh token not found")
	}

	return s.issue(ctx, user, meta)
}

// Revoke marks the refresh token record revoked (logout)
// Idempotent: revoking twice succeeds without a write
func (s *Service) Revoke(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return apperrors.BadRequest("refresh token is required")
	}

	if _, err := s.signer.VerifyRefresh(rawToken); err != nil {
		return apperrors.Wrap(err, apperrors.KindUnauthorized, "invalid refresh token")
	}

	stored, err := s.tokens.Find(ctx, rawToken)
	if err != nil {
		return apperrors.Wrap(err, apperrors.KindUnauthorized, "refresh token not found")
	}

	if stored.Revoked {
		return nil
	}

	return s.tokens.Revoke(ctx, stored)
}

// Authenticate verifies an access token and returns the subject identity
func (s *Service) Authenticate(ctx context.Context, accessToken string) (models.User, error) {
	claims, err := s.signer.VerifyAccess(accessToken)
	if err != nil {
		return models.User{}, apperrors.Wrap(err, apperrors.KindUnauthorized, "invalid access token")
	}

	if claims.UserID == uuid.Nil || claims.Email == "" {
		return models.User{}, apperrors.Unauthorized("invalid token claims")
	}

	return models.User{ID: claims.UserID, Email: claims.Email}, nil
}

// issue signs a new pair and persists the refresh half digest
func (s *Service) issue(ctx context.Context, user models.User, meta tokenstore.Meta) (models.TokenPair, error) {
	pair, err := s.signer.IssuePair(user)
	if err != nil {
		return pair, fmt.Errorf("error while issuing token pair. Err: %w", err)
	}

	_, err = s.tokens.Save(ctx, user.ID, pair.Refresh.Value, meta)
	if err != nil {
		return pair, err
	}

	return pair, nil
}

// cleanup deletes a dead record, best effort: its failure must not mask
// the unauthorized error being raised
func (s *Service) cleanup(ctx context.Context, token models.RefreshToken) {
	if err := s.tokens.Delete(ctx, token); err != nil {
		s.logger.Warn("refresh token cleanup failed", "token_id", token.ID.String(), "error", err.Error())
	}
}
