package tokenstore

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/authd/internal/apperrors"
	"github.com/nkiryanov/authd/internal/duration"
	"github.com/nkiryanov/authd/internal/models"
	"github.com/nkiryanov/authd/internal/repository"
)

// Meta carries informational issuance metadata saved with the record
type Meta struct {
	IP         string
	DeviceInfo string
}

// Store persists digests of issued refresh tokens.
// The digest is keyed by the refresh secret: rotating the secret
// invalidates every stored digest at once.
type Store struct {
	secret []byte

	// Configured refresh lifetime like "7d"
	// Parsed on every save: a malformed value fails the save instead of
	// silently defaulting
	ttlSpec string

	repo repository.RefreshTokenRepo
}

func New(secret string, ttlSpec string, repo repository.RefreshTokenRepo) (*Store, error) {
	if secret == "" {
		return nil, errors.New("refresh token secret must not be empty")
	}
	if repo == nil {
		return nil, errors.New("refresh token repo must not be nil")
	}

	return &Store{
		secret:  []byte(secret),
		ttlSpec: ttlSpec,
		repo:    repo,
	}, nil
}

// Digest computes the keyed one-way transform stored instead of the raw token
func (s *Store) Digest(rawToken string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(rawToken))
	return hex.EncodeToString(mac.Sum(nil))
}

// Save computes digest and absolute expiry and writes a new record
func (s *Store) Save(ctx context.Context, userID uuid.UUID, rawToken string, meta Meta) (models.RefreshToken, error) {
	ttl, err := duration.Parse(s.ttlSpec)
	if err != nil {
		return models.RefreshToken{}, apperrors.Wrap(err, apperrors.KindBadRequest, "refresh token lifetime misconfigured")
	}

	now := time.Now().Truncate(time.Second)
	token := models.RefreshToken{
		ID:          uuid.New(),
		UserID:      userID,
		TokenHash:   s.Digest(rawToken),
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
		CreatedByIP: optional(meta.IP),
		DeviceInfo:  optional(meta.DeviceInfo),
		Revoked:     false,
	}

	saved, err := s.repo.Save(ctx, token)
	if err != nil {
		return saved, fmt.Errorf("error while saving refresh token. Err: %w", err)
	}

	return saved, nil
}

// Find returns the stored record for the raw token even if it revoked or expired
func (s *Store) Find(ctx context.Context, rawToken string) (models.RefreshToken, error) {
	return s.repo.GetByHash(ctx, s.Digest(rawToken))
}

// Revoke marks the record revoked
// Idempotent: revoking an already revoked record succeeds without a write
func (s *Store) Revoke(ctx context.Context, token models.RefreshToken) error {
	if token.Revoked {
		return nil
	}

	_, err := s.repo.Revoke(ctx, token.TokenHash)
	if err != nil {
		return fmt.Errorf("error while revoking refresh token. Err: %w", err)
	}

	return nil
}

// Delete removes the record for good
func (s *Store) Delete(ctx context.Context, token models.RefreshToken) error {
	return s.repo.Delete(ctx, token.ID)
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
