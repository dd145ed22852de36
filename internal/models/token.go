package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is the stored record of an issued refresh token.
// Only the keyed digest of the raw token is persisted, never the raw value:
// a leaked table yields no usable tokens.
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time

	// Issuance metadata, informational only. Never used for authorization.
	CreatedByIP *string
	DeviceInfo  *string

	// Set once on logout, never flipped back
	Revoked bool
}

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// TokenPair issued by Signer on register, login and refresh
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
