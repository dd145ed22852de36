package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/nkiryanov/authd/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user
	// If user with the email exists already has to return conflict kind error
	CreateUser(ctx context.Context, email string, hashedPassword string) (models.User, error)

	// Get user by it's id or email
	// If user not found must return not found kind error
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}

// RefreshToken repository interface
type RefreshTokenRepo interface {
	// Save token record. Token hash is the uniqueness key
	Save(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error)

	// Return the record by token hash even if it revoked or expired
	// If no record exists must return not found kind error
	GetByHash(ctx context.Context, tokenHash string) (models.RefreshToken, error)

	// Set revoked to true. Revoked records are never un-revoked
	Revoke(ctx context.Context, tokenHash string) (models.RefreshToken, error)

	// Hard delete the record
	// Must return not found kind error if the row is already gone, so the
	// loser of a concurrent rotation race observes a failure
	Delete(ctx context.Context, id uuid.UUID) error
}

type Storage interface {
	User() UserRepo
	RefreshToken() RefreshTokenRepo

	// Run fn within single database transaction
	InTx(ctx context.Context, fn func(Storage) error) error
}
