package postgres

import (
	"context"
	"fmt"

	"github.com/nkiryanov/authd/internal/repository"
)

type Storage struct {
	db DBTX
}

func NewStorage(db DBTX) repository.Storage {
	return &Storage{db: db}
}

func (s *Storage) User() repository.UserRepo {
	return &UserRepo{DB: s.db}
}

func (s *Storage) RefreshToken() repository.RefreshTokenRepo {
	return &RefreshTokenRepo{DB: s.db}
}

func (s *Storage) InTx(ctx context.Context, fn func(repository.Storage) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("db tx error: %w", err)
	}

	// Rollback is a no-op after a successful commit, so the deferred call
	// covers fn errors and panics alike without ever committing half work
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(NewStorage(tx)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
