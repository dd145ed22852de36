package tokenstore

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/authd/internal/apperrors"
	"github.com/nkiryanov/authd/internal/duration"
	"github.com/nkiryanov/authd/internal/models"
	"github.com/nkiryanov/authd/internal/repository/postgres"
	"github.com/nkiryanov/authd/internal/testutil"
)

func TestStore_New(t *testing.T) {
	t.Parallel()

	repo := &postgres.RefreshTokenRepo{}

	t.Run("ok", func(t *testing.T) {
		store, err := New("secret", "7d", repo)

		require.NoError(t, err)
		assert.NotNil(t, store)
	})

	t.Run("empty secret", func(t *testing.T) {
		_, err := New("", "7d", repo)

		assert.Error(t, err)
	})

	t.Run("nil repo", func(t *testing.T) {
		_, err := New("secret", "7d", nil)

		assert.Error(t, err)
	})
}

func TestStore_Digest(t *testing.T) {
	t.Parallel()

	repo := &postgres.RefreshTokenRepo{}

	store, err := New("secret-one", "7d", repo)
	require.NoError(t, err)

	otherSecret, err := New("secret-two", "7d", repo)
	require.NoError(t, err)

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, store.Digest("token"), store.Digest("token"))
	})

	t.Run("hex encoded sha256 size", func(t *testing.T) {
		assert.Len(t, store.Digest("token"), 64)
	})

	t.Run("differs by token", func(t *testing.T) {
		assert.NotEqual(t, store.Digest("token"), store.Digest("other-token"))
	})

	t.Run("differs by secret", func(t *testing.T) {
		assert.NotEqual(t, store.Digest("token"), otherSecret.Digest("token"))
	})

	t.Run("raw token never stored verbatim", func(t *testing.T) {
		assert.NotContains(t, store.Digest("raw-token-value"), "raw-token-value")
	})
}

func TestStore_Postgres(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	createUser := func(t *testing.T, tx pgx.Tx) models.User {
		t.Helper()

		users := postgres.UserRepo{DB: tx}
		user, err := users.CreateUser(t.Context(), uuid.NewString()+"@example.com", "hashedpassword123")
		require.NoError(t, err)
		return user
	}

	t.Run("save and find", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			store, err := New("secret", "7d", &postgres.RefreshTokenRepo{DB: tx})
			require.NoError(t, err)
			user := createUser(t, tx)

			saved, err := store.Save(t.Context(), user.ID, "raw-refresh-token", Meta{IP: "192.0.2.1", DeviceInfo: "cli/1.0"})
			require.NoError(t, err)

			assert.Equal(t, user.ID, saved.UserID)
			assert.Equal(t, store.Digest("raw-refresh-token"), saved.TokenHash)
			assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), saved.ExpiresAt, time.Minute)
			require.NotNil(t, saved.CreatedByIP)
			assert.Equal(t, "192.0.2.1", *saved.CreatedByIP)

			found, err := store.Find(t.Context(), "raw-refresh-token")
			require.NoError(t, err)
			assert.Equal(t, saved.ID, found.ID)
		})
	})

	t.Run("save with empty meta stores nulls", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			store, err := New("secret", "1h", &postgres.RefreshTokenRepo{DB: tx})
			require.NoError(t, err)
			user := createUser(t, tx)

			saved, err := store.Save(t.Context(), user.ID, "raw-refresh-token", Meta{})

			require.NoError(t, err)
			assert.Nil(t, saved.CreatedByIP)
			assert.Nil(t, saved.DeviceInfo)
		})
	})

	t.Run("save fails on malformed lifetime", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			store, err := New("secret", "1w", &postgres.RefreshTokenRepo{DB: tx})
			require.NoError(t, err)
			user := createUser(t, tx)

			_, err = store.Save(t.Context(), user.ID, "raw-refresh-token", Meta{})

			assert.Error(t, err)
			assert.True(t, apperrors.IsKind(err, apperrors.KindBadRequest))
			assert.ErrorIs(t, err, duration.ErrInvalidDuration)
		})
	})

	t.Run("find unknown token", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			store, err := New("secret", "7d", &postgres.RefreshTokenRepo{DB: tx})
			require.NoError(t, err)

			_, err = store.Find(t.Context(), "never-issued")

			assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
		})
	})

	t.Run("revoke and revoke again", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			store, err := New("secret", "7d", &postgres.RefreshTokenRepo{DB: tx})
			require.NoError(t, err)
			user := createUser(t, tx)

			saved, err := store.Save(t.Context(), user.ID, "raw-refresh-token", Meta{})
			require.NoError(t, err)

			require.NoError(t, store.Revoke(t.Context(), saved))

			found, err := store.Find(t.Context(), "raw-refresh-token")
			require.NoError(t, err)
			assert.True(t, found.Revoked)

			// Second revoke sees the already revoked record and does nothing
			assert.NoError(t, store.Revoke(t.Context(), found))
		})
	})

	t.Run("delete removes the record", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			store, err := New("secret", "7d", &postgres.RefreshTokenRepo{DB: tx})
			require.NoError(t, err)
			user := createUser(t, tx)

			saved, err := store.Save(t.Context(), user.ID, "raw-refresh-token", Meta{})
			require.NoError(t, err)

			require.NoError(t, store.Delete(t.Context(), saved))

			_, err = store.Find(t.Context(), "raw-refresh-token")
			assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
		})
	})
}
