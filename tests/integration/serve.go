package integration

import (
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/authd/internal/handlers"
	"github.com/nkiryanov/authd/internal/logger"
	"github.com/nkiryanov/authd/internal/repository/postgres"
	"github.com/nkiryanov/authd/internal/service/auth"
	"github.com/nkiryanov/authd/internal/service/auth/signer"
	"github.com/nkiryanov/authd/internal/service/auth/tokenstore"
	"github.com/nkiryanov/authd/internal/testutil"
)

type Services struct {
	AuthService *auth.Service
}

// Create db transaction and run server with that connection (one connection cause one transaction)
// The created transaction passed to inner function: so, you can safely use testutil.WithTx with it
func RunTx(dbpool *pgxpool.Pool, t *testing.T, fn func(srvURL string, services Services)) {
	testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
		// Initialize repositories
		userRepo := &postgres.UserRepo{DB: tx}
		refreshRepo := &postgres.RefreshTokenRepo{DB: tx}

		// Initialize services
		jwtSigner, err := signer.New(signer.Config{
			AccessSecret:  "test-access-secret",
			RefreshSecret: "test-refresh-secret",
		})
		require.NoError(t, err, "signer should be created without errors")

		tokens, err := tokenstore.New("test-refresh-secret", "7d", refreshRepo)
		require.NoError(t, err, "token store should be created without errors")

		as, err := auth.NewService(auth.Config{}, jwtSigner, tokens, userRepo)
		require.NoError(t, err, "auth service starting error")

		// Complete all together as router
		router := handlers.NewRouter(as, logger.NewNoOpLogger())

		// Run http server with the router in transaction
		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(srv.URL, Services{AuthService: as})
	})
}
