package handlers

import (
	"context"
	"net/http"

	"github.com/nkiryanov/authd/internal/handlers/middleware"
	"github.com/nkiryanov/authd/internal/logger"
	"github.com/nkiryanov/authd/internal/models"
	"github.com/nkiryanov/authd/internal/service/auth/tokenstore"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(authService authService, l logger.Logger) http.Handler {
	withAuth := middleware.AuthMiddleware(authService)

	auth := http.NewServeMux()
	auth.Handle("/", NewAuth(authService, l).Handler())
	auth.Handle("GET /me", withAuth(handleUserMe()))

	root := http.NewServeMux()
	root.Handle("/auth/", http.StripPrefix("/auth", auth))

	return chain(root,
		middleware.LoggerMiddleware(l),
	)
}

type authService interface {
	// Register user with email and password
	// Has to fail with conflict kind if email is already taken
	Register(ctx context.Context, email string, password string, meta tokenstore.Meta) (models.User, models.TokenPair, error)

	// Login user with email and password
	// Has to fail with unauthorized kind on any credential mismatch
	Login(ctx context.Context, email string, password string, meta tokenstore.Meta) (models.TokenPair, error)

	// Refresh rotates the refresh token and returns a new pair
	Refresh(ctx context.Context, rawToken string, meta tokenstore.Meta) (models.TokenPair, error)

	// Revoke marks the refresh token revoked, idempotently
	Revoke(ctx context.Context, rawToken string) error

	// Authenticate verifies an access token and returns the user
	Authenticate(ctx context.Context, accessToken string) (models.User, error)
}
