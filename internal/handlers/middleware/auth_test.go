package middleware

import (
	"context"
	"errors"
	"testing"

	"io"
	"net/http"
	"net/http/httptest"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/authd/internal/handlers/userctx"
	"github.com/nkiryanov/authd/internal/models"
)

// Allow to use a function as auth service
type authFunc func(ctx context.Context, accessToken string) (models.User, error)

func (f authFunc) Authenticate(ctx context.Context, accessToken string) (models.User, error) {
	return f(ctx, accessToken)
}

func TestAuthMiddleware(t *testing.T) {
	// Simple handler that try to get user from context
	// If ok write it email to response
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Must always be true cause middleware has to set user to context or write error to response
		user, ok := userctx.FromContext(r.Context())
		require.True(t, ok)

		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte(user.Email))
		require.NoError(t, err, "should write email to response")
	})

	get := func(t *testing.T, url string, authHeader string) (*http.Response, string) {
		t.Helper()

		req, err := http.NewRequest(http.MethodGet, url, nil)
		require.NoError(t, err)
		if authHeader != "" {
			req.Header.Set("Authorization", authHeader)
		}

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err, "should make request to test server")
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err, "should read response body")
		defer resp.Body.Close() // nolint:errcheck

		return resp, string(body)
	}

	t.Run("auth ok", func(t *testing.T) {
		var gotToken string

		middleware := AuthMiddleware(authFunc(func(ctx context.Context, accessToken string) (models.User, error) {
			gotToken = accessToken
			return models.User{Email: "nk@example.com"}, nil
		}))

		srv := httptest.NewServer(middleware(handler))
		defer srv.Close()

		resp, body := get(t, srv.URL+"/test", "Bearer valid-token")

		require.Equalf(t, http.StatusOK, resp.StatusCode, "should return status OK. Resp: %s", body)
		require.Equal(t, "nk@example.com", body, "should return email in response")
		require.Equal(t, "valid-token", gotToken, "should pass the token without the scheme prefix")
	})

	t.Run("auth fail", func(t *testing.T) {
		// Middleware that always fails
		middleware := AuthMiddleware(authFunc(func(ctx context.Context, accessToken string) (models.User, error) {
			return models.User{}, errors.New("nope")
		}))

		srv := httptest.NewServer(middleware(handler))
		defer srv.Close()

		resp, body := get(t, srv.URL+"/test", "Bearer bad-token")

		require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "should return status Unauthorized. Resp: %s", body)
		require.JSONEq(t,
			`{
				"error": "service_error",
				"message": "Unauthorized"
			}`,
			body,
		)
	})

	t.Run("missing or malformed header", func(t *testing.T) {
		// The service must not even be called without a bearer token
		middleware := AuthMiddleware(authFunc(func(ctx context.Context, accessToken string) (models.User, error) {
			t.Fatal("service should not be called")
			return models.User{}, nil
		}))

		srv := httptest.NewServer(middleware(handler))
		defer srv.Close()

		headers := []string{"", "Basic dXNlcjpwd2Q=", "Bearer", "Bearer ", "bearer lowercase-scheme"}

		for _, header := range headers {
			resp, body := get(t, srv.URL+"/test", header)

			require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "header %q: resp %s", header, body)
		}
	})
}
