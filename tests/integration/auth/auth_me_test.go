package auth

import (
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/authd/internal/service/auth/tokenstore"
	"github.com/nkiryanov/authd/internal/testutil"
	"github.com/nkiryanov/authd/tests/integration"
)

const (
	MeURL = "/auth/me"
)

func Test_AuthMe(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	getMe := func(t *testing.T, srvURL string, authHeader string) (*http.Response, string) {
		t.Helper()

		req, err := http.NewRequest(http.MethodGet, srvURL+MeURL, nil)
		require.NoError(t, err)
		if authHeader != "" {
			req.Header.Set("Authorization", authHeader)
		}

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		_ = resp.Body.Close()

		return resp, string(body)
	}

	t.Run("me ok", func(t *testing.T) {
		integration.RunTx(pg.Pool, t, func(srvURL string, s integration.Services) {
			user, pair, err := s.AuthService.Register(t.Context(), "nk@example.com", "StrongEnoughPassword", tokenstore.Meta{})
			require.NoError(t, err)

			resp, body := getMe(t, srvURL, "Bearer "+pair.Access.Value)

			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
			require.JSONEq(t, `
				{
					"user": {
						"id": "`+user.ID.String()+`",
						"email": "nk@example.com"
					}
				}`, body)
		})
	})

	t.Run("me without token", func(t *testing.T) {
		integration.RunTx(pg.Pool, t, func(srvURL string, _ integration.Services) {
			resp, body := getMe(t, srvURL, "")

			require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "not expected code. Body: %s", body)
		})
	})

	t.Run("me with refresh token fails", func(t *testing.T) {
		integration.RunTx(pg.Pool, t, func(srvURL string, s integration.Services) {
			_, pair, err := s.AuthService.Register(t.Context(), "nk@example.com", "StrongEnoughPassword", tokenstore.Meta{})
			require.NoError(t, err)

			resp, body := getMe(t, srvURL, "Bearer "+pair.Refresh.Value)

			require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "token classes must not be interchangeable. Body: %s", body)
		})
	})
}
