package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/authd/internal/handlers/render"
	"github.com/nkiryanov/authd/internal/handlers/userctx"
)

func handleUserMe() http.Handler {
	type userData struct {
		ID    uuid.UUID `json:"id"`
		Email string    `json:"email"`
	}
	type response struct {
		User userData `json:"user"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		render.JSON(w, response{User: userData{ID: user.ID, Email: user.Email}})
	})
}
