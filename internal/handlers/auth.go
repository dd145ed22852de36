package handlers

import (
	"net"
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/authd/internal/apperrors"
	"github.com/nkiryanov/authd/internal/handlers/render"
	"github.com/nkiryanov/authd/internal/logger"
	"github.com/nkiryanov/authd/internal/service/auth/tokenstore"
)

type AuthHandler struct {
	authService authService
	logger      logger.Logger
}

func NewAuth(auth authService, l logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: auth,
		logger:      l,
	}
}

func (h *AuthHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", h.register)
	mux.HandleFunc("POST /login", h.login)
	mux.HandleFunc("POST /refresh", h.refresh)
	mux.HandleFunc("POST /logout", h.logout)

	return mux
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	type RegisterRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	type RegisterSuccessResponse struct {
		ID           uuid.UUID `json:"id"`
		Email        string    `json:"email"`
		AccessToken  string    `json:"accessToken"`
		RefreshToken string    `json:"refreshToken"`
	}

	data, err := render.BindAndValidate[RegisterRequest](w, r)
	if err != nil {
		return
	}

	user, pair, err := h.authService.Register(r.Context(), data.Email, data.Password, requestMeta(r))
	if err != nil {
		h.renderServiceError(w, err)
		return
	}

	render.JSONWithStatus(w, RegisterSuccessResponse{
		ID:           user.ID,
		Email:        user.Email,
		AccessToken:  pair.Access.Value,
		RefreshToken: pair.Refresh.Value,
	}, http.StatusCreated)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	type LoginRequest struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	type LoginSuccessResponse struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}

	data, err := render.BindAndValidate[LoginRequest](w, r)
	if err != nil {
		return
	}

	pair, err := h.authService.Login(r.Context(), data.Email, data.Password, requestMeta(r))
	if err != nil {
		h.renderServiceError(w, err)
		return
	}

	render.JSON(w, LoginSuccessResponse{
		AccessToken:  pair.Access.Value,
		RefreshToken: pair.Refresh.Value,
	})
}

func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	type RefreshRequest struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}
	type RefreshSuccessResponse struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}

	data, err := render.BindAndValidate[RefreshRequest](w, r)
	if err != nil {
		return
	}

	pair, err := h.authService.Refresh(r.Context(), data.RefreshToken, requestMeta(r))
	if err != nil {
		h.renderServiceError(w, err)
		return
	}

	render.JSON(w, RefreshSuccessResponse{
		AccessToken:  pair.Access.Value,
		RefreshToken: pair.Refresh.Value,
	})
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	type LogoutRequest struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}
	type LogoutSuccessResponse struct {
		Message string `json:"message"`
	}

	data, err := render.BindAndValidate[LogoutRequest](w, r)
	if err != nil {
		return
	}

	if err := h.authService.Revoke(r.Context(), data.RefreshToken); err != nil {
		h.renderServiceError(w, err)
		return
	}

	render.JSON(w, LogoutSuccessResponse{Message: "Logged out successfully"})
}

// renderServiceError maps the error kind to HTTP status. Internal and
// unclassified errors are logged and hidden behind a generic message.
func (h *AuthHandler) renderServiceError(w http.ResponseWriter, err error) {
	var status int

	switch apperrors.KindOf(err) {
	case apperrors.KindBadRequest:
		status = http.StatusBadRequest
	case apperrors.KindUnauthorized:
		status = http.StatusUnauthorized
	case apperrors.KindConflict:
		status = http.StatusConflict
	case apperrors.KindNotFound:
		status = http.StatusNotFound
	default:
		h.logger.Error("unhandled auth service error", "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.ServiceErrorDetails(w, apperrors.MessageOf(err), apperrors.DetailsOf(err), status)
}

// requestMeta extracts client metadata stored alongside refresh tokens
func requestMeta(r *http.Request) tokenstore.Meta {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}

	return tokenstore.Meta{
		IP:         ip,
		DeviceInfo: r.UserAgent(),
	}
}
