package user

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"hydrosync/internal/app/server/api/http/middleware/auth"
	"hydrosync/internal/domain/session"
	"hydrosync/internal/domain/user"
)

type Handler struct {
	service        user.Servicer
	session        session.Servicer
	log            *slog.Logger
	middleware     huma.Middlewares
	authMiddleware huma.Middlewares
}

// NewHandler принимает две цепочки: публичную (register/login) и с авторизацией (logout)
func NewHandler(service user.Servicer, session session.Servicer, log *slog.Logger, middleware, authMiddleware huma.Middlewares) *Handler {
	return &Handler{
		service:        service,
		session:        session,
		log:            log,
		middleware:     middleware,
		authMiddleware: authMiddleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.registerOp(), h.register)
	huma.Register(api, h.loginOp(), h.login)
	huma.Register(api, h.logoutOp(), h.logout)
}

func (h *Handler) register(ctx context.Context, input *registerInput) (*registerOutput, error) {
	userID, err := h.service.Register(ctx, input.Body.Login, input.Body.Password)
	if err != nil {
		status := http.StatusInternalServerError
		msg := "internal error"
		switch {
		case errors.Is(err, user.ErrInvalidInput):
			status, msg = http.StatusBadRequest, err.Error()
		case errors.Is(err, user.ErrLoginTaken):
			status, msg = http.StatusConflict, user.ErrLoginTaken.Error()
		default:
			h.log.Error("register", "error", err)
		}
		return &registerOutput{
			Status: status,
			Body:   RegisterResponse{Status: "Error", Error: msg},
		}, nil
	}

	return &registerOutput{
		Status: http.StatusOK,
		Body:   RegisterResponse{ID: userID, Status: "Ok"},
	}, nil
}

func (h *Handler) login(ctx context.Context, input *loginInput) (*loginOutput, error) {
	u, err := h.service.Authenticate(ctx, input.Body.Login, input.Body.Password)
	if err != nil {
		if !errors.Is(err, user.ErrInvalidAuth) && !errors.Is(err, user.ErrNotFound) {
			h.log.Error("authenticate", "error", err)
		}
		return &loginOutput{
			Status: http.StatusUnauthorized,
			Body: LoginResponse{
				Status: "Error",
				Error:  "Invalid credentials",
			},
		}, nil
	}

	token, err := h.session.Create(ctx, u.ID)
	if err != nil {
		h.log.Error("create session", "error", err, "user_id", u.ID)
		return &loginOutput{
			Status: http.StatusInternalServerError,
			Body:   LoginResponse{Status: "Error", Error: "create session failed"},
		}, nil
	}

	return &loginOutput{
		Status: http.StatusOK,
		Body: LoginResponse{
			Token:  token,
			UserID: u.ID,
			Status: "Ok",
		},
	}, nil
}

func (h *Handler) logout(ctx context.Context, _ *struct{}) (*logoutOutput, error) {
	token, ok := auth.GetToken(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	if err := h.session.Revoke(ctx, token); err != nil {
		h.log.Error("revoke session", "error", err)
		return nil, huma.Error500InternalServerError("revoke session failed")
	}
	return &logoutOutput{Body: LogoutResponse{Status: "Ok"}}, nil
}
