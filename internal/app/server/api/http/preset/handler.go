package preset

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"hydrosync/internal/app/server/api/http/middleware/auth"
	"hydrosync/internal/domain/preset"
)

type Handler struct {
	service    preset.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service preset.Servicer, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.listOp(), h.list)
	huma.Register(api, h.upsertOp(), h.upsert)
	huma.Register(api, h.deleteOp(), h.delete)
}

func (h *Handler) list(ctx context.Context, _ *struct{}) (*listOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	rows, err := h.service.List(ctx, userID)
	if err != nil {
		h.log.Error("list presets", "error", err, "user_id", userID)
		return nil, huma.Error500InternalServerError("list failed")
	}
	return &listOutput{Body: ListResponse{Rows: rows, Status: "Ok"}}, nil
}

func (h *Handler) upsert(ctx context.Context, input *upsertInput) (*mutationOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	n, err := h.service.Upsert(ctx, userID, input.Body.Rows)
	if err != nil {
		status := http.StatusInternalServerError
		msg := "internal error"
		switch {
		case errors.Is(err, preset.ErrInvalidPreset):
			status, msg = http.StatusBadRequest, err.Error()
		case errors.Is(err, preset.ErrForeignPreset):
			status, msg = http.StatusForbidden, err.Error()
		default:
			h.log.Error("upsert presets", "error", err, "user_id", userID)
		}
		return &mutationOutput{Status: status, Body: MutationResponse{Status: "Error", Error: msg}}, nil
	}
	return &mutationOutput{Status: http.StatusOK, Body: MutationResponse{Count: n, Status: "Ok"}}, nil
}

func (h *Handler) delete(ctx context.Context, input *deleteInput) (*mutationOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	n, err := h.service.Delete(ctx, userID, input.Body.IDs)
	if err != nil {
		h.log.Error("delete presets", "error", err, "user_id", userID)
		return &mutationOutput{Status: http.StatusInternalServerError, Body: MutationResponse{Status: "Error", Error: "internal error"}}, nil
	}
	return &mutationOutput{Status: http.StatusOK, Body: MutationResponse{Count: n, Status: "Ok"}}, nil
}
