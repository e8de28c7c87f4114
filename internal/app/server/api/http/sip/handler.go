package sip

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"golang.org/x/exp/slog"

	"hydrosync/internal/app/server/api/http/middleware/auth"
	"hydrosync/internal/domain/hydration"
	"hydrosync/internal/domain/realtime"
	"hydrosync/internal/domain/sip"
)

const pingInterval = 25 * time.Second

// Subscriber источник уведомлений об изменениях
type Subscriber interface {
	Subscribe(userID string) *realtime.Subscription
}

// Middlewares цепочки для групп операций
type Middlewares struct {
	Default huma.Middlewares
	Stream  huma.Middlewares
	Service huma.Middlewares
}

type Handler struct {
	service           sip.Servicer
	hub               Subscriber
	log               *slog.Logger
	middleware        huma.Middlewares
	streamMiddleware  huma.Middlewares
	serviceMiddleware huma.Middlewares
	pingInterval      time.Duration
}

func NewHandler(service sip.Servicer, hub Subscriber, log *slog.Logger, mws Middlewares) *Handler {
	return &Handler{
		service:           service,
		hub:               hub,
		log:               log,
		middleware:        mws.Default,
		streamMiddleware:  mws.Stream,
		serviceMiddleware: mws.Service,
		pingInterval:      pingInterval,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.listOp(), h.list)
	huma.Register(api, h.upsertOp(), h.upsert)
	huma.Register(api, h.deleteOp(), h.delete)
	huma.Register(api, h.historyOp(), h.history)
	huma.Register(api, h.garminOp(), h.garmin)

	sse.Register(api, h.changesOp(), map[string]any{
		"change": hydration.Change{},
		"ping":   pingEvent{},
	}, h.changes)
}

func (h *Handler) list(ctx context.Context, _ *struct{}) (*listOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	rows, err := h.service.List(ctx, userID)
	if err != nil {
		h.log.Error("list sips", "error", err, "user_id", userID)
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
		return h.mutationError(err, userID), nil
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
		return h.mutationError(err, userID), nil
	}
	return &mutationOutput{Status: http.StatusOK, Body: MutationResponse{Count: n, Status: "Ok"}}, nil
}

func (h *Handler) mutationError(err error, userID string) *mutationOutput {
	status := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.Is(err, sip.ErrInvalidRow), errors.Is(err, sip.ErrBatchTooBig):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, sip.ErrForeignRow):
		status, msg = http.StatusForbidden, err.Error()
	default:
		h.log.Error("sip mutation", "error", err, "user_id", userID)
	}
	return &mutationOutput{Status: status, Body: MutationResponse{Status: "Error", Error: msg}}
}

func (h *Handler) history(ctx context.Context, input *historyInput) (*historyOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	rows, err := h.service.History(ctx, userID, input.StartDate, input.EndDate)
	if err != nil {
		if errors.Is(err, sip.ErrInvalidRange) {
			return &historyOutput{Status: http.StatusBadRequest, Body: ListResponse{Status: "Error", Error: err.Error()}}, nil
		}
		h.log.Error("sip history", "error", err, "user_id", userID)
		return &historyOutput{Status: http.StatusInternalServerError, Body: ListResponse{Status: "Error", Error: "internal error"}}, nil
	}
	return &historyOutput{Status: http.StatusOK, Body: ListResponse{Rows: rows, Status: "Ok"}}, nil
}

func (h *Handler) garmin(ctx context.Context, input *garminInput) (*garminOutput, error) {
	row, err := h.service.MarkGarminSynced(ctx, input.ID)
	if err != nil {
		if errors.Is(err, sip.ErrNotFound) {
			return &garminOutput{Status: http.StatusNotFound, Body: GarminResponse{Status: "Error", Error: sip.ErrNotFound.Error()}}, nil
		}
		h.log.Error("mark garmin synced", "error", err, "id", input.ID)
		return &garminOutput{Status: http.StatusInternalServerError, Body: GarminResponse{Status: "Error", Error: "internal error"}}, nil
	}
	return &garminOutput{Status: http.StatusOK, Body: GarminResponse{Row: &row, Status: "Ok"}}, nil
}

// changes держит поток до отключения клиента. Если подписка закрыта хабом
// (клиент не успевал читать), поток завершается и клиент переподключается.
func (h *Handler) changes(ctx context.Context, _ *struct{}, send sse.Sender) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return
	}

	sub := h.hub.Subscribe(userID)
	defer sub.Close()

	log := h.log.With(slog.String("user_id", userID))
	log.Info("realtime subscriber connected")
	defer log.Info("realtime subscriber disconnected")

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	// первое событие сообщает клиенту, что подписка активна
	if err := send.Data(pingEvent{Time: time.Now().UnixMilli()}); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			if err := send.Data(pingEvent{Time: t.UnixMilli()}); err != nil {
				return
			}
		case change, ok := <-sub.C:
			if !ok {
				log.Warn("subscription dropped by hub")
				return
			}
			if err := send.Data(change); err != nil {
				log.Debug("send change", "error", err)
				return
			}
		}
	}
}
