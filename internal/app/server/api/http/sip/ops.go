package sip

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

var bearer = []map[string][]string{{"bearer": {}}}

func (h *Handler) listOp() huma.Operation {
	return huma.Operation{
		OperationID: "sips-list",
		Method:      http.MethodGet,
		Path:        "/api/v1/sips",
		Summary:     "Все строки пользователя",
		Tags:        []string{"sips"},
		Security:    bearer,
		Middlewares: h.middleware,
	}
}

func (h *Handler) upsertOp() huma.Operation {
	return huma.Operation{
		OperationID: "sips-upsert",
		Method:      http.MethodPost,
		Path:        "/api/v1/sips/upsert",
		Summary:     "Идемпотентная запись пакета строк по id",
		Tags:        []string{"sips"},
		Security:    bearer,
		Middlewares: h.middleware,
	}
}

func (h *Handler) deleteOp() huma.Operation {
	return huma.Operation{
		OperationID: "sips-delete",
		Method:      http.MethodPost,
		Path:        "/api/v1/sips/delete",
		Summary:     "Удаление пакета строк по id",
		Tags:        []string{"sips"},
		Security:    bearer,
		Middlewares: h.middleware,
	}
}

func (h *Handler) historyOp() huma.Operation {
	return huma.Operation{
		OperationID: "sips-history",
		Method:      http.MethodGet,
		Path:        "/api/v1/sips/history",
		Summary:     "Строки за диапазон дат",
		Tags:        []string{"sips"},
		Security:    bearer,
		Middlewares: h.middleware,
	}
}

func (h *Handler) changesOp() huma.Operation {
	return huma.Operation{
		OperationID: "sips-changes",
		Method:      http.MethodGet,
		Path:        "/api/v1/sips/changes",
		Summary:     "Поток изменений строк пользователя (SSE)",
		Tags:        []string{"sips"},
		Security:    bearer,
		Middlewares: h.streamMiddleware,
	}
}

func (h *Handler) garminOp() huma.Operation {
	return huma.Operation{
		OperationID: "sips-garmin-synced",
		Method:      http.MethodPost,
		Path:        "/api/v1/sips/{id}/garmin",
		Summary:     "Отметка о передаче строки во внешний сервис",
		Description: "Служебный вызов; требует заголовок x-api-key.",
		Tags:        []string{"sips", "service"},
		Middlewares: h.serviceMiddleware,
	}
}
