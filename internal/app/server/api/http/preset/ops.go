package preset

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) listOp() huma.Operation {
	return huma.Operation{
		OperationID: "presets-list",
		Method:      http.MethodGet,
		Path:        "/api/v1/presets",
		Summary:     "Пресеты пользователя",
		Tags:        []string{"presets"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) upsertOp() huma.Operation {
	return huma.Operation{
		OperationID: "presets-upsert",
		Method:      http.MethodPost,
		Path:        "/api/v1/presets/upsert",
		Summary:     "Запись пакета пресетов по id",
		Tags:        []string{"presets"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) deleteOp() huma.Operation {
	return huma.Operation{
		OperationID: "presets-delete",
		Method:      http.MethodPost,
		Path:        "/api/v1/presets/delete",
		Summary:     "Удаление пакета пресетов по id",
		Tags:        []string{"presets"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}
