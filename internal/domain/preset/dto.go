package preset

import "hydrosync/internal/domain/hydration"

type UpsertRequest struct {
	Rows []hydration.PresetRow `json:"rows"`
}

type DeleteRequest struct {
	IDs []string `json:"ids"`
}
