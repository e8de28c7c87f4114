package preset

import (
	"hydrosync/internal/domain/hydration"
	"hydrosync/internal/domain/preset"
)

type listOutput struct {
	Body ListResponse
}

type ListResponse struct {
	Rows   []hydration.PresetRow `json:"rows"`
	Status string                `json:"status"`
	Error  string                `json:"error,omitempty"`
}

type upsertInput struct {
	Body preset.UpsertRequest
}

type deleteInput struct {
	Body preset.DeleteRequest
}

type mutationOutput struct {
	Status int
	Body   MutationResponse
}

type MutationResponse struct {
	Count  int    `json:"count"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
