package sip

import (
	"hydrosync/internal/domain/hydration"
	"hydrosync/internal/domain/sip"
)

type listOutput struct {
	Body ListResponse
}

type ListResponse struct {
	Rows   []hydration.SipRow `json:"rows"`
	Status string             `json:"status"`
	Error  string             `json:"error,omitempty"`
}

type upsertInput struct {
	Body sip.UpsertRequest
}

type deleteInput struct {
	Body sip.DeleteRequest
}

type mutationOutput struct {
	Status int
	Body   MutationResponse
}

// MutationResponse Count - число фактически записанных (или удаленных) строк
type MutationResponse struct {
	Count  int    `json:"count"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type historyInput struct {
	StartDate string `query:"start_date" doc:"UTC date, YYYY-MM-DD"`
	EndDate   string `query:"end_date" doc:"UTC date, YYYY-MM-DD; defaults to start_date"`
}

type historyOutput struct {
	Status int
	Body   ListResponse
}

type garminInput struct {
	ID string `path:"id"`
}

type garminOutput struct {
	Status int
	Body   GarminResponse
}

type GarminResponse struct {
	Row    *hydration.SipRow `json:"row,omitempty"`
	Status string            `json:"status"`
	Error  string            `json:"error,omitempty"`
}

// pingEvent поддерживает SSE-соединение через прокси
type pingEvent struct {
	Time int64 `json:"time"`
}
