package sip

import "hydrosync/internal/domain/hydration"

type UpsertRequest struct {
	Rows []hydration.SipRow `json:"rows"`
}

type DeleteRequest struct {
	IDs []string `json:"ids"`
}
