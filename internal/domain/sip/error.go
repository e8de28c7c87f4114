package sip

import "errors"

var (
	ErrNotFound     = errors.New("sip not found")
	ErrInvalidRow   = errors.New("invalid sip row")
	ErrForeignRow   = errors.New("row belongs to another user")
	ErrBatchTooBig  = errors.New("batch too big")
	ErrInvalidRange = errors.New("invalid date range")
)
