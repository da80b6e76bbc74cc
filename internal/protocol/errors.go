package protocol

import "errors"

var (
	ErrMalformedFrame  = errors.New("protocol: malformed frame")
	ErrInvalidEnvelope = errors.New("protocol: invalid envelope")
	ErrUnknownKind     = errors.New("protocol: unknown request kind")
	ErrEmptyBatch      = errors.New("protocol: execute batch requires at least one event")
	ErrFrameTooLarge   = errors.New("protocol: frame exceeds size limit")
)
