package protocol

import (
	"fmt"
	"strings"
)

// Request kinds accepted by a worker.
const (
	KindInfo    = "info"
	KindEvents  = "events"
	KindExecute = "execute"
)

// The ok discriminant is the literal string "true"/"false" on the wire, not a
// JSON boolean. Preserved bit-for-bit for compatibility with existing clients.
const (
	OKTrue  = "true"
	OKFalse = "false"
)

// EventCall is one named event invocation inside an execute batch.
type EventCall struct {
	EventName string `json:"eventName"`
	InputJSON string `json:"inputJson,omitempty"`
}

// Request is the client->worker envelope, one JSON object per line.
type Request struct {
	ID     string      `json:"id"`
	Kind   string      `json:"kind"`
	Events []EventCall `json:"events,omitempty"`
}

// Response is the worker->client envelope. A response is success or failure,
// never both: OK=="true" carries DataJSON, OK=="false" carries Error.
type Response struct {
	ID       string `json:"id"`
	OK       string `json:"ok"`
	DataJSON string `json:"dataJson,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Validate enforces required request envelope fields and batch bounds.
func (r Request) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidEnvelope)
	}
	switch r.Kind {
	case KindInfo, KindEvents:
		return nil
	case KindExecute:
		if len(r.Events) == 0 {
			return ErrEmptyBatch
		}
		for i, call := range r.Events {
			if strings.TrimSpace(call.EventName) == "" {
				return fmt.Errorf("%w: events[%d] missing eventName", ErrInvalidEnvelope, i)
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, r.Kind)
	}
}

// Input returns the call's input document, defaulting to the empty object.
func (c EventCall) Input() string {
	if strings.TrimSpace(c.InputJSON) == "" {
		return "{}"
	}
	return c.InputJSON
}

// Success builds a success response for id carrying dataJSON ("null" when empty).
func Success(id, dataJSON string) Response {
	if strings.TrimSpace(dataJSON) == "" {
		dataJSON = "null"
	}
	return Response{ID: id, OK: OKTrue, DataJSON: dataJSON}
}

// Failure builds a failure response for id with a flat human-readable message.
func Failure(id, message string) Response {
	return Response{ID: id, OK: OKFalse, Error: message}
}

// Succeeded reports whether the response carries the success discriminant.
func (r Response) Succeeded() bool {
	return r.OK == OKTrue
}

// Data returns the success payload with the documented "null" default applied.
func (r Response) Data() string {
	if strings.TrimSpace(r.DataJSON) == "" {
		return "null"
	}
	return r.DataJSON
}
