package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/danmuck/pagectl/internal/registry"
	"github.com/danmuck/pagectl/internal/session"
)

// RegisterBuiltins installs the worker-local event set: target description,
// diagnostic buffer reads, and two control events used for wiring checks.
// The full interactor action surface registers elsewhere; these exist so a
// bare worker is still exercisable end to end.
func RegisterBuiltins(reg *registry.Registry, sess session.Session, console, errlog *Buffer) error {
	events := []registry.Event{
		{
			Name:        "page.describe",
			Description: "Describe the controlled target document.",
			Handle: func(ctx context.Context, input json.RawMessage) (any, error) {
				return sess.Target(), nil
			},
		},
		{
			Name:        "console.read",
			Description: "Read captured console messages, newest last.",
			Validate:    validateReadInput,
			Handle:      readBufferHandler(console),
		},
		{
			Name:        "errors.read",
			Description: "Read captured page errors, newest last.",
			Validate:    validateReadInput,
			Handle:      readBufferHandler(errlog),
		},
		{
			Name:        "control.echo",
			Description: "Return the input document unchanged.",
			Handle: func(ctx context.Context, input json.RawMessage) (any, error) {
				return input, nil
			},
		},
		{
			Name:        "control.wait",
			Description: "Hold the execute queue for durationMs milliseconds.",
			Validate:    validateWaitInput,
			Handle: func(ctx context.Context, input json.RawMessage) (any, error) {
				var in waitInput
				_ = json.Unmarshal(input, &in)
				select {
				case <-time.After(time.Duration(in.DurationMS) * time.Millisecond):
					return map[string]any{"waitedMs": in.DurationMS}, nil
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			},
		},
	}
	for _, ev := range events {
		if err := reg.Register(ev); err != nil {
			return err
		}
	}
	return nil
}

type readInput struct {
	Limit int `json:"limit"`
}

type waitInput struct {
	DurationMS int `json:"durationMs"`
}

func validateReadInput(input json.RawMessage) error {
	var in readInput
	if err := json.Unmarshal(input, &in); err != nil {
		return fmt.Errorf("expected {limit?: int}: %s", err)
	}
	if in.Limit < 0 {
		return fmt.Errorf("limit must be >= 0, got %d", in.Limit)
	}
	return nil
}

func validateWaitInput(input json.RawMessage) error {
	var in waitInput
	if err := json.Unmarshal(input, &in); err != nil {
		return fmt.Errorf("expected {durationMs: int}: %s", err)
	}
	if in.DurationMS < 0 {
		return fmt.Errorf("durationMs must be >= 0, got %d", in.DurationMS)
	}
	return nil
}

func readBufferHandler(buf *Buffer) registry.Handler {
	return func(ctx context.Context, input json.RawMessage) (any, error) {
		var in readInput
		_ = json.Unmarshal(input, &in)
		entries := buf.Snapshot(in.Limit)
		if entries == nil {
			entries = []BufferEntry{}
		}
		return entries, nil
	}
}
