package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrEventExists  = errors.New("registry: event already registered")
	ErrEventNil     = errors.New("registry: event is nil")
	ErrInvalidEvent = errors.New("registry: invalid event definition")
	ErrUnknownEvent = errors.New("registry: unknown interactor event")
	ErrBadInput     = errors.New("registry: event input rejected")
)

// EventInfo is the externally visible description of one callable event.
type EventInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Handler executes one event against the worker's controlled session. The
// returned value must be JSON-serializable; it becomes the event's result
// document in the execute response.
type Handler func(ctx context.Context, input json.RawMessage) (any, error)

// Validator checks an event's input document before execution. A nil
// validator accepts any JSON object.
type Validator func(input json.RawMessage) error

// Event pairs an input shape check with an async handler under one name.
type Event struct {
	Name        string
	Description string
	Validate    Validator
	Handle      Handler
}

// Registry stores events by name. Lookup happens once per request; input
// validation is explicit and always precedes invocation.
type Registry struct {
	items map[string]Event
}

// New creates an empty event registry.
func New() *Registry {
	return &Registry{items: make(map[string]Event)}
}

// Register adds one event definition.
func (r *Registry) Register(ev Event) error {
	name := strings.TrimSpace(ev.Name)
	if name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidEvent)
	}
	if ev.Handle == nil {
		return fmt.Errorf("%w: %q has no handler", ErrInvalidEvent, name)
	}
	if _, ok := r.items[name]; ok {
		return fmt.Errorf("%w: %q", ErrEventExists, name)
	}
	ev.Name = name
	r.items[name] = ev
	return nil
}

// Resolve returns the event registered under name.
func (r *Registry) Resolve(name string) (Event, bool) {
	ev, ok := r.items[strings.TrimSpace(name)]
	return ev, ok
}

// ValidateInput checks raw input against the named event's shape. Unknown
// event names fail with an error naming the event.
func (r *Registry) ValidateInput(name string, input json.RawMessage) error {
	ev, ok := r.Resolve(name)
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownEvent, name)
	}
	if !json.Valid(input) {
		return fmt.Errorf("%w: %q input is not valid JSON", ErrBadInput, name)
	}
	if ev.Validate == nil {
		return nil
	}
	if err := ev.Validate(input); err != nil {
		return fmt.Errorf("%w: %q: %s", ErrBadInput, name, err)
	}
	return nil
}

// Execute validates then runs the named event.
func (r *Registry) Execute(ctx context.Context, name string, input json.RawMessage) (any, error) {
	if err := r.ValidateInput(name, input); err != nil {
		return nil, err
	}
	ev, _ := r.Resolve(name)
	return ev.Handle(ctx, input)
}

// List returns every event description in deterministic name order.
func (r *Registry) List() []EventInfo {
	list := make([]EventInfo, 0, len(r.items))
	for _, ev := range r.items {
		list = append(list, EventInfo{Name: ev.Name, Description: ev.Description})
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	return list
}

// Search returns events whose name or description contains the keyword,
// case-insensitive, in deterministic name order. An empty keyword lists all.
func (r *Registry) Search(keyword string) []EventInfo {
	needle := strings.ToLower(strings.TrimSpace(keyword))
	if needle == "" {
		return r.List()
	}
	var list []EventInfo
	for _, ev := range r.items {
		if strings.Contains(strings.ToLower(ev.Name), needle) ||
			strings.Contains(strings.ToLower(ev.Description), needle) {
			list = append(list, EventInfo{Name: ev.Name, Description: ev.Description})
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	return list
}
