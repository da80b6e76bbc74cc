package protocol

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestRequestValidateKinds(t *testing.T) {
	valid := []Request{
		{ID: "1", Kind: KindInfo},
		{ID: "2", Kind: KindEvents},
		{ID: "3", Kind: KindExecute, Events: []EventCall{{EventName: "page.describe"}}},
	}
	for _, req := range valid {
		if err := req.Validate(); err != nil {
			t.Fatalf("expected valid request %+v, got %v", req, err)
		}
	}
}

func TestRequestValidateUnknownKind(t *testing.T) {
	err := Request{ID: "1", Kind: "ping"}.Validate()
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestRequestValidateMissingID(t *testing.T) {
	err := Request{Kind: KindInfo}.Validate()
	if !errors.Is(err, ErrInvalidEnvelope) {
		t.Fatalf("expected ErrInvalidEnvelope, got %v", err)
	}
}

func TestRequestValidateEmptyBatch(t *testing.T) {
	err := Request{ID: "1", Kind: KindExecute}.Validate()
	if !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("expected ErrEmptyBatch, got %v", err)
	}
}

func TestRequestValidateBlankEventName(t *testing.T) {
	err := Request{ID: "1", Kind: KindExecute, Events: []EventCall{{EventName: "  "}}}.Validate()
	if !errors.Is(err, ErrInvalidEnvelope) {
		t.Fatalf("expected ErrInvalidEnvelope, got %v", err)
	}
}

func TestEventCallInputDefault(t *testing.T) {
	if got := (EventCall{EventName: "x"}).Input(); got != "{}" {
		t.Fatalf("expected empty-object default, got %q", got)
	}
	if got := (EventCall{EventName: "x", InputJSON: `{"a":1}`}).Input(); got != `{"a":1}` {
		t.Fatalf("input not preserved: %q", got)
	}
}

func TestResponseRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	in := Success("req-9", `{"value":42}`)
	if err := WriteResponse(&buf, in); err != nil {
		t.Fatalf("write response: %v", err)
	}
	out, err := ReadResponse(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	if out.ID != "req-9" || !out.Succeeded() || out.Data() != `{"value":42}` {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

// The ok discriminant must cross the wire as the literal string "true" or
// "false", never a JSON boolean.
func TestResponseOKIsStringOnWire(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResponse(&buf, Success("1", "")); err != nil {
		t.Fatalf("write response: %v", err)
	}
	line := buf.String()
	if !strings.Contains(line, `"ok":"true"`) {
		t.Fatalf("success discriminant not a string literal: %s", line)
	}

	buf.Reset()
	if err := WriteResponse(&buf, Failure("1", "boom")); err != nil {
		t.Fatalf("write response: %v", err)
	}
	line = buf.String()
	if !strings.Contains(line, `"ok":"false"`) {
		t.Fatalf("failure discriminant not a string literal: %s", line)
	}
}

func TestFailureRoundTripDiscriminant(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResponse(&buf, Failure("req-2", "no such event")); err != nil {
		t.Fatalf("write response: %v", err)
	}
	out, err := ReadResponse(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	if out.Succeeded() || out.Error != "no such event" || out.ID != "req-2" {
		t.Fatalf("failure round trip mismatch: %+v", out)
	}
}

func TestSuccessDataDefaultsToNull(t *testing.T) {
	resp := Success("1", "")
	if resp.DataJSON != "null" {
		t.Fatalf("expected null default, got %q", resp.DataJSON)
	}
}

func TestReadRequestMalformedJSON(t *testing.T) {
	_, err := ReadRequest(bufio.NewReader(strings.NewReader("not json\n")))
	if !errors.Is(err, ErrMalformedFrame) {
		t.Fatalf("expected ErrMalformedFrame, got %v", err)
	}
}

func TestReadRequestTrailingData(t *testing.T) {
	_, err := ReadRequest(bufio.NewReader(strings.NewReader(`{"id":"1","kind":"info"} {"x":1}` + "\n")))
	if !errors.Is(err, ErrMalformedFrame) {
		t.Fatalf("expected ErrMalformedFrame, got %v", err)
	}
}

func TestReadRequestParsesExactlyOneLine(t *testing.T) {
	r := bufio.NewReader(strings.NewReader(`{"id":"1","kind":"info"}` + "\n" + `{"id":"2","kind":"events"}` + "\n"))
	req, err := ReadRequest(r)
	if err != nil {
		t.Fatalf("read request: %v", err)
	}
	if req.ID != "1" || req.Kind != KindInfo {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestReadRequestFrameTooLarge(t *testing.T) {
	huge := `{"id":"1","kind":"execute","events":[{"eventName":"` + strings.Repeat("a", MaxFrameBytes) + `"}]}` + "\n"
	_, err := ReadRequest(bufio.NewReader(strings.NewReader(huge)))
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
}
