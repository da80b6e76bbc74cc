package protocol

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// MaxFrameBytes bounds one serialized message line. Execute batches carry
// embedded JSON documents but never bulk payloads, so 4 MiB is generous.
const MaxFrameBytes = 4 << 20

// WriteRequest frames req as one newline-terminated JSON line on w.
func WriteRequest(w io.Writer, req Request) error {
	return writeLine(w, req)
}

// WriteResponse frames resp as one newline-terminated JSON line on w.
func WriteResponse(w io.Writer, resp Response) error {
	return writeLine(w, resp)
}

// ReadRequest buffers bytes from r until one newline and decodes the frame.
func ReadRequest(r *bufio.Reader) (Request, error) {
	line, err := readLine(r)
	if err != nil {
		return Request{}, err
	}
	var req Request
	if err := decodeStrict(line, &req); err != nil {
		return Request{}, fmt.Errorf("%w: %s", ErrMalformedFrame, err)
	}
	return req, nil
}

// ReadResponse buffers bytes from r until one newline and decodes the frame.
func ReadResponse(r *bufio.Reader) (Response, error) {
	line, err := readLine(r)
	if err != nil {
		return Response{}, err
	}
	var resp Response
	if err := decodeStrict(line, &resp); err != nil {
		return Response{}, fmt.Errorf("%w: %s", ErrMalformedFrame, err)
	}
	return resp, nil
}

func writeLine(w io.Writer, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	payload = append(payload, '\n')
	_, err = w.Write(payload)
	return err
}

// readLine returns the bytes of one frame, newline excluded. Bytes after the
// newline are left unread; connections are single-shot so they are discarded
// when the connection closes.
func readLine(r *bufio.Reader) ([]byte, error) {
	var line []byte
	for {
		chunk, err := r.ReadSlice('\n')
		line = append(line, chunk...)
		if len(line) > MaxFrameBytes {
			return nil, ErrFrameTooLarge
		}
		if err == nil {
			return bytes.TrimRight(line, "\n"), nil
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		return nil, err
	}
}

// decodeStrict rejects non-JSON payloads; unknown envelope fields are
// tolerated for forward compatibility.
func decodeStrict(line []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(line))
	if err := dec.Decode(v); err != nil {
		return err
	}
	// Trailing non-whitespace after the document means the frame was not a
	// single JSON value.
	if dec.More() {
		return fmt.Errorf("trailing data after document")
	}
	return nil
}
