package services

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// ProgressEvent is one raw progress payload from the push stream or a
// decoded polling response. CurrentPhase is either a human-readable label
// (older protocol) or a JSON-encoded stats object (current protocol); the
// interpreter decides which.
type ProgressEvent struct {
	Status          string  `json:"status"`
	Progress        float64 `json:"progress"`
	CurrentPhase    string  `json:"current_phase"`
	TotalAPIResults int     `json:"total_api_results"`
	TotalSentToLLM  int     `json:"total_sent_to_llm"`
	TotalRelevant   int     `json:"total_relevant"`
	ErrorMessage    string  `json:"error_message"`
	StreamError     string  `json:"error"`

	// Raw is the undecoded data payload, used for de-duplication upstream.
	Raw string `json:"-"`
}

// EventStream reads server-sent events from a progress stream.
//
// The backend emits single-JSON-object `data:` payloads and `: keepalive`
// comments; multi-line data segments are joined per the SSE framing rules.
type EventStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

// NewEventStream wraps an open response body in an SSE reader.
func NewEventStream(body io.ReadCloser) *EventStream {
	scanner := bufio.NewScanner(body)
	// Progress payloads carry the full keyword status map and can get large.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &EventStream{body: body, scanner: scanner}
}

// Next blocks until the next data event arrives and decodes it.
// Returns io.EOF when the server closes the stream.
func (s *EventStream) Next() (*ProgressEvent, error) {
	var data []string

	flush := func() (*ProgressEvent, error) {
		payload := strings.Join(data, "\n")
		var event ProgressEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			return nil, fmt.Errorf("malformed progress event: %w", err)
		}
		event.Raw = payload
		return &event, nil
	}

	for s.scanner.Scan() {
		line := s.scanner.Text()

		// Blank line terminates an event.
		if line == "" {
			if len(data) > 0 {
				return flush()
			}
			continue
		}

		// Comment lines (keepalives) are ignored.
		if strings.HasPrefix(line, ":") {
			continue
		}

		if value, ok := strings.CutPrefix(line, "data:"); ok {
			data = append(data, strings.TrimPrefix(value, " "))
		}
	}

	if err := s.scanner.Err(); err != nil {
		return nil, err
	}
	if len(data) > 0 {
		return flush()
	}
	return nil, io.EOF
}

// Close releases the underlying connection. Safe to call concurrently
// with a blocked Next, which then returns an error.
func (s *EventStream) Close() error {
	return s.body.Close()
}
