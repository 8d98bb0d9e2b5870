package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// TransportError is any failure talking to the backend: network errors,
// timeouts, non-2xx replies and malformed bodies.
type TransportError struct {
	Endpoint   string
	StatusCode int    // 0 when no response was received
	Message    string // human-readable, best available
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Endpoint, e.Message)
}

func (e *TransportError) Unwrap() error { return e.Err }

func failure(endpoint string, err error) *TransportError {
	return &TransportError{Endpoint: endpoint, Message: err.Error(), Err: err}
}

func malformed(endpoint string, status int, reason string) *TransportError {
	return &TransportError{Endpoint: endpoint, StatusCode: status, Message: "malformed response: " + reason}
}

// errorBody covers the error shapes the backend produces: FastAPI's
// {"detail": ...} and the plain {"message": ...}.
type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message *string         `json:"message"`
}

// extractMessage picks the server detail, then message. The raw text is only
// used when the body is not a JSON object.
func extractMessage(body []byte, fallback string) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if msg := detailText(eb.Detail); msg != "" {
			return msg
		}
		if eb.Message != nil && strings.TrimSpace(*eb.Message) != "" {
			return *eb.Message
		}
		return fallback
	}
	if raw := strings.TrimSpace(string(body)); raw != "" && len(raw) <= 512 {
		return raw
	}
	return fallback
}

// detailText renders a detail field; validation errors arrive as arrays.
func detailText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return string(raw)
}
