package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var errMalformedEnvelope = errors.New("malformed response envelope")

// envelope is the {success, data, message} wrapper around every response.
// Failure bodies from the server also carry "error" and "details".
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
	Details json.RawMessage `json:"details"`
}

// decodeEnvelope parses body strictly: it must be a JSON object with a boolean
// success field.
func decodeEnvelope(body []byte) (*envelope, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errMalformedEnvelope
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", errMalformedEnvelope, err)
	}
	if env.Success == nil {
		return nil, fmt.Errorf("%w: missing success field", errMalformedEnvelope)
	}
	return &env, nil
}

// message returns the server-supplied failure message: message, then error.
func (e *envelope) message() string {
	if e.Message != "" {
		return e.Message
	}
	return rawText(e.Error)
}

func (e *envelope) details() string {
	return rawText(e.Details)
}

// rawText renders a JSON string as its value and any other JSON as compact text.
func rawText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// unmarshalData decodes the payload into out. A nil out discards it.
func (e *envelope) unmarshalData(out any) error {
	if out == nil || len(e.Data) == 0 || string(e.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(e.Data, out); err != nil {
		return fmt.Errorf("%w: data: %w", errMalformedEnvelope, err)
	}
	return nil
}
