package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const maxErrorBody = 1 << 20

// APIError is a non-2xx response translated for display. Message comes from
// the backend's structured error body when one exists.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed (%d)", e.Status)
}

// NewAPIError drains res and extracts the error.message field from a JSON
// body, falling back to a generic message. The response body is closed.
func NewAPIError(res *http.Response) *APIError {
	defer res.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
	return apiErrorFromBody(res.StatusCode, body)
}

func apiErrorFromBody(status int, body []byte) *APIError {
	var wire struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &wire); err == nil {
		if wire.Error.Message != "" {
			return &APIError{Status: status, Message: wire.Error.Message}
		}
		if wire.Message != "" {
			return &APIError{Status: status, Message: wire.Message}
		}
	}
	return &APIError{Status: status}
}

// DecodeEnvelope reads the response body, closing it, and unwraps the
// optional {"data": ...} envelope some endpoints use. Non-2xx statuses become
// an *APIError.
func DecodeEnvelope(res *http.Response) (json.RawMessage, error) {
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, apiErrorFromBody(res.StatusCode, body)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return json.RawMessage("null"), nil
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil &&
		len(envelope.Data) > 0 && !bytes.Equal(bytes.TrimSpace(envelope.Data), []byte("null")) {
		return envelope.Data, nil
	}
	return body, nil
}

// DecodeInto is DecodeEnvelope plus unmarshalling into v.
func DecodeInto(res *http.Response, v any) error {
	raw, err := DecodeEnvelope(res)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
