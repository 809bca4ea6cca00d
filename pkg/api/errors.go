package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrSessionExpired is returned by any authenticated call that came back 401.
// The client has already invoked its unauthorized handler by the time a caller
// sees this value, so the only sensible reaction is to return to login.
var ErrSessionExpired = errors.New("session expired")

// AuthError reports rejected credentials at login. It never triggers a
// session teardown; the login surface shows it inline.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// NotFoundError reports a profile id the backend does not know.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("profile %d not found", e.ID)
}

// APIError is any other non-2xx backend response, carrying the normalized
// detail message.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// decodeDetail extracts a single human-readable message from an error body.
// The backend reports failures as {"detail": ...} where detail may be a plain
// string, a list of field validation errors, or a structured object. All
// three shapes collapse to one string: lists are joined with ", " (preferring
// each entry's "msg" field), objects are rendered as their compact JSON text.
func decodeDetail(body []byte, fallback string) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return fallback
	}

	var s string
	if err := json.Unmarshal(envelope.Detail, &s); err == nil {
		return s
	}

	var list []json.RawMessage
	if err := json.Unmarshal(envelope.Detail, &list); err == nil {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			parts = append(parts, detailItem(item))
		}
		if len(parts) == 0 {
			return fallback
		}
		return strings.Join(parts, ", ")
	}

	return compactJSON(envelope.Detail)
}

func detailItem(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Msg != "" {
		return obj.Msg
	}
	return compactJSON(raw)
}

func compactJSON(raw json.RawMessage) string {
	var buf strings.Builder
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(json.RawMessage(raw)); err != nil {
		return string(raw)
	}
	return strings.TrimRight(buf.String(), "\n")
}
