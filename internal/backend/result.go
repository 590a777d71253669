package backend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind classifies why a backend call failed.
type ErrorKind string

// Failure kinds. KindNone marks a successful call.
const (
	KindNone         ErrorKind = ""
	KindTransport    ErrorKind = "transport"
	KindStatus       ErrorKind = "status"
	KindMalformed    ErrorKind = "malformed"
	KindUnauthorized ErrorKind = "unauthorized"
	KindForbidden    ErrorKind = "forbidden"
	KindNotFound     ErrorKind = "not_found"
)

// Sentinel errors matched by errors.Is against *Error.
var (
	ErrTransport    = errors.New("backend: transport failure")
	ErrStatus       = errors.New("backend: unexpected status")
	ErrMalformed    = errors.New("backend: malformed response")
	ErrUnauthorized = errors.New("backend: unauthorized")
	ErrForbidden    = errors.New("backend: forbidden")
	ErrNotFound     = errors.New("backend: not found")
)

// Error is returned by typed wrappers when a call fails.
type Error struct {
	Op      string
	Kind    ErrorKind
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("backend %s: %s (%d): %s", e.Op, e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("backend %s: %s: %s", e.Op, e.Kind, e.Message)
}

// Is maps the kind onto the package sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrStatus:
		return e.Kind == KindStatus
	case ErrMalformed:
		return e.Kind == KindMalformed
	case ErrUnauthorized:
		return e.Kind == KindUnauthorized
	case ErrForbidden:
		return e.Kind == KindForbidden
	case ErrNotFound:
		return e.Kind == KindNotFound
	}
	return false
}

// Message returns a message safe to show to staff users.
func Message(err error) string {
	var be *Error
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	if err == nil {
		return ""
	}
	return "Something went wrong, please try again"
}

// Result is the uniform outcome of a backend call.
type Result struct {
	Op      string
	Success bool
	Status  int
	Data    json.RawMessage
	Error   string
	Message string
	Kind    ErrorKind
}

// Err converts a failed result into an *Error, or nil on success.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	return &Error{Op: r.Op, Kind: r.Kind, Status: r.Status, Message: r.Error}
}

func failure(op string, kind ErrorKind, status int, message string) Result {
	return Result{Op: op, Success: false, Status: status, Kind: kind, Error: message}
}

// Decode unmarshals the record found in the body into dest. The keys name
// the wrapper fields to look for, e.g. "user" matches {data:{user:..}} and
// {user:..}. When no key matches, {data:..} and then the bare body are used.
func (r Result) Decode(dest any, keys ...string) error {
	if err := r.Err(); err != nil {
		return err
	}
	if len(bytes.TrimSpace(r.Data)) == 0 {
		return nil
	}
	var root any
	if err := json.Unmarshal(r.Data, &root); err != nil {
		return r.malformed()
	}
	target := unwrapRecord(root, keys)
	raw, err := json.Marshal(target)
	if err != nil {
		return r.malformed()
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return r.malformed()
	}
	if n, ok := dest.(normalizer); ok {
		n.normalize()
	}
	return nil
}

// DecodeList unmarshals a list found as a bare array or under any of the
// keys, and reports the total when the body carries one.
func DecodeList[T any](r Result, keys ...string) ([]T, int, error) {
	if err := r.Err(); err != nil {
		return nil, 0, err
	}
	if len(bytes.TrimSpace(r.Data)) == 0 {
		return []T{}, 0, nil
	}
	var root any
	if err := json.Unmarshal(r.Data, &root); err != nil {
		return nil, 0, r.malformed()
	}
	arr, ok := findArray(root, keys)
	if !ok {
		return nil, 0, r.malformed()
	}
	raw, err := json.Marshal(arr)
	if err != nil {
		return nil, 0, r.malformed()
	}
	items := make([]T, 0, len(arr))
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, 0, r.malformed()
	}
	for i := range items {
		if n, ok := any(&items[i]).(normalizer); ok {
			n.normalize()
		}
	}
	total, found := findTotal(root)
	if !found {
		total = len(items)
	}
	return items, total, nil
}

func (r Result) malformed() error {
	return &Error{Op: r.Op, Kind: KindMalformed, Status: r.Status, Message: "Unexpected response from server"}
}

type normalizer interface {
	normalize()
}

func unwrapRecord(root any, keys []string) any {
	obj, ok := root.(map[string]any)
	if !ok {
		return root
	}
	if data, ok := obj["data"].(map[string]any); ok {
		for _, key := range keys {
			if inner, ok := data[key]; ok && inner != nil {
				return inner
			}
		}
	}
	for _, key := range keys {
		if inner, ok := obj[key]; ok && inner != nil {
			return inner
		}
	}
	if data, ok := obj["data"]; ok && data != nil {
		return data
	}
	return obj
}

var listKeys = []string{"items", "results", "rows", "records"}

func findArray(root any, keys []string) ([]any, bool) {
	switch v := root.(type) {
	case []any:
		return v, true
	case map[string]any:
		candidates := append(append([]string{}, keys...), listKeys...)
		for _, key := range candidates {
			if arr, ok := v[key].([]any); ok {
				return arr, true
			}
		}
		if data, ok := v["data"]; ok {
			return findArray(data, keys)
		}
	}
	return nil, false
}

var totalKeys = []string{"total", "count", "totalCount", "total_count"}

func findTotal(root any) (int, bool) {
	obj, ok := root.(map[string]any)
	if !ok {
		return 0, false
	}
	for _, key := range totalKeys {
		if n, ok := obj[key].(float64); ok {
			return int(n), true
		}
	}
	for _, nested := range []string{"meta", "pagination", "data"} {
		if inner, ok := obj[nested].(map[string]any); ok {
			if n, ok := findTotal(inner); ok {
				return n, true
			}
		}
	}
	return 0, false
}

// messageFrom extracts a human message from an error or success body.
func messageFrom(body []byte, keys ...string) string {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return ""
	}
	if len(keys) == 0 {
		keys = []string{"message", "error", "detail"}
	}
	for _, key := range keys {
		switch v := obj[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case map[string]any:
			if s, ok := v["message"].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func kindForStatus(status int) ErrorKind {
	switch status {
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	default:
		return KindStatus
	}
}
