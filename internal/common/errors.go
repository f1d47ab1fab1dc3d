package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Sentinel errors for flow control inside storage and services. Callers
// match them with errors.Is.
var (
	ErrorNotFound     = errors.New("not found")
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
)

// Kind classifies every error surfaced through the public API.
type Kind int

const (
	KindUnknown Kind = iota
	KindMessage
	KindNotInitialized
	KindUnauthenticated
	KindAuthenticationFailed
	KindNetwork
	KindAPI
	KindFileSystem
	KindJSON
	KindValidation
	KindSystem
)

func (k Kind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindNotInitialized:
		return "not_initialized"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindAuthenticationFailed:
		return "authentication_failed"
	case KindNetwork:
		return "network"
	case KindAPI:
		return "api"
	case KindFileSystem:
		return "file_system"
	case KindJSON:
		return "json"
	case KindValidation:
		return "validation"
	case KindSystem:
		return "system"
	default:
		return "unknown"
	}
}

// description is the generic user-facing text for a kind, used when no
// server-supplied message exists.
func (k Kind) description() string {
	switch k {
	case KindNotInitialized:
		return "The SDK has not been initialized."
	case KindUnauthenticated:
		return "This operation requires a currently authenticated user."
	case KindAuthenticationFailed:
		return "Invoking the authentication provider failed."
	case KindNetwork, KindAPI:
		return "A network error occurred."
	case KindFileSystem:
		return "A file system error occurred."
	case KindJSON:
		return "A JSON error occurred."
	case KindValidation:
		return "Validation failed."
	default:
		return "An unknown error occurred."
	}
}

// Error is the general carrier for all kinds except network and API errors,
// which have dedicated types.
type Error struct {
	Kind     Kind
	Message  string
	Path     string
	Failures map[string]string
	Err      error
}

func (e *Error) Error() string {
	if e.Kind == KindSystem && e.Err != nil {
		return e.Err.Error()
	}

	var b strings.Builder

	switch {
	case e.Message != "":
		b.WriteString(e.Message)
	default:
		b.WriteString(e.Kind.description())
	}

	if e.Path != "" {
		fmt.Fprintf(&b, " path: %s", e.Path)
	}
	for _, field := range sortedKeys(e.Failures) {
		fmt.Fprintf(&b, "\n%s: %s", field, e.Failures[field])
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}

	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports a match against another *Error of the same kind, so
// errors.Is(err, common.Unauthenticated()) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" || t == e
}

// NetworkError describes a non-success HTTP response.
type NetworkError struct {
	Method     string
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (e *NetworkError) Error() string {
	msg := serverMessage(e.Body)
	if msg == "" {
		msg = "server did not provide a message"
	}
	return fmt.Sprintf("%s status: %d request: %s %s message: %s (%d byte(s))",
		KindNetwork.description(), e.StatusCode, e.Method, e.URL, msg, len(e.Body))
}

// APIError is a structured error reported by the backend.
type APIError struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("an API error occurred. server provided message: %s", e.Message)
}

func Message(msg string) error { return &Error{Kind: KindMessage, Message: msg} }

func Messagef(format string, args ...any) error {
	return &Error{Kind: KindMessage, Message: fmt.Sprintf(format, args...)}
}

// Generic wraps err with a message; err may be nil.
func Generic(msg string, err error) error {
	return &Error{Kind: KindMessage, Message: msg, Err: err}
}

func NotInitialized() error { return &Error{Kind: KindNotInitialized} }

func Unauthenticated() error { return &Error{Kind: KindUnauthenticated} }

func AuthenticationFailed(msg string) error {
	return &Error{Kind: KindAuthenticationFailed, Message: msg}
}

func FileSystem(path, msg string) error {
	return &Error{Kind: KindFileSystem, Path: path, Message: msg}
}

func JSON(err error) error { return &Error{Kind: KindJSON, Err: err} }

func Validation(failures map[string]string) error {
	return &Error{Kind: KindValidation, Failures: failures}
}

func System(err error) error { return &Error{Kind: KindSystem, Err: err} }

func Unknown() error { return &Error{Kind: KindUnknown} }

// KindOf classifies any error. Errors from outside the taxonomy are system
// errors; nil is KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var ne *NetworkError
	if errors.As(err, &ne) {
		return KindNetwork
	}
	var ae *APIError
	if errors.As(err, &ae) {
		return KindAPI
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindSystem
}

// IsUnauthenticated reports whether err is a 401 network error.
func IsUnauthenticated(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne) && ne.StatusCode == http.StatusUnauthorized
}

// UserMessage renders err for display. A server-supplied message is returned
// verbatim; validation failures list every field; anything else falls back
// to the generic description of its kind.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var ae *APIError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}

	var ne *NetworkError
	if errors.As(err, &ne) {
		if msg := serverMessage(ne.Body); msg != "" {
			return msg
		}
		return KindNetwork.description()
	}

	var e *Error
	if errors.As(err, &e) {
		switch e.Kind {
		case KindValidation:
			lines := []string{e.Kind.description()}
			for _, field := range sortedKeys(e.Failures) {
				lines = append(lines, fmt.Sprintf("%s: %s", field, e.Failures[field]))
			}
			return strings.Join(lines, "\n")
		case KindMessage:
			if e.Message != "" {
				return e.Message
			}
		}
		return e.Kind.description()
	}

	return KindSystem.description()
}

func serverMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var resp APIError
	if err := json.Unmarshal(body, &resp); err != nil {
		return ""
	}
	return resp.Message
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
