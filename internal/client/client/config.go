package client

import (
	"strings"
	"time"
)

// Attributes record what happened while serving a call.
type Attributes uint8

const (
	RequiredReauthentication Attributes = 1 << iota
	RequiredRetry
	ExceededRetryLimit
)

func (a Attributes) Has(flag Attributes) bool { return a&flag != 0 }

func (a Attributes) String() string {
	var parts []string
	if a.Has(RequiredReauthentication) {
		parts = append(parts, "required_reauthentication")
	}
	if a.Has(RequiredRetry) {
		parts = append(parts, "required_retry")
	}
	if a.Has(ExceededRetryLimit) {
		parts = append(parts, "exceeded_retry_limit")
	}
	return strings.Join(parts, "|")
}

// RequestConfig controls recovery for a single call. Retries applies to 5xx
// responses only.
type RequestConfig struct {
	Reauthenticate bool
	Retries        int
	RetryDelay     time.Duration
}

func DefaultRequestConfig() RequestConfig {
	return RequestConfig{Reauthenticate: true, Retries: 0, RetryDelay: 500 * time.Millisecond}
}

// CachePolicy selects how GET responses interact with the response cache.
type CachePolicy int

const (
	// UseProtocolCachePolicy bypasses the client cache entirely.
	UseProtocolCachePolicy CachePolicy = iota
	// ReturnCacheDataElseLoad serves a cached body when one exists.
	ReturnCacheDataElseLoad
	// ReloadIgnoringCache always loads and refreshes the cached body.
	ReloadIgnoringCache
)

// Result is the outcome of a call. StatusCode is zero when no response was
// received.
type Result[T any] struct {
	Value      T
	Err        error
	Attributes Attributes
	StatusCode int
}

func (r Result[T]) Unwrap() (T, error) { return r.Value, r.Err }
