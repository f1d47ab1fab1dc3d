// Package client is the authenticated resource server: it turns catalog
// endpoints into HTTP requests against the feedback backend and decodes the
// responses.
//
// # Overview
//
// Hit and HitUpload are the only entry points. Each call:
//  1. fills the endpoint's path template (tenant and application ids come
//     from the server configuration unless overridden),
//  2. attaches the bearer token from the Authenticator and the SDK headers,
//  3. sends the request through a netx.Transport,
//  4. on 401 forces one reauthentication and retries once,
//  5. decodes the body into the caller's type (204 decodes as "{}").
//
// # Error Handling
//
// Calls never panic and never return a bare error: the outcome is a Result
// carrying the value or an error from the common taxonomy. Non-2xx
// responses surface as *common.NetworkError. A failed or repeated
// reauthentication surfaces as common.KindAuthenticationFailed.
//
// Concurrency & Contexts
//
// A Server is safe for concurrent use. Every call honours ctx cancellation,
// including retry back-off.
package client
