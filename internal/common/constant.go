// Package common contains shared constants, helpers and the error taxonomy
// used across feedbackkit components.
package common

// AuthorizationHeaderName carries the bearer credential on outbound requests.
const AuthorizationHeaderName = "Authorization"

// HeaderPrefix is prepended to every SDK-specific request header.
const HeaderPrefix = "PARRA"

// Header names sent on every request.
const (
	HeaderPlatform      = HeaderPrefix + "-PLATFORM"
	HeaderPlatformAgent = HeaderPrefix + "-PLATFORM-AGENT"
	HeaderSDKVersion    = HeaderPrefix + "-PLATFORM-SDK-VERSION"
	HeaderApplicationID = HeaderPrefix + "-APPLICATION-ID"
	HeaderTenantID      = HeaderPrefix + "-TENANT-ID"
)

// Tracking header names, only attached for endpoints that allow tracking.
const (
	HeaderDeviceID             = HeaderPrefix + "-DEVICE-ID"
	HeaderDeviceLocale         = HeaderPrefix + "-DEVICE-LOCALE"
	HeaderDeviceTimeZoneOffset = HeaderPrefix + "-DEVICE-TIMEZONE-OFFSET"
	HeaderDebug                = HeaderPrefix + "-DEBUG"
)

// PlatformAgent identifies this client to the backend.
const PlatformAgent = "feedbackkit-go"

// SDKVersion is reported in the SDK version header.
const SDKVersion = "0.4.0"
