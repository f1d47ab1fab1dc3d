package client

import "errors"

var (
	ErrUnavailable   = errors.New("server unavailable")
	ErrNotConfigured = errors.New("resource server is not configured")
)

const reauthenticationFailedMessage = "Failed to authenticate with the API after a retry. " +
	"The token returned by your authentication provider is likely invalid."
