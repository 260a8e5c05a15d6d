package factagent

import "errors"

var (
	ErrInvalidTool       = errors.New("invalid tool specification")
	ErrInvalidParameter  = errors.New("invalid parameter")
	ErrToolNameConflict  = errors.New("tool name conflict")
	ErrLoopLimitExceeded = errors.New("loop limit exceeded")

	// ErrNoCredential is returned when a required credential is missing from
	// the environment. No network call is attempted in that case.
	ErrNoCredential = errors.New("required credential is not configured")

	// ErrRemoteAPI is returned when an external service responds with a
	// structured error (GraphQL errors array, non-2xx status). It is
	// distinguished from plain transport failures so that callers can inspect
	// the remote payload.
	ErrRemoteAPI = errors.New("remote API returned an error")
)
