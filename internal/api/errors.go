package api

import "errors"

var (
	// ErrNetwork means no usable response arrived at all.
	ErrNetwork = errors.New("could not reach the server")
	// ErrUnauthorized means the session is missing, expired or forbidden.
	ErrUnauthorized = errors.New("session expired, please sign in again")
)

// ServerError carries the backend's error payload for a non-2xx response.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "something went wrong, please try again"
}

// UserMessage translates a client error into the short text shown in a
// toast. Callers pass whatever the call site returned.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNetwork):
		return ErrNetwork.Error()
	case errors.Is(err, ErrUnauthorized):
		return ErrUnauthorized.Error()
	}
	var srvErr *ServerError
	if errors.As(err, &srvErr) {
		return srvErr.Error()
	}
	return "something went wrong, please try again"
}
