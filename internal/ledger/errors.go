package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrUnreachable wraps every failure where no complete response was
	// received: dial errors, timeouts, canceled contexts, broken bodies.
	ErrUnreachable = errors.New("ledger endpoint unreachable")
	// ErrMalformedResponse is returned for a 2xx response that cannot be decoded.
	ErrMalformedResponse = errors.New("malformed ledger response")
)

// RemoteError is a non-2xx answer from the auth or wallet endpoint.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// IsUnreachable reports whether err is a connectivity failure rather than a
// rejected request.
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrUnreachable)
}

// AsRemoteError extracts the server rejection carried by err, if any.
func AsRemoteError(err error) (*RemoteError, bool) {
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote, true
	}
	return nil, false
}
