package submission

import (
	"fmt"

	"github.com/vnykmshr/docgate/pkg/common/errors"
)

// ErrorKind tells a network failure from a rejection by the remote side.
type ErrorKind string

const (
	// KindNetwork means no response was received.
	KindNetwork ErrorKind = "network"

	// KindStatus means the remote answered with a non-2xx status.
	KindStatus ErrorKind = "status"
)

// maxErrorBody bounds how much of a response body is quoted in Error().
const maxErrorBody = 256

// TransportError reports a failed exchange with the registration API. The
// permit used for the attempt is not returned to the limiter.
type TransportError struct {
	Kind       ErrorKind
	StatusCode int
	Body       []byte
	RequestID  string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Kind == KindStatus {
		body := e.Body
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return fmt.Sprintf("submission: request %s rejected with status %d: %s", e.RequestID, e.StatusCode, body)
	}
	return fmt.Sprintf("submission: request %s failed: %v", e.RequestID, e.Err)
}

// Unwrap matches errors.ErrTransportFailure and, for network failures, the
// underlying error.
func (e *TransportError) Unwrap() []error {
	if e.Err == nil {
		return []error{errors.ErrTransportFailure}
	}
	return []error{errors.ErrTransportFailure, e.Err}
}
