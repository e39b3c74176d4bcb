package edgar

import (
	"errors"

	"github.com/rotisserie/eris"
)

// Sentinel error kinds surfaced by the client. Callers classify with
// errors.Is; messages carry the request detail via eris wrapping.
var (
	// ErrNotFound means EDGAR returned 404. Terminal, never retried.
	ErrNotFound = errors.New("edgar: not found")

	// ErrNotAvailable means the requested document does not exist for the
	// company (e.g. no XBRL facts filed). Terminal.
	ErrNotAvailable = errors.New("edgar: not available")

	// ErrRateLimited means 429 persisted after all retries.
	ErrRateLimited = errors.New("edgar: rate limited")

	// ErrUpstream means a 5xx persisted after all retries.
	ErrUpstream = errors.New("edgar: upstream error")

	// ErrNetwork means the request failed at the transport level after retries.
	ErrNetwork = errors.New("edgar: network error")

	// ErrTimeout means the per-request deadline expired.
	ErrTimeout = errors.New("edgar: timeout")

	// ErrConfig means the client is missing required configuration.
	ErrConfig = errors.New("edgar: config error")
)

func wrapKind(kind error, msg string) error {
	return eris.Wrap(kind, msg)
}
