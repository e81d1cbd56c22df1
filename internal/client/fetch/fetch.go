// Package fetch holds the reusable data-loading patterns the CLI screens are
// built from: a single query, a paginated list, a CRUD list mirrored
// locally and a poller. Every failure is reported to an ErrorReporter under
// the caller's context tag and then returned.
package fetch

import (
	"errors"
	"fmt"

	"github.com/atinyakov/MineAdmin/internal/client/errstore"
)

// ErrClosed is returned by a Query used after Close.
var ErrClosed = errors.New("fetch: query closed")

// ErrUnsupported matches every UnsupportedError.
var ErrUnsupported = errors.New("operation not supported")

// UnsupportedError is returned by resource operations the backend does not
// allow, such as deleting an order.
type UnsupportedError struct {
	Resource  string
	Operation string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s cannot be %s", e.Resource, e.Operation)
}

// Is makes errors.Is(err, ErrUnsupported) true.
func (e *UnsupportedError) Is(target error) bool {
	return target == ErrUnsupported
}

// ErrorReporter records failures for display. *errstore.Store implements it.
type ErrorReporter interface {
	HandleAPIError(err error, tag string, opts errstore.AddOptions) string
}

func report(r ErrorReporter, tag string, err error) {
	if r == nil || err == nil {
		return
	}
	var opts errstore.AddOptions
	var unsupported *UnsupportedError
	if errors.As(err, &unsupported) {
		opts.Message = unsupported.Error()
	}
	r.HandleAPIError(err, tag, opts)
}
