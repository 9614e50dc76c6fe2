package errs

import (
	"errors"

	"github.com/m-mizutani/goerr/v2"
)

var ErrNoRecipient = errors.New("no registered owner for this plate")
var ErrCapabilityDenied = errors.New("sending alerts is not available right now")

// IsTransport reports whether err came from the remote store rather than from
// a user-facing condition.
func IsTransport(err error) bool {
	return goerr.HasTag(err, TagTransport)
}

// IsNoRecipient reports whether the send failed because the plate is not registered.
func IsNoRecipient(err error) bool {
	return errors.Is(err, ErrNoRecipient) || goerr.HasTag(err, TagNoRecipient)
}
