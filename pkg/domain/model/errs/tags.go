package errs

import "github.com/m-mizutani/goerr/v2"

var (
	// Client errors
	TagNotFound     = goerr.NewTag("not_found")     // 404
	TagValidation   = goerr.NewTag("validation")    // 400
	TagForbidden    = goerr.NewTag("forbidden")     // 403
	TagRateLimit    = goerr.NewTag("rate_limit")    // 429
	TagInvalidState = goerr.NewTag("invalid_state") // 409

	// Send path failures
	TagCapabilityDenied = goerr.NewTag("capability_denied") // precondition, not a delivery failure
	TagNoRecipient      = goerr.NewTag("no_recipient")      // plate has no registered owner
	TagTransport        = goerr.NewTag("transport")         // remote store unreachable or rejected the write

	// Delivery side, never surfaced to the user
	TagPresentation = goerr.NewTag("presentation")

	TagInternal = goerr.NewTag("internal")
	TagStorage  = goerr.NewTag("storage") // device-local persistence
)
