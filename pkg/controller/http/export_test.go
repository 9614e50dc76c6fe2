package http

var (
	PanicRecoveryMiddleware = panicRecoveryMiddleware
	LoggingMiddleware       = loggingMiddleware
)
