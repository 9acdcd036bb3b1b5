// Package middleware provides composable middleware for message processing.
//
// A [Middleware] is a function that wraps a message handler. Middleware
// are composed into a chain using [Chain] and applied around each
// processing attempt. They are applied right-to-left: the first middleware
// in the slice is the outermost wrapper.
//
//	// logging → recover → handler
//	chain := middleware.Chain(middleware.Logging(logger), middleware.Recover(logger))
//
// # Built-in Middleware
//
//   - [Recover] — catches handler panics and converts them to retryable failures
//   - [Logging] — logs handler name, duration, and attempt outcome
//   - [Timeout] — cancels the handler context after the message's deadline
//   - [Tracing] — wraps each attempt in an OpenTelemetry span
//   - [Metrics] — records per-attempt duration and outcome counters
//
// # Writing Custom Middleware
//
//	func MyMiddleware() middleware.Middleware {
//	    return func(ctx context.Context, m *message.Message, next middleware.Handler) handler.Result {
//	        // pre-processing
//	        res := next(ctx)
//	        // post-processing
//	        return res
//	    }
//	}
//
// Middleware MUST call next to continue the chain unless intentionally
// short-circuiting (e.g., circuit breaker, rate limiting).
package middleware
