package handler

// Result is the structured outcome of one handler invocation. The engine
// branches only on this type; handler errors and panics are folded into
// it at the invocation boundary.
type Result struct {
	// Success reports whether the message was processed successfully.
	Success bool

	// Err is the failure reason when Success is false.
	Err string

	// Retry indicates whether a failure should be retried. A false
	// value routes the message straight to the dead letter queue
	// regardless of its remaining retry budget.
	Retry bool
}

// OK returns a successful Result.
func OK() Result {
	return Result{Success: true}
}

// Fail returns a retryable failure carrying the error message.
func Fail(err error) Result {
	return Result{Err: errString(err), Retry: true}
}

// Failf is like Fail but takes a plain message string.
func Failf(msg string) Result {
	return Result{Err: msg, Retry: true}
}

// Reject returns a permanent failure: the message goes to the dead
// letter queue without consuming the remaining retry budget.
func Reject(err error) Result {
	return Result{Err: errString(err)}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
