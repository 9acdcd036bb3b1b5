// Package dlq provides operator access to the dead letter queue: the
// messages that exhausted their retry budget or failed permanently.
//
// Dead-lettered messages keep their identity. The engine moves a message
// to the DLQ in place — same ID, final error, and retry counts preserved
// for debugging — and [Service.Requeue] moves it back onto the queue.
//
// # Service
//
// [Service] wraps a message store with the two operator operations:
//
//	svc := dlq.NewService(store)
//
//	// Inspect the oldest 50 dead-lettered messages.
//	msgs, err := svc.Messages(ctx, 50)
//
//	// Give one of them a fresh retry budget.
//	ok, err := svc.Requeue(ctx, msgs[0].ID)
//
// Requeue resets the retry count to zero and clears the backoff
// schedule, so the message is immediately eligible for processing
// again. Requeueing an ID that is not dead-lettered returns ok=false
// rather than an error.
package dlq
