// Package message defines the queue message entity, its status machine,
// enqueue options, and the pluggable store contract.
//
// # Message Entity
//
// A [Message] is one unit of work plus its lifecycle metadata. It carries
// an opaque JSON payload (immutable after enqueue), the name of the
// handler that will process it, and retry bookkeeping. Messages progress
// through:
//
//	pending → processing → completed
//	pending → processing → pending (retry, NextRetryAt in the future)
//	pending → processing → dead_letter
//	dead_letter → pending (operator requeue, retry count reset)
//
// A pending message with NextRetryAt in the future is mid-backoff and is
// not eligible for dequeue until that time passes.
//
// # Store Contract
//
// [Store] is the pluggable backend interface. Every operation must be
// safe to call concurrently against the same instance, and Dequeue must
// claim atomically: a message returned by one Dequeue call is never
// returned by a concurrent one until it is released via Update or
// MoveToDLQ. The dead letter queue is a filtered view of the same
// records (status dead_letter); backends may segregate them physically
// as long as ListDLQ and Dequeue honor the view.
package message
