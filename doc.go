// Package requeue provides a reliable message retry engine for Go. It
// queues units of work, dispatches them to registered handlers, tracks
// failure and retry state, computes exponential backoff with jitter, and
// routes permanently failing messages to a dead letter queue for later
// replay.
//
// Requeue is designed as a library, not a service. Import it, configure a
// store, register handlers as ordinary Go functions, and drive processing
// from your own loop or a worker.Pool.
//
// # Quick Start
//
//	s := memory.New()
//	eng := engine.New(s)
//
//	engine.Register(eng, handler.NewDefinition("send-email",
//	    func(ctx context.Context, p emailPayload) handler.Result {
//	        if err := send(ctx, p); err != nil {
//	            return handler.Fail(err)
//	        }
//	        return handler.OK()
//	    },
//	))
//
//	engine.Enqueue(ctx, eng, "send-email", emailPayload{To: "a@b.c"})
//	eng.ProcessBatch(ctx, 10)
//
// # Architecture
//
// The engine performs no background scheduling of its own: callers drive
// it by invoking ProcessOne or ProcessBatch, or by starting a worker.Pool.
// Storage is pluggable behind the message.Store contract; memory, redis,
// and postgres implementations ship with the module.
//
// All entity IDs use TypeID — type-prefixed, K-sortable, UUIDv7-based
// identifiers.
package requeue
