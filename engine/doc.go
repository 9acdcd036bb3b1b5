// Package engine wires the requeue subsystems together and provides
// the primary application-level API for registering handlers, enqueuing
// messages, and driving processing.
//
// # Building an Engine
//
//	s := memory.New()
//	eng := engine.New(s,
//	    engine.WithConfig(requeue.Config{
//	        MaxRetries:   5,
//	        InitialDelay: 2 * time.Second,
//	        MaxDelay:     5 * time.Minute,
//	        Multiplier:   2.0,
//	        JitterFactor: 0.1,
//	    }),
//	    engine.WithHook(audit),
//	)
//
// # Registering Handlers
//
//	engine.Register(eng, handler.NewDefinition("send-email",
//	    func(ctx context.Context, p EmailPayload) handler.Result {
//	        if err := send(ctx, p); err != nil {
//	            return handler.Fail(err)
//	        }
//	        return handler.OK()
//	    },
//	    handler.WithMaxRetries(5),
//	))
//
// # Enqueuing and Processing
//
//	engine.Enqueue(ctx, eng, "send-email", EmailPayload{To: "user@example.com"})
//	eng.ProcessBatch(ctx, 10)
//
// The engine performs no background scheduling of its own. Callers
// drive it synchronously with ProcessOne or ProcessBatch, or start a
// worker.Pool on top of it.
package engine
