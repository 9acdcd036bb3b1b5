// Package worker provides the polling loop that drives an engine. The
// engine itself performs no background scheduling; a Pool runs N
// goroutines that repeatedly invoke ProcessBatch, sleeping between
// polls when the queue is empty.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/groundwire/requeue/id"
)

// Processor is the surface the pool drives. *engine.Engine satisfies it.
type Processor interface {
	// ProcessBatch processes up to batchSize messages and returns how
	// many were actually processed.
	ProcessBatch(ctx context.Context, batchSize int) (int, error)
	// Running reports whether the processor is still accepting work.
	// Workers exit their loop once it returns false.
	Running() bool
}

// Pool manages a set of concurrent worker goroutines that poll the
// processor for eligible messages.
type Pool struct {
	processor    Processor
	concurrency  int
	batchSize    int
	pollInterval time.Duration
	limiter      *rate.Limiter
	workerID     id.WorkerID
	logger       *slog.Logger

	stopCh  chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithConcurrency sets the number of concurrent worker goroutines.
func WithConcurrency(n int) PoolOption {
	return func(p *Pool) { p.concurrency = n }
}

// WithBatchSize sets how many messages each poll claims at most.
func WithBatchSize(n int) PoolOption {
	return func(p *Pool) { p.batchSize = n }
}

// WithPollInterval sets how long workers sleep after an empty poll.
func WithPollInterval(d time.Duration) PoolOption {
	return func(p *Pool) { p.pollInterval = d }
}

// WithRateLimit caps how many batches per second the pool starts,
// shared across all workers. A zero limit disables the cap.
func WithRateLimit(perSecond float64, burst int) PoolOption {
	return func(p *Pool) {
		if perSecond > 0 {
			p.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithPoolLogger sets the pool's logger.
func WithPoolLogger(l *slog.Logger) PoolOption {
	return func(p *Pool) { p.logger = l }
}

// NewPool creates a worker pool over the given processor.
func NewPool(processor Processor, opts ...PoolOption) *Pool {
	p := &Pool{
		processor:    processor,
		concurrency:  4,
		batchSize:    10,
		pollInterval: time.Second,
		workerID:     id.NewWorkerID(),
		logger:       slog.Default(),
		stopCh:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WorkerID returns the pool's unique worker identifier.
func (p *Pool) WorkerID() id.WorkerID { return p.workerID }

// Start launches the worker goroutines. It returns immediately.
func (p *Pool) Start(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}
	p.running = true

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	p.logger.Info("worker pool starting",
		slog.String("worker_id", p.workerID.String()),
		slog.Int("concurrency", p.concurrency),
		slog.Int("batch_size", p.batchSize),
	)

	for range p.concurrency {
		p.wg.Add(1)
		go p.pollLoop(ctx)
	}

	return nil
}

// Stop signals all workers to stop and waits for them to finish. A
// worker finishes the batch it is on before exiting; if the context has
// a deadline, in-flight batches are cancelled when time runs out.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	p.mu.Unlock()

	p.logger.Info("worker pool stopping", slog.String("worker_id", p.workerID.String()))

	close(p.stopCh)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool stopped gracefully")
	case <-ctx.Done():
		p.logger.Warn("worker pool shutdown timed out, cancelling in-flight work")
		p.cancel()
		p.wg.Wait()
	}

	p.cancel()
	return nil
}

// Drain processes batches synchronously until the queue is empty, the
// processor stops, or the context expires. It returns the number of
// messages processed.
func (p *Pool) Drain(ctx context.Context) (int, error) {
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		if !p.processor.Running() {
			return total, nil
		}
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return total, err
			}
		}

		n, err := p.processor.ProcessBatch(ctx, p.batchSize)
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, nil
		}
	}
}

// pollLoop is run by each worker goroutine.
func (p *Pool) pollLoop(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopCh:
			return
		default:
		}

		if !p.processor.Running() {
			return
		}

		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return
			}
		}

		n, err := p.processor.ProcessBatch(ctx, p.batchSize)
		if err != nil {
			p.logger.Error("batch processing error",
				slog.String("worker_id", p.workerID.String()),
				slog.String("error", err.Error()),
			)
			p.sleep()
			continue
		}

		if n == 0 {
			p.sleep()
		}
	}
}

func (p *Pool) sleep() {
	select {
	case <-time.After(p.pollInterval):
	case <-p.stopCh:
	}
}
