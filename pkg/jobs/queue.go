package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrNotRunning is returned when enqueueing before Start or after Stop.
	ErrNotRunning = errors.New("queue not running")
	// ErrQueueFull is returned when the buffer is saturated; callers never block a request on it.
	ErrQueueFull = errors.New("queue full")
)

// Job is a unit of background work.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler processes one job; a returned error schedules a retry.
type Handler func(context.Context, Job) error

// QueueConfig sizes a Queue.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Queue is an in-process worker pool with bounded buffering and linear retry.
type Queue struct {
	name    string
	handler Handler
	cfg     QueueConfig
	logger  *zap.Logger

	jobs chan Job

	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
	wg      sync.WaitGroup
}

// NewQueue applies defaults: 1 worker, 4x buffer, 3 retries, 1s delay.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	} else if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{
		name:    name,
		handler: handler,
		cfg:     cfg,
		logger:  logger.With(zap.String("queue", name)),
		jobs:    make(chan Job, cfg.BufferSize),
	}
}

// Start launches the workers. Calling it twice is a no-op.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.work()
	}
	q.running = true
	q.logger.Info("queue started", zap.Int("workers", q.cfg.Workers))
}

// Stop cancels the workers and waits for in-flight jobs to return.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	q.cancel()
	q.mu.Unlock()

	q.wg.Wait()
	q.logger.Info("queue stopped", zap.Int("dropped", len(q.jobs)))
}

// Enqueue buffers job without blocking.
func (q *Queue) Enqueue(job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if !q.running {
		return ErrNotRunning
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
	select {
	case q.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *Queue) work() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			q.run(job)
		}
	}
}

func (q *Queue) run(job Job) {
	for {
		err := q.handler(q.ctx, job)
		if err == nil {
			return
		}
		job.Attempt++
		fields := []zap.Field{
			zap.String("job_id", job.ID),
			zap.String("type", job.Type),
			zap.Int("attempt", job.Attempt),
			zap.Error(err),
		}
		if job.Attempt > q.cfg.MaxRetries {
			q.logger.Error("job exceeded retries", fields...)
			return
		}
		q.logger.Warn("job failed, retrying", fields...)

		timer := time.NewTimer(q.cfg.RetryDelay * time.Duration(job.Attempt))
		select {
		case <-q.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
