package taskrunner

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"video-trimmer/internal/jobcore"
	"video-trimmer/log"
)

const (
	defaultQueueSize   = 128
	defaultConcurrency = 2
)

// TrimProcessor executes one trim job to completion. Satisfied by the
// service layer.
type TrimProcessor interface {
	RunTrimJob(ctx context.Context, req jobcore.TrimRequest) error
}

// Config sizes the pending-job channel and the worker pool.
type Config struct {
	QueueSize   int
	Concurrency int
}

// DefaultConfig keeps concurrency low so two ffmpeg processes at most
// compete for the machine. Suits the single-user desktop deployment.
func DefaultConfig() Config {
	return Config{
		QueueSize:   defaultQueueSize,
		Concurrency: defaultConcurrency,
	}
}

// Runner executes queued trim jobs with in-memory workers. It is the
// default execution backend when no Redis queue is configured.
type Runner struct {
	processor TrimProcessor
	config    Config

	queue  chan jobcore.TrimRequest
	ctx    context.Context
	cancel context.CancelFunc

	workerWg sync.WaitGroup
	closed   atomic.Bool
}

// New builds a Runner and starts its workers immediately.
func New(processor TrimProcessor, cfg Config) *Runner {
	cfg = normalizeConfig(cfg)
	ctx, cancel := context.WithCancel(context.Background())

	runner := &Runner{
		processor: processor,
		config:    cfg,
		queue:     make(chan jobcore.TrimRequest, cfg.QueueSize),
		ctx:       ctx,
		cancel:    cancel,
	}

	for i := 0; i < cfg.Concurrency; i++ {
		runner.workerWg.Add(1)
		go runner.worker(i + 1)
	}

	return runner
}

func normalizeConfig(cfg Config) Config {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	return cfg
}

// Dispatch queues a trim job. Implements jobcore.Dispatcher.
func (r *Runner) Dispatch(_ context.Context, req jobcore.TrimRequest) error {
	if r.closed.Load() {
		return jobcore.ErrDispatcherStopped
	}

	select {
	case <-r.ctx.Done():
		return jobcore.ErrDispatcherStopped
	case r.queue <- req:
		log.GetLogger().Info("[TaskRunner] trim job submitted",
			zap.String("job_id", req.JobID),
			zap.String("video_id", req.VideoID))
		return nil
	default:
		return jobcore.ErrQueueFull
	}
}

func (r *Runner) worker(workerID int) {
	defer r.workerWg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		default:
		}

		select {
		case <-r.ctx.Done():
			return
		case req := <-r.queue:
			r.processJob(workerID, req)
		}
	}
}

func (r *Runner) processJob(workerID int, req jobcore.TrimRequest) {
	// Jobs run against the runner's context so Close cancels in-flight
	// transcodes.
	if err := r.processor.RunTrimJob(r.ctx, req); err != nil {
		log.GetLogger().Error("[TaskRunner] trim job failed",
			zap.Int("worker_id", workerID),
			zap.String("job_id", req.JobID),
			zap.Error(err))
		return
	}

	log.GetLogger().Info("[TaskRunner] trim job completed",
		zap.Int("worker_id", workerID),
		zap.String("job_id", req.JobID))
}

// Close stops workers and rejects new jobs.
func (r *Runner) Close() {
	if !r.closed.CompareAndSwap(false, true) {
		return
	}

	r.cancel()
	r.workerWg.Wait()
}

// Pending returns the number of queued jobs waiting for workers.
func (r *Runner) Pending() int {
	return len(r.queue)
}
