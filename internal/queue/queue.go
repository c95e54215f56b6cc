// Package queue provides Redis-backed trim job processing using Asynq.
// It is the execution backend for multi-instance deployments; single-node
// installs use the in-process task runner instead.
package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"video-trimmer/config"
	"video-trimmer/internal/jobcore"
	"video-trimmer/log"
)

// Config holds the Redis connection settings and worker concurrency.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Concurrency   int
}

// FromAppConfig builds the queue configuration from the loaded app config.
func FromAppConfig() Config {
	return Config{
		RedisAddr:     config.Conf.Queue.RedisAddr,
		RedisPassword: config.Conf.Queue.RedisPassword,
		RedisDB:       config.Conf.Queue.RedisDB,
		Concurrency:   config.Conf.Jobs.Concurrency,
	}
}

// Queue dispatches trim jobs to Redis and runs the worker that consumes
// them. Implements jobcore.Dispatcher.
type Queue struct {
	client *asynq.Client
	server *asynq.Server
	cfg    Config
}

func New(cfg Config) *Queue {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues: map[string]int{
			"critical": 6,
			"default":  3,
			"low":      1,
		},
		// 10s, 20s, 40s, 80s, ...
		RetryDelayFunc: func(n int, e error, t *asynq.Task) time.Duration {
			return time.Duration(10<<uint(n)) * time.Second
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.GetLogger().Error("Task failed",
				zap.String("type", task.Type()),
				zap.ByteString("payload", task.Payload()),
				zap.Error(err))
		}),
	})

	return &Queue{
		client: asynq.NewClient(redisOpt),
		server: server,
		cfg:    cfg,
	}
}

// Dispatch enqueues a trim job on the default queue.
func (q *Queue) Dispatch(ctx context.Context, req jobcore.TrimRequest) error {
	task, err := newTrimTask(req)
	if err != nil {
		return err
	}

	info, err := q.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("enqueue trim task: %w", err)
	}

	log.GetLogger().Info("Trim job enqueued",
		zap.String("job_id", req.JobID),
		zap.String("queue_id", info.ID),
		zap.String("queue", info.Queue))
	return nil
}

// StartWorker consumes trim tasks until Close is called. It blocks, so
// callers normally run it in a goroutine.
func (q *Queue) StartWorker(processor TrimProcessor) error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeTrimTask, handleTrimTask(processor))

	log.GetLogger().Info("Starting queue worker",
		zap.String("redis_addr", q.cfg.RedisAddr),
		zap.Int("concurrency", q.cfg.Concurrency))

	return q.server.Run(mux)
}

// Close stops the worker and releases the Redis connections.
func (q *Queue) Close() error {
	if err := q.client.Close(); err != nil {
		return err
	}
	q.server.Shutdown()
	return nil
}
