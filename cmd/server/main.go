package main

import (
	"os"

	"go.uber.org/zap"

	"video-trimmer/config"
	"video-trimmer/internal/deps"
	"video-trimmer/internal/jobcore"
	"video-trimmer/internal/queue"
	"video-trimmer/internal/server"
	"video-trimmer/internal/service"
	"video-trimmer/internal/storage"
	"video-trimmer/internal/taskrunner"
	"video-trimmer/log"
)

func main() {
	log.InitLogger()
	defer log.GetLogger().Sync()

	var err error
	if !config.LoadConfig() {
		os.Exit(1)
	}

	if err = config.CheckConfig(); err != nil {
		log.GetLogger().Error("invalid configuration", zap.Error(err))
		os.Exit(1)
	}

	storage.InitDB()

	// Jobs left "running" by a previous crash can never finish.
	if count, err := storage.MarkStaleJobs(); err != nil {
		log.GetLogger().Warn("failed to mark stale jobs", zap.Error(err))
	} else if count > 0 {
		log.GetLogger().Info("marked stale jobs as failed", zap.Int64("count", count))
	}

	if err = deps.CheckDependency(); err != nil {
		log.GetLogger().Error("dependency check failed", zap.Error(err))
		os.Exit(1)
	}

	if err = service.EnsureRuntimeDirs(); err != nil {
		log.GetLogger().Error("failed to create runtime directories", zap.Error(err))
		os.Exit(1)
	}

	svc := service.NewService()
	svc.SetDispatcher(buildDispatcher(svc))

	if err = server.StartBackend(svc); err != nil {
		log.GetLogger().Error("backend server failed", zap.Error(err))
		os.Exit(1)
	}
}

// buildDispatcher picks the execution backend: the Redis queue when one is
// configured, otherwise the in-process worker pool.
func buildDispatcher(svc *service.Service) jobcore.Dispatcher {
	if config.Conf.Queue.Enabled() {
		q := queue.New(queue.FromAppConfig())
		go func() {
			if err := q.StartWorker(svc); err != nil {
				log.GetLogger().Error("queue worker stopped", zap.Error(err))
			}
		}()
		return q
	}

	return taskrunner.New(svc, taskrunner.Config{
		QueueSize:   config.Conf.Jobs.QueueSize,
		Concurrency: config.Conf.Jobs.Concurrency,
	})
}
