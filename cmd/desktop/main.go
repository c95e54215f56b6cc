package main

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"

	"go.uber.org/zap"

	"video-trimmer/config"
	"video-trimmer/internal/deps"
	"video-trimmer/internal/server"
	"video-trimmer/internal/service"
	"video-trimmer/internal/storage"
	"video-trimmer/internal/taskrunner"
	"video-trimmer/log"
)

// The desktop build binds to localhost only and opens the system browser,
// so the tool behaves like a standalone offline app.
const (
	desktopHost = "127.0.0.1"
	desktopPort = 5050
)

func main() {
	if handled, exitCode := handleCLIFlags(); handled {
		os.Exit(exitCode)
	}

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

	config.Conf.Server.Host = desktopHost
	config.Conf.Server.Port = desktopPort

	storage.InitDB()

	if count, err := storage.MarkStaleJobs(); err != nil {
		log.GetLogger().Warn("failed to mark stale jobs", zap.Error(err))
	} else if count > 0 {
		log.GetLogger().Info("marked stale jobs as failed", zap.Int64("count", count))
	}

	if err = deps.CheckDependency(); err != nil {
		log.GetLogger().Error("dependency check failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		if deps.CanAutoInstallDependency(deps.DependencyIDFFmpeg) {
			fmt.Fprintln(os.Stderr, "Run with -install-deps to download FFmpeg automatically.")
		}
		os.Exit(1)
	}

	if err = service.EnsureRuntimeDirs(); err != nil {
		log.GetLogger().Error("failed to create runtime directories", zap.Error(err))
		os.Exit(1)
	}

	svc := service.NewService()
	svc.SetDispatcher(taskrunner.New(svc, taskrunner.Config{
		QueueSize:   config.Conf.Jobs.QueueSize,
		Concurrency: config.Conf.Jobs.Concurrency,
	}))

	url := fmt.Sprintf("http://%s:%d", desktopHost, desktopPort)
	if !skipBrowser {
		go func() {
			// Give the listener a moment before pointing the browser at it.
			time.Sleep(800 * time.Millisecond)
			if err := openBrowser(url); err != nil {
				log.GetLogger().Warn("could not open browser",
					zap.Error(err), zap.String("url", url))
			}
		}()
	}

	fmt.Printf("Video Trimmer running at %s\n", url)
	fmt.Println("Press Ctrl+C to stop")

	if err = server.StartBackend(svc); err != nil {
		log.GetLogger().Error("backend server failed", zap.Error(err))
		os.Exit(1)
	}
}

func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
