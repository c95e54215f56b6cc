// Package server boots the HTTP backend: gin engine, middleware, routes,
// and lifecycle. StartBackend blocks until the process is signaled or the
// listener fails.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"video-trimmer/config"
	"video-trimmer/internal/response"
	"video-trimmer/internal/router"
	"video-trimmer/internal/service"
	"video-trimmer/log"

	apperrors "video-trimmer/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// StartBackend builds the gin engine, mounts all routes, and serves on the
// configured host and port. It blocks for the lifetime of the server and
// shuts down cleanly on SIGINT/SIGTERM, letting in-flight requests finish.
func StartBackend(svc *service.Service) error {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(requestLogger(), recovery())

	router.SetupRouter(engine, svc)

	addr := fmt.Sprintf("%s:%d", config.Conf.Server.Host, config.Conf.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		// Read/write timeouts stay unset: uploads, downloads and job
		// websockets legitimately outlive any fixed deadline.
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.GetLogger().Info("server listening",
			zap.String("addr", addr),
			zap.Int("request_timeout_s", config.Conf.Server.RequestTimeout))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.GetLogger().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// requestLogger records each request through the shared zap logger so API
// traffic and ffmpeg activity end up in the same log file. Debug level keeps
// per-request lines out of the console while the JSON file captures them.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.GetLogger().Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// recovery converts panics into the standard error envelope instead of a
// bare 500 so the frontend never has to parse a non-JSON body.
func recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.GetLogger().Error("panic recovered",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path),
		)
		response.Error(c, apperrors.CodeUnknown, "Internal server error")
		c.Abort()
	})
}
