package router

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"video-trimmer/config"
	"video-trimmer/internal/handler"
	"video-trimmer/internal/service"
	"video-trimmer/log"
	"video-trimmer/static"
)

// maxUploadBody caps the upload request body at the configured limit, so an
// oversized file fails fast instead of filling the disk.
func maxUploadBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := config.Conf.App.MaxUploadBytes()
		if limit > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
	}
}

func SetupRouter(r *gin.Engine, svc *service.Service) {
	api := r.Group("/api")

	hdl := handler.NewHandler(svc)
	{
		api.POST("/upload", maxUploadBody(), hdl.UploadVideo)
		api.POST("/trim", hdl.StartTrim)
		api.GET("/duration/:videoId", hdl.GetDuration)
		api.GET("/download/:videoId", hdl.DownloadVideo)
		api.GET("/video/:videoId", hdl.ServeVideo)
		api.GET("/preview/*previewPath", hdl.Preview)
		api.DELETE("/delete/:videoId", hdl.DeleteVideo)
		api.GET("/jobs/:jobId", hdl.GetTrimJob)
		api.GET("/ws/jobs/:jobId", hdl.WatchTrimJob)
		api.GET("/config", hdl.GetConfig)
		api.POST("/config", hdl.UpdateConfig)
		api.GET("/deps", hdl.GetDependencies)
	}

	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/static")
	})
	if _, err := os.Stat("static"); err == nil {
		log.GetLogger().Info("Using local static directory")
		r.Static("/static", "static")
	} else {
		log.GetLogger().Info("Using embedded static files")
		r.StaticFS("/static", http.FS(static.EmbeddedFiles))
	}
}
