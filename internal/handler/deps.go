package handler

import (
	"github.com/gin-gonic/gin"

	"video-trimmer/internal/deps"
	"video-trimmer/internal/response"
)

// DependencyStateResData reports one external binary the trimmer relies on.
type DependencyStateResData struct {
	Name         string `json:"name"`
	Command      string `json:"command"`
	Status       string `json:"status"`
	Source       string `json:"source,omitempty"`
	ResolvedPath string `json:"resolved_path,omitempty"`
	Error        string `json:"error,omitempty"`
	Hint         string `json:"hint,omitempty"`
}

// GetDependencies reports the resolution state of ffmpeg and ffprobe, so
// the UI can warn before a trim is attempted.
func (h *Handler) GetDependencies(c *gin.Context) {
	states := deps.ResolveDependencyInventory()

	items := make([]DependencyStateResData, 0, len(states))
	for _, state := range states {
		items = append(items, DependencyStateResData{
			Name:         state.Name,
			Command:      state.Command,
			Status:       string(state.Status),
			Source:       string(state.Source),
			ResolvedPath: state.ResolvedPath,
			Error:        state.Error,
			Hint:         state.Hint,
		})
	}
	response.Success(c, items)
}
