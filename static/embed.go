// Package static embeds the web UI served at /static. During development a
// local ./static directory takes precedence (see router.SetupRouter), so the
// page can be edited without rebuilding.
package static

import "embed"

//go:embed index.html
var EmbeddedFiles embed.FS
