package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
)

// ServeStatic serves a browser console build from dir. Unknown paths outside
// /api and /ws fall back to index.html for client-side routing.
func ServeStatic(dir string) fiber.Handler {
	return filesystem.New(filesystem.Config{
		Root:         http.Dir(dir),
		Browse:       false,
		Index:        "index.html",
		NotFoundFile: "index.html",
		Next: func(c *fiber.Ctx) bool {
			path := c.Path()
			return strings.HasPrefix(path, "/api/") || strings.HasPrefix(path, "/ws/")
		},
	})
}

// HasStaticDir reports whether dir exists and contains an index.html
func HasStaticDir(dir string) bool {
	if dir == "" {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, "index.html"))
	return err == nil && !info.IsDir()
}
