package services

import (
	"path/filepath"
	"strings"
)

// sanitizeFilename keeps the last path element of a client-supplied name.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	replacer := strings.NewReplacer("..", "_", "/", "_", "\x00", "")
	return replacer.Replace(name)
}
