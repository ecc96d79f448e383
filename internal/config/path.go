// Package config holds the category registry and the runtime settings of
// the classifier.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands ~ and environment variables in a file path.
// Remote object URIs (gs://...) are returned unchanged.
func ExpandPath(path string) string {
	if path == "" || IsRemotePath(path) {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}

// IsRemotePath reports whether path names a Cloud Storage object.
func IsRemotePath(path string) bool {
	return strings.HasPrefix(path, "gs://")
}
