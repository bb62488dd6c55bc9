// Package config provides configuration loading for the discovery pipeline.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath resolves ~ and $VAR references in a configured file path.
// Paths come from config files and flags, where users routinely write
// "~/.local/share/..." or "$HOME/...".
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}

	switch {
	case path == "~":
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	case strings.HasPrefix(path, "~/"):
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~/"))
		}
	}

	return os.ExpandEnv(path)
}
