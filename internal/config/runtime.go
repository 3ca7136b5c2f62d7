package config

import (
	"os"
	"path/filepath"
)

// GetRuntimePath resolves RISKMON_RUNTIME_PATH, relative paths are placed under $HOME.
func GetRuntimePath() string {
	path := os.Getenv("RISKMON_RUNTIME_PATH")
	if path == "" {
		path = ".riskmon"
	}

	if !filepath.IsAbs(path) {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		path = filepath.Join(home, path)
	}
	return path
}
