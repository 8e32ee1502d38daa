// ABOUTME: Standard filesystem paths for toolagent configuration and data
// ABOUTME: Resolves ~/.toolagent/ for global data and ./.toolagent.yaml for the project

package config

import (
	"os"
	"path/filepath"
)

const (
	globalDirName   = ".toolagent"
	projectFileName = ".toolagent.yaml"
)

// GlobalDir returns the user-global config directory (~/.toolagent/).
func GlobalDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", globalDirName)
	}
	return filepath.Join(home, globalDirName)
}

// GlobalConfigFile returns the path to the global config file.
func GlobalConfigFile() string {
	return filepath.Join(GlobalDir(), "config.yaml")
}

// ProjectConfigFile returns the path to the project-local config file.
func ProjectConfigFile(projectRoot string) string {
	return filepath.Join(projectRoot, projectFileName)
}

// MemoryDir returns the default memory directory.
func MemoryDir() string {
	return filepath.Join(GlobalDir(), "memory")
}

// AuthFile returns the path to the stored API keys.
func AuthFile() string {
	return filepath.Join(GlobalDir(), "auth.yaml")
}

// EnsureDir creates a directory and all parents if they don't exist.
// Uses 0o700 since the directory holds credentials and session logs.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o700)
}
