package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath is the environment variable for explicit config path
	EnvConfigPath = "MINDMAP_CONFIG"
	// ConfigFileName is the default config file name
	ConfigFileName = "mindmap.yaml"
	// ConfigDirName is the config directory name under XDG
	ConfigDirName = "mindmap"
	// DatabaseFileName is the default SQLite file name
	DatabaseFileName = "mindmap.db"
)

// SearchPaths lists the config file candidates in priority order:
//  1. $MINDMAP_CONFIG
//  2. ./mindmap.yaml
//  3. $XDG_CONFIG_HOME/mindmap/config.yaml
//  4. ~/.config/mindmap/config.yaml
//  5. /etc/mindmap/config.yaml
func SearchPaths() []string {
	var paths []string
	if path := os.Getenv(EnvConfigPath); path != "" {
		paths = append(paths, path)
	}
	if abs, err := filepath.Abs(ConfigFileName); err == nil {
		paths = append(paths, abs)
	} else {
		paths = append(paths, ConfigFileName)
	}
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		paths = append(paths, filepath.Join(xdgHome, ConfigDirName, "config.yaml"))
	}
	if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", ConfigDirName, "config.yaml"))
	}
	return append(paths, filepath.Join("/etc", ConfigDirName, "config.yaml"))
}

// FindConfigPath returns the first existing search path, or "" when there
// is none
func FindConfigPath() string {
	for _, path := range SearchPaths() {
		if fileExists(path) {
			return path
		}
	}
	return ""
}

// DefaultConfigPath returns the preferred location for a new config file
// Prefers XDG config home, falls back to working directory
func DefaultConfigPath() string {
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		return filepath.Join(xdgHome, ConfigDirName, "config.yaml")
	}
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".config", ConfigDirName, "config.yaml")
	}
	return ConfigFileName
}

// DefaultDatabasePath returns where the map is stored when the config does
// not say: $XDG_DATA_HOME/mindmap, ~/.local/share/mindmap, or the working
// directory
func DefaultDatabasePath() string {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, ConfigDirName, DatabaseFileName)
	}
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".local", "share", ConfigDirName, DatabaseFileName)
	}
	return DatabaseFileName
}

// EnsureDir creates the parent directory of path if it doesn't exist
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0755)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
