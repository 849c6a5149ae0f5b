package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const appDirName = "tbsu"

// Paths contains the file system locations used by the application
type Paths struct {
	BaseDir      string
	AlertersFile string
	ChannelsFile string
	LogsDir      string
}

// GetPaths resolves application paths under baseDir, defaulting to the user config directory
func GetPaths(baseDir string) (*Paths, error) {
	if baseDir == "" {
		userDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve user config directory: %w", err)
		}
		baseDir = filepath.Join(userDir, appDirName)
	}

	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory %s: %w", baseDir, err)
	}

	return &Paths{
		BaseDir:      abs,
		AlertersFile: filepath.Join(abs, "alerters.json"),
		ChannelsFile: filepath.Join(abs, "slack_channels.json"),
		LogsDir:      filepath.Join(abs, "logs"),
	}, nil
}

// EnsureDirectories creates the directories the paths point into
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.BaseDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetLogPath returns the full path of a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}
