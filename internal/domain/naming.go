package domain

import (
	"fmt"
	"path/filepath"
)

// File and directory names.
const (
	AppDirName            = "taskstream"       // Directory under XDG_CONFIG_HOME
	ConfigFileName        = "config.toml"      // Global config file name
	ProjectConfigFileName = ".taskstream.toml" // Config file name in the working directory
	LogFileName           = "taskstream.log"   // Global log file name
)

// GlobalConfigDir returns the global config directory.
// configHome is typically XDG_CONFIG_HOME or ~/.config (resolved by caller).
func GlobalConfigDir(configHome string) string {
	return filepath.Join(configHome, AppDirName)
}

// GlobalConfigPath returns the global config path.
func GlobalConfigPath(configHome string) string {
	return filepath.Join(GlobalConfigDir(configHome), ConfigFileName)
}

// ProjectConfigPath returns the project config path for a working directory.
func ProjectConfigPath(dir string) string {
	return filepath.Join(dir, ProjectConfigFileName)
}

// GlobalLogPath returns the path to the global log file.
func GlobalLogPath(logDir string) string {
	return filepath.Join(logDir, LogFileName)
}

// SessionLogPath returns the path to the log file of one stream session.
func SessionLogPath(logDir string, sessionID int) string {
	return filepath.Join(logDir, fmt.Sprintf("session-%d.log", sessionID))
}
