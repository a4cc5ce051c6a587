package paths

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// StateDirName is the per-workspace state directory.
	StateDirName = ".relbench"

	// HomeEnvVar overrides the state directory location.
	HomeEnvVar = "RELBENCH_HOME"

	ConfigFileName = "config.json"
	RunsDBFileName = "runs.db"
	LogsDirName    = "logs"
	LogFileName    = "relbench.log"
)

// StateDir returns the state directory for a workspace root. RELBENCH_HOME
// takes precedence when set.
func StateDir(root string) string {
	if home := os.Getenv(HomeEnvVar); home != "" {
		return home
	}
	return filepath.Join(root, StateDirName)
}

// ConfigPath returns the config file location.
func ConfigPath(root string) string {
	return filepath.Join(StateDir(root), ConfigFileName)
}

// RunsDBPath returns the run history database location.
func RunsDBPath(root string) string {
	return filepath.Join(StateDir(root), RunsDBFileName)
}

// LogFilePath returns the log file location.
func LogFilePath(root string) string {
	return filepath.Join(StateDir(root), LogsDirName, LogFileName)
}

// EnsureDir creates dir and its parents if missing.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}

// NormalizePath converts backslashes to forward slashes and drops a leading
// "./" so manifest entries written on any platform compare equal.
func NormalizePath(path string) string {
	p := strings.ReplaceAll(path, "\\", "/")
	return strings.TrimPrefix(p, "./")
}

// SplitExt splits the extension (including the dot) off the last path
// segment.
func SplitExt(path string) (string, string) {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext), ext
}
