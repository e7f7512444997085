package osutil

import (
	"os"
	"path/filepath"
	"runtime"
)

// SelectOS returns the operating system name used in release artifact names.
func SelectOS() string {
	switch runtime.GOOS {
	case "windows":
		return "windows"
	case "darwin":
		return "macos"
	default:
		return "linux"
	}
}

// SelectArch returns the architecture name used in release artifact names.
func SelectArch() string {
	switch runtime.GOARCH {
	case "386":
		return "i386"
	case "arm64":
		return "aarch64"
	default:
		return "x86_64"
	}
}

// Platform is SelectOS and SelectArch joined by a slash.
func Platform() string {
	return SelectOS() + "/" + SelectArch()
}

// HomeDirFromEnv reads the home directory from HOME, then USERPROFILE.
func HomeDirFromEnv() string {
	homeDir := os.Getenv("HOME")
	if homeDir == "" {
		homeDir = os.Getenv("USERPROFILE")
	}
	return homeDir
}

// DataDir returns the per-user directory of app, ~/.app, or an empty string
// when no home directory is known.
func DataDir(app string) string {
	home := HomeDirFromEnv()
	if home == "" {
		return ""
	}
	return filepath.Join(home, "."+app)
}
