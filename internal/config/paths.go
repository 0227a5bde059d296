package config

import (
	"os"
	"path/filepath"
	"strings"
)

// baseDir anchors relative runtime paths. The binary is deployed next to
// its data directories, so the executable's directory takes precedence
// over the working directory.
func baseDir() string {
	if exe, err := os.Executable(); err == nil && exe != "" {
		if resolved, rerr := filepath.EvalSymlinks(exe); rerr == nil && resolved != "" {
			exe = resolved
		}
		return filepath.Dir(exe)
	}
	if wd, err := os.Getwd(); err == nil && wd != "" {
		return wd
	}
	return "."
}

// runtimePath resolves a configured directory, substituting the fallback
// subdirectory when the config leaves it empty. Relative paths land next
// to the binary.
func runtimePath(configured, fallback string) string {
	dir := strings.TrimSpace(configured)
	if dir == "" {
		dir = fallback
	}
	if dir == "" {
		return baseDir()
	}
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(baseDir(), dir)
}
