package main

import (
	"log"
	"os"
	"path/filepath"
)

// configureRuntimeLogger sends the standard logger to a file, since the
// terminal belongs to the renderer. An empty path selects
// ~/.local/state/httop/httop.log. Falls back to stderr.
func configureRuntimeLogger(path string) func() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.SetOutput(os.Stderr)
			return func() {}
		}
		path = filepath.Join(home, ".local", "state", "httop", "httop.log")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	log.SetOutput(f)
	return func() {
		log.SetOutput(os.Stderr)
		_ = f.Close()
	}
}
