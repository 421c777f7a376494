package logsource

import (
	"errors"
	"fmt"

	"github.com/tinytelemetry/httop/internal/model"
)

// ErrSourceUnavailable marks a log source that could not be opened or that
// vanished while being followed. It is fatal: sources are never retried.
var ErrSourceUnavailable = errors.New("source unavailable")

// LogSource is a unified interface for all log input sources (file, stdin).
type LogSource interface {
	Lines() <-chan model.IngestEnvelope // read-only channel of log lines
	Stop()                              // graceful shutdown
	Name() string                       // "file", "stdin"
}

func unavailable(path string, cause error) error {
	return fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, path, cause)
}
