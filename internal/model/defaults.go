package model

import "time"

// Shared defaults used by the CLI, the renderers and the tailers.
const (
	DefaultDelay     = 1 * time.Second
	DefaultEntries   = 10
	DefaultWindow    = 60 * time.Second
	DefaultLogFormat = "apache"
	DefaultDisplay   = "plain"
	DefaultSkin      = "default"

	// DefaultPollInterval bounds how long a tailer sleeps between reads and
	// therefore how long it takes to notice shutdown.
	DefaultPollInterval = 10 * time.Millisecond

	// ParseErrorKey is the key for lines the configured pattern did not match.
	ParseErrorKey = "PARSE ERROR"
)
