package ingest

import (
	"time"

	"github.com/tinytelemetry/httop/internal/model"
)

// RecordSink receives one hit per processed line.
type RecordSink interface {
	Record(key string, ts time.Time)
}

// EnvelopeProcessor consumes source-tagged ingest lines and records hits.
type EnvelopeProcessor interface {
	Name() string
	ProcessEnvelope(model.IngestEnvelope) ProcessResult
	Stats() model.IngestStats
}
