package ingest

import (
	"sync/atomic"

	"github.com/tinytelemetry/httop/internal/clock"
	"github.com/tinytelemetry/httop/internal/model"
)

// ProcessorName identifies the key-counting processor.
const ProcessorName = "keycount"

// Processor extracts a key from each line and records a hit for it.
type Processor struct {
	extractor *Extractor
	sink      RecordSink
	clock     clock.Clock

	lines       atomic.Int64
	parseMisses atomic.Int64
}

// NewProcessor creates a processor that timestamps hits with c.
func NewProcessor(extractor *Extractor, sink RecordSink, c clock.Clock) *Processor {
	if c == nil {
		c = clock.NewRealClock()
	}
	return &Processor{extractor: extractor, sink: sink, clock: c}
}

// ProcessResult holds the outcome of processing one envelope.
type ProcessResult struct {
	Source    string
	Key       string
	ParseMiss bool
}

func (p *Processor) Name() string { return ProcessorName }

// ProcessEnvelope records one hit for env's key at the current time.
func (p *Processor) ProcessEnvelope(env model.IngestEnvelope) ProcessResult {
	key := p.extractor.Key(env.Line)
	miss := key == model.ParseErrorKey

	p.lines.Add(1)
	if miss {
		p.parseMisses.Add(1)
	}
	if p.sink != nil {
		p.sink.Record(key, p.clock.Now())
	}
	return ProcessResult{Source: env.Source, Key: key, ParseMiss: miss}
}

// Stats returns ingestion counters. Safe to call from other goroutines.
func (p *Processor) Stats() model.IngestStats {
	return model.IngestStats{
		Lines:       p.lines.Load(),
		ParseMisses: p.parseMisses.Load(),
	}
}
