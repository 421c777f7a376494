package model

// IngestEnvelope carries one raw log line with source metadata.
// It is the transport contract between tailers and the ingestion loop.
type IngestEnvelope struct {
	Source string
	Line   string
}
