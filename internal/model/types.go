package model

// Row is one ranked key in a snapshot of the windowed counts.
type Row struct {
	Key  string
	Hits int
}

// IngestStats counts what the ingestion loop has seen since startup.
type IngestStats struct {
	Lines       int64
	ParseMisses int64
}
