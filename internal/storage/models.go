package storage

import "time"

// DocumentRecord represents an ingested document in the registry. The chunk
// texts themselves live in the vector index payloads; this table tracks what
// was ingested, for whom, and whether re-ingestion can be skipped.
type DocumentRecord struct {
	ID         string // UUID, shared with the document_id vector payload field
	UserID     string
	FileName   string
	FileType   string
	Hash       string // SHA256 hex string of the extracted text
	ChunkCount int
	CreatedAt  time.Time
}
