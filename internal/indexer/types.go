package indexer

// Chunk represents a bounded slice of a document's extracted text, the atomic
// unit of retrieval. StartChar and EndChar are byte offsets into the original
// extracted text. When a chunk starts with overlap carried from the previous
// chunk, StartChar points at the start of the overlap region.
type Chunk struct {
	Text       string
	Index      int    // Chunk index within document (starts at 0)
	StartChar  int
	EndChar    int
	PageNumber int    // 1-based page number, 0 when unknown
	DocumentID string
}

// DocumentMeta carries ingestion metadata attached to every chunk of a document.
type DocumentMeta struct {
	FileName    string
	FileType    string
	PageOffsets []int // sorted byte offsets of page starts after the first page
}
