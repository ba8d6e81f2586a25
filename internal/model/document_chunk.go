package model

type ChunkMetadata struct {
	ChunkLength int    `json:"chunk_length"`
	ProcessedAt int64  `json:"processed_at"`
	ContentType string `json:"content_type,omitempty"`
	Heading     string `json:"heading,omitempty"`
}

type DocumentChunk struct {
	ID           string        `json:"id"`
	OwnerID      string        `json:"owner_id"`
	DocumentName string        `json:"document_name"`
	ChunkIndex   int           `json:"chunk_index"`
	Content      string        `json:"content"`
	Embedding    []float32     `json:"-"`
	Metadata     ChunkMetadata `json:"metadata"`
	Ctime        int64         `json:"ctime"`
}

type DocumentSummary struct {
	DocumentName string `json:"document_name"`
	ChunkCount   int    `json:"chunk_count"`
	Ctime        int64  `json:"ctime"`
}
