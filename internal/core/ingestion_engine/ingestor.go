package ingestion_engine

import "context"

// Ingestor turns one uploaded PDF into a Document and its FAQs.
type Ingestor interface {
	Ingest(ctx context.Context, req UploadRequest) (*UploadResult, error)
}
