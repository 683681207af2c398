package ingestion_engine

import (
	"github.com/markdave123-py/AskNest/internal/core/retry"
)

// IngestConfig tunes the upload pipeline.
//
// ChunkSize:           advisory characters per chunk in chunked mode.
// Chunked:             run FAQ extraction per chunk instead of on the full text.
// FAQWriteConcurrency: concurrent FAQ writes per upload.
// ReadRetry:           policy for reading the caller's user record.
type IngestConfig struct {
	ChunkSize           int
	Chunked             bool
	FAQWriteConcurrency int
	ReadRetry           retry.Policy
}

func (c *IngestConfig) withDefaults() *IngestConfig {
	out := IngestConfig{}
	if c != nil {
		out = *c
	}
	if out.ChunkSize <= 0 {
		out.ChunkSize = DefaultChunkSize
	}
	if out.FAQWriteConcurrency <= 0 {
		out.FAQWriteConcurrency = 4
	}
	if out.ReadRetry.Attempts <= 0 {
		out.ReadRetry = retry.DefaultPolicy
	}
	return &out
}
