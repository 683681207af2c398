package ingestion_engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"code.sajari.com/docconv"
	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/markdave123-py/AskNest/internal/core"
)

var (
	ErrUnreadablePDF = errors.New("pdf could not be parsed")
	ErrNoText        = errors.New("pdf has no extractable text")
)

// ExtractionError reports why no text came out of a document. Reason is
// ErrUnreadablePDF or ErrNoText; Err holds the underlying parser errors.
type ExtractionError struct {
	Reason error
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract text: %v: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("extract text: %v", e.Reason)
}

func (e *ExtractionError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Reason}
	}
	return []error{e.Reason, e.Err}
}

var (
	_ core.DocumentExtractor = (*DocconvExtractor)(nil)
	_ core.DocumentExtractor = (*PlainPDFExtractor)(nil)
	_ core.DocumentExtractor = (*FallbackExtractor)(nil)
)

// DocconvExtractor extracts text with sajari/docconv (pdftotext for PDFs).
type DocconvExtractor struct {
	useReadability bool
}

func NewDocconvExtractor(useReadability bool) *DocconvExtractor {
	return &DocconvExtractor{useReadability: useReadability}
}

func (e *DocconvExtractor) ExtractText(ctx context.Context, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	res, err := docconv.Convert(bytes.NewReader(data), contentType, e.useReadability)
	if err != nil {
		return "", fmt.Errorf("docconv: %w", err)
	}
	return res.Body, nil
}

// PlainPDFExtractor reads the text layer page by page with ledongthuc/pdf.
// It needs no external binaries.
type PlainPDFExtractor struct{}

func (PlainPDFExtractor) ExtractText(ctx context.Context, data []byte, _ string) (text string, err error) {
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("pdf: parser panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf: %w", err)
	}

	var (
		sb       strings.Builder
		pageErrs []error
	)
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		t, err := page.GetPlainText(nil)
		if err != nil {
			pageErrs = append(pageErrs, fmt.Errorf("page %d: %w", i, err))
			continue
		}
		sb.WriteString(t)
		sb.WriteString("\n")
	}

	// A blank result is only trusted when every page was read.
	if len(pageErrs) > 0 && strings.TrimSpace(sb.String()) == "" {
		return "", fmt.Errorf("pdf: %d of %d pages unreadable: %w", len(pageErrs), r.NumPage(), errors.Join(pageErrs...))
	}
	return sb.String(), nil
}

// FallbackExtractor tries each extractor in turn and returns the first
// non-blank text. When none produces text it returns an *ExtractionError:
// ErrNoText if at least one extractor parsed the document, ErrUnreadablePDF
// if all of them failed.
type FallbackExtractor struct {
	extractors []core.DocumentExtractor
	log        *zap.Logger
}

func NewFallbackExtractor(logger *zap.Logger, extractors ...core.DocumentExtractor) *FallbackExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackExtractor{extractors: extractors, log: logger}
}

func (f *FallbackExtractor) ExtractText(ctx context.Context, data []byte, contentType string) (string, error) {
	var (
		errs   []error
		parsed bool
	)
	for idx, ex := range f.extractors {
		text, err := ex.ExtractText(ctx, data, contentType)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			f.log.Debug("extractor failed, trying next", zap.Int("extractor", idx), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		parsed = true
		if strings.TrimSpace(text) != "" {
			return text, nil
		}
	}

	if !parsed && len(errs) > 0 {
		return "", &ExtractionError{Reason: ErrUnreadablePDF, Err: errors.Join(errs...)}
	}
	return "", &ExtractionError{Reason: ErrNoText, Err: errors.Join(errs...)}
}
