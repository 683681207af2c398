package ingestion_engine

import (
	"context"
	"errors"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/AskNest/internal/apperr"
	"github.com/markdave123-py/AskNest/internal/core"
	"github.com/markdave123-py/AskNest/internal/core/retry"
	"github.com/markdave123-py/AskNest/internal/models"
)

// PDFContentType is the only upload type accepted.
const PDFContentType = "application/pdf"

// UploadRequest is one PDF upload as received by the API.
type UploadRequest struct {
	Principal      models.Principal
	OrganizationID string
	FileName       string
	ContentType    string
	Data           []byte
}

// UploadResult summarises a finished upload. FAQs that failed to persist are
// only counted.
type UploadResult struct {
	Message     string           `json:"message"`
	Document    *models.Document `json:"document"`
	FAQsCreated int              `json:"faqsCreated"`
	FAQs        []models.FAQ     `json:"faqs"`
	FAQsFailed  int              `json:"faqsFailed"`
}

var _ Ingestor = (*DocumentIngestor)(nil)

// DocumentIngestor runs the upload pipeline: authorize, validate, extract,
// store the document, extract FAQs with the model, store the FAQs.
// Writes are not rolled back: a document stays stored even if some or all
// of its FAQs fail.
type DocumentIngestor struct {
	store     core.KnowledgeStore
	obj       core.ObjectClient
	extractor core.DocumentExtractor
	faqs      core.FAQExtractor
	recorder  core.IngestionRecorder
	cfg       *IngestConfig
	log       *zap.Logger
}

// NewDocumentIngestor wires the pipeline. obj and recorder may be nil: the
// original file is then not kept and runs are not recorded.
func NewDocumentIngestor(
	store core.KnowledgeStore,
	obj core.ObjectClient,
	extractor core.DocumentExtractor,
	faqs core.FAQExtractor,
	recorder core.IngestionRecorder,
	cfg *IngestConfig,
	logger *zap.Logger,
) *DocumentIngestor {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentIngestor{
		store:     store,
		obj:       obj,
		extractor: extractor,
		faqs:      faqs,
		recorder:  recorder,
		cfg:       cfg.withDefaults(),
		log:       logger,
	}
}

func (i *DocumentIngestor) Ingest(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	log := i.log.With(zap.String("organization_id", req.OrganizationID), zap.String("file", req.FileName))

	if err := i.authorize(ctx, req); err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	run := &models.IngestionRun{
		ID:             uuid.NewString(),
		OrganizationID: req.OrganizationID,
		FileName:       req.FileName,
		Status:         models.IngestionPending,
	}
	if err := i.recorder.StartRun(ctx, run); err != nil {
		log.Warn("ingestion run not recorded", zap.Error(err))
	}
	log = log.With(zap.String("run_id", run.ID))

	text, err := i.extractor.ExtractText(ctx, req.Data, req.ContentType)
	if err == nil && strings.TrimSpace(text) == "" {
		err = &ExtractionError{Reason: ErrNoText}
	}
	if err != nil {
		i.finish(ctx, log, run, models.IngestionFailed, err)
		if errors.Is(err, ErrNoText) {
			return nil, apperr.Wrap(apperr.KindValidation, "Could not extract text from PDF", err)
		}
		log.Error("pdf text extraction failed", zap.Error(err))
		return nil, apperr.Wrap(apperr.KindExtraction, "Failed to process PDF file", err)
	}

	doc, err := i.storeDocument(ctx, log, req, text)
	if err != nil {
		i.finish(ctx, log, run, models.IngestionFailed, err)
		return nil, err
	}
	run.DocumentUID = doc.UID
	run.Status = models.IngestionDocumentStored
	if err := i.recorder.UpdateRun(ctx, run); err != nil {
		log.Warn("ingestion run not updated", zap.Error(err))
	}

	pairs := completePairs(i.extractPairs(ctx, text))
	run.FAQsExtracted = len(pairs)

	created, failed := i.storeFAQs(ctx, log, req.OrganizationID, pairs)
	run.FAQsCreated, run.FAQsFailed = len(created), failed

	status := models.IngestionComplete
	if failed > 0 {
		status = models.IngestionPartial
	}
	i.finish(ctx, log, run, status, nil)

	log.Info("pdf ingested",
		zap.String("document_uid", doc.UID),
		zap.Int("faqs_extracted", len(pairs)),
		zap.Int("faqs_created", len(created)),
		zap.Int("faqs_failed", failed),
	)

	return &UploadResult{
		Message:     "PDF processed successfully",
		Document:    doc,
		FAQsCreated: len(created),
		FAQs:        created,
		FAQsFailed:  failed,
	}, nil
}

// authorize requires an admin caller belonging to the target organization.
func (i *DocumentIngestor) authorize(ctx context.Context, req UploadRequest) error {
	if req.Principal.Email == "" {
		return apperr.Unauthorized("Unauthorized")
	}
	user, err := retry.ReadAfterWrite(ctx, i.cfg.ReadRetry, func(ctx context.Context) (*models.User, error) {
		return i.store.GetUserByEmail(ctx, req.Principal.Email)
	})
	if err != nil {
		return apperr.Upstream("Failed to process PDF file", err)
	}
	if !user.IsAdmin() {
		return apperr.Forbidden("Only admins can upload files")
	}
	if req.OrganizationID != "" && user.OrganizationID != req.OrganizationID {
		return apperr.Forbidden("Only admins of this organization can upload files")
	}
	return nil
}

func validate(req UploadRequest) error {
	if len(req.Data) == 0 || req.OrganizationID == "" {
		return apperr.Validation("File and organization ID are required")
	}
	if req.ContentType != PDFContentType {
		return apperr.Validation("Only PDF files are supported")
	}
	return nil
}

func (i *DocumentIngestor) storeDocument(ctx context.Context, log *zap.Logger, req UploadRequest, text string) (*models.Document, error) {
	var fileURL, key string
	if i.obj != nil {
		key = objectKey(req.OrganizationID, req.FileName)
		url, err := i.obj.UploadFile(ctx, key, req.Data, req.ContentType)
		if err != nil {
			log.Error("original pdf upload failed", zap.Error(err))
			return nil, apperr.Upstream("Failed to process PDF file", err)
		}
		fileURL = url
	}

	doc, err := i.store.CreateDocument(ctx, &models.Document{
		Title:          documentTitle(req.FileName),
		Content:        text,
		FileURL:        fileURL,
		OrganizationID: req.OrganizationID,
	})
	if err != nil {
		log.Error("document create failed", zap.Error(err))
		if key != "" {
			if derr := i.obj.DeleteFile(ctx, key); derr != nil {
				log.Warn("orphaned pdf object left behind", zap.String("key", key), zap.Error(derr))
			}
		}
		return nil, apperr.Upstream("Failed to process PDF file", err)
	}
	return doc, nil
}

// extractPairs sends the full text to the model, or each chunk in turn when
// chunked extraction is enabled.
func (i *DocumentIngestor) extractPairs(ctx context.Context, text string) []models.FAQPair {
	if !i.cfg.Chunked {
		return i.faqs.ExtractFAQs(ctx, text)
	}
	var pairs []models.FAQPair
	for _, chunk := range ChunkText(text, i.cfg.ChunkSize) {
		pairs = append(pairs, i.faqs.ExtractFAQs(ctx, chunk)...)
	}
	return pairs
}

func completePairs(pairs []models.FAQPair) []models.FAQPair {
	out := make([]models.FAQPair, 0, len(pairs))
	for _, p := range pairs {
		if p.Complete() {
			out = append(out, p)
		}
	}
	return out
}

// storeFAQs writes the pairs concurrently and waits for all of them. A
// failed write is logged and counted; it never cancels its siblings.
func (i *DocumentIngestor) storeFAQs(ctx context.Context, log *zap.Logger, orgID string, pairs []models.FAQPair) ([]models.FAQ, int) {
	results := make([]*models.FAQ, len(pairs))

	var g errgroup.Group
	g.SetLimit(i.cfg.FAQWriteConcurrency)
	for idx, p := range pairs {
		g.Go(func() error {
			faq, err := i.store.CreateFAQ(ctx, &models.FAQ{
				Question:       p.Question,
				Answer:         p.Answer,
				OrganizationID: orgID,
				Tags:           append([]string(nil), models.PipelineFAQTags...),
			})
			if err != nil {
				log.Warn("faq create failed", zap.Int("index", idx), zap.Error(err))
				return nil
			}
			results[idx] = faq
			return nil
		})
	}
	_ = g.Wait()

	created := make([]models.FAQ, 0, len(pairs))
	for _, f := range results {
		if f != nil {
			created = append(created, *f)
		}
	}
	return created, len(pairs) - len(created)
}

func (i *DocumentIngestor) finish(ctx context.Context, log *zap.Logger, run *models.IngestionRun, status string, cause error) {
	run.Status = status
	if cause != nil {
		run.Error = cause.Error()
	}
	if err := i.recorder.UpdateRun(ctx, run); err != nil {
		log.Warn("ingestion run not updated", zap.Error(err))
	}
}

// documentTitle drops a trailing ".pdf" from the uploaded file name.
func documentTitle(fileName string) string {
	name := filepath.Base(fileName)
	if ext := filepath.Ext(name); strings.EqualFold(ext, ".pdf") {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

// objectKey creates a consistent object storage key layout.
func objectKey(orgID, fileName string) string {
	name := strings.ReplaceAll(strings.TrimSpace(filepath.Base(fileName)), " ", "_")
	return path.Join("organizations", orgID, "documents", uuid.NewString(), name)
}

type nopRecorder struct{}

func (nopRecorder) StartRun(context.Context, *models.IngestionRun) error  { return nil }
func (nopRecorder) UpdateRun(context.Context, *models.IngestionRun) error { return nil }
