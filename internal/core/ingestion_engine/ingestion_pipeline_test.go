package ingestion_engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/AskNest/internal/apperr"
	"github.com/markdave123-py/AskNest/internal/core"
	"github.com/markdave123-py/AskNest/internal/core/retry"
	"github.com/markdave123-py/AskNest/internal/models"
	"github.com/markdave123-py/AskNest/internal/testutil"
)

type scriptedFAQs struct {
	mu     sync.Mutex
	pairs  []models.FAQPair
	inputs []string
}

func (s *scriptedFAQs) ExtractFAQs(_ context.Context, text string) []models.FAQPair {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs = append(s.inputs, text)
	return append([]models.FAQPair(nil), s.pairs...)
}

func (s *scriptedFAQs) GenerateAnswer(context.Context, string, string) string { return "" }

type pipelineFixture struct {
	store     *testutil.MemoryStore
	objects   *testutil.MemoryObjects
	extractor *testutil.ScriptedExtractor
	faqs      *scriptedFAQs
	recorder  *testutil.MemoryRecorder
	admin     *models.User
	org       *models.Organization
}

func newFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	ctx := context.Background()
	store := testutil.NewMemoryStore()

	org, err := store.CreateOrganization(ctx, &models.Organization{Name: "Acme"})
	require.NoError(t, err)
	admin, err := store.CreateUser(ctx, &models.User{
		Email: "ada@acme.test", Name: "Ada", Role: models.RoleAdmin, OrganizationID: org.UID,
	})
	require.NoError(t, err)

	return &pipelineFixture{
		store:     store,
		extractor: &testutil.ScriptedExtractor{Text: "Refunds take 5 days. We ship to the EU."},
		faqs: &scriptedFAQs{pairs: []models.FAQPair{
			{Question: "How long do refunds take?", Answer: "5 days."},
			{Question: "Do you ship to the EU?", Answer: "Yes."},
		}},
		recorder: testutil.NewMemoryRecorder(),
		admin:    admin,
		org:      org,
	}
}

func (f *pipelineFixture) ingestor(cfg *IngestConfig) *DocumentIngestor {
	if cfg == nil {
		cfg = &IngestConfig{ReadRetry: retry.Policy{Attempts: 2, Delay: time.Millisecond}}
	}
	var obj core.ObjectClient
	if f.objects != nil {
		obj = f.objects
	}
	return NewDocumentIngestor(f.store, obj, f.extractor, f.faqs, f.recorder, cfg, nil)
}

// parserIngestor uses the production extractor chain instead of the
// scripted one.
func (f *pipelineFixture) parserIngestor() *DocumentIngestor {
	chain := NewFallbackExtractor(nil, NewDocconvExtractor(false), PlainPDFExtractor{})
	cfg := &IngestConfig{ReadRetry: retry.Policy{Attempts: 2, Delay: time.Millisecond}}
	return NewDocumentIngestor(f.store, nil, chain, f.faqs, f.recorder, cfg, nil)
}

func (f *pipelineFixture) request() UploadRequest {
	return UploadRequest{
		Principal:      models.Principal{ID: "idp-1", Email: f.admin.Email},
		OrganizationID: f.org.UID,
		FileName:       "Refund Policy.PDF",
		ContentType:    PDFContentType,
		Data:           []byte("%PDF-1.4 fake"),
	}
}

func TestIngest_CreatesDocumentAndFAQs(t *testing.T) {
	f := newFixture(t)

	res, err := f.ingestor(nil).Ingest(context.Background(), f.request())
	require.NoError(t, err)

	assert.Equal(t, "PDF processed successfully", res.Message)
	require.NotNil(t, res.Document)
	assert.Equal(t, "Refund Policy", res.Document.Title)
	assert.Equal(t, "Refunds take 5 days. We ship to the EU.", res.Document.Content)
	assert.Equal(t, f.org.UID, res.Document.OrganizationID)
	assert.Empty(t, res.Document.FileURL)

	assert.Equal(t, 2, res.FAQsCreated)
	assert.Equal(t, 0, res.FAQsFailed)
	require.Len(t, res.FAQs, 2)
	for _, faq := range res.FAQs {
		assert.Equal(t, f.org.UID, faq.OrganizationID)
		assert.Equal(t, []string{"auto-generated", "pdf-extract"}, faq.Tags)
		assert.NotEmpty(t, faq.UID)
	}
	assert.Equal(t, "How long do refunds take?", res.FAQs[0].Question)
	assert.Equal(t, "Do you ship to the EU?", res.FAQs[1].Question)

	assert.Len(t, f.store.Documents, 1)
	assert.Len(t, f.store.FAQs, 2)
	assert.Equal(t, []string{"Refunds take 5 days. We ship to the EU."}, f.faqs.inputs)

	run, ok := f.recorder.Only()
	require.True(t, ok)
	assert.Equal(t, models.IngestionComplete, run.Status)
	assert.Equal(t, res.Document.UID, run.DocumentUID)
	assert.Equal(t, 2, run.FAQsCreated)
}

func TestIngest_BlankPDF(t *testing.T) {
	f := newFixture(t)
	f.extractor.Text = "  \n "

	_, err := f.ingestor(nil).Ingest(context.Background(), f.request())

	require.Error(t, err)
	assert.Equal(t, 400, apperr.StatusOf(err))
	assert.Equal(t, "Could not extract text from PDF", apperr.MessageOf(err, ""))
	assert.Empty(t, f.store.Documents)
	assert.Empty(t, f.store.FAQs)
	assert.Empty(t, f.faqs.inputs)

	run, ok := f.recorder.Only()
	require.True(t, ok)
	assert.Equal(t, models.IngestionFailed, run.Status)
}

func TestIngest_BlankPDFThroughParser(t *testing.T) {
	f := newFixture(t)
	req := f.request()
	req.Data = blankPDF()

	_, err := f.parserIngestor().Ingest(context.Background(), req)

	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, 400, apperr.StatusOf(err))
	assert.Equal(t, "Could not extract text from PDF", apperr.MessageOf(err, ""))
	assert.Empty(t, f.store.Documents)
	assert.Empty(t, f.faqs.inputs)
}

func TestIngest_TextPDFThroughParser(t *testing.T) {
	f := newFixture(t)
	req := f.request()
	req.Data = textPDF("Refunds take five days")

	res, err := f.parserIngestor().Ingest(context.Background(), req)
	require.NoError(t, err)

	assert.Contains(t, res.Document.Content, "Refunds take five days")
	assert.Equal(t, 2, res.FAQsCreated)
	require.Len(t, f.faqs.inputs, 1)
	assert.Contains(t, f.faqs.inputs[0], "Refunds take five days")
}

func TestIngest_GarbageThroughParser(t *testing.T) {
	f := newFixture(t)

	_, err := f.parserIngestor().Ingest(context.Background(), f.request())

	assert.Equal(t, apperr.KindExtraction, apperr.KindOf(err))
	assert.Equal(t, 500, apperr.StatusOf(err))
	assert.Empty(t, f.store.Documents)
}

func TestIngest_UnreadablePDF(t *testing.T) {
	f := newFixture(t)
	f.extractor.Err = &ExtractionError{Reason: ErrUnreadablePDF, Err: errors.New("bad xref")}

	_, err := f.ingestor(nil).Ingest(context.Background(), f.request())

	assert.Equal(t, 500, apperr.StatusOf(err))
	assert.Equal(t, "Failed to process PDF file", apperr.MessageOf(err, ""))
	assert.Empty(t, f.store.Documents)
}

func TestIngest_DropsIncompletePairs(t *testing.T) {
	f := newFixture(t)
	f.faqs.pairs = []models.FAQPair{
		{Question: "Q1?", Answer: "A1."},
		{Question: "", Answer: "orphan answer"},
		{Question: "Q3?", Answer: ""},
	}

	res, err := f.ingestor(nil).Ingest(context.Background(), f.request())
	require.NoError(t, err)

	assert.Equal(t, 1, res.FAQsCreated)
	assert.Equal(t, 0, res.FAQsFailed)
	assert.Len(t, f.store.FAQs, 1)
}

func TestIngest_NoFAQsStillStoresDocument(t *testing.T) {
	f := newFixture(t)
	f.faqs.pairs = nil

	res, err := f.ingestor(nil).Ingest(context.Background(), f.request())
	require.NoError(t, err)

	assert.Equal(t, 0, res.FAQsCreated)
	assert.NotNil(t, res.FAQs)
	assert.Len(t, f.store.Documents, 1)
}

func TestIngest_PartialFAQFailure(t *testing.T) {
	f := newFixture(t)
	f.store.FailFAQ["Do you ship to the EU?"] = errors.New("cms 500")

	res, err := f.ingestor(nil).Ingest(context.Background(), f.request())
	require.NoError(t, err)

	assert.Equal(t, 1, res.FAQsCreated)
	assert.Equal(t, 1, res.FAQsFailed)
	require.Len(t, res.FAQs, 1)
	assert.Equal(t, "How long do refunds take?", res.FAQs[0].Question)
	assert.Len(t, f.store.Documents, 1)

	run, ok := f.recorder.Only()
	require.True(t, ok)
	assert.Equal(t, models.IngestionPartial, run.Status)
	assert.Equal(t, 1, run.FAQsFailed)
}

func TestIngest_RejectsNonPDFBeforeExtraction(t *testing.T) {
	f := newFixture(t)
	req := f.request()
	req.ContentType = "image/png"

	_, err := f.ingestor(nil).Ingest(context.Background(), req)

	assert.Equal(t, 400, apperr.StatusOf(err))
	assert.Equal(t, "Only PDF files are supported", apperr.MessageOf(err, ""))
	assert.Equal(t, 0, f.extractor.Calls())
	assert.Empty(t, f.recorder.Runs)
}

func TestIngest_RequiresFileAndOrganization(t *testing.T) {
	f := newFixture(t)

	req := f.request()
	req.Data = nil
	_, err := f.ingestor(nil).Ingest(context.Background(), req)
	assert.Equal(t, "File and organization ID are required", apperr.MessageOf(err, ""))

	req = f.request()
	req.OrganizationID = ""
	_, err = f.ingestor(nil).Ingest(context.Background(), req)
	assert.Equal(t, 400, apperr.StatusOf(err))
}

func TestIngest_Authorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.store.CreateUser(ctx, &models.User{
		Email: "bob@acme.test", Role: models.RoleMember, OrganizationID: f.org.UID,
	})
	require.NoError(t, err)

	cases := []struct {
		name   string
		mutate func(*UploadRequest)
		status int
	}{
		{"no principal", func(r *UploadRequest) { r.Principal = models.Principal{} }, 401},
		{"unknown user", func(r *UploadRequest) { r.Principal.Email = "ghost@acme.test" }, 403},
		{"member", func(r *UploadRequest) { r.Principal.Email = "bob@acme.test" }, 403},
		{"other org", func(r *UploadRequest) { r.OrganizationID = "org-elsewhere" }, 403},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := f.request()
			tc.mutate(&req)

			_, err := f.ingestor(nil).Ingest(ctx, req)

			assert.Equal(t, tc.status, apperr.StatusOf(err))
		})
	}
	assert.Empty(t, f.store.Documents)
	assert.Equal(t, 0, f.extractor.Calls())
}

func TestIngest_RetriesUserLookup(t *testing.T) {
	f := newFixture(t)
	f.store.HideUsersFor = 2

	_, err := f.ingestor(&IngestConfig{ReadRetry: retry.Policy{Attempts: 3, Delay: time.Millisecond}}).
		Ingest(context.Background(), f.request())

	require.NoError(t, err)
	assert.Equal(t, 3, f.store.UserLookups)
}

func TestIngest_StoresOriginalInObjectStorage(t *testing.T) {
	f := newFixture(t)
	f.objects = testutil.NewMemoryObjects()

	res, err := f.ingestor(nil).Ingest(context.Background(), f.request())
	require.NoError(t, err)

	require.Len(t, f.objects.Objects, 1)
	for key, data := range f.objects.Objects {
		assert.True(t, strings.HasPrefix(key, "organizations/"+f.org.UID+"/documents/"))
		assert.True(t, strings.HasSuffix(key, "/Refund_Policy.PDF"))
		assert.Equal(t, "https://objects.test/"+key, res.Document.FileURL)
		assert.Equal(t, []byte("%PDF-1.4 fake"), data)
	}
}

func TestIngest_DocumentFailureRemovesObject(t *testing.T) {
	f := newFixture(t)
	f.objects = testutil.NewMemoryObjects()
	f.store.FailDocument = errors.New("cms down")

	_, err := f.ingestor(nil).Ingest(context.Background(), f.request())

	assert.Equal(t, 500, apperr.StatusOf(err))
	assert.Empty(t, f.objects.Objects)
	assert.Empty(t, f.store.FAQs)
	assert.Empty(t, f.faqs.inputs)
}

func TestIngest_ChunkedExtraction(t *testing.T) {
	f := newFixture(t)
	f.extractor.Text = "Refunds take five days. We ship to the EU. Support answers within a day."

	_, err := f.ingestor(&IngestConfig{
		Chunked:   true,
		ChunkSize: 30,
		ReadRetry: retry.Policy{Attempts: 1},
	}).Ingest(context.Background(), f.request())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Refunds take five days.",
		"We ship to the EU.",
		"Support answers within a day.",
	}, f.faqs.inputs)
	assert.Len(t, f.store.FAQs, 6)
}

func TestDocumentTitle(t *testing.T) {
	assert.Equal(t, "handbook", documentTitle("handbook.pdf"))
	assert.Equal(t, "Handbook", documentTitle("Handbook.PDF"))
	assert.Equal(t, "notes.txt", documentTitle("notes.txt"))
	assert.Equal(t, "a.pdf", documentTitle("a.pdf.pdf"))
}
