package objectclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	cfg "github.com/markdave123-py/AskNest/internal/config"
)

// fakeBucket answers the path-style PutObject and DeleteObject calls.
type fakeBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (b *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		b.objects[r.URL.Path] = body
		b.types[r.URL.Path] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		delete(b.objects, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestClient(t *testing.T) (*S3Client, *fakeBucket) {
	t.Helper()
	bucket := &fakeBucket{objects: map[string][]byte{}, types: map[string]string{}}
	srv := httptest.NewServer(bucket)
	t.Cleanup(srv.Close)

	client, err := NewS3Client(context.Background(), &cfg.Config{
		AwsAccessKey: "AKIATEST",
		AwsSecretKey: "secret",
		AwsRegion:    "us-east-2",
		AwsEndpoint:  srv.URL,
		BucketName:   "asknest-docs",
	}, zap.NewNop())
	require.NoError(t, err)
	return client, bucket
}

func TestS3Client_UploadAndDelete(t *testing.T) {
	client, bucket := newTestClient(t)
	ctx := context.Background()

	url, err := client.UploadFile(ctx, "organizations/org1/documents/abc/handbook.pdf", []byte("%PDF-1.4"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, client.endpoint+"/asknest-docs/organizations/org1/documents/abc/handbook.pdf", url)

	const path = "/asknest-docs/organizations/org1/documents/abc/handbook.pdf"
	require.Contains(t, bucket.objects, path)
	assert.Contains(t, string(bucket.objects[path]), "%PDF-1.4")
	assert.Equal(t, "application/pdf", bucket.types[path])

	require.NoError(t, client.DeleteFile(ctx, "organizations/org1/documents/abc/handbook.pdf"))
	assert.Empty(t, bucket.objects)
}

func TestNewS3Client_RequiresSettings(t *testing.T) {
	_, err := NewS3Client(context.Background(), &cfg.Config{AwsRegion: "us-east-2", BucketName: "b"}, zap.NewNop())
	assert.EqualError(t, err, "AWS credentials not set")

	_, err = NewS3Client(context.Background(), &cfg.Config{AwsAccessKey: "a", AwsSecretKey: "s", AwsRegion: "us-east-2"}, zap.NewNop())
	assert.EqualError(t, err, "S3 bucket name not set")
}

func TestObjectURL_AWS(t *testing.T) {
	c := &S3Client{bucket: "asknest-docs", region: "eu-west-1"}

	assert.Equal(t,
		"https://asknest-docs.s3.eu-west-1.amazonaws.com/organizations/o/documents/d/My%20File.pdf",
		c.objectURL("organizations/o/documents/d/My File.pdf"))
}
