package objectclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	cfg "github.com/markdave123-py/AskNest/internal/config"
	"github.com/markdave123-py/AskNest/internal/core"
)

var _ core.ObjectClient = (*S3Client)(nil)

// S3Client keeps the original uploaded PDFs in a single bucket.
type S3Client struct {
	client   *s3.Client
	uploader *manager.Uploader
	region   string
	bucket   string
	endpoint string
}

func NewS3Client(ctx context.Context, c *cfg.Config, logger *zap.Logger) (*S3Client, error) {
	if c.AwsAccessKey == "" || c.AwsSecretKey == "" {
		return nil, errors.New("AWS credentials not set")
	}
	if c.AwsRegion == "" {
		return nil, errors.New("AWS_REGION not set")
	}
	if c.BucketName == "" {
		return nil, errors.New("S3 bucket name not set")
	}

	awsCfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(c.AwsRegion),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AwsAccessKey, c.AwsSecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if c.AwsEndpoint != "" {
			o.BaseEndpoint = aws.String(c.AwsEndpoint)
			o.UsePathStyle = true
		}
	})
	logger.Info("object storage enabled", zap.String("bucket", c.BucketName), zap.String("region", c.AwsRegion))

	return &S3Client{
		client:   client,
		uploader: manager.NewUploader(client),
		region:   c.AwsRegion,
		bucket:   c.BucketName,
		endpoint: strings.TrimRight(c.AwsEndpoint, "/"),
	}, nil
}

// UploadFile stores data under key and returns the object's URL.
func (c *S3Client) UploadFile(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	ctxUpload, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	_, err := c.uploader.Upload(ctxUpload, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload failed: %w", err)
	}
	return c.objectURL(key), nil
}

func (c *S3Client) DeleteFile(ctx context.Context, key string) error {
	ctxDel, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := c.client.DeleteObject(ctxDel, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete failed: %w", err)
	}
	return nil
}

func (c *S3Client) objectURL(key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()
	if c.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", c.endpoint, c.bucket, escaped)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.bucket, c.region, escaped)
}
