// Package mirror copies accepted uploads to an S3-compatible bucket. The
// mirror is best-effort and off the request path: a failed copy is logged,
// the upload it shadows is already on disk.
package mirror

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("syncnest-mirror")

// Mirror wraps a MinIO client targeting one bucket.
type Mirror struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// New connects to the endpoint and ensures the bucket exists.
func New(endpoint, accessKey, secretKey, bucket string, useSSL bool, logger *slog.Logger) (*Mirror, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		logger.Info("mirror bucket created", "bucket", bucket)
	}

	return &Mirror{client: client, bucket: bucket, logger: logger}, nil
}

// PutFile uploads the file at path under objectKey.
func (m *Mirror) PutFile(ctx context.Context, objectKey, path, contentType string) error {
	ctx, span := tracer.Start(ctx, "mirror.put_file",
		trace.WithAttributes(
			attribute.String("object_key", objectKey),
			attribute.String("content_type", contentType),
		),
	)
	defer span.End()

	_, err := m.client.FPutObject(ctx, m.bucket, objectKey, path, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to mirror object: %w", err)
	}
	return nil
}

// PutFileAsync mirrors the file in the background. Errors are logged, never
// surfaced: the local copy is the source of truth.
func (m *Mirror) PutFileAsync(objectKey, path, contentType string) {
	go func() {
		if err := m.PutFile(context.Background(), objectKey, path, contentType); err != nil {
			m.logger.Warn("mirror upload failed", "object_key", objectKey, "error", err)
		}
	}()
}
