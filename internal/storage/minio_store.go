package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/spec-kit/news-portal/internal/config"
)

type minioAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// minioClient narrows GetObject to an io.ReadCloser.
type minioClient struct {
	*minio.Client
}

func (c minioClient) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	obj, err := c.Client.GetObject(ctx, bucketName, objectName, opts)
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// MinIOStore keeps bodies as objects in a MinIO bucket.
type MinIOStore struct {
	client minioAPI
	bucket string
	prefix string
	refs   *referenceSource
}

// NewMinIOStore connects to MinIO and creates the bucket when missing.
func NewMinIOStore(ctx context.Context, cfg config.MinIOConfig) (*MinIOStore, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("storage: missing MinIO bucket")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  miniocreds.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("storage: check MinIO bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("storage: create MinIO bucket: %w", err)
		}
	}

	return newMinIOStore(minioClient{client}, cfg.Bucket, cfg.Prefix), nil
}

func newMinIOStore(client minioAPI, bucket, prefix string) *MinIOStore {
	return &MinIOStore{client: client, bucket: bucket, prefix: prefix, refs: newReferenceSource()}
}

// Store writes the body under a fresh reference. The put is conditional
// on the key being absent, so a reused reference fails instead of
// overwriting another body.
func (s *MinIOStore) Store(ctx context.Context, text string) (string, error) {
	ref := s.refs.next()
	opts := minio.PutObjectOptions{ContentType: "text/plain; charset=utf-8"}
	opts.SetMatchETagExcept("*")

	_, err := s.client.PutObject(ctx, s.bucket, joinKey(s.prefix, ref), strings.NewReader(text), int64(len(text)), opts)
	if isMinIOPreconditionFailed(err) {
		return "", fmt.Errorf("%w: %s", ErrReferenceCollision, ref)
	}
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return ref, nil
}

func (s *MinIOStore) Load(ctx context.Context, ref string) (string, error) {
	if err := checkReference(ref); err != nil {
		return "", err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, joinKey(s.prefix, ref), minio.GetObjectOptions{})
	if isMinIONotFound(err) {
		return "", fmt.Errorf("%w: %s", ErrContentNotFound, ref)
	}
	if err != nil {
		return "", fmt.Errorf("get object: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if isMinIONotFound(err) {
		return "", fmt.Errorf("%w: %s", ErrContentNotFound, ref)
	}
	if err != nil {
		return "", fmt.Errorf("read object: %w", err)
	}
	return string(data), nil
}

func (s *MinIOStore) Delete(ctx context.Context, ref string) error {
	if err := checkReference(ref); err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, joinKey(s.prefix, ref), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

var _ ContentStore = (*MinIOStore)(nil)

func isMinIONotFound(err error) bool {
	if err == nil {
		return false
	}
	code := minio.ToErrorResponse(err).Code
	return code == minio.NoSuchKey || code == "NotFound"
}

func isMinIOPreconditionFailed(err error) bool {
	return err != nil && minio.ToErrorResponse(err).Code == minio.PreconditionFailed
}
