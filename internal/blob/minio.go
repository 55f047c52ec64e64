package blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/minio/minio-go/v7"
)

const (
	retryAttempts  = 3
	retryBaseDelay = 200 * time.Millisecond
	retryMaxDelay  = 2 * time.Second
)

// objectAPI is the slice of the MinIO client the adapter consumes.
type objectAPI interface {
	PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucket, key string, opts minio.GetObjectOptions) (io.ReadCloser, error)
	RemoveObject(ctx context.Context, bucket, key string, opts minio.RemoveObjectOptions) error
	StatObject(ctx context.Context, bucket, key string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
}

// minioAPI adapts *minio.Client to objectAPI.
type minioAPI struct {
	client *minio.Client
}

func (m minioAPI) PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return m.client.PutObject(ctx, bucket, key, reader, size, opts)
}

func (m minioAPI) GetObject(ctx context.Context, bucket, key string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	return m.client.GetObject(ctx, bucket, key, opts)
}

func (m minioAPI) RemoveObject(ctx context.Context, bucket, key string, opts minio.RemoveObjectOptions) error {
	return m.client.RemoveObject(ctx, bucket, key, opts)
}

func (m minioAPI) StatObject(ctx context.Context, bucket, key string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	return m.client.StatObject(ctx, bucket, key, opts)
}

// ObjectStore stores blobs in a MinIO (or any S3-compatible) bucket.
// Transient failures are retried with exponential backoff; explicit
// not-found, quota and auth failures surface immediately.
type ObjectStore struct {
	api    objectAPI
	bucket string
}

// NewObjectStore builds the remote object-store adapter over an
// established MinIO client.
func NewObjectStore(client *minio.Client, bucket string) *ObjectStore {
	return &ObjectStore{api: minioAPI{client: client}, bucket: bucket}
}

func (s *ObjectStore) Put(ctx context.Context, key string, payload []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}

	return s.retry(ctx, func() error {
		_, err := s.api.PutObject(ctx, s.bucket, key, bytes.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{})
		return s.classify(key, err)
	})
}

func (s *ObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	var payload []byte
	err := s.retry(ctx, func() error {
		obj, err := s.api.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
		if err != nil {
			return s.classify(key, err)
		}
		defer obj.Close()

		// minio defers request errors until the first read
		payload, err = io.ReadAll(obj)
		return s.classify(key, err)
	})
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (s *ObjectStore) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	return s.retry(ctx, func() error {
		// RemoveObject succeeds on absent keys; the contract wants an
		// explicit NotFound, so probe first.
		if _, err := s.api.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
			return s.classify(key, err)
		}
		return s.classify(key, s.api.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}))
	})
}

func (s *ObjectStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	var found bool
	err := s.retry(ctx, func() error {
		_, err := s.api.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
		if err == nil {
			found = true
			return nil
		}
		cerr := s.classify(key, err)
		if IsKind(cerr, NotFound) {
			found = false
			return nil
		}
		return cerr
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// retry runs op up to retryAttempts times, backing off on transient
// (Unavailable) failures only.
func (s *ObjectStore) retry(ctx context.Context, op func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = retryBaseDelay
	policy.MaxInterval = retryMaxDelay

	attempt := func() error {
		err := op()
		if err == nil {
			return nil
		}
		if IsKind(err, Unavailable) {
			return err
		}
		return backoff.Permanent(err)
	}

	return backoff.Retry(attempt, backoff.WithContext(backoff.WithMaxRetries(policy, retryAttempts-1), ctx))
}

// classify maps a MinIO error onto the adapter taxonomy.
func (s *ObjectStore) classify(key string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket":
		return newError(NotFound, key, err)
	case "QuotaExceeded", "XMinioAdminBucketQuotaExceeded", "EntityTooLarge":
		return newError(QuotaExceeded, key, err)
	case "XMinioInvalidObjectName", "InvalidObjectName", "KeyTooLongError":
		return newError(InvalidKey, key, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return newError(NotFound, key, err)
	}

	// Auth failures are unavailable from the caller's perspective but
	// retrying them cannot help.
	switch resp.Code {
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return backoff.Permanent(newError(Unavailable, key, err))
	}

	// Network errors and 5xx-class responses are transient.
	return newError(Unavailable, key, err)
}
