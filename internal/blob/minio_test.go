package blob

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/require"
)

type fakeObjectAPI struct {
	objects map[string][]byte

	putErrs  []error
	getErr   error
	statErr  error
	removeEr error

	putCalls    int
	getCalls    int
	statCalls   int
	removeCalls int
}

func newFakeObjectAPI() *fakeObjectAPI {
	return &fakeObjectAPI{objects: map[string][]byte{}}
}

func (f *fakeObjectAPI) PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	f.putCalls++
	if len(f.putErrs) > 0 {
		err := f.putErrs[0]
		f.putErrs = f.putErrs[1:]
		if err != nil {
			return minio.UploadInfo{}, err
		}
	}
	payload, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.objects[key] = payload
	return minio.UploadInfo{Size: int64(len(payload))}, nil
}

func (f *fakeObjectAPI) GetObject(ctx context.Context, bucket, key string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	payload, ok := f.objects[key]
	if !ok {
		return nil, minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}
	}
	return io.NopCloser(bytes.NewReader(payload)), nil
}

func (f *fakeObjectAPI) RemoveObject(ctx context.Context, bucket, key string, opts minio.RemoveObjectOptions) error {
	f.removeCalls++
	if f.removeEr != nil {
		return f.removeEr
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeObjectAPI) StatObject(ctx context.Context, bucket, key string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	f.statCalls++
	if f.statErr != nil {
		return minio.ObjectInfo{}, f.statErr
	}
	payload, ok := f.objects[key]
	if !ok {
		return minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}
	}
	return minio.ObjectInfo{Key: key, Size: int64(len(payload))}, nil
}

func newTestObjectStore(api objectAPI) *ObjectStore {
	return &ObjectStore{api: api, bucket: "filestore"}
}

func TestObjectStoreRetriesTransientPutFailures(t *testing.T) {
	api := newFakeObjectAPI()
	api.putErrs = []error{
		minio.ErrorResponse{Code: "SlowDown", StatusCode: http.StatusServiceUnavailable},
		minio.ErrorResponse{Code: "SlowDown", StatusCode: http.StatusServiceUnavailable},
	}
	store := newTestObjectStore(api)

	err := store.Put(context.Background(), "docs/a.txt", []byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 3, api.putCalls)
	require.Equal(t, []byte("hello"), api.objects["docs/a.txt"])
}

func TestObjectStoreGivesUpAfterBoundedRetries(t *testing.T) {
	api := newFakeObjectAPI()
	api.putErrs = []error{
		minio.ErrorResponse{Code: "SlowDown", StatusCode: http.StatusServiceUnavailable},
		minio.ErrorResponse{Code: "SlowDown", StatusCode: http.StatusServiceUnavailable},
		minio.ErrorResponse{Code: "SlowDown", StatusCode: http.StatusServiceUnavailable},
	}
	store := newTestObjectStore(api)

	err := store.Put(context.Background(), "docs/a.txt", []byte("hello"))
	require.True(t, IsKind(err, Unavailable))
	require.Equal(t, 3, api.putCalls)
}

func TestObjectStoreDoesNotRetryNotFound(t *testing.T) {
	api := newFakeObjectAPI()
	store := newTestObjectStore(api)

	_, err := store.Get(context.Background(), "missing.bin")
	require.True(t, IsKind(err, NotFound))
	require.Equal(t, 1, api.getCalls)
}

func TestObjectStoreDoesNotRetryAuthFailures(t *testing.T) {
	api := newFakeObjectAPI()
	api.putErrs = []error{
		minio.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden},
	}
	store := newTestObjectStore(api)

	err := store.Put(context.Background(), "docs/a.txt", []byte("x"))
	require.True(t, IsKind(err, Unavailable))
	require.Equal(t, 1, api.putCalls)
}

func TestObjectStoreClassifiesQuotaExceeded(t *testing.T) {
	api := newFakeObjectAPI()
	api.putErrs = []error{
		minio.ErrorResponse{Code: "QuotaExceeded", StatusCode: http.StatusForbidden},
	}
	store := newTestObjectStore(api)

	err := store.Put(context.Background(), "docs/a.txt", []byte("x"))
	require.True(t, IsKind(err, QuotaExceeded))
	require.Equal(t, 1, api.putCalls)
}

func TestObjectStoreDeleteMissingKeyIsNotFound(t *testing.T) {
	api := newFakeObjectAPI()
	store := newTestObjectStore(api)

	err := store.Delete(context.Background(), "gone.bin")
	require.True(t, IsKind(err, NotFound))
	require.Zero(t, api.removeCalls)
}

func TestObjectStoreDeleteRemovesObject(t *testing.T) {
	api := newFakeObjectAPI()
	api.objects["docs/a.txt"] = []byte("x")
	store := newTestObjectStore(api)

	require.NoError(t, store.Delete(context.Background(), "docs/a.txt"))
	require.Equal(t, 1, api.removeCalls)

	exists, err := store.Exists(context.Background(), "docs/a.txt")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestObjectStoreExistsMissingKeyIsNotAnError(t *testing.T) {
	api := newFakeObjectAPI()
	store := newTestObjectStore(api)

	exists, err := store.Exists(context.Background(), "absent.bin")
	require.NoError(t, err)
	require.False(t, exists)
	require.Equal(t, 1, api.statCalls)
}
