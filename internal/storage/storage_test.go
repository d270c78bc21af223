package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/news-portal/internal/config"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "content")
	store, err := NewLocalStore(root)
	require.NoError(t, err)

	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	body := "First line\nSecond line with ünïcode"
	ref, err := store.Store(context.Background(), body)
	require.NoError(t, err)
	assert.Regexp(t, `^news_[0-9]+\.txt$`, ref)

	got, err := store.Load(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestLocalStoreRecreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "content")
	store, err := NewLocalStore(root)
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(root))

	ref, err := store.Store(context.Background(), "text")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, ref))
	assert.NoError(t, err)
}

func TestLocalStoreCollisionIsFatal(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root)
	require.NoError(t, err)

	fixed := time.Unix(0, 42)
	store.refs.now = func() time.Time { return fixed }
	require.NoError(t, os.WriteFile(filepath.Join(root, "news_42.txt"), []byte("existing"), 0o644))

	_, err = store.Store(context.Background(), "new text")
	require.ErrorIs(t, err, ErrReferenceCollision)

	data, err := os.ReadFile(filepath.Join(root, "news_42.txt"))
	require.NoError(t, err)
	assert.Equal(t, "existing", string(data))
}

func TestLocalStoreMissingAndInvalidReferences(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load(context.Background(), "news_1.txt")
	assert.ErrorIs(t, err, ErrContentNotFound)

	_, err = store.Load(context.Background(), "../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidReference)

	assert.ErrorIs(t, store.Delete(context.Background(), "news_1.txt/.."), ErrInvalidReference)
}

func TestLocalStoreDeleteIsIdempotent(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	ref, err := store.Store(context.Background(), "body")
	require.NoError(t, err)

	require.NoError(t, store.Delete(context.Background(), ref))
	require.NoError(t, store.Delete(context.Background(), ref))

	_, err = store.Load(context.Background(), ref)
	assert.ErrorIs(t, err, ErrContentNotFound)
}

func TestReferencesStrictlyIncrease(t *testing.T) {
	src := newReferenceSource()
	fixed := time.Unix(0, 1000)
	src.now = func() time.Time { return fixed }

	assert.Equal(t, "news_1000.txt", src.next())
	assert.Equal(t, "news_1001.txt", src.next())
	assert.Equal(t, "news_1002.txt", src.next())
}

func TestReferencesUniqueUnderConcurrency(t *testing.T) {
	store := NewMemoryStore()
	const writers = 50

	var wg sync.WaitGroup
	refs := make(chan string, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ref, err := store.Store(context.Background(), "x")
			assert.NoError(t, err)
			refs <- ref
		}()
	}
	wg.Wait()
	close(refs)

	seen := map[string]bool{}
	for ref := range refs {
		assert.False(t, seen[ref], "duplicate reference %s", ref)
		seen[ref] = true
	}
	assert.Equal(t, writers, store.Len())
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ref, err := store.Store(context.Background(), "hello")
	require.NoError(t, err)

	got, err := store.Load(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	require.NoError(t, store.Delete(context.Background(), ref))
	_, err = store.Load(context.Background(), ref)
	assert.ErrorIs(t, err, ErrContentNotFound)
}

func TestNewSelectsBackend(t *testing.T) {
	store, err := New(context.Background(), config.ContentConfig{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	dir := t.TempDir()
	store, err = New(context.Background(), config.ContentConfig{Backend: "", LocalDir: dir})
	require.NoError(t, err)
	local, ok := store.(*LocalStore)
	require.True(t, ok)
	assert.Equal(t, dir, local.Root())

	_, err = New(context.Background(), config.ContentConfig{Backend: "ftp"})
	assert.Error(t, err)

	_, err = New(context.Background(), config.ContentConfig{Backend: "s3"})
	assert.Error(t, err)
}

func TestJoinKey(t *testing.T) {
	assert.Equal(t, "news_1.txt", joinKey("", "news_1.txt"))
	assert.Equal(t, "a/b/news_1.txt", joinKey("/a/b/", "news_1.txt"))
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return nil, f.putErr
	}
	key := aws.ToString(in.Key)
	if aws.ToString(in.IfNoneMatch) == "*" {
		if _, exists := f.objects[key]; exists {
			return nil, &smithy.GenericAPIError{Code: "PreconditionFailed", Message: "exists"}
		}
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[key] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("missing")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3StoreRoundTrip(t *testing.T) {
	client := newFakeS3()
	store := newS3Store(client, "bucket", "news/content")

	ref, err := store.Store(context.Background(), "body text")
	require.NoError(t, err)

	_, ok := client.objects["news/content/"+ref]
	assert.True(t, ok)

	got, err := store.Load(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, "body text", got)

	require.NoError(t, store.Delete(context.Background(), ref))
	_, err = store.Load(context.Background(), ref)
	assert.ErrorIs(t, err, ErrContentNotFound)
}

func TestS3StoreCollision(t *testing.T) {
	client := newFakeS3()
	store := newS3Store(client, "bucket", "")
	store.refs.now = func() time.Time { return time.Unix(0, 7) }
	client.objects["news_7.txt"] = []byte("old")

	_, err := store.Store(context.Background(), "new")
	require.ErrorIs(t, err, ErrReferenceCollision)
	assert.Equal(t, "old", string(client.objects["news_7.txt"]))
}

func TestS3StorePropagatesPutFailure(t *testing.T) {
	client := newFakeS3()
	client.putErr = errors.New("network down")
	store := newS3Store(client, "bucket", "")

	_, err := store.Store(context.Background(), "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrReferenceCollision)
	assert.True(t, strings.Contains(err.Error(), "network down"))
}

func TestIsS3NotFound(t *testing.T) {
	assert.False(t, isS3NotFound(nil))
	assert.True(t, isS3NotFound(&types.NoSuchKey{}))
	assert.True(t, isS3NotFound(&types.NotFound{}))
	assert.True(t, isS3NotFound(&smithy.GenericAPIError{Code: "NotFound"}))
	assert.False(t, isS3NotFound(&smithy.GenericAPIError{Code: "AccessDenied"}))
	assert.False(t, isS3NotFound(errors.New("plain")))
}

type fakeMinIO struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	// unconditional counts puts sent without If-None-Match.
	unconditional int
}

func newFakeMinIO() *fakeMinIO {
	return &fakeMinIO{objects: map[string][]byte{}}
}

func (f *fakeMinIO) PutObject(_ context.Context, _, object string, reader io.Reader, _ int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	if opts.Header().Get("If-None-Match") == "*" {
		if _, exists := f.objects[object]; exists {
			return minio.UploadInfo{}, minio.ErrorResponse{Code: minio.PreconditionFailed, Key: object}
		}
	} else {
		f.unconditional++
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.objects[object] = data
	return minio.UploadInfo{Key: object, Size: int64(len(data))}, nil
}

// GetObject defers the missing-key error to the first read, the way
// minio.Object does.
func (f *fakeMinIO) GetObject(_ context.Context, _, object string, _ minio.GetObjectOptions) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[object]
	if !ok {
		return io.NopCloser(errReader{minio.ErrorResponse{Code: minio.NoSuchKey, Key: object}}), nil
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeMinIO) RemoveObject(_ context.Context, _, object string, _ minio.RemoveObjectOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, object)
	return nil
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

func TestMinIOStoreRoundTrip(t *testing.T) {
	client := newFakeMinIO()
	store := newMinIOStore(client, "bucket", "news/content")

	ref, err := store.Store(context.Background(), "body text")
	require.NoError(t, err)
	assert.Zero(t, client.unconditional)

	_, ok := client.objects["news/content/"+ref]
	assert.True(t, ok)

	got, err := store.Load(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, "body text", got)

	require.NoError(t, store.Delete(context.Background(), ref))
	_, err = store.Load(context.Background(), ref)
	assert.ErrorIs(t, err, ErrContentNotFound)

	_, err = store.Load(context.Background(), "../escape.txt")
	assert.Error(t, err)
}

func TestMinIOStoreCollision(t *testing.T) {
	client := newFakeMinIO()
	store := newMinIOStore(client, "bucket", "")
	store.refs.now = func() time.Time { return time.Unix(0, 7) }
	client.objects["news_7.txt"] = []byte("old")

	_, err := store.Store(context.Background(), "new")
	require.ErrorIs(t, err, ErrReferenceCollision)
	assert.Equal(t, "old", string(client.objects["news_7.txt"]))
}

// Separate processes with equal clocks race for the same key.
func TestMinIOStoreConcurrentSameReference(t *testing.T) {
	client := newFakeMinIO()

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		stored     int
		collisions int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		store := newMinIOStore(client, "bucket", "")
		store.refs.now = func() time.Time { return time.Unix(0, 9) }
		go func() {
			defer wg.Done()
			_, err := store.Store(context.Background(), "body")
			mu.Lock()
			defer mu.Unlock()
			if errors.Is(err, ErrReferenceCollision) {
				collisions++
			} else if err == nil {
				stored++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, stored)
	assert.Equal(t, 7, collisions)
}

func TestMinIOStorePropagatesPutFailure(t *testing.T) {
	client := newFakeMinIO()
	client.putErr = minio.ErrorResponse{Code: "AccessDenied", Message: "denied"}
	store := newMinIOStore(client, "bucket", "")

	_, err := store.Store(context.Background(), "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrReferenceCollision)
	assert.True(t, strings.Contains(err.Error(), "denied"))
}

func TestIsMinIONotFound(t *testing.T) {
	assert.False(t, isMinIONotFound(nil))
	assert.True(t, isMinIONotFound(minio.ErrorResponse{Code: minio.NoSuchKey}))
	assert.True(t, isMinIONotFound(minio.ErrorResponse{Code: "NotFound"}))
	assert.False(t, isMinIONotFound(minio.ErrorResponse{Code: minio.PreconditionFailed}))
	assert.False(t, isMinIONotFound(errors.New("NoSuchKey")))

	assert.True(t, isMinIOPreconditionFailed(minio.ErrorResponse{Code: minio.PreconditionFailed}))
	assert.False(t, isMinIOPreconditionFailed(nil))
}
