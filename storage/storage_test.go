package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestStoreSniffsContentNotName(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	store := NewContentStore(backend, 0)

	obj, err := store.Store(ctx, bytes.NewReader(pngHeader), "notes.txt")
	require.NoError(t, err)

	assert.Equal(t, "image/png", obj.MimeType)
	assert.Equal(t, int64(len(pngHeader)), obj.Size)
	_, err = uuid.Parse(obj.Key)
	assert.NoError(t, err)
	assert.NotContains(t, obj.Key, "notes")
	assert.True(t, backend.Has(obj.Key))
}

func TestStoreTextStripsCharset(t *testing.T) {
	store := NewContentStore(NewMemoryBackend(), 0)
	obj, err := store.Store(context.Background(), strings.NewReader("hello world"), "a.bin")
	require.NoError(t, err)
	assert.Equal(t, "text/plain", obj.MimeType)
}

func TestStoreEmptyUpload(t *testing.T) {
	store := NewContentStore(NewMemoryBackend(), 0)
	obj, err := store.Store(context.Background(), strings.NewReader(""), "empty")
	require.NoError(t, err)
	assert.Equal(t, int64(0), obj.Size)
	assert.Equal(t, defaultMimeType, obj.MimeType)
}

func TestStoreKeysAreUnique(t *testing.T) {
	store := NewContentStore(NewMemoryBackend(), 0)
	a, err := store.Store(context.Background(), strings.NewReader("same"), "same.txt")
	require.NoError(t, err)
	b, err := store.Store(context.Background(), strings.NewReader("same"), "same.txt")
	require.NoError(t, err)
	assert.NotEqual(t, a.Key, b.Key)
}

func TestStoreEnforcesMaxSizeWhileStreaming(t *testing.T) {
	backend := NewMemoryBackend()
	store := NewContentStore(backend, 10)

	_, err := store.Store(context.Background(), strings.NewReader(strings.Repeat("x", 11)), "big.txt")
	require.ErrorIs(t, err, ErrTooLarge)
	assert.Equal(t, 0, backend.Len())

	obj, err := store.Store(context.Background(), strings.NewReader(strings.Repeat("x", 10)), "exact.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(10), obj.Size)
}

func TestRetrieveAndPurge(t *testing.T) {
	ctx := context.Background()
	store := NewContentStore(NewMemoryBackend(), 0)
	obj, err := store.Store(ctx, strings.NewReader("payload"), "p.txt")
	require.NoError(t, err)

	rc, err := store.Retrieve(ctx, obj.Key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "payload", string(data))

	require.NoError(t, store.Purge(ctx, obj.Key))
	require.NoError(t, store.Purge(ctx, obj.Key))

	_, err = store.Retrieve(ctx, obj.Key)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

type failingBackend struct {
	*MemoryBackend
	err error
}

func (f *failingBackend) Put(context.Context, string, io.Reader, int64, string) error {
	return f.err
}

func TestStoreBackendFailureIsStorageIO(t *testing.T) {
	store := NewContentStore(&failingBackend{MemoryBackend: NewMemoryBackend(), err: errors.New("disk full")}, 0)
	_, err := store.Store(context.Background(), strings.NewReader("x"), "x")
	assert.ErrorIs(t, err, ErrStorageIO)
}

func TestLocalBackendShardsAndValidatesKeys(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	backend, err := NewLocalBackend(dir)
	require.NoError(t, err)
	store := NewContentStore(backend, 0)

	obj, err := store.Store(ctx, strings.NewReader("on disk"), "d.txt")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, obj.Key[0:2], obj.Key[2:4], obj.Key))
	require.NoError(t, err)

	_, err = backend.Open(ctx, "../../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = store.Retrieve(ctx, "../../etc/passwd")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	require.NoError(t, store.Purge(ctx, obj.Key))
	_, err = store.Retrieve(ctx, obj.Key)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalBackendTooLargeLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewLocalBackend(dir)
	require.NoError(t, err)
	store := NewContentStore(backend, 4)

	_, err = store.Store(context.Background(), strings.NewReader("too long"), "x")
	require.ErrorIs(t, err, ErrTooLarge)

	var files []string
	require.NoError(t, filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			files = append(files, path)
		}
		return err
	}))
	assert.Empty(t, files)
}

type flakyBackend struct {
	calls int
}

func (f *flakyBackend) Put(context.Context, string, io.Reader, int64, string) error {
	f.calls++
	return errors.New("connection refused")
}

func (f *flakyBackend) Open(context.Context, string) (io.ReadCloser, error) {
	f.calls++
	return nil, ErrObjectNotFound
}

func (f *flakyBackend) Delete(context.Context, string) error {
	f.calls++
	return nil
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	ctx := context.Background()
	inner := &flakyBackend{}
	b := NewBreakerBackend(inner, BreakerOptions{Name: "test", MaxRequests: 1, Timeout: time.Minute, FailureThreshold: 2})

	for i := 0; i < 2; i++ {
		require.Error(t, b.Put(ctx, "k", strings.NewReader("x"), 1, "text/plain"))
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	err := b.Put(ctx, "k", strings.NewReader("x"), 1, "text/plain")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, inner.calls)
}

func TestBreakerIgnoresNotFound(t *testing.T) {
	ctx := context.Background()
	b := NewBreakerBackend(&flakyBackend{}, BreakerOptions{Name: "nf", MaxRequests: 1, Timeout: time.Minute, FailureThreshold: 1})

	for i := 0; i < 3; i++ {
		_, err := b.Open(ctx, "k")
		assert.ErrorIs(t, err, ErrObjectNotFound)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
}
