package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Anaqqa/supfile/logger"
	"github.com/Anaqqa/supfile/metrics"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrObjectNotFound = errors.New("storage: object not found")
	ErrStorageIO      = errors.New("storage: backend i/o failure")
	ErrTooLarge       = errors.New("storage: object exceeds maximum size")
	ErrInvalidKey     = errors.New("storage: invalid object key")
)

// sniffLen is how much of the head of a blob is inspected for its type.
const sniffLen = 3072

const defaultMimeType = "application/octet-stream"

// Backend is the raw blob store. Delete of an absent key is not an error and
// Open of an absent key returns ErrObjectNotFound. size is -1 when unknown.
type Backend interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

type StoredObject struct {
	Key      string
	Size     int64
	MimeType string
}

type ContentStore struct {
	backend Backend
	maxSize int64
}

// NewContentStore wraps backend. maxSize <= 0 disables the size ceiling.
func NewContentStore(backend Backend, maxSize int64) *ContentStore {
	return &ContentStore{backend: backend, maxSize: maxSize}
}

func (s *ContentStore) MaxSize() int64 {
	return s.maxSize
}

// Store streams r into a fresh object. The key is random and the MIME type
// comes from the content, never from declaredName.
func (s *ContentStore) Store(ctx context.Context, r io.Reader, declaredName string) (StoredObject, error) {
	key := uuid.NewString()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		metrics.RecordStorageOperation("store", "error")
		return StoredObject{}, fmt.Errorf("%w: read upload: %v", ErrStorageIO, err)
	}
	head = head[:n]
	mimeType := detectMimeType(head)

	body := &countingReader{r: io.MultiReader(bytes.NewReader(head), r), limit: s.maxSize}
	putErr := s.backend.Put(ctx, key, body, -1, mimeType)

	if body.exceeded {
		s.purgeQuietly(ctx, key)
		metrics.RecordStorageOperation("store", "too_large")
		return StoredObject{}, ErrTooLarge
	}
	if putErr != nil {
		s.purgeQuietly(ctx, key)
		metrics.RecordStorageOperation("store", "error")
		return StoredObject{}, fmt.Errorf("%w: %v", ErrStorageIO, putErr)
	}

	metrics.RecordStorageOperation("store", "ok")
	metrics.RecordStorageBytes("in", body.n)
	logger.WithFields(logger.Fields{
		"storage_key": key,
		"size":        body.n,
		"mime_type":   mimeType,
		"name":        declaredName,
	}).Debug("blob stored")

	return StoredObject{Key: key, Size: body.n, MimeType: mimeType}, nil
}

func (s *ContentStore) Retrieve(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := s.backend.Open(ctx, key)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) || errors.Is(err, ErrInvalidKey) {
			metrics.RecordStorageOperation("retrieve", "not_found")
			return nil, ErrObjectNotFound
		}
		metrics.RecordStorageOperation("retrieve", "error")
		return nil, fmt.Errorf("%w: %v", ErrStorageIO, err)
	}
	metrics.RecordStorageOperation("retrieve", "ok")
	return rc, nil
}

// Purge removes the object. Purging an absent key succeeds.
func (s *ContentStore) Purge(ctx context.Context, key string) error {
	if err := s.backend.Delete(ctx, key); err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return nil
		}
		metrics.RecordStorageOperation("purge", "error")
		return fmt.Errorf("%w: %v", ErrStorageIO, err)
	}
	metrics.RecordStorageOperation("purge", "ok")
	return nil
}

func (s *ContentStore) purgeQuietly(ctx context.Context, key string) {
	if err := s.backend.Delete(context.WithoutCancel(ctx), key); err != nil && !errors.Is(err, ErrObjectNotFound) {
		logger.WithFields(logger.Fields{"storage_key": key}).WithError(err).Warn("failed to remove partial blob")
	}
}

func detectMimeType(head []byte) string {
	if len(head) == 0 {
		return defaultMimeType
	}
	mt, _, _ := strings.Cut(mimetype.Detect(head).String(), ";")
	mt = strings.TrimSpace(mt)
	if mt == "" {
		return defaultMimeType
	}
	return mt
}

// countingReader counts bytes and fails once more than limit bytes are read.
type countingReader struct {
	r        io.Reader
	n        int64
	limit    int64
	exceeded bool
}

func (c *countingReader) Read(p []byte) (int, error) {
	if c.exceeded {
		return 0, ErrTooLarge
	}
	n, err := c.r.Read(p)
	c.n += int64(n)
	if c.limit > 0 && c.n > c.limit {
		c.exceeded = true
		return n, ErrTooLarge
	}
	return n, err
}
