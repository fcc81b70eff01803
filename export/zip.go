package export

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/Anaqqa/supfile/services"

	"github.com/klauspost/compress/zip"
)

// BlobOpener is satisfied by *storage.ContentStore.
type BlobOpener interface {
	Retrieve(ctx context.Context, key string) (io.ReadCloser, error)
}

// WriteZip streams the manifest into a zip archive rooted at the folder name.
// Missing blobs abort the archive; the caller has usually sent headers by
// then, so the client sees a truncated download.
func WriteZip(ctx context.Context, w io.Writer, manifest *services.ExportManifest, blobs BlobOpener) error {
	zw := zip.NewWriter(w)
	root := manifest.RootName
	modified := time.Now()

	for _, dir := range manifest.Folders {
		if _, err := zw.CreateHeader(&zip.FileHeader{
			Name:     path.Join(root, dir) + "/",
			Method:   zip.Store,
			Modified: modified,
		}); err != nil {
			return fmt.Errorf("add folder %s: %w", dir, err)
		}
	}

	for _, p := range manifest.FilePaths() {
		if err := ctx.Err(); err != nil {
			return err
		}
		entry := manifest.Files[p]
		if err := addFile(ctx, zw, path.Join(root, p), entry, blobs, modified); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish archive: %w", err)
	}
	return nil
}

func addFile(ctx context.Context, zw *zip.Writer, name string, entry services.ExportEntry, blobs BlobOpener, modified time.Time) error {
	rc, err := blobs.Retrieve(ctx, entry.StorageKey)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()

	fw, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	if _, err := io.Copy(fw, rc); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
