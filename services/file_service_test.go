package services

import (
	"bytes"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadStoresContentAndChargesQuota(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 1000, 0)
	folder := env.mkdir(t, user.ID, "docs", nil)

	file := env.upload(t, user.ID, "../../notes.pdf", "plain text body", &folder.ID)

	assert.Equal(t, "notes.pdf", file.Name)
	assert.Equal(t, int64(15), file.Size)
	assert.Equal(t, "text/plain", file.MimeType)
	require.NotNil(t, file.FolderID)
	assert.Equal(t, folder.ID, *file.FolderID)
	assert.True(t, env.backend.Has(file.StorageKey))
	assert.Equal(t, int64(15), env.storageUsed(t, user.ID))
}

func TestUploadQuotaExceededLeavesStateUntouched(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 1000, 950)

	_, err := env.svc.File.Upload(env.ctx, user.ID, UploadInput{
		Name: "big.bin",
		Size: 100,
		Body: bytes.NewReader(make([]byte, 100)),
	})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindQuotaExceeded))

	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 413, appErr.HTTPCode)

	assert.Equal(t, int64(950), env.storageUsed(t, user.ID))
	assert.Equal(t, 0, env.backend.Len())
}

func TestUploadRejectsOversizedContent(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 10*testMaxFileSize, 0)

	_, err := env.svc.File.Upload(env.ctx, user.ID, UploadInput{
		Name: "declared.bin",
		Size: testMaxFileSize + 1,
		Body: strings.NewReader("x"),
	})
	assert.True(t, IsKind(err, KindPayloadTooLarge))

	// The declared size lies; the stream is cut off at the ceiling.
	_, err = env.svc.File.Upload(env.ctx, user.ID, UploadInput{
		Name: "liar.bin",
		Size: 10,
		Body: bytes.NewReader(make([]byte, testMaxFileSize+10)),
	})
	assert.True(t, IsKind(err, KindPayloadTooLarge))
	assert.Equal(t, 0, env.backend.Len())
	assert.Equal(t, int64(0), env.storageUsed(t, user.ID))
}

func TestUploadChargesQuotaOnStoredSize(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 100, 0)

	_, err := env.svc.File.Upload(env.ctx, user.ID, UploadInput{
		Name: "understated.bin",
		Size: 0,
		Body: bytes.NewReader(make([]byte, 500)),
	})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindQuotaExceeded))
	assert.Equal(t, 0, env.backend.Len())
	assert.Equal(t, int64(0), env.storageUsed(t, user.ID))

	_, err = env.svc.File.Upload(env.ctx, user.ID, UploadInput{
		Name: "negative.bin",
		Size: -1,
		Body: strings.NewReader("x"),
	})
	assert.True(t, IsKind(err, KindInvalidOperation))

	// An understated size that still fits is charged at the stored size.
	file, err := env.svc.File.Upload(env.ctx, user.ID, UploadInput{
		Name: "small.txt",
		Size: 1,
		Body: strings.NewReader("forty bytes of text for the quota check."),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(40), file.Size)
	assert.Equal(t, int64(40), env.storageUsed(t, user.ID))
}

func TestUploadIntoTrashedFolderFails(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 1000, 0)
	folder := env.mkdir(t, user.ID, "docs", nil)
	require.NoError(t, env.svc.Folder.DeleteFolder(env.ctx, user.ID, folder.ID, DeleteOptions{}))

	_, err := env.svc.File.Upload(env.ctx, user.ID, UploadInput{
		Name:     "a.txt",
		Size:     1,
		FolderID: &folder.ID,
		Body:     strings.NewReader("a"),
	})
	assert.True(t, IsKind(err, KindNotFound))
	assert.Equal(t, 0, env.backend.Len())

	_, err = env.svc.File.Upload(env.ctx, user.ID, UploadInput{Name: "", Size: 1, Body: strings.NewReader("a")})
	assert.True(t, IsKind(err, KindInvalidOperation))
}

func TestOpenFileRecordsAccess(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 1000, 0)
	file := env.upload(t, user.ID, "a.txt", "content", nil)

	got, rc, err := env.svc.File.OpenFile(env.ctx, user.ID, file.ID, AccessInfo{IPAddress: "10.0.0.1", UserAgent: "test"})
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))
	assert.Equal(t, file.ID, got.ID)

	count, err := env.repos.AccessLogs.CountByFile(env.ctx, nil, file.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	other := env.createUser(t, 1000, 0)
	_, _, err = env.svc.File.OpenFile(env.ctx, other.ID, file.ID, AccessInfo{})
	assert.True(t, IsKind(err, KindNotFound))
}

func TestOpenFileWithMissingBlobIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 1000, 0)
	file := env.upload(t, user.ID, "a.txt", "content", nil)
	require.NoError(t, env.backend.Delete(env.ctx, file.StorageKey))

	_, _, err := env.svc.File.OpenFile(env.ctx, user.ID, file.ID, AccessInfo{})
	assert.True(t, IsKind(err, KindNotFound))
}

func TestUpdateFileMoveAndRename(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 1000, 0)
	folder := env.mkdir(t, user.ID, "docs", nil)
	trashed := env.mkdir(t, user.ID, "old", nil)
	require.NoError(t, env.svc.Folder.DeleteFolder(env.ctx, user.ID, trashed.ID, DeleteOptions{}))
	file := env.upload(t, user.ID, "a.txt", "content", nil)

	moved, err := env.svc.File.UpdateFile(env.ctx, user.ID, file.ID, NodeUpdate{Name: "b.txt", Parent: MoveTo(folder.ID)})
	require.NoError(t, err)
	assert.Equal(t, "b.txt", moved.Name)
	assert.Equal(t, "a.txt", moved.OriginalName)
	require.NotNil(t, moved.FolderID)
	assert.Equal(t, folder.ID, *moved.FolderID)

	_, err = env.svc.File.UpdateFile(env.ctx, user.ID, file.ID, NodeUpdate{Parent: MoveTo(trashed.ID)})
	assert.True(t, IsKind(err, KindNotFound))

	root, err := env.svc.File.UpdateFile(env.ctx, user.ID, file.ID, NodeUpdate{Parent: DetachToRoot()})
	require.NoError(t, err)
	assert.Nil(t, root.FolderID)
	assert.Equal(t, "b.txt", root.Name)
}

func TestDeleteAndRestoreFile(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 1000, 0)
	folder := env.mkdir(t, user.ID, "docs", nil)
	file := env.upload(t, user.ID, "a.txt", "content", &folder.ID)

	require.NoError(t, env.svc.File.DeleteFile(env.ctx, user.ID, file.ID, false))
	_, err := env.svc.File.GetFile(env.ctx, user.ID, file.ID)
	assert.True(t, IsKind(err, KindNotFound))
	assert.Equal(t, int64(7), env.storageUsed(t, user.ID))

	require.NoError(t, env.svc.Folder.DeleteFolder(env.ctx, user.ID, folder.ID, DeleteOptions{}))
	restored, err := env.svc.File.RestoreFile(env.ctx, user.ID, file.ID)
	require.NoError(t, err)
	assert.False(t, restored.IsDeleted)
	assert.Nil(t, restored.FolderID)

	_, err = env.svc.File.RestoreFile(env.ctx, user.ID, file.ID)
	assert.True(t, IsKind(err, KindNotFound))

	require.NoError(t, env.svc.File.DeleteFile(env.ctx, user.ID, file.ID, true))
	assert.Equal(t, int64(0), env.storageUsed(t, user.ID))
	assert.False(t, env.backend.Has(file.StorageKey))
	_, ok := env.reloadFile(t, file.ID)
	assert.False(t, ok)
}

func TestThumbnail(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 1<<20, 0)

	img := image.NewRGBA(image.Rect(0, 0, 128, 64))
	for x := 0; x < 128; x++ {
		for y := 0; y < 64; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	pic := env.upload(t, user.ID, "pic.dat", buf.String(), nil)
	assert.Equal(t, "image/png", pic.MimeType)

	thumb, err := env.svc.File.Thumbnail(env.ctx, user.ID, pic.ID)
	require.NoError(t, err)
	decoded, format, err := image.Decode(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 32, decoded.Bounds().Dx())
	assert.Equal(t, 16, decoded.Bounds().Dy())

	text := env.upload(t, user.ID, "fake.png", "not an image", nil)
	_, err = env.svc.File.Thumbnail(env.ctx, user.ID, text.ID)
	assert.True(t, IsKind(err, KindInvalidOperation))
}
