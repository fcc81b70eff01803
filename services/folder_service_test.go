package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateFolderRequiresLiveOwnedParent(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, 1000, 0)
	bob := env.createUser(t, 1000, 0)

	docs := env.mkdir(t, alice.ID, "Docs", nil)
	assert.Nil(t, docs.ParentID)

	_, err := env.svc.Folder.CreateFolder(env.ctx, bob.ID, "x", &docs.ID)
	assert.True(t, IsKind(err, KindNotFound))

	require.NoError(t, env.svc.Folder.DeleteFolder(env.ctx, alice.ID, docs.ID, DeleteOptions{}))
	_, err = env.svc.Folder.CreateFolder(env.ctx, alice.ID, "x", &docs.ID)
	assert.True(t, IsKind(err, KindNotFound))

	_, err = env.svc.Folder.CreateFolder(env.ctx, alice.ID, "   ", nil)
	assert.True(t, IsKind(err, KindInvalidOperation))

	// zero parent means root
	root, err := env.svc.Folder.CreateFolder(env.ctx, alice.ID, "Top", ptr(0))
	require.NoError(t, err)
	assert.Nil(t, root.ParentID)
}

func TestUpdateFolderRejectsCycles(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 1000, 0)

	a := env.mkdir(t, user.ID, "A", nil)
	b := env.mkdir(t, user.ID, "B", &a.ID)
	c := env.mkdir(t, user.ID, "C", &b.ID)

	_, err := env.svc.Folder.UpdateFolder(env.ctx, user.ID, a.ID, NodeUpdate{Parent: MoveTo(b.ID)})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindInvalidOperation))

	_, err = env.svc.Folder.UpdateFolder(env.ctx, user.ID, a.ID, NodeUpdate{Parent: MoveTo(c.ID)})
	assert.True(t, IsKind(err, KindInvalidOperation))

	_, err = env.svc.Folder.UpdateFolder(env.ctx, user.ID, a.ID, NodeUpdate{Parent: MoveTo(a.ID)})
	assert.True(t, IsKind(err, KindInvalidOperation))

	got, ok := env.reloadFolder(t, user.ID, a.ID)
	require.True(t, ok)
	assert.Nil(t, got.ParentID)
}

func TestUpdateFolderMoveRenameAndDetach(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 1000, 0)

	a := env.mkdir(t, user.ID, "A", nil)
	b := env.mkdir(t, user.ID, "B", nil)

	moved, err := env.svc.Folder.UpdateFolder(env.ctx, user.ID, b.ID, NodeUpdate{Name: "Renamed", Parent: MoveTo(a.ID)})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", moved.Name)
	require.NotNil(t, moved.ParentID)
	assert.Equal(t, a.ID, *moved.ParentID)

	unchanged, err := env.svc.Folder.UpdateFolder(env.ctx, user.ID, b.ID, NodeUpdate{})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", unchanged.Name)
	require.NotNil(t, unchanged.ParentID)

	var update NodeUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"parent_id": null}`), &update))
	detached, err := env.svc.Folder.UpdateFolder(env.ctx, user.ID, b.ID, update)
	require.NoError(t, err)
	assert.Nil(t, detached.ParentID)
	assert.Equal(t, "Renamed", detached.Name)
}

func TestUpdateFolderTargetMustBeLive(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 1000, 0)

	a := env.mkdir(t, user.ID, "A", nil)
	b := env.mkdir(t, user.ID, "B", nil)
	require.NoError(t, env.svc.Folder.DeleteFolder(env.ctx, user.ID, b.ID, DeleteOptions{}))

	_, err := env.svc.Folder.UpdateFolder(env.ctx, user.ID, a.ID, NodeUpdate{Parent: MoveTo(b.ID)})
	assert.True(t, IsKind(err, KindNotFound))

	_, err = env.svc.Folder.UpdateFolder(env.ctx, user.ID, 9999, NodeUpdate{Name: "x"})
	assert.True(t, IsKind(err, KindNotFound))
}

func TestRecursiveSoftDeleteAndRestoreRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 10000, 0)

	root := env.mkdir(t, user.ID, "root", nil)
	child := env.mkdir(t, user.ID, "child", &root.ID)
	grandchild := env.mkdir(t, user.ID, "grandchild", &child.ID)
	f1 := env.upload(t, user.ID, "a.txt", "alpha", &root.ID)
	f2 := env.upload(t, user.ID, "b.txt", "bravo", &grandchild.ID)

	// Trash one file early so it keeps its own timestamp.
	earlier := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	env.svc.File.(*fileService).now = func() time.Time { return earlier }
	require.NoError(t, env.svc.File.DeleteFile(env.ctx, user.ID, f2.ID, false))

	later := earlier.Add(48 * time.Hour)
	env.svc.Folder.(*folderService).now = func() time.Time { return later }
	require.NoError(t, env.svc.Folder.DeleteFolder(env.ctx, user.ID, root.ID, DeleteOptions{Recursive: true}))

	for _, id := range []uint{root.ID, child.ID, grandchild.ID} {
		folder, ok := env.reloadFolder(t, user.ID, id)
		require.True(t, ok)
		assert.True(t, folder.IsDeleted)
		require.NotNil(t, folder.DeletedAt)
		assert.True(t, later.Equal(*folder.DeletedAt))
	}
	got1, _ := env.reloadFile(t, f1.ID)
	got2, _ := env.reloadFile(t, f2.ID)
	assert.True(t, got1.IsDeleted)
	assert.True(t, later.Equal(*got1.DeletedAt))
	assert.True(t, earlier.Equal(*got2.DeletedAt))

	restored, err := env.svc.Folder.RestoreFolder(env.ctx, user.ID, root.ID, true)
	require.NoError(t, err)
	assert.False(t, restored.IsDeleted)
	assert.Nil(t, restored.DeletedAt)

	for _, id := range []uint{child.ID, grandchild.ID} {
		folder, _ := env.reloadFolder(t, user.ID, id)
		assert.False(t, folder.IsDeleted)
	}
	got1, _ = env.reloadFile(t, f1.ID)
	got2, _ = env.reloadFile(t, f2.ID)
	assert.False(t, got1.IsDeleted)
	assert.False(t, got2.IsDeleted)
	assert.Nil(t, got2.DeletedAt)

	assert.Equal(t, int64(10), env.storageUsed(t, user.ID))
}

func TestNonRecursiveSoftDeleteLeavesChildrenLive(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 1000, 0)

	parent := env.mkdir(t, user.ID, "parent", nil)
	child := env.mkdir(t, user.ID, "child", &parent.ID)

	require.NoError(t, env.svc.Folder.DeleteFolder(env.ctx, user.ID, parent.ID, DeleteOptions{}))

	got, _ := env.reloadFolder(t, user.ID, child.ID)
	assert.False(t, got.IsDeleted)
}

func TestRestoreFolderDetachesWhenParentIsTrashed(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 1000, 0)

	parent := env.mkdir(t, user.ID, "parent", nil)
	child := env.mkdir(t, user.ID, "child", &parent.ID)
	require.NoError(t, env.svc.Folder.DeleteFolder(env.ctx, user.ID, child.ID, DeleteOptions{}))
	require.NoError(t, env.svc.Folder.DeleteFolder(env.ctx, user.ID, parent.ID, DeleteOptions{}))

	restored, err := env.svc.Folder.RestoreFolder(env.ctx, user.ID, child.ID, false)
	require.NoError(t, err)
	assert.Nil(t, restored.ParentID)
	assert.False(t, restored.IsDeleted)

	_, err = env.svc.Folder.RestoreFolder(env.ctx, user.ID, child.ID, false)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestPermanentNonRecursiveDeleteRequiresEmptyFolder(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 1000, 0)

	parent := env.mkdir(t, user.ID, "parent", nil)
	file := env.upload(t, user.ID, "a.txt", "abc", &parent.ID)

	err := env.svc.Folder.DeleteFolder(env.ctx, user.ID, parent.ID, DeleteOptions{Permanent: true})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindInvalidOperation))

	require.NoError(t, env.svc.File.DeleteFile(env.ctx, user.ID, file.ID, true))
	require.NoError(t, env.svc.Folder.DeleteFolder(env.ctx, user.ID, parent.ID, DeleteOptions{Permanent: true}))

	_, ok := env.reloadFolder(t, user.ID, parent.ID)
	assert.False(t, ok)
}

func TestPermanentRecursiveDeletePurgesSubtree(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 1000, 100)

	root := env.mkdir(t, user.ID, "root", nil)
	sub := env.mkdir(t, user.ID, "sub", &root.ID)
	body := string(make([]byte, 100))
	file := env.upload(t, user.ID, "blob.bin", body, &sub.ID)
	assert.Equal(t, int64(200), env.storageUsed(t, user.ID))

	share, err := env.svc.Share.CreateShare(env.ctx, user.ID, file.ID, nil)
	require.NoError(t, err)

	// A trashed descendant is still swept up.
	require.NoError(t, env.svc.Folder.DeleteFolder(env.ctx, user.ID, sub.ID, DeleteOptions{}))
	require.NoError(t, env.svc.Folder.DeleteFolder(env.ctx, user.ID, root.ID, DeleteOptions{Permanent: true, Recursive: true}))

	assert.Equal(t, int64(100), env.storageUsed(t, user.ID))
	_, ok := env.reloadFile(t, file.ID)
	assert.False(t, ok)
	_, ok = env.reloadFolder(t, user.ID, root.ID)
	assert.False(t, ok)
	_, ok = env.reloadFolder(t, user.ID, sub.ID)
	assert.False(t, ok)
	assert.False(t, env.backend.Has(file.StorageKey))

	_, err = env.svc.Share.ResolveShare(env.ctx, share.Token)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestPermanentDeleteSurvivesMissingBlob(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 1000, 0)

	root := env.mkdir(t, user.ID, "root", nil)
	file := env.upload(t, user.ID, "a.txt", "abcdef", &root.ID)
	require.NoError(t, env.backend.Delete(env.ctx, file.StorageKey))

	require.NoError(t, env.svc.Folder.DeleteFolder(env.ctx, user.ID, root.ID, DeleteOptions{Permanent: true, Recursive: true}))
	assert.Equal(t, int64(0), env.storageUsed(t, user.ID))
}

func TestExportManifest(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 10000, 0)

	root := env.mkdir(t, user.ID, "Project", nil)
	src := env.mkdir(t, user.ID, "src", &root.ID)
	env.mkdir(t, user.ID, "empty", &root.ID)
	gone := env.mkdir(t, user.ID, "gone", &root.ID)

	env.upload(t, user.ID, "readme.md", "hello", &root.ID)
	env.upload(t, user.ID, "main.go", "package main", &src.ID)
	env.upload(t, user.ID, "main.go", "package other", &src.ID)
	trashed := env.upload(t, user.ID, "old.txt", "old", &src.ID)
	env.upload(t, user.ID, "hidden.txt", "hidden", &gone.ID)

	require.NoError(t, env.svc.File.DeleteFile(env.ctx, user.ID, trashed.ID, false))
	require.NoError(t, env.svc.Folder.DeleteFolder(env.ctx, user.ID, gone.ID, DeleteOptions{}))

	manifest, err := env.svc.Folder.ExportManifest(env.ctx, user.ID, root.ID)
	require.NoError(t, err)
	require.NotNil(t, manifest)

	assert.Equal(t, "Project", manifest.RootName)
	assert.Equal(t, []string{"readme.md", "src/main (1).go", "src/main.go"}, manifest.FilePaths())
	assert.Equal(t, []string{"empty", "src"}, manifest.Folders)
	assert.Equal(t, int64(5+12+13), manifest.TotalSize())

	require.NoError(t, env.svc.Folder.DeleteFolder(env.ctx, user.ID, root.ID, DeleteOptions{}))
	manifest, err = env.svc.Folder.ExportManifest(env.ctx, user.ID, root.ID)
	require.NoError(t, err)
	assert.Nil(t, manifest)
}
