package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrashIsolation(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 1000, 0)

	docs := env.mkdir(t, user.ID, "Docs", nil)
	keep := env.upload(t, user.ID, "report.txt", "keep", &docs.ID)
	drop := env.upload(t, user.ID, "report-old.txt", "drop", &docs.ID)
	require.NoError(t, env.svc.File.DeleteFile(env.ctx, user.ID, drop.ID, false))

	listing, err := env.svc.Node.List(env.ctx, user.ID, &docs.ID, false)
	require.NoError(t, err)
	require.Len(t, listing.Files, 1)
	assert.Equal(t, keep.ID, listing.Files[0].ID)
	assert.NotNil(t, listing.Folders)

	found, err := env.svc.Node.Search(env.ctx, user.ID, "REPORT", nil)
	require.NoError(t, err)
	require.Len(t, found.Files, 1)
	assert.Equal(t, keep.ID, found.Files[0].ID)

	trash, err := env.svc.Node.List(env.ctx, user.ID, &docs.ID, true)
	require.NoError(t, err)
	require.Len(t, trash.Files, 1)
	assert.Equal(t, drop.ID, trash.Files[0].ID)
	assert.Empty(t, trash.Folders)
}

func TestListAtRootAndUnknownParent(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 1000, 0)
	other := env.createUser(t, 1000, 0)

	docs := env.mkdir(t, user.ID, "Docs", nil)
	env.mkdir(t, user.ID, "Nested", &docs.ID)
	env.upload(t, user.ID, "top.txt", "top", nil)
	env.mkdir(t, other.ID, "Foreign", nil)

	root, err := env.svc.Node.List(env.ctx, user.ID, nil, false)
	require.NoError(t, err)
	require.Len(t, root.Folders, 1)
	assert.Equal(t, "Docs", root.Folders[0].Name)
	require.Len(t, root.Files, 1)

	_, err = env.svc.Node.List(env.ctx, other.ID, &docs.ID, false)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestSearchScopesAndEscapes(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 1000, 0)

	a := env.mkdir(t, user.ID, "A", nil)
	env.upload(t, user.ID, "100%_done.txt", "x", &a.ID)
	env.upload(t, user.ID, "100 done.txt", "y", nil)

	found, err := env.svc.Node.Search(env.ctx, user.ID, "%_", nil)
	require.NoError(t, err)
	require.Len(t, found.Files, 1)
	assert.Equal(t, "100%_done.txt", found.Files[0].Name)

	scoped, err := env.svc.Node.Search(env.ctx, user.ID, "done", &a.ID)
	require.NoError(t, err)
	assert.Len(t, scoped.Files, 1)

	_, err = env.svc.Node.Search(env.ctx, user.ID, "  ", nil)
	assert.True(t, IsKind(err, KindInvalidOperation))
}

func TestEmptyTrashKeepsLiveChildrenReachable(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 1000, 0)

	parent := env.mkdir(t, user.ID, "parent", nil)
	child := env.mkdir(t, user.ID, "child", &parent.ID)
	liveFile := env.upload(t, user.ID, "live.txt", "live", &parent.ID)
	trashedFile := env.upload(t, user.ID, "gone.txt", "gone!", nil)

	require.NoError(t, env.svc.File.DeleteFile(env.ctx, user.ID, trashedFile.ID, false))
	require.NoError(t, env.svc.Folder.DeleteFolder(env.ctx, user.ID, parent.ID, DeleteOptions{}))

	result, err := env.svc.Trash.EmptyTrash(env.ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, PurgeResult{Files: 1, Folders: 1}, result)

	_, ok := env.reloadFolder(t, user.ID, parent.ID)
	assert.False(t, ok)
	gotChild, ok := env.reloadFolder(t, user.ID, child.ID)
	require.True(t, ok)
	assert.Nil(t, gotChild.ParentID)
	gotFile, ok := env.reloadFile(t, liveFile.ID)
	require.True(t, ok)
	assert.Nil(t, gotFile.FolderID)

	assert.Equal(t, int64(4), env.storageUsed(t, user.ID))
	assert.False(t, env.backend.Has(trashedFile.StorageKey))

	trash, err := env.svc.Trash.ListTrash(env.ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, trash.Files)
	assert.Empty(t, trash.Folders)
}
