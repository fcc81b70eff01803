package services

import (
	"sort"

	"github.com/Anaqqa/supfile/models"
)

// folderTree is an in-memory index of one user's folders in every state,
// loaded with a single query so walks do not issue per-level queries.
type folderTree struct {
	nodes    map[uint]models.Folder
	children map[uint][]uint
	roots    []uint
}

func newFolderTree(folders []models.Folder) *folderTree {
	t := &folderTree{
		nodes:    make(map[uint]models.Folder, len(folders)),
		children: make(map[uint][]uint),
	}
	for _, f := range folders {
		t.nodes[f.ID] = f
	}
	for _, f := range folders {
		if f.ParentID == nil {
			t.roots = append(t.roots, f.ID)
			continue
		}
		t.children[*f.ParentID] = append(t.children[*f.ParentID], f.ID)
	}
	for _, ids := range t.children {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}
	return t
}

// isAncestorOrSelf walks up from start and reports whether it meets target.
// The visited set bounds the walk even if stored parent links loop.
func (t *folderTree) isAncestorOrSelf(target uint, start uint) bool {
	visited := make(map[uint]struct{})
	cur := start
	for {
		if cur == target {
			return true
		}
		if _, seen := visited[cur]; seen {
			return false
		}
		visited[cur] = struct{}{}

		node, ok := t.nodes[cur]
		if !ok || node.ParentID == nil {
			return false
		}
		cur = *node.ParentID
	}
}

// descendants returns every folder below root, in any state, breadth first.
// root itself is not included.
func (t *folderTree) descendants(root uint) []uint {
	var out []uint
	visited := map[uint]struct{}{root: {}}
	queue := append([]uint(nil), t.children[root]...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, seen := visited[id]; seen {
			continue
		}
		visited[id] = struct{}{}
		out = append(out, id)
		queue = append(queue, t.children[id]...)
	}
	return out
}

// subtree returns root followed by all its descendants.
func (t *folderTree) subtree(root uint) []uint {
	return append([]uint{root}, t.descendants(root)...)
}

func (t *folderTree) get(id uint) (models.Folder, bool) {
	f, ok := t.nodes[id]
	return f, ok
}

func (t *folderTree) childrenOf(id uint) []models.Folder {
	ids := t.children[id]
	out := make([]models.Folder, 0, len(ids))
	for _, cid := range ids {
		out = append(out, t.nodes[cid])
	}
	return out
}
