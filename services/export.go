package services

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/Anaqqa/supfile/models"
)

type ExportEntry struct {
	FileID     uint
	StorageKey string
	Name       string
	Size       int64
	MimeType   string
}

// ExportManifest maps slash-separated paths, relative to the exported folder,
// to the blobs that make up its live contents.
type ExportManifest struct {
	RootName string
	Files    map[string]ExportEntry
	Folders  []string
}

func (m *ExportManifest) FilePaths() []string {
	paths := make([]string, 0, len(m.Files))
	for p := range m.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (m *ExportManifest) TotalSize() int64 {
	var total int64
	for _, e := range m.Files {
		total += e.Size
	}
	return total
}

func buildExportManifest(tree *folderTree, root models.Folder, files []models.File) *ExportManifest {
	byFolder := make(map[uint][]models.File)
	for _, f := range files {
		if f.IsDeleted || f.FolderID == nil {
			continue
		}
		byFolder[*f.FolderID] = append(byFolder[*f.FolderID], f)
	}

	m := &ExportManifest{RootName: root.Name, Files: make(map[string]ExportEntry)}
	visited := map[uint]struct{}{}

	var walk func(folderID uint, prefix string)
	walk = func(folderID uint, prefix string) {
		if _, seen := visited[folderID]; seen {
			return
		}
		visited[folderID] = struct{}{}

		used := map[string]int{}
		for _, f := range byFolder[folderID] {
			name := uniqueName(used, safeEntryName(f.Name))
			m.Files[path.Join(prefix, name)] = ExportEntry{
				FileID:     f.ID,
				StorageKey: f.StorageKey,
				Name:       f.Name,
				Size:       f.Size,
				MimeType:   f.MimeType,
			}
		}
		for _, child := range tree.childrenOf(folderID) {
			if child.IsDeleted {
				continue
			}
			dir := path.Join(prefix, uniqueName(used, safeEntryName(child.Name)))
			m.Folders = append(m.Folders, dir)
			walk(child.ID, dir)
		}
	}
	walk(root.ID, "")

	sort.Strings(m.Folders)
	return m
}

func safeEntryName(name string) string {
	name = strings.NewReplacer("/", "_", "\\", "_").Replace(strings.TrimSpace(name))
	if name == "" || name == "." || name == ".." {
		return "unnamed"
	}
	return name
}

// uniqueName returns name, or "name (n).ext" when a sibling already took it.
func uniqueName(used map[string]int, name string) string {
	key := strings.ToLower(name)
	n, taken := used[key]
	if !taken {
		used[key] = 1
		return name
	}

	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for {
		candidate := fmt.Sprintf("%s (%d)%s", base, n, ext)
		n++
		ckey := strings.ToLower(candidate)
		if _, clash := used[ckey]; !clash {
			used[key] = n
			used[ckey] = 1
			return candidate
		}
	}
}
