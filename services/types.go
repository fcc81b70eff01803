package services

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Anaqqa/supfile/models"
)

type NodeKind string

const (
	NodeFolder NodeKind = "folder"
	NodeFile   NodeKind = "file"
)

// OptionalParent distinguishes an omitted parent from an explicit detach
// (null or 0) and from a concrete folder id.
type OptionalParent struct {
	Set bool
	ID  *uint
}

func ParentUnchanged() OptionalParent {
	return OptionalParent{}
}

func DetachToRoot() OptionalParent {
	return OptionalParent{Set: true}
}

func MoveTo(folderID uint) OptionalParent {
	if folderID == 0 {
		return DetachToRoot()
	}
	return OptionalParent{Set: true, ID: &folderID}
}

func (p *OptionalParent) UnmarshalJSON(data []byte) error {
	p.Set = true
	p.ID = nil
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var id uint
	if err := json.Unmarshal(data, &id); err != nil {
		return fmt.Errorf("parent must be a folder id or null: %w", err)
	}
	if id != 0 {
		p.ID = &id
	}
	return nil
}

// NodeUpdate carries a rename and/or move. An empty Name leaves the name alone.
type NodeUpdate struct {
	Name   string         `json:"name"`
	Parent OptionalParent `json:"parent_id"`
}

type DeleteOptions struct {
	Permanent bool
	Recursive bool
}

type NodeListing struct {
	Folders []models.Folder `json:"folders"`
	Files   []models.File   `json:"files"`
}
