package services

import (
	"context"
	"strings"

	"github.com/Anaqqa/supfile/repositories"
)

type NodeService interface {
	List(ctx context.Context, userID uint, parentID *uint, showDeleted bool) (NodeListing, error)
	Search(ctx context.Context, userID uint, query string, parentID *uint) (NodeListing, error)
}

type nodeService struct {
	folders repositories.FolderRepository
	files   repositories.FileRepository
	trash   TrashService
}

func NewNodeService(folders repositories.FolderRepository, files repositories.FileRepository, trash TrashService) NodeService {
	return &nodeService{folders: folders, files: files, trash: trash}
}

// List returns one level of live children, or every trashed node of the user
// when showDeleted is set (parentID is ignored then).
func (s *nodeService) List(ctx context.Context, userID uint, parentID *uint, showDeleted bool) (NodeListing, error) {
	if showDeleted {
		return s.trash.ListTrash(ctx, userID)
	}

	parentID = normalizeParent(parentID)
	if parentID != nil {
		if _, err := s.folders.GetByIDAndUser(ctx, nil, *parentID, userID); err != nil {
			return NodeListing{}, folderLookupError(err)
		}
	}

	folders, err := s.folders.ListLiveByParent(ctx, nil, userID, parentID)
	if err != nil {
		return NodeListing{}, internalError("failed to list folders", err)
	}
	files, err := s.files.ListLiveByFolder(ctx, nil, userID, parentID)
	if err != nil {
		return NodeListing{}, internalError("failed to list files", err)
	}
	return newNodeListing(folders, files), nil
}

func (s *nodeService) Search(ctx context.Context, userID uint, query string, parentID *uint) (NodeListing, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return NodeListing{}, invalidOperation("search query is required")
	}

	in := repositories.SearchInput{UserID: userID, Query: query, ParentID: normalizeParent(parentID)}
	folders, err := s.folders.SearchLive(ctx, nil, in)
	if err != nil {
		return NodeListing{}, internalError("failed to search folders", err)
	}
	files, err := s.files.SearchLive(ctx, nil, in)
	if err != nil {
		return NodeListing{}, internalError("failed to search files", err)
	}
	return newNodeListing(folders, files), nil
}

func normalizeParent(parentID *uint) *uint {
	if parentID != nil && *parentID == 0 {
		return nil
	}
	return parentID
}
