package handlers

import (
	"net/http"

	"github.com/Anaqqa/supfile/export"
	"github.com/Anaqqa/supfile/logger"
	"github.com/Anaqqa/supfile/services"
	"github.com/Anaqqa/supfile/utils"

	"github.com/gin-gonic/gin"
)

type CreateFolderRequest struct {
	Name     string `json:"name" binding:"required,max=255"`
	ParentID *uint  `json:"parent_id"`
}

// ListFolders returns one level of the tree under parent_id, or the whole
// trash when show_deleted is set.
func ListFolders(c *gin.Context) {
	parentID, ok := parseOptionalID(c, "parent_id")
	if !ok {
		return
	}
	showDeleted, ok := parseBoolQuery(c, "show_deleted", false)
	if !ok {
		return
	}

	listing, err := getServices().Node.List(c.Request.Context(), currentUserID(c), parentID, showDeleted)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, listing)
}

func CreateFolder(c *gin.Context) {
	var req CreateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	folder, err := getServices().Folder.CreateFolder(c.Request.Context(), currentUserID(c), req.Name, req.ParentID)
	if respondServiceError(c, err) {
		return
	}
	utils.Created(c, folder)
}

func GetFolder(c *gin.Context) {
	folderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	folder, err := getServices().Folder.GetFolder(c.Request.Context(), currentUserID(c), folderID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, folder)
}

func UpdateFolder(c *gin.Context) {
	folderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.NodeUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	folder, err := getServices().Folder.UpdateFolder(c.Request.Context(), currentUserID(c), folderID, req)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, folder)
}

func DeleteFolder(c *gin.Context) {
	folderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	permanent, ok := parseBoolQuery(c, "permanent", false)
	if !ok {
		return
	}
	recursive, ok := parseBoolQuery(c, "recursive", true)
	if !ok {
		return
	}

	err := getServices().Folder.DeleteFolder(c.Request.Context(), currentUserID(c), folderID, services.DeleteOptions{
		Permanent: permanent,
		Recursive: recursive,
	})
	if respondServiceError(c, err) {
		return
	}
	if permanent {
		utils.SuccessWithMessage(c, "folder permanently deleted", nil)
		return
	}
	utils.SuccessWithMessage(c, "folder moved to trash", nil)
}

func RestoreFolder(c *gin.Context) {
	folderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	recursive, ok := parseBoolQuery(c, "recursive", true)
	if !ok {
		return
	}

	folder, err := getServices().Folder.RestoreFolder(c.Request.Context(), currentUserID(c), folderID, recursive)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, folder)
}

func GetFolderManifest(c *gin.Context) {
	manifest, ok := loadManifest(c)
	if !ok {
		return
	}

	files := make([]gin.H, 0, len(manifest.Files))
	for _, p := range manifest.FilePaths() {
		entry := manifest.Files[p]
		files = append(files, gin.H{
			"path":      p,
			"file_id":   entry.FileID,
			"name":      entry.Name,
			"size":      entry.Size,
			"mime_type": entry.MimeType,
		})
	}
	utils.Success(c, gin.H{
		"root_name":  manifest.RootName,
		"files":      files,
		"folders":    manifest.Folders,
		"total_size": manifest.TotalSize(),
	})
}

// DownloadFolder streams the folder's live contents as a zip archive.
func DownloadFolder(c *gin.Context) {
	manifest, ok := loadManifest(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", contentDisposition("attachment", manifest.RootName+".zip"))
	c.Status(http.StatusOK)

	if err := export.WriteZip(c.Request.Context(), c.Writer, manifest, appBlobs); err != nil {
		logger.WithFields(logger.Fields{
			"user_id": currentUserID(c),
			"folder":  manifest.RootName,
		}).WithError(err).Error("folder archive aborted")
		_ = c.Error(err)
	}
}

func loadManifest(c *gin.Context) (*services.ExportManifest, bool) {
	folderID, ok := parseIDParam(c, "id")
	if !ok {
		return nil, false
	}

	manifest, err := getServices().Folder.ExportManifest(c.Request.Context(), currentUserID(c), folderID)
	if respondServiceError(c, err) {
		return nil, false
	}
	if manifest == nil {
		utils.Error(c, http.StatusNotFound, "folder not found")
		return nil, false
	}
	return manifest, true
}
