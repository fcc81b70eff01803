package handlers

import (
	"net/http"
	"strconv"

	"github.com/Anaqqa/supfile/services"
	"github.com/Anaqqa/supfile/utils"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// ListFiles returns the live files directly inside folder_id, paginated.
func ListFiles(c *gin.Context) {
	folderID, ok := parseOptionalID(c, "folder_id")
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}

	listing, err := getServices().Node.List(c.Request.Context(), currentUserID(c), folderID, false)
	if respondServiceError(c, err) {
		return
	}

	files := listing.Files
	start := len(files)
	if page-1 <= len(files)/pageSize {
		start = min((page-1)*pageSize, len(files))
	}
	end := min(start+pageSize, len(files))

	utils.Success(c, gin.H{
		"files":      files[start:end],
		"pagination": utils.NewPagination(page, pageSize, int64(len(files))),
	})
}

func UploadFile(c *gin.Context) {
	var folderID *uint
	if raw := c.PostForm("folder_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			utils.Error(c, http.StatusBadRequest, "invalid folder_id")
			return
		}
		if id > 0 {
			v := uint(id)
			folderID = &v
		}
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "missing upload file")
		return
	}
	defer file.Close()

	uploaded, err := getServices().File.Upload(c.Request.Context(), currentUserID(c), services.UploadInput{
		Name:     header.Filename,
		Size:     header.Size,
		FolderID: folderID,
		Body:     file,
	})
	if respondServiceError(c, err) {
		return
	}
	utils.Created(c, uploaded)
}

func GetFile(c *gin.Context) {
	fileID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	file, err := getServices().File.GetFile(c.Request.Context(), currentUserID(c), fileID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, file)
}

func UpdateFile(c *gin.Context) {
	fileID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.NodeUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	file, err := getServices().File.UpdateFile(c.Request.Context(), currentUserID(c), fileID, req)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, file)
}

func DeleteFile(c *gin.Context) {
	fileID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	permanent, ok := parseBoolQuery(c, "permanent", false)
	if !ok {
		return
	}

	err := getServices().File.DeleteFile(c.Request.Context(), currentUserID(c), fileID, permanent)
	if respondServiceError(c, err) {
		return
	}
	if permanent {
		utils.SuccessWithMessage(c, "file permanently deleted", nil)
		return
	}
	utils.SuccessWithMessage(c, "file moved to trash", nil)
}

func RestoreFile(c *gin.Context) {
	fileID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	file, err := getServices().File.RestoreFile(c.Request.Context(), currentUserID(c), fileID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, file)
}

func DownloadFile(c *gin.Context) {
	fileID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	file, rc, err := getServices().File.OpenFile(c.Request.Context(), currentUserID(c), fileID, accessInfo(c))
	if respondServiceError(c, err) {
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, file.Size, file.MimeType, rc, map[string]string{
		"Content-Disposition": contentDisposition("attachment", file.Name),
	})
}

func GetThumbnail(c *gin.Context) {
	fileID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	data, err := getServices().File.Thumbnail(c.Request.Context(), currentUserID(c), fileID)
	if respondServiceError(c, err) {
		return
	}
	c.Header("Cache-Control", "private, max-age=3600")
	c.Data(http.StatusOK, "image/jpeg", data)
}

func Search(c *gin.Context) {
	parentID, ok := parseOptionalID(c, "parent_id")
	if !ok {
		return
	}

	listing, err := getServices().Node.Search(c.Request.Context(), currentUserID(c), c.Query("q"), parentID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, listing)
}
