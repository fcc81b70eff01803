package handlers

import (
	"net/http"
	"time"

	"github.com/Anaqqa/supfile/utils"

	"github.com/gin-gonic/gin"
)

type CreateShareRequest struct {
	FileID    uint       `json:"file_id" binding:"required"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func CreateShare(c *gin.Context) {
	var req CreateShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	share, err := getServices().Share.CreateShare(c.Request.Context(), currentUserID(c), req.FileID, req.ExpiresAt)
	if respondServiceError(c, err) {
		return
	}
	utils.Created(c, share)
}

func ListShares(c *gin.Context) {
	fileID, ok := parseOptionalID(c, "file_id")
	if !ok {
		return
	}

	shares, err := getServices().Share.ListShares(c.Request.Context(), currentUserID(c), fileID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, shares)
}

func DeleteShare(c *gin.Context) {
	shareID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	err := getServices().Share.DeleteShare(c.Request.Context(), currentUserID(c), shareID)
	if respondServiceError(c, err) {
		return
	}
	utils.SuccessWithMessage(c, "share deleted", nil)
}

// GetPublicShare describes a shared file without authentication.
func GetPublicShare(c *gin.Context) {
	shared, err := getServices().Share.ResolveShare(c.Request.Context(), c.Param("token"))
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{
		"name":       shared.File.Name,
		"size":       shared.File.Size,
		"mime_type":  shared.File.MimeType,
		"expires_at": shared.Share.ExpiresAt,
	})
}

func DownloadPublicShare(c *gin.Context) {
	shared, rc, err := getServices().Share.OpenShared(c.Request.Context(), c.Param("token"), accessInfo(c))
	if respondServiceError(c, err) {
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, shared.File.Size, shared.File.MimeType, rc, map[string]string{
		"Content-Disposition": contentDisposition("attachment", shared.File.Name),
	})
}
