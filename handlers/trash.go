package handlers

import (
	"github.com/Anaqqa/supfile/utils"

	"github.com/gin-gonic/gin"
)

func ListTrash(c *gin.Context) {
	listing, err := getServices().Trash.ListTrash(c.Request.Context(), currentUserID(c))
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, listing)
}

func EmptyTrash(c *gin.Context) {
	result, err := getServices().Trash.EmptyTrash(c.Request.Context(), currentUserID(c))
	if respondServiceError(c, err) {
		return
	}
	utils.SuccessWithMessage(c, "trash emptied", result)
}
