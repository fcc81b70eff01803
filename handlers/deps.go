package handlers

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/Anaqqa/supfile/export"
	"github.com/Anaqqa/supfile/logger"
	"github.com/Anaqqa/supfile/middleware"
	"github.com/Anaqqa/supfile/services"
	"github.com/Anaqqa/supfile/utils"

	"github.com/gin-gonic/gin"
)

var (
	appServices *services.Container
	appBlobs    export.BlobOpener
)

// SetServices installs the service container and the blob reader used for
// folder archives.
func SetServices(container *services.Container, blobs export.BlobOpener) {
	appServices = container
	appBlobs = blobs
}

func getServices() *services.Container {
	if appServices == nil {
		panic("services container is not initialized")
	}
	return appServices
}

func respondServiceError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	var appErr *services.AppError
	if errors.As(err, &appErr) {
		if appErr.HTTPCode >= http.StatusInternalServerError {
			logger.WithFields(logger.Fields{
				"path":    c.FullPath(),
				"user_id": c.GetUint(middleware.ContextUserID),
			}).WithError(err).Error("request failed")
		}
		if appErr.Data != nil {
			utils.ErrorWithData(c, appErr.HTTPCode, appErr.Message, appErr.Data)
		} else {
			utils.Error(c, appErr.HTTPCode, appErr.Message)
		}
		return true
	}
	logger.WithError(err).Error("unexpected error")
	utils.Error(c, http.StatusInternalServerError, "internal error")
	return true
}

func currentUserID(c *gin.Context) uint {
	return c.GetUint(middleware.ContextUserID)
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		utils.Error(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// parseOptionalID reads an optional id query parameter. Empty and 0 mean
// the root.
func parseOptionalID(c *gin.Context, name string) (*uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid "+name)
		return nil, false
	}
	if id == 0 {
		return nil, true
	}
	v := uint(id)
	return &v, true
}

func parseBoolQuery(c *gin.Context, name string, def bool) (bool, bool) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return def, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid "+name)
		return false, false
	}
	return v, true
}

func accessInfo(c *gin.Context) services.AccessInfo {
	return services.AccessInfo{IPAddress: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}

func contentDisposition(kind string, filename string) string {
	if v := mime.FormatMediaType(kind, map[string]string{"filename": filename}); v != "" {
		return v
	}
	return fmt.Sprintf(`%s; filename="download"`, kind)
}
