package handlers

import (
	"net/http"

	"github.com/Anaqqa/supfile/services"
	"github.com/Anaqqa/supfile/utils"

	"github.com/gin-gonic/gin"
)

func GetProfile(c *gin.Context) {
	user, err := getServices().User.GetProfile(c.Request.Context(), currentUserID(c))
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, user)
}

func UpdateProfile(c *gin.Context) {
	var req services.UpdateProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	user, err := getServices().User.UpdateProfile(c.Request.Context(), currentUserID(c), req)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, user)
}

func ChangePassword(c *gin.Context) {
	var req services.ChangePasswordInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	err := getServices().User.ChangePassword(c.Request.Context(), currentUserID(c), req)
	if respondServiceError(c, err) {
		return
	}
	utils.SuccessWithMessage(c, "password updated", nil)
}

func DisconnectOAuth(c *gin.Context) {
	user, err := getServices().User.DisconnectOAuth(c.Request.Context(), currentUserID(c))
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, user)
}

func GetStorageUsage(c *gin.Context) {
	usage, err := getServices().User.Usage(c.Request.Context(), currentUserID(c))
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, usage)
}

func DeleteAccount(c *gin.Context) {
	err := getServices().User.DeleteAccount(c.Request.Context(), currentUserID(c))
	if respondServiceError(c, err) {
		return
	}
	utils.SuccessWithMessage(c, "account deleted", nil)
}
