package handlers

import (
	"net/http"

	"github.com/Anaqqa/supfile/services"
	"github.com/Anaqqa/supfile/utils"

	"github.com/gin-gonic/gin"
)

func Register(c *gin.Context) {
	var req services.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	out, err := getServices().Auth.Register(c.Request.Context(), req)
	if respondServiceError(c, err) {
		return
	}
	utils.Created(c, out)
}

func Login(c *gin.Context) {
	var req services.LoginInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	out, err := getServices().Auth.Login(c.Request.Context(), req)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, out)
}
