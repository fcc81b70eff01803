package handlers

import (
	"github.com/Anaqqa/supfile/utils"

	"github.com/gin-gonic/gin"
)

func HealthCheck(c *gin.Context) {
	utils.Success(c, gin.H{
		"status":  "ok",
		"service": "supfile",
	})
}
