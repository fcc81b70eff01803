package handlers

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes mounts the API under /api. auth guards the account-scoped
// routes and shareLimit throttles the public share endpoints.
func SetupRoutes(r *gin.Engine, auth gin.HandlerFunc, shareLimit gin.HandlerFunc) {
	api := r.Group("/api")

	api.GET("/health", HealthCheck)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", Register)
		authGroup.POST("/login", Login)
	}

	public := api.Group("/public/shares")
	public.Use(shareLimit)
	{
		public.GET("/:token", GetPublicShare)
		public.GET("/:token/download", DownloadPublicShare)
	}

	protected := api.Group("")
	protected.Use(auth)
	{
		protected.GET("/auth/profile", GetProfile)
		protected.PUT("/user/profile", UpdateProfile)
		protected.PUT("/user/password", ChangePassword)
		protected.DELETE("/user/oauth", DisconnectOAuth)
		protected.GET("/user/storage", GetStorageUsage)
		protected.DELETE("/user", DeleteAccount)

		protected.GET("/folders", ListFolders)
		protected.POST("/folders", CreateFolder)
		protected.GET("/folders/:id", GetFolder)
		protected.PUT("/folders/:id", UpdateFolder)
		protected.DELETE("/folders/:id", DeleteFolder)
		protected.POST("/folders/:id/restore", RestoreFolder)
		protected.GET("/folders/:id/manifest", GetFolderManifest)
		protected.GET("/folders/:id/download", DownloadFolder)

		protected.GET("/files", ListFiles)
		protected.POST("/files/upload", UploadFile)
		protected.GET("/files/:id", GetFile)
		protected.PUT("/files/:id", UpdateFile)
		protected.DELETE("/files/:id", DeleteFile)
		protected.POST("/files/:id/restore", RestoreFile)
		protected.GET("/files/:id/download", DownloadFile)
		protected.GET("/files/:id/thumbnail", GetThumbnail)

		protected.GET("/search", Search)

		protected.GET("/trash", ListTrash)
		protected.POST("/trash/empty", EmptyTrash)

		protected.GET("/shares", ListShares)
		protected.POST("/shares", CreateShare)
		protected.DELETE("/shares/:id", DeleteShare)
	}
}
