package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/lovenest/internal/config"
	"github.com/lovenest/internal/handler"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, cfg config.AppConfig) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	r := gin.Default()

	// 跨域与会话中间件
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("lovenest_session", store))

	// 本地存储时直接由进程提供上传文件
	if cfg.StorageBackend == "local" {
		r.Static(cfg.UploadURLPath, cfg.UploadDir)
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/identity", api.GetIdentity)
		apiGroup.POST("/identity", api.SetIdentity)

		apiGroup.GET("/diary", api.ListDiaryEntries)
		apiGroup.POST("/diary", api.CreateDiaryEntry)
		apiGroup.GET("/diary/comment-counts", api.GetDiaryCommentCounts)
		apiGroup.GET("/diary/:id", api.GetDiaryEntry)
		apiGroup.PUT("/diary/:id", api.UpdateDiaryEntry)
		apiGroup.DELETE("/diary/:id", api.DeleteDiaryEntry)
		apiGroup.GET("/diary/:id/comments", api.ListDiaryComments)
		apiGroup.POST("/diary/:id/comments", api.CreateDiaryComment)
		apiGroup.DELETE("/diary/:id/comments/:commentId", api.DeleteDiaryComment)

		apiGroup.GET("/likes", api.GetLikeState)
		apiGroup.POST("/likes", api.CreateLike)
		apiGroup.DELETE("/likes", api.DeleteLike)
		apiGroup.GET("/likes/batch", api.GetLikeBatchCounts)

		apiGroup.GET("/photos", api.ListPhotos)
		apiGroup.POST("/photos", api.UploadPhoto)
		apiGroup.PATCH("/photos/:id", api.UpdatePhotoTitle)
		apiGroup.DELETE("/photos/:id", api.DeletePhoto)

		apiGroup.GET("/events", api.ListEvents)
		apiGroup.POST("/events", api.CreateEvent)
		apiGroup.GET("/events/upcoming", api.ListUpcomingEvents)
		apiGroup.PUT("/events/:id", api.UpdateEvent)
		apiGroup.DELETE("/events/:id", api.DeleteEvent)

		apiGroup.GET("/milestones", api.ListMilestones)
		apiGroup.POST("/milestones", api.CreateMilestone)
		apiGroup.DELETE("/milestones/:id", api.DeleteMilestone)

		apiGroup.GET("/notifications", api.ListNotifications)
		apiGroup.POST("/notifications", api.CreateNotification)
		apiGroup.POST("/notifications/read-all", api.MarkAllNotificationsRead)
		apiGroup.POST("/notifications/:id/read", api.MarkNotificationRead)
		apiGroup.DELETE("/notifications/:id", api.DeleteNotification)
		apiGroup.DELETE("/notifications", api.DeleteAllNotifications)

		garden := apiGroup.Group("/garden")
		{
			garden.GET("/points", api.GetPoints)
			garden.POST("/points", api.AddPoints)
			garden.GET("/flowers", api.GetFlowers)
			garden.POST("/flowers/:id/water", api.WaterFlower)
			garden.POST("/flowers/:id/purchase", api.PurchaseFlower)
			garden.POST("/flowers/:id/claim-stage", api.ClaimStageReward)
			garden.GET("/water-history", api.GetWaterHistory)
		}

		apiGroup.GET("/achievements", api.ListAchievements)
		apiGroup.POST("/achievements/update", api.UpdateAchievement)
		apiGroup.POST("/achievements/claim", api.ClaimAchievement)

		apiGroup.POST("/upload", api.UploadPhoto)
		apiGroup.POST("/upload/event", api.UploadEventImage)
	}

	return r
}
