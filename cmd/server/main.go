package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ripple-app/backend/internal/auth"
	"github.com/ripple-app/backend/internal/cache"
	"github.com/ripple-app/backend/internal/config"
	"github.com/ripple-app/backend/internal/database"
	"github.com/ripple-app/backend/internal/handlers"
	"github.com/ripple-app/backend/internal/logger"
	"github.com/ripple-app/backend/internal/middleware"
	"github.com/ripple-app/backend/internal/moderation"
	"github.com/ripple-app/backend/internal/realtime"
	"github.com/ripple-app/backend/internal/storage"
	"go.uber.org/zap"
)

func main() {
	if err := logger.Initialize(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FILE")); err != nil {
		panic(err)
	}
	defer logger.Close()

	cfg := config.Load()

	logger.Log.Info("ripple server starting", zap.String("port", cfg.Port))

	if cfg.JWTSecret == "" {
		logger.Log.Fatal("JWT_SECRET environment variable is required")
	}

	if err := database.Initialize(cfg.DatabaseURL); err != nil {
		logger.Log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("failed to run migrations", zap.Error(err))
	}

	redisClient, err := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
	if err != nil {
		logger.Log.Warn("redis unavailable, rate limiting degraded", zap.Error(err))
	} else {
		defer redisClient.Close()
	}

	authService := auth.NewService([]byte(cfg.JWTSecret))

	// Realtime hub: the single dispatcher every socket event flows through.
	hub := realtime.NewHub()
	realtime.RegisterDefaultHandlers(hub)
	go hub.Run()

	notifier := realtime.NewNotifier(hub)
	wsHandler := realtime.NewHandler(hub, authService)

	classifier := moderation.NewKeywordClassifier()

	h := handlers.NewHandlers(authService, notifier, classifier)
	if cfg.S3Bucket != "" {
		uploader, err := storage.NewS3Uploader(cfg.AWSRegion, cfg.S3Bucket, cfg.CDNBaseURL)
		if err != nil {
			logger.Log.Warn("S3 unavailable, media uploads disabled", zap.Error(err))
		} else {
			h.SetUploader(uploader)
		}
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.FrontendURL}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		status := "ok"
		if err := database.Health(); err != nil {
			status = "degraded"
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC(),
			"service":   "ripple-backend",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", wsHandler.HandleWebSocket)

	api := r.Group("/api")
	api.Use(middleware.RedisRateLimitMiddleware(100, time.Minute))
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
			authGroup.POST("/logout", middleware.RequireAuth(authService), h.Logout)
			authGroup.GET("/me", middleware.RequireAuth(authService), h.Me)
			authGroup.POST("/notifications/read", middleware.RequireAuth(authService), h.MarkNotificationsRead)
		}

		users := api.Group("/users", middleware.RequireAuth(authService))
		{
			users.GET("", h.ListUsers)
			users.GET("/:id", h.GetUser)
			users.PATCH("/me", h.UpdateProfile)
			users.POST("/me/avatar", h.UploadAvatar)
			users.PUT("/me/status", h.UpdateStatus)
			users.POST("/:id/follow", h.FollowUser)
			users.DELETE("/:id/follow", h.UnfollowUser)
		}

		posts := api.Group("/posts", middleware.RequireAuth(authService))
		{
			posts.GET("", h.GetFeed)
			posts.POST("", h.CreatePost)
			posts.PATCH("/:id", h.UpdatePost)
			posts.DELETE("/:id", h.DeletePost)
			posts.POST("/:id/like", h.LikePost)
			posts.POST("/:id/comments", h.CommentOnPost)
		}

		chats := api.Group("/chats", middleware.RequireAuth(authService))
		{
			chats.GET("", h.ListChats)
			chats.GET("/:id", h.GetChat)
			chats.POST("/group", h.CreateGroupChat)
			chats.POST("/:id/block", h.BlockChat)
			chats.PATCH("/:id/group", h.RenameGroupChat)
			chats.POST("/:id/members", h.AddGroupMember)
			chats.DELETE("/:id/members/:userId", h.RemoveGroupMember)
			chats.GET("/:id/messages", h.GetMessages)
		}

		messages := api.Group("/messages", middleware.RequireAuth(authService))
		{
			messages.POST("", h.SendMessage)
			messages.POST("/voice", h.SendVoiceMessage)
			messages.POST("/:id/read", h.MarkMessageRead)
			messages.DELETE("/:id", h.DeleteMessage)
		}

		mod := api.Group("/moderation", middleware.RequireAuth(authService))
		{
			mod.POST("/check", h.ModerateText)
			mod.POST("/reports", h.ReportContent)
		}

		admin := api.Group("/admin", middleware.RequireAuth(authService), middleware.RequireAdmin())
		{
			admin.POST("/online", wsHandler.HandleOnlineStatus)
			admin.GET("/realtime/metrics", wsHandler.HandleMetrics)
			admin.GET("/posts/hidden", h.AdminListHiddenPosts)
			admin.DELETE("/posts/:id", h.AdminDeletePost)
			admin.POST("/posts/:id/hide", h.AdminHidePost)
			admin.POST("/posts/:id/warn", h.AdminWarnAuthor)
			admin.DELETE("/messages/:id", h.AdminDeleteMessage)
			admin.POST("/users/:id/ban", h.AdminBanUser)
			admin.POST("/chats/:id/block", h.AdminBlockChat)
			admin.GET("/reports", h.AdminListReports)
			admin.POST("/reports/:id/resolve", h.AdminResolveReport)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("http shutdown error", zap.Error(err))
	}
	if err := hub.Shutdown(ctx); err != nil {
		logger.Log.Error("hub shutdown error", zap.Error(err))
	}

	logger.Log.Info("goodbye")
}
