package main

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"calimara/internal/config"
	"calimara/internal/db"
	"calimara/internal/http/handler"
	mw "calimara/internal/http/middleware"
	"calimara/internal/model"
	"calimara/internal/moderation"
)

func main() {
	cfg := config.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	database, err := db.Open(cfg)
	if err != nil {
		zap.L().Fatal("failed to open database", zap.Error(err))
	}

	if err := db.AutoMigrate(database); err != nil {
		zap.L().Fatal("failed to run automigrate", zap.Error(err))
	}

	// Moderation pipeline: classifier, threshold policy and orchestrator are
	// built once here and injected into the handlers.
	classifier := moderation.NewGeminiClassifier(cfg, zap.L())
	engine := moderation.NewEngine(cfg.ToxicityFlagThreshold)
	modSvc := moderation.NewService(database, classifier, engine, zap.L())

	// Auto-create admin user if configured and no users exist
	if cfg.AdminInitUser != "" && cfg.AdminInitPass != "" {
		var userCount int64
		database.Model(&model.User{}).Count(&userCount)
		if userCount == 0 {
			hashedPassword, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminInitPass), bcrypt.DefaultCost)
			if err != nil {
				zap.L().Fatal("failed to hash admin password", zap.Error(err))
			}

			adminUser := &model.User{
				Username:     cfg.AdminInitUser,
				Email:        cfg.AdminInitUser + "@localhost",
				PasswordHash: string(hashedPassword),
				IsAdmin:      true,
				IsModerator:  true,
			}

			if err := database.Create(adminUser).Error; err != nil {
				zap.L().Fatal("failed to create admin user", zap.Error(err))
			}

			zap.L().Info("admin user created", zap.String("username", cfg.AdminInitUser))
		}
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(mw.RequestLogger())
	r.Use(mw.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	r.Use(mw.CORS())
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Content-Type-Options", "nosniff")
		c.Writer.Header().Set("X-Frame-Options", "DENY")
		c.Next()
	})

	api := r.Group("/api")

	authH := handler.NewAuthHandler(database, cfg)
	postH := handler.NewPostHandler(database, cfg, modSvc)
	cmtH := handler.NewCommentHandler(database, cfg, modSvc)
	modH := handler.NewModerationHandler(database, cfg, modSvc)

	api.POST("/register", authH.Register)
	api.POST("/login", authH.Login)
	api.POST("/logout", authH.Logout)

	public := api.Group("")
	public.Use(mw.OptionalAuth(cfg.JWTSecret, cfg.CookieName))
	public.GET("/posts/:id", postH.Get)
	public.GET("/users/:id/posts", postH.ListByUser)
	public.GET("/posts/:id/comments", cmtH.ListForPost)
	// Guests may comment with a name; logged-in users are resolved from the token.
	public.POST("/posts/:id/comments", cmtH.Create)

	authed := api.Group("")
	authed.Use(mw.RequireAuth(cfg.JWTSecret, cfg.CookieName))
	authed.POST("/posts", postH.Create)
	authed.PUT("/posts/:id", postH.Update)
	authed.DELETE("/posts/:id", postH.Delete)
	authed.PUT("/comments/:id/approve", cmtH.Approve)
	authed.DELETE("/comments/:id", cmtH.Delete)
	authed.GET("/my/comments/pending", cmtH.ListPendingForMyPosts)

	modRoutes := api.Group("/moderation")
	modRoutes.Use(mw.RequireAuth(cfg.JWTSecret, cfg.CookieName))
	modRoutes.Use(mw.RequireModerator())
	modRoutes.GET("/queue", modH.Queue)
	modRoutes.GET("/logs", modH.Logs)
	modRoutes.GET("/stats", modH.Stats)
	modRoutes.POST("/review/:id", modH.Review)
	modRoutes.POST("/content/:type/:id/approve", modH.Approve)
	modRoutes.POST("/content/:type/:id/reject", modH.Reject)
	modRoutes.POST("/users/:id/suspend", modH.SuspendUser)
	modRoutes.POST("/users/:id/unsuspend", modH.UnsuspendUser)

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	if err := http.ListenAndServe(addr, r); err != nil {
		zap.L().Fatal("server error", zap.Error(err))
	}
}
