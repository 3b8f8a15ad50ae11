package router

import (
	"fmt"
	"strings"

	"github.com/Keep-Fight/LightBlogSystem/internal/cache"
	"github.com/Keep-Fight/LightBlogSystem/internal/config"
	adminhandlers "github.com/Keep-Fight/LightBlogSystem/internal/http/handlers/admin"
	publichandlers "github.com/Keep-Fight/LightBlogSystem/internal/http/handlers/public"
	"github.com/Keep-Fight/LightBlogSystem/internal/logger"
	"github.com/Keep-Fight/LightBlogSystem/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "blog"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "登录尝试过于频繁",
	}
	sendCodeRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:send_code", redisPrefix),
		WindowSeconds: cfg.Security.SendCodeLimit.WindowSeconds,
		MaxRequests:   cfg.Security.SendCodeLimit.MaxAttempts,
		Message:       "验证码发送过于频繁",
	}

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// 用户认证接口（无需登录）
		auth := apiV1.Group("/auth")
		{
			auth.GET("/captcha/image", publicHandler.GetCaptcha)
			auth.POST("/send-verify-code", RateLimitMiddleware(redisClient, sendCodeRule, KeyByIPAndJSONField("email")), publicHandler.SendVerifyCode)
			auth.POST("/register", publicHandler.Register)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.Login)
			auth.POST("/social/:provider", RateLimitMiddleware(redisClient, loginRule, KeyByIP), publicHandler.SocialLogin)
			auth.POST("/forgot-password", publicHandler.ForgotPassword)
		}

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(c.TokenService, c.UserAuthRepo))
		{
			user.GET("/me", publicHandler.Me)
			user.PUT("/me/password", publicHandler.ChangePassword)
			user.POST("/logout", publicHandler.Logout)
			user.GET("/users/area", publicHandler.UserAreas)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		admin.Use(UserJWTAuthMiddleware(c.TokenService, c.UserAuthRepo), AdminRoleMiddleware(c.UserRoleRepo))
		{
			admin.GET("/users", adminHandler.ListUsers)
			admin.GET("/users/active-stats", adminHandler.UserActiveStats)
			admin.GET("/users/three-day-active", adminHandler.UserThreeDayActive)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
