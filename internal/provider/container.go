package provider

import (
	"github.com/Keep-Fight/LightBlogSystem/internal/cache"
	"github.com/Keep-Fight/LightBlogSystem/internal/config"
	"github.com/Keep-Fight/LightBlogSystem/internal/constants"
	"github.com/Keep-Fight/LightBlogSystem/internal/logger"
	"github.com/Keep-Fight/LightBlogSystem/internal/models"
	"github.com/Keep-Fight/LightBlogSystem/internal/queue"
	"github.com/Keep-Fight/LightBlogSystem/internal/repository"
	"github.com/Keep-Fight/LightBlogSystem/internal/service"
	"github.com/Keep-Fight/LightBlogSystem/internal/social/qq"
	"github.com/Keep-Fight/LightBlogSystem/internal/social/weibo"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserAuthRepo repository.UserAuthRepository
	UserInfoRepo repository.UserInfoRepository
	UserRoleRepo repository.UserRoleRepository
	SettingRepo  repository.SettingRepository

	// Cache stores
	VerifyCodeStore *cache.VerifyCodeStore
	SessionStore    *cache.SessionStore
	AreaStatsStore  *cache.AreaStatsStore

	// Services
	CredentialService  *service.CredentialService
	TokenService       *service.TokenService
	EmailService       *service.EmailService
	CaptchaService     *service.CaptchaService
	UserAuthService    *service.UserAuthService
	SocialLoginService *service.SocialLoginService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()
	c.initStores()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserAuthRepo = repository.NewUserAuthRepository(db)
	c.UserInfoRepo = repository.NewUserInfoRepository(db)
	c.UserRoleRepo = repository.NewUserRoleRepository(db)
	c.SettingRepo = repository.NewSettingRepository(db)
}

func (c *Container) initStores() {
	client := cache.Client()
	prefix := cache.Prefix()
	c.VerifyCodeStore = cache.NewVerifyCodeStore(client, prefix, c.Config.Email.VerifyCode)
	c.SessionStore = cache.NewSessionStore(client, prefix)
	c.AreaStatsStore = cache.NewAreaStatsStore(client, prefix)
}

func (c *Container) initServices() {
	c.CredentialService = service.NewCredentialService(c.Config.Security.PasswordPolicy)
	c.TokenService = service.NewTokenService(c.Config.JWT, c.SessionStore)
	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)

	c.UserAuthService = service.NewUserAuthService(
		c.Config,
		c.UserAuthRepo,
		c.UserInfoRepo,
		c.UserRoleRepo,
		c.SettingRepo,
		c.VerifyCodeStore,
		c.AreaStatsStore,
		c.QueueClient,
		c.TokenService,
		c.CredentialService,
	)

	c.SocialLoginService = service.NewSocialLoginService(c.UserAuthService)
	if c.Config.Social.QQ.Enabled {
		c.SocialLoginService.Register(constants.LoginTypeQQ, qq.New(c.Config.Social.QQ))
	}
	if c.Config.Social.Weibo.Enabled {
		c.SocialLoginService.Register(constants.LoginTypeWeibo, weibo.New(c.Config.Social.Weibo))
	}
}
