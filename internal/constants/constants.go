package constants

// 登录方式常量
const (
	LoginTypeEmail = "email"
	LoginTypeQQ    = "qq"
	LoginTypeWeibo = "weibo"
)

// 角色常量
const (
	RoleAdmin uint = 1 // 管理员角色
	RoleUser  uint = 2 // 普通用户默认角色
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// Redis key 前缀
const (
	RedisKeyVerifyCode  = "code:user"    // 邮箱验证码，按邮箱区分
	RedisKeySession     = "session:user" // 登录会话，按用户 ID 区分
	RedisKeyUserArea    = "area:user"    // 用户地域统计（JSON 列表）
	RedisKeyVisitorArea = "area:visitor" // 游客地域统计（hash）
	RedisKeyCaptcha     = "captcha"      // 图形验证码
)

// 地域统计类型
const (
	UserAreaTypeUser    = 1 // 注册用户
	UserAreaTypeVisitor = 2 // 游客
)

// 队列与任务常量
const (
	QueueDefault        = "default"
	TaskVerifyCodeEmail = "email:verify_code"
)

// 验证码默认参数
const (
	DefaultVerifyCodeLength        = 6
	DefaultVerifyCodeExpireMinutes = 15
	DefaultSendIntervalSeconds     = 60
)

// 邮件模板常量
const (
	EmailSubjectVerifyCode = "验证码"
	EmailTemplateCommon    = "common.html"
)

// 默认昵称前缀，注册时拼接随机后缀
const DefaultNicknamePrefix = "用户"
