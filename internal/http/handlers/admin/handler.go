package admin

import "github.com/Keep-Fight/LightBlogSystem/internal/provider"

// Handler 后台接口处理器入口
type Handler struct {
	*provider.Container
}

// New 创建后台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
