package staff

import "github.com/vendora-next/internal/provider"

// Handler 员工侧接口处理器入口
// 说明：该处理器仅挂载在 staff 路由组下，调用方已通过角色校验。
type Handler struct {
	*provider.Container
}

// New 创建员工侧处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
