package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/vendora-next/internal/models"
)

const userStateCacheTTL = 10 * time.Minute

// UserState 用户状态快照。
// 鉴权中间件用它避免每个请求都回表查账号状态
type UserState struct {
	UserID    uint   `json:"user_id"`
	Status    string `json:"status"`
	Role      string `json:"role"`
	UpdatedAt int64  `json:"updated_at"`
}

func userStateKey(userID uint) string {
	return fmt.Sprintf("auth:user:%d", userID)
}

// BuildUserState 从用户模型构建状态快照
func BuildUserState(user *models.User) *UserState {
	if user == nil {
		return nil
	}
	return &UserState{
		UserID:    user.ID,
		Status:    user.Status,
		Role:      user.Role,
		UpdatedAt: time.Now().Unix(),
	}
}

// GetUserState 获取用户状态快照
func GetUserState(ctx context.Context, userID uint) (*UserState, bool, error) {
	if userID == 0 {
		return nil, false, nil
	}
	var state UserState
	hit, err := GetJSON(ctx, userStateKey(userID), &state)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &state, true, nil
}

// SetUserState 写入用户状态快照
func SetUserState(ctx context.Context, state *UserState) error {
	if state == nil || state.UserID == 0 {
		return nil
	}
	return SetJSON(ctx, userStateKey(state.UserID), state, userStateCacheTTL)
}

// DelUserState 删除用户状态快照（账号状态变更后调用）
func DelUserState(ctx context.Context, userID uint) error {
	if userID == 0 {
		return nil
	}
	return Del(ctx, userStateKey(userID))
}
