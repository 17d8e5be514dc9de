package service

import (
	"errors"
	"time"

	"github.com/vendora-next/internal/config"
	"github.com/vendora-next/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// UserJWTClaims 用户令牌声明。
// 令牌通常由上游身份服务签发，这里的声明结构是双方的契约
type UserJWTClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// IssueUserToken 签发用户令牌（HS256）。
// 主要供本地开发与测试使用，生产令牌由上游身份服务签发
func IssueUserToken(cfg *config.JWTConfig, user *models.User) (string, error) {
	if cfg == nil || cfg.SecretKey == "" {
		return "", errors.New("jwt secret missing")
	}
	if user == nil || user.ID == 0 {
		return "", ErrInvalidInput
	}
	expireHours := cfg.ExpireHours
	if expireHours <= 0 {
		expireHours = 24
	}
	now := time.Now()
	claims := UserJWTClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expireHours) * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.SecretKey))
}
