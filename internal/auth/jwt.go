package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"locshare/internal/config"
)

var (
	ErrTokenInvalid = errors.New("JWT 无效")
	ErrTokenRevoked = errors.New("JWT 已被吊销")
)

// Claims 是 JWT 中的自定义声明。
// UserID is the internal key the services work with; UID is the public identifier.
type Claims struct {
	UserID uint   `json:"userId"`
	UID    string `json:"uid"`
	jwt.RegisteredClaims
}

// GenerateToken 为指定用户生成一个新的 JWT，每个令牌带唯一的 jti。
func GenerateToken(userID uint, uid string, authCfg config.AuthConfig) (string, *Claims, error) {
	jwtID, err := uuid.NewRandom()
	if err != nil {
		return "", nil, fmt.Errorf("生成 JWT ID 失败: %w", err)
	}

	now := time.Now()
	claims := &Claims{
		UserID: userID,
		UID:    uid,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			ExpiresAt: jwt.NewNumericDate(now.Add(authCfg.JWTExpiry)),
			ID:        jwtID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    authCfg.JWTIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(authCfg.JWTSecretKey))
	if err != nil {
		return "", nil, fmt.Errorf("生成 JWT 失败: %w", err)
	}
	return tokenString, claims, nil
}

// ValidateToken 验证 JWT 的签名、有效期，并在提供 blacklist 时检查是否已被吊销。
func ValidateToken(ctx context.Context, tokenString string, jwtKey string, blacklist TokenBlacklist) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("非预期的签名算法: %v", token.Header["alg"])
		}
		return []byte(jwtKey), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, ErrTokenInvalid
	}

	if blacklist != nil {
		if claims.ID == "" {
			return nil, fmt.Errorf("%w: 缺少 jti", ErrTokenInvalid)
		}
		revoked, err := blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			// 无法确认时拒绝
			return nil, fmt.Errorf("检查 Token 黑名单失败: %w", err)
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}

	return claims, nil
}
