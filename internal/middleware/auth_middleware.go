package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"locshare/internal/auth"
)

// contextKey 是用于在 context.Context 中存储值的自定义类型，以避免键冲突。
type contextKey string

const (
	// UserIDKey 是用于在上下文中存储用户ID的键。
	UserIDKey contextKey = "userID"
	// ClaimsKey stores the full *auth.Claims, needed for logout.
	ClaimsKey contextKey = "claims"
)

// UserStatusChecker 查询令牌所属账号是否仍可用。
type UserStatusChecker interface {
	IsActive(ctx context.Context, userID uint) (bool, error)
}

// AuthMiddleware validates the bearer token and puts the verified identity
// into the request context. Requests without a valid token never reach next.
// When users is non-nil, tokens of disabled accounts are refused with 403.
func AuthMiddleware(jwtKey string, blacklist auth.TokenBlacklist, users UserStatusChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeUnauthenticated(w, "请求未包含授权令牌")
				return
			}

			headerParts := strings.SplitN(authHeader, " ", 2)
			if len(headerParts) != 2 || !strings.EqualFold(headerParts[0], "bearer") || strings.TrimSpace(headerParts[1]) == "" {
				writeUnauthenticated(w, "授权头部格式无效，应为 Bearer {token}")
				return
			}

			claims, err := auth.ValidateToken(r.Context(), strings.TrimSpace(headerParts[1]), jwtKey, blacklist)
			if err != nil {
				log.Printf("Rejected token for %s %s: %v", r.Method, r.URL.Path, err)
				writeUnauthenticated(w, "令牌无效")
				return
			}

			if users != nil {
				active, err := users.IsActive(r.Context(), claims.UserID)
				if err != nil {
					log.Printf("Error checking status of user %d: %v", claims.UserID, err)
					writeAuthError(w, http.StatusInternalServerError, "服务器内部错误")
					return
				}
				if !active {
					writeAuthError(w, http.StatusForbidden, "账号已被停用")
					return
				}
			}

			ctx := WithClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithClaims returns a copy of ctx carrying the verified identity.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetUserIDFromContext 从上下文中获取用户ID。
func GetUserIDFromContext(ctx context.Context) (uint, bool) {
	userID, ok := ctx.Value(UserIDKey).(uint)
	return userID, ok && userID != 0
}

// GetClaimsFromContext 从上下文中获取完整的 JWT 声明。
func GetClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*auth.Claims)
	return claims, ok
}

func writeUnauthenticated(w http.ResponseWriter, message string) {
	writeAuthError(w, http.StatusUnauthorized, message)
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": message,
	})
}
