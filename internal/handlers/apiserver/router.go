package apiserver

import (
	"net/http"

	"github.com/gorilla/mux"

	"locshare/internal/auth"
	"locshare/internal/middleware"
	"locshare/internal/services"
)

// RouterDeps 组装路由所需的服务。
type RouterDeps struct {
	AuthService     services.AuthService
	UserService     services.UserService
	FriendService   services.FriendService
	TokenService    services.TokenService
	LocationService services.LocationService
	TokenBlacklist  auth.TokenBlacklist // 可为 nil
	JWTSecretKey    string
}

// NewRouter 注册全部 HTTP 路由。/api/v1 下的路由需要 Bearer 令牌，且账号未被停用。
func NewRouter(deps RouterDeps) *mux.Router {
	authHandler := NewAuthHandler(deps.AuthService, deps.TokenBlacklist)
	userHandler := NewUserHandler(deps.UserService)
	friendHandler := NewFriendHandler(deps.FriendService)
	tokenHandler := NewTokenHandler(deps.TokenService)
	locationHandler := NewLocationHandler(deps.LocationService)

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, "资源不存在", http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, "不支持的请求方法", http.StatusMethodNotAllowed)
	})

	// 认证路由
	authRouter := r.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/register", authHandler.Register).Methods(http.MethodPost)
	authRouter.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)

	// API 子路由 (需要认证)
	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(middleware.AuthMiddleware(deps.JWTSecretKey, deps.TokenBlacklist, deps.UserService))

	apiRouter.HandleFunc("/auth/logout", authHandler.LogoutHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/me", userHandler.GetMyProfileHandler).Methods(http.MethodGet)

	// 好友路由
	friendRouter := apiRouter.PathPrefix("/friends").Subrouter()
	friendRouter.HandleFunc("", friendHandler.ListFriendsHandler).Methods(http.MethodGet)
	friendRouter.HandleFunc("", friendHandler.AddFriendHandler).Methods(http.MethodPost)
	friendRouter.HandleFunc("/search", friendHandler.SearchUsersHandler).Methods(http.MethodGet)
	friendRouter.HandleFunc("/{id:[0-9]+}", friendHandler.RemoveFriendHandler).Methods(http.MethodDelete)
	friendRouter.HandleFunc("/{id:[0-9]+}/block", friendHandler.BlockFriendHandler).Methods(http.MethodPost)
	friendRouter.HandleFunc("/{id:[0-9]+}/unblock", friendHandler.UnblockFriendHandler).Methods(http.MethodPost)

	// 位置分享路由
	apiRouter.HandleFunc("/location/send", locationHandler.SendLocationHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/location/{id:[0-9]+}", locationHandler.GetLocationHandler).Methods(http.MethodGet)

	// 令牌路由
	apiRouter.HandleFunc("/tokens", tokenHandler.BalanceHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/tokens/topup", tokenHandler.TopUpHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/tokens/transactions", tokenHandler.HistoryHandler).Methods(http.MethodGet)

	return r
}
