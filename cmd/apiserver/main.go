package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	redisDriver "github.com/redis/go-redis/v9"

	"locshare/internal/auth"
	"locshare/internal/config"
	"locshare/internal/handlers/apiserver"
	appKafka "locshare/internal/kafka"
	appRedis "locshare/internal/redis"
	"locshare/internal/services"
	"locshare/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径 (默认查找 ./config/config.yaml)")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("无法加载配置: %v", err)
	}
	log.Printf("%s %s 配置加载成功。", cfg.AppName, cfg.AppVersion)

	// 2. 初始化数据库连接
	db, err := storage.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("无法初始化数据库: %v", err)
	}
	log.Println("API 服务器数据库连接成功。")

	if err := storage.AutoMigrateTables(db); err != nil {
		log.Fatalf("数据库表迁移失败: %v", err)
	}
	log.Println("数据库表迁移成功。")

	// 3. 初始化 Redis 黑名单 (REDIS.ADDR 为空时关闭)
	var tokenBlacklist auth.TokenBlacklist
	if cfg.Redis.Addr != "" {
		redisClient := redisDriver.NewClient(&redisDriver.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("无法连接到 Redis: %v", err)
		}
		tokenBlacklist = appRedis.NewRedisTokenBlacklist(redisClient)
		log.Println("成功连接到 Redis，登出吊销已启用。")
	} else {
		log.Println("未配置 REDIS.ADDR，登出不会吊销令牌。")
	}

	// 4. 初始化 Kafka Producer (账本事件)
	var producer appKafka.Producer
	if cfg.Kafka.Enabled {
		kfkProducer, err := appKafka.NewConfluentProducer(cfg.Kafka)
		if err != nil {
			log.Fatalf("无法创建 Kafka 生产者: %v", err)
		}
		defer kfkProducer.Close()
		producer = kfkProducer
		log.Printf("Kafka 生产者初始化成功，账本 topic: %s", cfg.Kafka.LedgerTopic)
	}

	// 5. 初始化 Repositories
	userRepo := storage.NewGormUserRepository(db)
	friendRepo := storage.NewGormFriendRepository(db)
	tokenRepo := storage.NewGormTokenRepository(db)
	shareRepo := storage.NewGormLocationShareRepository(db)

	// 6. 初始化 Services
	authService := services.NewAuthService(userRepo, cfg.Auth, cfg.Tokens)
	userService := services.NewUserService(userRepo)
	friendService := services.NewFriendService(userRepo, friendRepo)
	tokenService := services.NewTokenService(db, tokenRepo, producer, cfg.Kafka.LedgerTopic)
	locationService := services.NewLocationService(db, userRepo, friendRepo, shareRepo, producer, cfg.Kafka.LedgerTopic, cfg.Location.ShareTTL)

	// 7. 设置 HTTP 路由
	r := apiserver.NewRouter(apiserver.RouterDeps{
		AuthService:     authService,
		UserService:     userService,
		FriendService:   friendService,
		TokenService:    tokenService,
		LocationService: locationService,
		TokenBlacklist:  tokenBlacklist,
		JWTSecretKey:    cfg.Auth.JWTSecretKey,
	})

	corsOptions := []handlers.CORSOption{
		handlers.AllowedOrigins(cfg.APIServer.CORS.AllowedOrigins),
		handlers.AllowedMethods(cfg.APIServer.CORS.AllowedMethods),
		handlers.AllowedHeaders(cfg.APIServer.CORS.AllowedHeaders),
		handlers.ExposedHeaders(cfg.APIServer.CORS.ExposedHeaders),
		handlers.MaxAge(cfg.APIServer.CORS.MaxAge),
	}
	if cfg.APIServer.CORS.AllowCredentials {
		corsOptions = append(corsOptions, handlers.AllowCredentials())
	}
	handler := handlers.CombinedLoggingHandler(os.Stdout, handlers.CORS(corsOptions...)(r))

	// 8. 启动 HTTP 服务器并实现优雅关闭
	serverAddr := fmt.Sprintf("%s:%s", cfg.APIServer.Host, cfg.APIServer.Port)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  cfg.APIServer.ReadTimeout,
		WriteTimeout: cfg.APIServer.WriteTimeout,
		IdleTimeout:  cfg.APIServer.IdleTimeout,
	}

	go func() {
		log.Printf("API 服务器启动于 %s", serverAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("API 服务器启动失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("收到关闭信号，正在关闭 API 服务器...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Printf("API 服务器强制关闭: %v", err)
		return
	}
	log.Println("API 服务器已成功关闭")
}
