package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"locshare/internal/config"
	appKafka "locshare/internal/kafka"
	"locshare/internal/models"
	"locshare/internal/services"
	"locshare/internal/storage"
)

func usage() {
	fmt.Println("使用方法:")
	fmt.Println("  ./admin show-user <uid>         - 显示用户信息与令牌余额")
	fmt.Println("  ./admin topup <uid> <amount>    - 为用户充值令牌")
	fmt.Println("  ./admin friends <uid>           - 列出用户的好友关系")
	fmt.Println("  ./admin ledger <uid> [limit]    - 显示用户最近的令牌流水")
	fmt.Println("  ./admin disable <uid>           - 停用账号，已签发的令牌随之失效")
	fmt.Println("  ./admin enable <uid>            - 恢复账号")
}

func main() {
	// 简单命令行参数解析
	if len(os.Args) < 3 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(os.Getenv("LOCSHARE_CONFIG"))
	if err != nil {
		log.Fatalf("无法加载配置: %v", err)
	}
	db, err := storage.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	var producer appKafka.Producer
	if cfg.Kafka.Enabled {
		p, err := appKafka.NewConfluentProducer(cfg.Kafka)
		if err != nil {
			log.Fatalf("无法创建 Kafka 生产者: %v", err)
		}
		defer p.Close()
		producer = p
	}

	userRepo := storage.NewGormUserRepository(db)
	userService := services.NewUserService(userRepo)
	friendService := services.NewFriendService(userRepo, storage.NewGormFriendRepository(db))
	tokenService := services.NewTokenService(db, storage.NewGormTokenRepository(db), producer, cfg.Kafka.LedgerTopic)

	ctx := context.Background()
	user, err := userService.FindByPublicID(ctx, os.Args[2])
	if err != nil {
		log.Fatalf("查找用户 %s 失败: %v", os.Args[2], err)
	}

	// 执行指定的命令
	switch os.Args[1] {
	case "show-user":
		fmt.Printf("用户 %s 信息:\n", user.UID)
		fmt.Println("--------------------------------------")
		fmt.Printf("内部ID: %d\n", user.ID)
		fmt.Printf("用户名: %s\n", user.Username)
		fmt.Printf("邮箱: %s\n", user.Email)
		fmt.Printf("状态: %s\n", user.Status)
		fmt.Printf("令牌余额: %d\n", user.TokensBalance)
		if sent, err := storage.NewGormLocationShareRepository(db).CountBySender(ctx, user.ID); err == nil {
			fmt.Printf("已发送位置: %d\n", sent)
		}
		fmt.Printf("注册时间: %s\n", user.CreatedAt.Format("2006-01-02 15:04:05"))

	case "topup":
		if len(os.Args) < 4 {
			log.Fatalf("需要指定充值数量")
		}
		amount, err := strconv.ParseInt(os.Args[3], 10, 64)
		if err != nil {
			log.Fatalf("无效的充值数量: %v", err)
		}
		result, err := tokenService.TopUp(ctx, user.ID, amount)
		if err != nil {
			log.Fatalf("充值失败: %v", err)
		}
		fmt.Printf("已为 %s 充值 %d，当前余额 %d\n", user.UID, result.AmountAdded, result.NewBalance)

	case "friends":
		friends, err := friendService.ListFriends(ctx, user.ID)
		if err != nil {
			log.Fatalf("获取好友列表失败: %v", err)
		}
		fmt.Printf("用户 %s 的好友关系 (%d 条):\n", user.UID, len(friends))
		fmt.Println("--------------------------------------")
		for i, f := range friends {
			fmt.Printf("#%d 关系ID: %d, 好友: %s (%s), 状态: %s\n", i+1, f.ID, f.Username, f.UID, f.Status)
		}

	case "ledger":
		limit := 20
		if len(os.Args) > 3 {
			if limit, err = strconv.Atoi(os.Args[3]); err != nil {
				log.Fatalf("无效的条数: %v", err)
			}
		}
		entries, err := tokenService.History(ctx, user.ID, limit)
		if err != nil {
			log.Fatalf("获取令牌流水失败: %v", err)
		}
		fmt.Printf("用户 %s 最近的令牌流水 (%d 条):\n", user.UID, len(entries))
		fmt.Println("--------------------------------------")
		for _, e := range entries {
			share := "-"
			if e.LocationShareID != nil {
				share = strconv.FormatUint(uint64(*e.LocationShareID), 10)
			}
			fmt.Printf("#%d %s %+d 余额: %d 分享: %s 时间: %s\n",
				e.ID, e.Type, e.Amount, e.BalanceAfter, share, e.CreatedAt.Format("2006-01-02 15:04:05"))
		}

	case "disable", "enable":
		status := models.UserStatusDisabled
		if os.Args[1] == "enable" {
			status = models.UserStatusActive
		}
		if err := userService.SetStatus(ctx, user.ID, status); err != nil {
			log.Fatalf("更新账号状态失败: %v", err)
		}
		fmt.Printf("用户 %s 的状态已更新为 %s\n", user.UID, status)

	default:
		usage()
		log.Fatalf("未知命令: %s", os.Args[1])
	}
}
