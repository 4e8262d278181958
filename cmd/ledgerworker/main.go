package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"locshare/internal/config"
	appKafka "locshare/internal/kafka"
	"locshare/internal/services"
	"locshare/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("无法加载配置: %v", err)
	}
	if !cfg.Kafka.Enabled {
		log.Fatalf("KAFKA.ENABLED 为 false，账本 worker 无事可做")
	}

	db, err := storage.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("无法初始化数据库: %v", err)
	}
	auditor := services.NewLedgerAuditor(storage.NewGormTokenRepository(db))

	consumer, err := appKafka.NewConfluentConsumer(cfg.Kafka)
	if err != nil {
		log.Fatalf("无法创建 Kafka 消费者: %v", err)
	}
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		log.Printf("账本 worker 启动，监听 topic: %s, GroupID: %s", cfg.Kafka.LedgerTopic, cfg.Kafka.ConsumerGroup)
		done <- consumer.Consume(ctx, []string{cfg.Kafka.LedgerTopic}, auditor.HandleRecord)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		log.Println("收到关闭信号，正在停止账本 worker...")
		cancel()
		err = <-done
	case err = <-done:
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Kafka 消费者错误: %v", err)
		return
	}
	log.Println("账本 worker 已停止")
}
