package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/lovenest/internal/config"
	"github.com/lovenest/internal/db"
	"github.com/lovenest/internal/handler"
	"github.com/lovenest/internal/router"
	"github.com/lovenest/internal/service"
	"github.com/lovenest/internal/storage"
)

func main() {
	// .env 仅用于本地开发，缺失时忽略
	_ = godotenv.Load()

	cfg := config.Load()

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	if err := db.EnsurePartners(cfg.PartnerNames); err != nil {
		log.Fatalf("failed to seed partners: %v", err)
	}

	store, err := storage.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize storage: %v", err)
	}

	api := handler.NewAPI(db.DB, store, cfg)

	// 事件提醒调度器每小时扫描即将到来的纪念日
	reminder := service.NewReminderScheduler(
		service.NewEventService(db.DB),
		service.NewNotificationService(db.DB),
		cfg.ReminderDays,
	)
	if err := reminder.Start(); err != nil {
		log.Fatalf("failed to start reminder scheduler: %v", err)
	}
	defer reminder.Stop()

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(api, cfg)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
