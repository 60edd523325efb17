package main

import (
	"fmt"
	"log"
	"time"

	"github.com/lovenest/internal/config"
	"github.com/lovenest/internal/db"
	"github.com/lovenest/internal/service"
)

// 演示数据生成器
func main() {
	cfg := config.Load()
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}
	if err := db.EnsurePartners(cfg.PartnerNames); err != nil {
		log.Fatal("用户初始化失败:", err)
	}

	fmt.Println("开始生成演示数据...")

	createDiaryEntries()
	createEvents()
	createMilestones()
	seedGarden(cfg.CoupleID)

	fmt.Println("演示数据生成完成！")
}

func createDiaryEntries() {
	var count int64
	db.DB.Model(&db.DiaryEntry{}).Count(&count)
	if count > 0 {
		fmt.Println("日记已存在，跳过创建")
		return
	}

	svc := service.NewDiaryService(db.DB)
	entries := []service.DiaryInput{
		{Author: "Anh", Title: "Ngày đầu tiên", Content: "# Ngày đầu tiên\nHôm nay chúng mình bắt đầu viết nhật ký chung.", Mood: "happy"},
		{Author: "Em", Title: "Trời mưa", Content: "Trời mưa cả ngày nhưng lòng em vẫn nắng.", Mood: "cozy"},
		{Author: "Anh", Title: "Cuối tuần", Content: "Cuối tuần mình nấu ăn cùng nhau, món phở hơi mặn.", Mood: "fun"},
	}
	for _, input := range entries {
		if _, err := svc.Create(input); err != nil {
			log.Printf("创建日记失败: %v", err)
		}
	}

	fmt.Println("✅ 演示日记创建完成")
}

func createEvents() {
	var count int64
	db.DB.Model(&db.LoveEvent{}).Count(&count)
	if count > 0 {
		fmt.Println("事件已存在，跳过创建")
		return
	}

	svc := service.NewEventService(db.DB)
	now := time.Now()
	events := []service.EventInput{
		{Title: "Kỷ niệm ngày quen nhau", EventDate: now.AddDate(-2, 0, 2), Recurring: true, CreatedBy: "Anh"},
		{Title: "Sinh nhật em", EventDate: time.Date(2000, now.Month(), now.Day()+5, 0, 0, 0, 0, time.Local), Recurring: true, CreatedBy: "Anh"},
		{Title: "Hẹn xem phim", EventDate: now.AddDate(0, 0, 1), CreatedBy: "Em"},
	}
	for _, input := range events {
		if _, err := svc.Create(input); err != nil {
			log.Printf("创建事件失败: %v", err)
		}
	}

	fmt.Println("✅ 演示事件创建完成")
}

func createMilestones() {
	var count int64
	db.DB.Model(&db.Milestone{}).Count(&count)
	if count > 0 {
		fmt.Println("里程碑已存在，跳过创建")
		return
	}

	svc := service.NewEventService(db.DB)
	milestones := []service.MilestoneInput{
		{Title: "Lần đầu gặp nhau", HappenedAt: time.Date(2022, 2, 14, 0, 0, 0, 0, time.Local)},
		{Title: "Chuyến du lịch đầu tiên", Description: "Đà Lạt 3 ngày 2 đêm", HappenedAt: time.Date(2023, 6, 1, 0, 0, 0, 0, time.Local)},
	}
	for _, input := range milestones {
		if _, err := svc.CreateMilestone(input); err != nil {
			log.Printf("创建里程碑失败: %v", err)
		}
	}

	fmt.Println("✅ 演示里程碑创建完成")
}

func seedGarden(coupleID string) {
	var count int64
	db.DB.Model(&db.PointsLedger{}).Where("couple_id = ?", coupleID).Count(&count)
	if count > 0 {
		fmt.Println("积分账本已存在，跳过创建")
		return
	}

	garden := service.NewGardenService(db.DB)
	seed := 400
	if _, err := garden.AddPoints(coupleID, service.AddPointsInput{
		ActivityType: "seed",
		Points:       &seed,
		Coins:        150,
		Description:  "Quà chào mừng",
	}, time.Now()); err != nil {
		log.Printf("初始化账本失败: %v", err)
		return
	}
	if _, err := garden.PurchaseFlower(coupleID, "rose", time.Now()); err != nil {
		log.Printf("购买演示花朵失败: %v", err)
	}

	fmt.Println("✅ 演示花园创建完成")
}
