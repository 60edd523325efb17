package handler

import (
	"testing"

	"github.com/lovenest/internal/config"
	"github.com/lovenest/internal/db"
	"github.com/lovenest/internal/storage"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) (*API, func()) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(
		&db.User{}, &db.DiaryEntry{}, &db.DiaryComment{}, &db.Like{},
		&db.Photo{}, &db.LoveEvent{}, &db.Milestone{}, &db.Notification{},
		&db.PointsLedger{}, &db.FlowerProgress{}, &db.AchievementProgress{}, &db.ActivityLog{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	for _, name := range []string{"Anh", "Em"} {
		if err := gdb.Create(&db.User{Name: name}).Error; err != nil {
			t.Fatalf("failed to seed user %s: %v", name, err)
		}
	}

	db.DB = gdb

	cfg := config.AppConfig{
		CoupleID:      "default",
		PhotoMaxBytes: 50 << 20,
		EventImageMax: 10 << 20,
		SessionSecret: "test-secret",
	}
	store := storage.NewLocalStore(t.TempDir(), "/static/uploads")

	return NewAPI(gdb, store, cfg), func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}
