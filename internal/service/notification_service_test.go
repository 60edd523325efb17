package service

import (
	"errors"
	"testing"

	"github.com/lovenest/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupNotificationTestDB(t *testing.T) (*gorm.DB, func()) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	if err := gdb.AutoMigrate(&db.User{}, &db.Notification{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	for _, name := range []string{"Anh", "Em"} {
		if err := gdb.Create(&db.User{Name: name}).Error; err != nil {
			t.Fatalf("failed to seed user %s: %v", name, err)
		}
	}

	return gdb, func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func TestSendBroadcastExcludesAuthor(t *testing.T) {
	gdb, cleanup := setupNotificationTestDB(t)
	defer cleanup()

	svc := NewNotificationService(gdb)

	rows, err := svc.Send(NotificationInput{
		Type:    "diary",
		Message: "Anh vừa viết nhật ký mới",
		Author:  "Anh",
		Target:  "Tất cả",
	})
	if err != nil {
		t.Fatalf("broadcast failed: %v", err)
	}
	if len(rows) != 1 || rows[0].Recipient != "Em" {
		t.Fatalf("expected single row for Em, got %+v", rows)
	}

	// 别名不区分大小写，"Của chúng ta" 同样是广播
	rows, err = svc.Send(NotificationInput{
		Type:    "photo",
		Message: "Ảnh mới trên tường",
		Author:  "Em",
		Target:  "của chúng ta",
	})
	if err != nil {
		t.Fatalf("alias broadcast failed: %v", err)
	}
	if len(rows) != 1 || rows[0].Recipient != "Anh" {
		t.Fatalf("expected single row for Anh, got %+v", rows)
	}
}

func TestSendNamedRecipient(t *testing.T) {
	gdb, cleanup := setupNotificationTestDB(t)
	defer cleanup()

	svc := NewNotificationService(gdb)

	rows, err := svc.Send(NotificationInput{Message: "chỉ gửi em", Author: "Anh", Target: "em"})
	if err != nil {
		t.Fatalf("named send failed: %v", err)
	}
	if len(rows) != 1 || rows[0].Recipient != "Em" {
		t.Fatalf("expected canonical recipient Em, got %+v", rows)
	}

	if _, err := svc.Send(NotificationInput{Message: "gửi ai đây", Author: "Anh", Target: "Người lạ"}); !errors.Is(err, ErrRecipientUnknown) {
		t.Fatalf("expected ErrRecipientUnknown, got %v", err)
	}
}

func TestMarkReadAndUnreadCount(t *testing.T) {
	gdb, cleanup := setupNotificationTestDB(t)
	defer cleanup()

	svc := NewNotificationService(gdb)

	for i := 0; i < 3; i++ {
		if _, err := svc.Send(NotificationInput{Message: "tin nhắn", Author: "Anh", Target: "Em"}); err != nil {
			t.Fatalf("send failed: %v", err)
		}
	}

	count, err := svc.UnreadCount("Em")
	if err != nil {
		t.Fatalf("unread count failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 unread, got %d", count)
	}

	list, err := svc.ListFor("Em", 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	marked, err := svc.MarkRead(list[0].ID, "Em")
	if err != nil {
		t.Fatalf("mark read failed: %v", err)
	}
	if !marked.ReadByUser("em") {
		t.Fatal("expected case-insensitive read state")
	}

	// 重复标记无副作用
	if _, err := svc.MarkRead(list[0].ID, "Em"); err != nil {
		t.Fatalf("repeat mark failed: %v", err)
	}

	updated, err := svc.MarkAllRead("Em")
	if err != nil {
		t.Fatalf("mark all failed: %v", err)
	}
	if updated != 2 {
		t.Fatalf("expected 2 rows newly marked, got %d", updated)
	}

	count, err = svc.UnreadCount("Em")
	if err != nil {
		t.Fatalf("unread recount failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 unread after mark all, got %d", count)
	}
}

func TestDeleteNotification(t *testing.T) {
	gdb, cleanup := setupNotificationTestDB(t)
	defer cleanup()

	svc := NewNotificationService(gdb)

	rows, err := svc.Send(NotificationInput{Message: "xóa thử", Author: "Anh", Target: "Em"})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if err := svc.Delete(rows[0].ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := svc.Delete(rows[0].ID); !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("expected ErrNotificationNotFound, got %v", err)
	}

	if _, err := svc.Send(NotificationInput{Message: "dọn dẹp", Author: "Anh", Target: "Em"}); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if err := svc.DeleteAllFor("Em"); err != nil {
		t.Fatalf("delete all failed: %v", err)
	}
	remaining, err := svc.ListFor("Em", 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected empty inbox, got %d rows", len(remaining))
	}
}
