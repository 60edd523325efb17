package service

import (
	"errors"
	"testing"

	"github.com/lovenest/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDiaryTestDB(t *testing.T) (*gorm.DB, func()) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	if err := gdb.AutoMigrate(&db.DiaryEntry{}, &db.DiaryComment{}, &db.Like{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	return gdb, func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func TestCreateDiaryEntryRequiresContent(t *testing.T) {
	gdb, cleanup := setupDiaryTestDB(t)
	defer cleanup()

	svc := NewDiaryService(gdb)
	if _, err := svc.Create(DiaryInput{Author: "Anh", Title: "Trống"}); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
}

func TestUpdateDiaryEntryOwnerOnly(t *testing.T) {
	gdb, cleanup := setupDiaryTestDB(t)
	defer cleanup()

	svc := NewDiaryService(gdb)
	entry, err := svc.Create(DiaryInput{Author: "Anh", Title: "Ngày đầu", Content: "Hôm nay trời đẹp"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := svc.Update(entry.ID, "Em", DiaryInput{Content: "sửa trộm"}); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner for other author, got %v", err)
	}

	// 作者比较大小写不敏感
	updated, err := svc.Update(entry.ID, "anh", DiaryInput{Title: "Ngày đầu", Content: "Đã sửa"})
	if err != nil {
		t.Fatalf("case-insensitive owner update failed: %v", err)
	}
	if updated.Content != "Đã sửa" {
		t.Fatalf("expected content replaced, got %q", updated.Content)
	}
}

func TestDeleteDiaryEntryCascades(t *testing.T) {
	gdb, cleanup := setupDiaryTestDB(t)
	defer cleanup()

	svc := NewDiaryService(gdb)
	likes := NewLikeService(gdb)

	entry, err := svc.Create(DiaryInput{Author: "Em", Content: "Kỷ niệm nhỏ"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.AddComment(entry.ID, "Anh", "Dễ thương quá"); err != nil {
		t.Fatalf("comment failed: %v", err)
	}
	if _, err := likes.Like(LikeTargetDiary, entry.ID, "Anh"); err != nil {
		t.Fatalf("like failed: %v", err)
	}

	if err := svc.Delete(entry.ID, "EM"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, err := svc.Get(entry.ID); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected entry gone, got %v", err)
	}
	var commentCount, likeCount int64
	gdb.Model(&db.DiaryComment{}).Where("entry_id = ?", entry.ID).Count(&commentCount)
	gdb.Model(&db.Like{}).Where("target_type = ? AND target_id = ?", LikeTargetDiary, entry.ID).Count(&likeCount)
	if commentCount != 0 || likeCount != 0 {
		t.Fatalf("expected comments and likes removed, got %d comments %d likes", commentCount, likeCount)
	}
}

func TestDeleteCommentOwnerOnly(t *testing.T) {
	gdb, cleanup := setupDiaryTestDB(t)
	defer cleanup()

	svc := NewDiaryService(gdb)
	entry, err := svc.Create(DiaryInput{Author: "Anh", Content: "Một ngày bình thường"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	comment, err := svc.AddComment(entry.ID, "Em", "Nhớ anh")
	if err != nil {
		t.Fatalf("comment failed: %v", err)
	}

	if err := svc.DeleteComment(comment.ID, "Anh"); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if err := svc.DeleteComment(comment.ID, "em"); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
	if err := svc.DeleteComment(comment.ID, "em"); !errors.Is(err, ErrCommentNotFound) {
		t.Fatalf("expected ErrCommentNotFound after delete, got %v", err)
	}
}

func TestCommentCounts(t *testing.T) {
	gdb, cleanup := setupDiaryTestDB(t)
	defer cleanup()

	svc := NewDiaryService(gdb)
	first, err := svc.Create(DiaryInput{Author: "Anh", Content: "Bài một"})
	if err != nil {
		t.Fatalf("create first failed: %v", err)
	}
	second, err := svc.Create(DiaryInput{Author: "Em", Content: "Bài hai"})
	if err != nil {
		t.Fatalf("create second failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := svc.AddComment(first.ID, "Em", "bình luận"); err != nil {
			t.Fatalf("comment failed: %v", err)
		}
	}

	counts, err := svc.CommentCounts([]uint{first.ID, second.ID})
	if err != nil {
		t.Fatalf("counts failed: %v", err)
	}
	if counts[first.ID] != 3 || counts[second.ID] != 0 {
		t.Fatalf("expected 3 and 0 comments, got %d and %d", counts[first.ID], counts[second.ID])
	}
}
