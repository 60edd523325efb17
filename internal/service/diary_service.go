package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lovenest/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrEntryNotFound 在日记不存在时返回
	ErrEntryNotFound = errors.New("diary entry not found")
	// ErrCommentNotFound 在评论不存在时返回
	ErrCommentNotFound = errors.New("diary comment not found")
	// ErrNotOwner 在请求者与作者不匹配时返回
	ErrNotOwner = errors.New("requester is not the author")
	// ErrEmptyContent 在正文为空时返回
	ErrEmptyContent = errors.New("content is required")
)

// DiaryService 负责日记与评论的增删改查。
// 评论是独立子表，按 entry_id 外键关联。
type DiaryService struct {
	db *gorm.DB
}

// DiaryInput 定义创建/更新日记时可配置字段
type DiaryInput struct {
	Author   string
	Title    string
	Content  string
	Mood     string
	CoverURL string
}

// NewDiaryService 构造 DiaryService
func NewDiaryService(gdb *gorm.DB) *DiaryService {
	return &DiaryService{db: gdb}
}

// List 返回日记集合，按创建时间倒序
func (s *DiaryService) List() ([]db.DiaryEntry, error) {
	var entries []db.DiaryEntry
	if err := s.db.Order("created_at DESC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list diary entries: %w", err)
	}
	return entries, nil
}

// Get 根据 ID 获取日记
func (s *DiaryService) Get(id uint) (*db.DiaryEntry, error) {
	var entry db.DiaryEntry
	if err := s.db.First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("get diary entry: %w", err)
	}
	return &entry, nil
}

// Create 新建日记
func (s *DiaryService) Create(input DiaryInput) (*db.DiaryEntry, error) {
	if strings.TrimSpace(input.Content) == "" {
		return nil, ErrEmptyContent
	}

	entry := db.DiaryEntry{
		Author:   strings.TrimSpace(input.Author),
		Title:    strings.TrimSpace(input.Title),
		Content:  input.Content,
		Mood:     strings.TrimSpace(input.Mood),
		CoverURL: strings.TrimSpace(input.CoverURL),
	}

	if err := s.db.Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("create diary entry: %w", err)
	}
	return &entry, nil
}

// Update 更新日记，仅作者本人可操作
func (s *DiaryService) Update(id uint, requester string, input DiaryInput) (*db.DiaryEntry, error) {
	entry, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !db.EqualName(entry.Author, requester) {
		return nil, ErrNotOwner
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, ErrEmptyContent
	}

	entry.Title = strings.TrimSpace(input.Title)
	entry.Content = input.Content
	entry.Mood = strings.TrimSpace(input.Mood)
	entry.CoverURL = strings.TrimSpace(input.CoverURL)

	if err := s.db.Save(entry).Error; err != nil {
		return nil, fmt.Errorf("update diary entry: %w", err)
	}
	return entry, nil
}

// Delete 删除日记及其评论，作者比较大小写不敏感
func (s *DiaryService) Delete(id uint, requester string) error {
	entry, err := s.Get(id)
	if err != nil {
		return err
	}
	if !db.EqualName(entry.Author, requester) {
		return ErrNotOwner
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("entry_id = ?", id).Delete(&db.DiaryComment{}).Error; err != nil {
			return fmt.Errorf("delete entry comments: %w", err)
		}
		if err := tx.Where("target_type = ? AND target_id = ?", LikeTargetDiary, id).Delete(&db.Like{}).Error; err != nil {
			return fmt.Errorf("delete entry likes: %w", err)
		}
		if err := tx.Delete(&db.DiaryEntry{}, id).Error; err != nil {
			return fmt.Errorf("delete diary entry: %w", err)
		}
		return nil
	})
}

// Comments 返回指定日记的评论，按时间正序
func (s *DiaryService) Comments(entryID uint) ([]db.DiaryComment, error) {
	if _, err := s.Get(entryID); err != nil {
		return nil, err
	}

	var comments []db.DiaryComment
	if err := s.db.Where("entry_id = ?", entryID).Order("created_at ASC").Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// AddComment 为日记追加一条评论
func (s *DiaryService) AddComment(entryID uint, author, content string) (*db.DiaryComment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if _, err := s.Get(entryID); err != nil {
		return nil, err
	}

	comment := db.DiaryComment{
		EntryID: entryID,
		Author:  strings.TrimSpace(author),
		Content: strings.TrimSpace(content),
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return &comment, nil
}

// DeleteComment 删除评论，仅评论作者本人可操作
func (s *DiaryService) DeleteComment(commentID uint, requester string) error {
	var comment db.DiaryComment
	if err := s.db.First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("get comment: %w", err)
	}
	if !db.EqualName(comment.Author, requester) {
		return ErrNotOwner
	}

	if err := s.db.Delete(&comment).Error; err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}

// CommentCounts 批量统计日记的评论数
func (s *DiaryService) CommentCounts(entryIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(entryIDs))
	if len(entryIDs) == 0 {
		return counts, nil
	}

	type countRow struct {
		EntryID uint
		Total   int64
	}

	var rows []countRow
	if err := s.db.Model(&db.DiaryComment{}).
		Select("entry_id AS entry_id, COUNT(*) AS total").
		Where("entry_id IN ?", entryIDs).
		Group("entry_id").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("count comments: %w", err)
	}

	for _, id := range entryIDs {
		counts[id] = 0
	}
	for _, row := range rows {
		counts[row.EntryID] = row.Total
	}
	return counts, nil
}
