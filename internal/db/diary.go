package db

import "gorm.io/gorm"

// DiaryEntry 定义了日记模型，正文为 Markdown
type DiaryEntry struct {
	gorm.Model
	Author   string `gorm:"index"`
	Title    string
	Content  string
	Mood     string
	CoverURL string
}

// DiaryComment 是日记的子表评论。
// 通过外键关联替代旧版 "comment-<entryId>-<ts>" 的 ID 前缀约定。
type DiaryComment struct {
	gorm.Model
	EntryID uint       `gorm:"index"`
	Entry   DiaryEntry `gorm:"constraint:OnDelete:CASCADE"`
	Author  string
	Content string
}

// Like 记录点赞，按 (target_type, target_id, username) 唯一保证幂等
type Like struct {
	gorm.Model
	TargetType string `gorm:"index:idx_like_unique,unique"`
	TargetID   uint   `gorm:"index:idx_like_unique,unique"`
	Username   string `gorm:"index:idx_like_unique,unique"`
}

// TableName 固定表名
func (Like) TableName() string {
	return "likes"
}
