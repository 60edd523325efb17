package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lovenest/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 点赞目标类型
const (
	LikeTargetDiary = "diary"
	LikeTargetPhoto = "photo"
)

var (
	// ErrLikeTargetInvalid 在目标类型不受支持时返回
	ErrLikeTargetInvalid = errors.New("invalid like target type")
)

// LikeService 负责点赞/取消点赞与批量计数。
// (target, username) 唯一索引保证重复点赞幂等。
type LikeService struct {
	db *gorm.DB
}

// NewLikeService 构造 LikeService
func NewLikeService(gdb *gorm.DB) *LikeService {
	return &LikeService{db: gdb}
}

// LikeState 汇总单个目标的点赞状态
type LikeState struct {
	Count int64
	Liked bool
}

// Like 为目标点赞；重复点赞不报错也不重复计数。
// 返回值表示本次调用是否真的新增了一条点赞。
func (s *LikeService) Like(targetType string, targetID uint, username string) (bool, error) {
	if err := validateLikeTarget(targetType); err != nil {
		return false, err
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return false, errors.New("username is required")
	}

	record := db.Like{TargetType: targetType, TargetID: targetID, Username: username}
	result := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "target_type"}, {Name: "target_id"}, {Name: "username"}},
		DoNothing: true,
	}).Create(&record)
	if result.Error != nil {
		return false, fmt.Errorf("create like: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}

// Unlike 取消点赞
func (s *LikeService) Unlike(targetType string, targetID uint, username string) error {
	if err := validateLikeTarget(targetType); err != nil {
		return err
	}

	if err := s.db.Where("target_type = ? AND target_id = ? AND username = ?",
		targetType, targetID, strings.TrimSpace(username)).
		Delete(&db.Like{}).Error; err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	return nil
}

// State 返回目标的点赞数与请求者是否已点赞
func (s *LikeService) State(targetType string, targetID uint, username string) (*LikeState, error) {
	if err := validateLikeTarget(targetType); err != nil {
		return nil, err
	}

	state := &LikeState{}
	if err := s.db.Model(&db.Like{}).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Count(&state.Count).Error; err != nil {
		return nil, fmt.Errorf("count likes: %w", err)
	}

	if username = strings.TrimSpace(username); username != "" {
		var match int64
		if err := s.db.Model(&db.Like{}).
			Where("target_type = ? AND target_id = ? AND username = ?", targetType, targetID, username).
			Count(&match).Error; err != nil {
			return nil, fmt.Errorf("check liked: %w", err)
		}
		state.Liked = match > 0
	}

	return state, nil
}

// BatchCounts 批量统计同类目标的点赞数
func (s *LikeService) BatchCounts(targetType string, targetIDs []uint) (map[uint]int64, error) {
	if err := validateLikeTarget(targetType); err != nil {
		return nil, err
	}

	counts := make(map[uint]int64, len(targetIDs))
	if len(targetIDs) == 0 {
		return counts, nil
	}

	type countRow struct {
		TargetID uint
		Total    int64
	}

	var rows []countRow
	if err := s.db.Model(&db.Like{}).
		Select("target_id AS target_id, COUNT(*) AS total").
		Where("target_type = ? AND target_id IN ?", targetType, targetIDs).
		Group("target_id").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("count likes: %w", err)
	}

	for _, id := range targetIDs {
		counts[id] = 0
	}
	for _, row := range rows {
		counts[row.TargetID] = row.Total
	}
	return counts, nil
}

func validateLikeTarget(targetType string) error {
	if targetType != LikeTargetDiary && targetType != LikeTargetPhoto {
		return fmt.Errorf("%w: %s", ErrLikeTargetInvalid, targetType)
	}
	return nil
}
