package db

import (
	"time"

	"gorm.io/gorm"
)

// PointsLedger 是每对情侣唯一的积分账本。
// Water 为可消费的主货币，Coins 为成就/花朵阶段奖励产出的次货币。
// LastActivityDate 存 "2006-01-02" 格式的日历日期，连胜按日历日推进。
type PointsLedger struct {
	gorm.Model
	CoupleID         string `gorm:"uniqueIndex"`
	Water            int
	Coins            int
	CurrentStreak    int
	LongestStreak    int
	LastActivityDate string
	OwnedFlowers     []string `gorm:"serializer:json"`
	ClaimedStages    []string `gorm:"serializer:json"`
}

// FlowerProgress 记录单朵花累计浇灌的水量。
// (couple_id, flower_id) 唯一；重新购买时水量归零。
type FlowerProgress struct {
	gorm.Model
	CoupleID    string `gorm:"index:idx_flower_progress_unique,unique"`
	FlowerID    string `gorm:"index:idx_flower_progress_unique,unique"`
	Water       int
	PurchasedAt time.Time
}

// TableName 固定表名
func (FlowerProgress) TableName() string {
	return "flower_progresses"
}

// AchievementProgress 是每种成就类型的进度行。
// UnlockedLevels 记录已达成的档位下标，ClaimedLevels 记录已领取奖励的档位，
// 两者的差集即待领取档位；奖励只在领取时入账，保证每档最多入账一次。
type AchievementProgress struct {
	gorm.Model
	CoupleID       string `gorm:"index:idx_achievement_unique,unique"`
	Type           string `gorm:"index:idx_achievement_unique,unique"`
	Progress       int
	Target         int
	Unlocked       bool
	UnlockedLevels []int `gorm:"serializer:json"`
	ClaimedLevels  []int `gorm:"serializer:json"`
}

// ActivityLog 是只追加的积分流水，也是"浇水历史"视图的数据来源
type ActivityLog struct {
	gorm.Model
	CoupleID     string `gorm:"index"`
	ActivityType string `gorm:"index"`
	Points       int
	Coins        int
	Description  string
	ReferenceID  string
}
