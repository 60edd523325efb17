package db

import (
	"time"

	"gorm.io/gorm"
)

// LoveEvent 定义纪念日/约会事件模型
// Recurring 为 true 时按月-日每年重复（周年纪念），提醒调度器据此展开
type LoveEvent struct {
	gorm.Model
	Title       string
	Description string
	EventDate   time.Time `gorm:"index"`
	ImageURL    string
	Recurring   bool
	CreatedBy   string
}

// Milestone 是恋爱时间线上的一个里程碑
type Milestone struct {
	gorm.Model
	Title       string
	Description string
	HappenedAt  time.Time `gorm:"index"`
}
