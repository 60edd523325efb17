package db

import "gorm.io/gorm"

// Photo 定义照片墙图片模型
type Photo struct {
	gorm.Model
	Title       string
	ImageURL    string
	ImageWidth  int
	ImageHeight int
	UploadedBy  string `gorm:"index"`
}
