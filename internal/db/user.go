package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// User 定义了用户模型。身份只是一个展示名，没有凭据，
// 删除权限通过展示名与作者字段的大小写不敏感比较判断。
type User struct {
	gorm.Model
	Name      string `gorm:"unique;not null"`
	AvatarURL string
}

// EnsurePartners 存在性检查：为配置中给出的两位伴侣创建缺失的用户行。
func EnsurePartners(names []string) error {
	if DB == nil {
		return errors.New("database not initialized")
	}

	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}

		var existing User
		err := DB.Where("name = ?", trimmed).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := DB.Create(&User{Name: trimmed}).Error; err != nil {
			return err
		}
	}

	return nil
}
