package storage

import (
	"fmt"
	"mime/multipart"

	"github.com/lovenest/internal/config"
)

// Store 抽象上传文件的最终去处，返回可公开访问的 URL
type Store interface {
	Save(file *multipart.FileHeader, key string) (string, error)
}

// New 按配置选择存储后端：默认本地磁盘，STORAGE_BACKEND=s3 时走对象存储
func New(cfg config.AppConfig) (Store, error) {
	switch cfg.StorageBackend {
	case "", "local":
		return NewLocalStore(cfg.UploadDir, cfg.UploadURLPath), nil
	case "s3":
		return NewS3Store(cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.StorageBackend)
	}
}
