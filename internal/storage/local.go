package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore 把上传文件写到本地目录，通过静态路由对外提供
type LocalStore struct {
	dir     string
	urlPath string
}

// NewLocalStore 构造 LocalStore
func NewLocalStore(dir, urlPath string) *LocalStore {
	return &LocalStore{dir: dir, urlPath: strings.TrimRight(urlPath, "/")}
}

// Save 把上传文件落盘并返回静态 URL
func (s *LocalStore) Save(file *multipart.FileHeader, key string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(s.dir, key))
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	return fmt.Sprintf("%s/%s", s.urlPath, key), nil
}
