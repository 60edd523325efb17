package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lovenest/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrPhotoNotFound 在照片不存在时返回
	ErrPhotoNotFound = errors.New("photo not found")
	// ErrPhotoURLMissing 在图片地址为空时返回
	ErrPhotoURLMissing = errors.New("photo image url is required")
)

// PhotoService 负责照片墙的增删改查
type PhotoService struct {
	db *gorm.DB
}

// PhotoInput 定义上传照片后的落库字段
type PhotoInput struct {
	Title       string
	ImageURL    string
	ImageWidth  int
	ImageHeight int
	UploadedBy  string
}

// NewPhotoService 构造 PhotoService
func NewPhotoService(gdb *gorm.DB) *PhotoService {
	return &PhotoService{db: gdb}
}

// List 返回照片集合，按上传时间倒序
func (s *PhotoService) List() ([]db.Photo, error) {
	var photos []db.Photo
	if err := s.db.Order("created_at DESC").Find(&photos).Error; err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	return photos, nil
}

// Get 根据 ID 获取照片
func (s *PhotoService) Get(id uint) (*db.Photo, error) {
	var photo db.Photo
	if err := s.db.First(&photo, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPhotoNotFound
		}
		return nil, fmt.Errorf("get photo: %w", err)
	}
	return &photo, nil
}

// Create 登记一张已上传的照片
func (s *PhotoService) Create(input PhotoInput) (*db.Photo, error) {
	if strings.TrimSpace(input.ImageURL) == "" {
		return nil, ErrPhotoURLMissing
	}

	photo := db.Photo{
		Title:       strings.TrimSpace(input.Title),
		ImageURL:    strings.TrimSpace(input.ImageURL),
		ImageWidth:  input.ImageWidth,
		ImageHeight: input.ImageHeight,
		UploadedBy:  strings.TrimSpace(input.UploadedBy),
	}
	if err := s.db.Create(&photo).Error; err != nil {
		return nil, fmt.Errorf("create photo: %w", err)
	}
	return &photo, nil
}

// UpdateTitle 修改照片标题，仅上传者本人可操作
func (s *PhotoService) UpdateTitle(id uint, requester, title string) (*db.Photo, error) {
	photo, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !db.EqualName(photo.UploadedBy, requester) {
		return nil, ErrNotOwner
	}

	photo.Title = strings.TrimSpace(title)
	if err := s.db.Save(photo).Error; err != nil {
		return nil, fmt.Errorf("update photo title: %w", err)
	}
	return photo, nil
}

// Delete 删除照片及其点赞，上传者比较大小写不敏感
func (s *PhotoService) Delete(id uint, requester string) error {
	photo, err := s.Get(id)
	if err != nil {
		return err
	}
	if !db.EqualName(photo.UploadedBy, requester) {
		return ErrNotOwner
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("target_type = ? AND target_id = ?", LikeTargetPhoto, id).Delete(&db.Like{}).Error; err != nil {
			return fmt.Errorf("delete photo likes: %w", err)
		}
		if err := tx.Delete(&db.Photo{}, id).Error; err != nil {
			return fmt.Errorf("delete photo: %w", err)
		}
		return nil
	})
}
