package handler

import (
	"errors"
	"fmt"
	"image"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lovenest/internal/db"
	"github.com/lovenest/internal/service"
)

// ListPhotos 返回照片墙列表；读失败时返回空列表保证页面可用
func (a *API) ListPhotos(c *gin.Context) {
	photos, err := a.photos.List()
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"photos": []gin.H{}})
		return
	}

	items := make([]gin.H, 0, len(photos))
	for _, photo := range photos {
		items = append(items, photoToPayload(photo))
	}
	c.JSON(http.StatusOK, gin.H{"photos": items})
}

// UploadPhoto 处理照片上传：校验类型与大小、解析尺寸、落库并入账积分
func (a *API) UploadPhoto(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "image file is required")
		return
	}
	if file.Size > a.photoMaxBytes {
		respondError(c, http.StatusBadRequest, "image exceeds the size limit")
		return
	}
	if !strings.HasPrefix(file.Header.Get("Content-Type"), "image/") {
		respondError(c, http.StatusBadRequest, "only image files are allowed")
		return
	}

	uploadedBy := requesterName(c, c.PostForm("uploaded_by"))
	if uploadedBy == "" {
		respondError(c, http.StatusBadRequest, "uploader name is required")
		return
	}

	key := fmt.Sprintf("%s-%s%s", time.Now().Format("20060102"), uuid.New().String(), filepath.Ext(file.Filename))
	url, err := a.store.Save(file, key)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to store image")
		return
	}

	width, height := decodeImageSize(file)

	photo, err := a.photos.Create(service.PhotoInput{
		Title:       c.PostForm("title"),
		ImageURL:    url,
		ImageWidth:  width,
		ImageHeight: height,
		UploadedBy:  uploadedBy,
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save photo")
		return
	}

	a.award("upload_photo", "Thêm ảnh kỷ niệm", fmt.Sprintf("photo-%d", photo.ID), service.AchievementPhotoCollector)

	c.JSON(http.StatusOK, gin.H{"photo": photoToPayload(*photo)})
}

// UpdatePhotoTitle 修改照片标题
func (a *API) UpdatePhotoTitle(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid photo id")
		return
	}

	var payload struct {
		Title     string `json:"title"`
		Requester string `json:"requester"`
	}
	if !bindJSON(c, &payload, "invalid request payload") {
		return
	}

	photo, err := a.photos.UpdateTitle(id, requesterName(c, payload.Requester), payload.Title)
	if err != nil {
		handlePhotoError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"photo": photoToPayload(*photo)})
}

// DeletePhoto 删除照片，上传者比较大小写不敏感
func (a *API) DeletePhoto(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid photo id")
		return
	}

	if err := a.photos.Delete(id, requesterName(c, "")); err != nil {
		handlePhotoError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// decodeImageSize 尽力解析图片尺寸，失败时返回零值
func decodeImageSize(file *multipart.FileHeader) (int, int) {
	src, err := file.Open()
	if err != nil {
		return 0, 0
	}
	defer src.Close()

	cfg, _, err := image.DecodeConfig(src)
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

func photoToPayload(photo db.Photo) gin.H {
	return gin.H{
		"id":          photo.ID,
		"title":       photo.Title,
		"image_url":   photo.ImageURL,
		"width":       photo.ImageWidth,
		"height":      photo.ImageHeight,
		"uploaded_by": photo.UploadedBy,
		"created_at":  photo.CreatedAt.Format(time.RFC3339),
	}
}

func handlePhotoError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPhotoNotFound):
		respondError(c, http.StatusNotFound, "photo not found")
	case errors.Is(err, service.ErrNotOwner):
		respondError(c, http.StatusForbidden, "only the uploader can do that")
	case errors.Is(err, service.ErrPhotoURLMissing):
		respondError(c, http.StatusBadRequest, "image is required")
	default:
		respondError(c, http.StatusInternalServerError, "operation failed")
	}
}
