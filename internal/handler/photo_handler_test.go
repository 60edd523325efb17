package handler

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lovenest/internal/db"
)

func pngUploadRequest(t *testing.T, field, filename string, width, height int, extra map[string]string) *http.Request {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	header.Set("Content-Type", "image/png")
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("failed to create part: %v", err)
	}
	if _, err := part.Write(pngBuf.Bytes()); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}

	for key, value := range extra {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("failed to write field %s: %v", key, err)
		}
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/photos", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadPhotoStoresAndAwards(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	req := pngUploadRequest(t, "image", "couple.png", 4, 3, map[string]string{
		"title":       "Buổi hẹn đầu",
		"uploaded_by": "Em",
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	api.UploadPhoto(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Photo struct {
			ID          uint   `json:"id"`
			ImageURL    string `json:"image_url"`
			ImageWidth  int    `json:"image_width"`
			ImageHeight int    `json:"image_height"`
		} `json:"photo"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Photo.ImageURL == "" {
		t.Fatal("expected stored image url")
	}
	if resp.Photo.ImageWidth != 4 || resp.Photo.ImageHeight != 3 {
		t.Fatalf("expected 4x3 dimensions, got %dx%d", resp.Photo.ImageWidth, resp.Photo.ImageHeight)
	}

	// 上传照片入账 15 水，当天首次活动再加连胜奖励
	var ledger db.PointsLedger
	if err := db.DB.Where("couple_id = ?", "default").First(&ledger).Error; err != nil {
		t.Fatalf("failed to load ledger: %v", err)
	}
	if ledger.Water != 25 {
		t.Fatalf("expected water=25 after upload, got %d", ledger.Water)
	}

	var progress db.AchievementProgress
	if err := db.DB.Where("couple_id = ? AND type = ?", "default", "photo_collector").First(&progress).Error; err != nil {
		t.Fatalf("failed to load achievement: %v", err)
	}
	if progress.Progress != 1 {
		t.Fatalf("expected photo collector progress 1, got %d", progress.Progress)
	}
}

func TestUploadPhotoRejectsNonImage(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "notes.txt")
	if err != nil {
		t.Fatalf("failed to create part: %v", err)
	}
	part.Write([]byte("not an image"))
	writer.WriteField("uploaded_by", "Anh")
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/photos", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	api.UploadPhoto(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for non-image upload, got %d", w.Code)
	}
}

func TestDeletePhotoOwnerOnly(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	photo := db.Photo{Title: "Kỷ niệm", ImageURL: "/static/uploads/x.png", UploadedBy: "Anh"}
	if err := db.DB.Create(&photo).Error; err != nil {
		t.Fatalf("failed to seed photo: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/photos/"+strconv.Itoa(int(photo.ID))+"?requester=Em", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{gin.Param{Key: "id", Value: strconv.Itoa(int(photo.ID))}}

	api.DeletePhoto(c)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/photos/"+strconv.Itoa(int(photo.ID))+"?requester=anh", nil)
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{gin.Param{Key: "id", Value: strconv.Itoa(int(photo.ID))}}

	api.DeletePhoto(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200 for case-insensitive owner, got %d", w.Code)
	}
}
