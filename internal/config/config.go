package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr        string
	Port              string
	DatabasePath      string
	SessionSecret     string
	GinMode           string
	UploadDir         string
	UploadURLPath     string
	AllowedOrigins    []string
	CoupleID          string
	PartnerNames      []string
	PhotoMaxBytes     int64
	EventImageMax     int64
	ReminderDays      int
	StorageBackend    string
	S3AccountID       string
	S3AccessKeyID     string
	S3AccessKeySecret string
	S3Bucket          string
	CDNBaseURL        string
}

const (
	defaultPhotoMaxBytes = 50 << 20
	defaultEventImageMax = 10 << 20
)

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	databasePath := strings.TrimSpace(os.Getenv("DATABASE_PATH"))
	if databasePath == "" {
		databasePath = "lovenest.db"
	}

	sessionSecret := strings.TrimSpace(os.Getenv("SESSION_SECRET"))
	if sessionSecret == "" {
		sessionSecret = "lovenest-dev-secret"
	}

	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))
	if ginMode == "" {
		ginMode = "release"
	}

	uploadDir := strings.TrimSpace(os.Getenv("UPLOAD_DIR"))
	if uploadDir == "" {
		uploadDir = "web/static/uploads"
	}

	uploadURLPath := strings.TrimSpace(os.Getenv("UPLOAD_URL_PATH"))
	if uploadURLPath == "" {
		uploadURLPath = "/static/uploads"
	}

	coupleID := strings.TrimSpace(os.Getenv("COUPLE_ID"))
	if coupleID == "" {
		coupleID = "default"
	}

	partnerNames := splitList(os.Getenv("PARTNER_NAMES"))
	if len(partnerNames) == 0 {
		partnerNames = []string{"Anh", "Em"}
	}

	allowedOrigins := splitList(os.Getenv("ALLOWED_ORIGINS"))
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}

	storageBackend := strings.ToLower(strings.TrimSpace(os.Getenv("STORAGE_BACKEND")))
	if storageBackend == "" {
		storageBackend = "local"
	}

	return AppConfig{
		ListenAddr:        listenAddr,
		Port:              port,
		DatabasePath:      databasePath,
		SessionSecret:     sessionSecret,
		GinMode:           ginMode,
		UploadDir:         uploadDir,
		UploadURLPath:     uploadURLPath,
		AllowedOrigins:    allowedOrigins,
		CoupleID:          coupleID,
		PartnerNames:      partnerNames,
		PhotoMaxBytes:     envBytes("PHOTO_MAX_BYTES", defaultPhotoMaxBytes),
		EventImageMax:     envBytes("EVENT_IMAGE_MAX_BYTES", defaultEventImageMax),
		ReminderDays:      envInt("REMINDER_DAYS", 3),
		StorageBackend:    storageBackend,
		S3AccountID:       strings.TrimSpace(os.Getenv("S3_ACCOUNT_ID")),
		S3AccessKeyID:     strings.TrimSpace(os.Getenv("S3_ACCESS_KEY_ID")),
		S3AccessKeySecret: strings.TrimSpace(os.Getenv("S3_ACCESS_KEY_SECRET")),
		S3Bucket:          strings.TrimSpace(os.Getenv("S3_BUCKET_NAME")),
		CDNBaseURL:        strings.TrimSpace(os.Getenv("CDN_BASE_URL")),
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func envInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		return fallback
	}
	return val
}

func envBytes(key string, fallback int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	val, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || val <= 0 {
		return fallback
	}
	return val
}
