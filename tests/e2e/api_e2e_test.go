package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lovenest/internal/config"
	"github.com/lovenest/internal/db"
	"github.com/lovenest/internal/handler"
	"github.com/lovenest/internal/router"
	"github.com/lovenest/internal/storage"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type localClient struct {
	handler http.Handler
	jar     http.CookieJar
}

func newLocalClient(h http.Handler) *localClient {
	jar, _ := cookiejar.New(nil)
	return &localClient{handler: h, jar: jar}
}

func (c *localClient) do(t *testing.T, method, target string, payload any) (int, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}

	// 路径型 target 生成的 URL 没有 scheme/host，cookiejar 会静默忽略；
	// 补上绝对地址让会话 cookie 能够往返。
	req := httptest.NewRequest(method, "http://example.com"+target, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, cookie := range c.jar.Cookies(req.URL) {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	resp := w.Result()
	c.jar.SetCookies(req.URL, resp.Cookies())

	return resp.StatusCode, w.Body.Bytes()
}

func setupSuite(t *testing.T) (*localClient, *gorm.DB, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := gdb.AutoMigrate(
		&db.User{}, &db.DiaryEntry{}, &db.DiaryComment{}, &db.Like{},
		&db.Photo{}, &db.LoveEvent{}, &db.Milestone{}, &db.Notification{},
		&db.PointsLedger{}, &db.FlowerProgress{}, &db.AchievementProgress{}, &db.ActivityLog{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	db.DB = gdb
	if err := db.EnsurePartners([]string{"Anh", "Em"}); err != nil {
		t.Fatalf("failed to seed partners: %v", err)
	}

	cfg := config.AppConfig{
		CoupleID:       "default",
		SessionSecret:  "e2e-secret",
		GinMode:        gin.TestMode,
		AllowedOrigins: []string{"http://localhost:3000"},
		PhotoMaxBytes:  50 << 20,
		EventImageMax:  10 << 20,
		StorageBackend: "local",
		UploadDir:      t.TempDir(),
		UploadURLPath:  "/static/uploads",
	}
	store := storage.NewLocalStore(cfg.UploadDir, cfg.UploadURLPath)
	api := handler.NewAPI(gdb, store, cfg)
	engine := router.SetupRouter(api, cfg)

	return newLocalClient(engine), gdb, func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func TestCoupleDayFlow(t *testing.T) {
	client, gdb, cleanup := setupSuite(t)
	defer cleanup()

	// 选择身份，之后的请求通过会话识别作者
	status, _ := client.do(t, http.MethodPost, "/api/identity", map[string]any{"name": "Anh"})
	if status != http.StatusOK {
		t.Fatalf("set identity failed with status %d", status)
	}

	// 写日记入账 20 水 + 连胜奖励 10
	status, body := client.do(t, http.MethodPost, "/api/diary", map[string]any{
		"title":   "Ngày của chúng mình",
		"content": "# Hôm nay\nMình cùng nhau nấu ăn.",
	})
	if status != http.StatusOK {
		t.Fatalf("create diary failed with status %d: %s", status, body)
	}
	var diaryResp struct {
		Entry struct {
			ID     uint   `json:"id"`
			Author string `json:"author"`
		} `json:"entry"`
	}
	if err := json.Unmarshal(body, &diaryResp); err != nil {
		t.Fatalf("failed to decode diary response: %v", err)
	}
	if diaryResp.Entry.Author != "Anh" {
		t.Fatalf("expected session author Anh, got %q", diaryResp.Entry.Author)
	}

	status, body = client.do(t, http.MethodGet, "/api/garden/points", nil)
	if status != http.StatusOK {
		t.Fatalf("get points failed with status %d", status)
	}
	var pointsResp struct {
		Points struct {
			Water         int `json:"water"`
			CurrentStreak int `json:"current_streak"`
		} `json:"points"`
	}
	if err := json.Unmarshal(body, &pointsResp); err != nil {
		t.Fatalf("failed to decode points: %v", err)
	}
	if pointsResp.Points.Water != 30 || pointsResp.Points.CurrentStreak != 1 {
		t.Fatalf("expected water=30 streak=1, got %+v", pointsResp.Points)
	}

	// 金币不经活动产出，直接注入后买花、浇水到盛开
	if err := gdb.Model(&db.PointsLedger{}).Where("couple_id = ?", "default").
		Updates(map[string]any{"coins": 100, "water": 600}).Error; err != nil {
		t.Fatalf("failed to top up ledger: %v", err)
	}

	status, body = client.do(t, http.MethodPost, "/api/garden/flowers/rose/purchase", map[string]any{})
	if status != http.StatusOK {
		t.Fatalf("purchase failed with status %d: %s", status, body)
	}
	status, body = client.do(t, http.MethodPost, "/api/garden/flowers/rose/water", map[string]any{"amount": 500})
	if status != http.StatusOK {
		t.Fatalf("watering failed with status %d: %s", status, body)
	}

	// 盛开后花园成就可领取
	status, body = client.do(t, http.MethodPost, "/api/achievements/claim", map[string]any{"type": "love_garden_bloom"})
	if status != http.StatusOK {
		t.Fatalf("claim failed with status %d: %s", status, body)
	}
	var claimResp struct {
		Reward int `json:"reward"`
	}
	if err := json.Unmarshal(body, &claimResp); err != nil {
		t.Fatalf("failed to decode claim: %v", err)
	}
	if claimResp.Reward != 50 {
		t.Fatalf("expected 50 water for first bloom, got %d", claimResp.Reward)
	}

	// 广播通知只送达对方
	status, _ = client.do(t, http.MethodPost, "/api/notifications", map[string]any{
		"type":    "diary",
		"message": "Anh vừa viết nhật ký",
		"target":  "Tất cả",
	})
	if status != http.StatusOK {
		t.Fatalf("send notification failed with status %d", status)
	}

	status, body = client.do(t, http.MethodGet, "/api/notifications?requester=Em", nil)
	if status != http.StatusOK {
		t.Fatalf("list notifications failed with status %d", status)
	}
	var inbox struct {
		Unread int `json:"unread"`
	}
	if err := json.Unmarshal(body, &inbox); err != nil {
		t.Fatalf("failed to decode inbox: %v", err)
	}
	if inbox.Unread != 1 {
		t.Fatalf("expected 1 unread notification for Em, got %d", inbox.Unread)
	}
}
