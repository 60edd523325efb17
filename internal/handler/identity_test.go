package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

func identityEngine(api *API) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(sessions.Sessions("lovenest_session", cookie.NewStore([]byte("test-secret"))))
	engine.POST("/api/identity", api.SetIdentity)
	engine.GET("/api/identity", api.GetIdentity)
	return engine
}

func TestIdentityRoundTrip(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	engine := identityEngine(api)

	body, _ := json.Marshal(map[string]any{"name": "Anh"})
	req := httptest.NewRequest(http.MethodPost, "/api/identity", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected session cookie to be set")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/identity", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var resp struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Name != "Anh" {
		t.Fatalf("expected remembered name Anh, got %q", resp.Name)
	}
}

func TestSetIdentityRejectsBlankName(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	engine := identityEngine(api)

	body, _ := json.Marshal(map[string]any{"name": "   "})
	req := httptest.NewRequest(http.MethodPost, "/api/identity", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}
