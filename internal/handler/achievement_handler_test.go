package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lovenest/internal/db"
)

func TestListAchievementsCatalog(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/api/achievements", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	api.ListAchievements(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp struct {
		Achievements []struct {
			Type     string `json:"type"`
			Progress int    `json:"progress"`
		} `json:"achievements"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Achievements) != 6 {
		t.Fatalf("expected full catalog of 6 achievements, got %d", len(resp.Achievements))
	}
}

func TestUpdateAndClaimAchievement(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	w, c := postJSON(t, "/api/achievements/update", map[string]any{
		"type":      "comment_king",
		"increment": 12,
	})
	api.UpdateAchievement(c)
	if w.Code != http.StatusOK {
		t.Fatalf("update failed with status %d: %s", w.Code, w.Body.String())
	}

	var update struct {
		NewlyUnlocked  []int `json:"newly_unlocked"`
		PendingRewards int   `json:"pending_rewards"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &update); err != nil {
		t.Fatalf("failed to decode update: %v", err)
	}
	if len(update.NewlyUnlocked) != 2 || update.PendingRewards != 90 {
		t.Fatalf("expected 2 levels worth 90, got %+v", update)
	}

	w, c = postJSON(t, "/api/achievements/claim", map[string]any{"type": "comment_king"})
	api.ClaimAchievement(c)
	if w.Code != http.StatusOK {
		t.Fatalf("claim failed with status %d: %s", w.Code, w.Body.String())
	}

	var claim struct {
		Reward  int   `json:"reward"`
		Claimed []int `json:"claimed"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &claim); err != nil {
		t.Fatalf("failed to decode claim: %v", err)
	}
	if claim.Reward != 90 {
		t.Fatalf("expected 90 water reward, got %d", claim.Reward)
	}

	var ledger db.PointsLedger
	if err := db.DB.Where("couple_id = ?", "default").First(&ledger).Error; err != nil {
		t.Fatalf("failed to load ledger: %v", err)
	}
	if ledger.Water != 90 {
		t.Fatalf("expected 90 water credited, got %d", ledger.Water)
	}

	// 再领一次什么都不发生
	w, c = postJSON(t, "/api/achievements/claim", map[string]any{"type": "comment_king"})
	api.ClaimAchievement(c)
	if err := json.Unmarshal(w.Body.Bytes(), &claim); err != nil {
		t.Fatalf("failed to decode repeat claim: %v", err)
	}
	if claim.Reward != 0 || len(claim.Claimed) != 0 {
		t.Fatalf("expected empty repeat claim, got %+v", claim)
	}
}

func TestUpdateAchievementUnknownType(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	w, c := postJSON(t, "/api/achievements/update", map[string]any{"type": "no_such_badge"})
	api.UpdateAchievement(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}
