package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lovenest/internal/db"
	"github.com/lovenest/internal/service"
)

// GetPoints 返回积分账本状态
func (a *API) GetPoints(c *gin.Context) {
	ledger, err := a.garden.Ledger(a.coupleID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load points")
		return
	}
	c.JSON(http.StatusOK, gin.H{"points": ledgerToPayload(*ledger)})
}

// AddPoints 手动入账一次活动积分
func (a *API) AddPoints(c *gin.Context) {
	var payload struct {
		ActivityType string `json:"activity_type"`
		Points       *int   `json:"points"`
		Coins        int    `json:"coins"`
		Description  string `json:"description"`
	}
	if !bindJSON(c, &payload, "invalid request payload") {
		return
	}
	if payload.ActivityType == "" {
		respondError(c, http.StatusBadRequest, "activity type is required")
		return
	}

	result, err := a.garden.AddPoints(a.coupleID, service.AddPointsInput{
		ActivityType: payload.ActivityType,
		Points:       payload.Points,
		Coins:        payload.Coins,
		Description:  payload.Description,
	}, time.Now())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to add points")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"points":       ledgerToPayload(result.Ledger),
		"streak_bonus": result.StreakBonus,
	})
}

// GetFlowers 返回花园图鉴与每朵花的养成状态
func (a *API) GetFlowers(c *gin.Context) {
	statuses, err := a.garden.Flowers(a.coupleID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load garden")
		return
	}

	items := make([]gin.H, 0, len(statuses))
	for _, status := range statuses {
		item := gin.H{
			"flower":         status.Flower,
			"owned":          status.Owned,
			"water":          status.Water,
			"stage":          status.Stage,
			"claimed_stages": status.ClaimedStages,
		}
		if status.PurchasedAt != nil {
			item["purchased_at"] = status.PurchasedAt.Format(time.RFC3339)
		}
		items = append(items, item)
	}
	c.JSON(http.StatusOK, gin.H{"flowers": items})
}

// WaterFlower 把账本的水转移到花朵上；越过盛开阈值时
// 尽力触发花园成就重算，失败只记日志
func (a *API) WaterFlower(c *gin.Context) {
	flowerID := c.Param("id")

	var payload struct {
		Amount int `json:"amount"`
	}
	if !bindJSON(c, &payload, "invalid request payload") {
		return
	}

	result, err := a.garden.WaterFlower(a.coupleID, flowerID, payload.Amount, time.Now())
	if err != nil {
		handleGardenError(c, err)
		return
	}

	if result.CrossedBloom {
		if _, err := a.achievements.Update(a.coupleID, service.AchievementGardenBloom, 0); err != nil {
			log.Printf("garden bloom achievement update failed: %v", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"points": ledgerToPayload(result.Ledger),
		"flower": gin.H{
			"flower_id": result.Flower.FlowerID,
			"water":     result.Flower.Water,
			"stage":     result.Stage,
		},
	})
}

// PurchaseFlower 用金币购买花朵
func (a *API) PurchaseFlower(c *gin.Context) {
	ledger, err := a.garden.PurchaseFlower(a.coupleID, c.Param("id"), time.Now())
	if err != nil {
		handleGardenError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"points": ledgerToPayload(*ledger)})
}

// ClaimStageReward 领取花朵生长阶段的金币奖励
func (a *API) ClaimStageReward(c *gin.Context) {
	var payload struct {
		Stage int `json:"stage"`
	}
	if !bindJSON(c, &payload, "invalid request payload") {
		return
	}

	result, err := a.garden.ClaimStageReward(a.coupleID, c.Param("id"), payload.Stage, time.Now())
	if err != nil {
		handleGardenError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"points":   ledgerToPayload(result.Ledger),
		"claim_id": result.ClaimID,
		"coins":    result.Coins,
	})
}

// GetWaterHistory 返回浇水/积分流水；读失败时返回空列表
func (a *API) GetWaterHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	entries, err := a.garden.WaterHistory(a.coupleID, limit)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"history": []gin.H{}})
		return
	}

	items := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		items = append(items, gin.H{
			"id":            entry.ID,
			"activity_type": entry.ActivityType,
			"points":        entry.Points,
			"coins":         entry.Coins,
			"description":   entry.Description,
			"created_at":    entry.CreatedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, gin.H{"history": items})
}

func ledgerToPayload(ledger db.PointsLedger) gin.H {
	owned := ledger.OwnedFlowers
	if owned == nil {
		owned = []string{}
	}
	claimed := ledger.ClaimedStages
	if claimed == nil {
		claimed = []string{}
	}

	return gin.H{
		"water":              ledger.Water,
		"coins":              ledger.Coins,
		"current_streak":     ledger.CurrentStreak,
		"longest_streak":     ledger.LongestStreak,
		"last_activity_date": ledger.LastActivityDate,
		"owned_flowers":      owned,
		"claimed_stages":     claimed,
	}
}

func handleGardenError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrFlowerUnknown):
		respondError(c, http.StatusNotFound, "flower not found")
	case errors.Is(err, service.ErrFlowerNotOwned):
		respondError(c, http.StatusBadRequest, "flower is not owned yet")
	case errors.Is(err, service.ErrInvalidWaterAmount):
		respondError(c, http.StatusBadRequest, "water amount must be positive")
	case errors.Is(err, service.ErrInsufficientWater):
		respondError(c, http.StatusBadRequest, "not enough water")
	case errors.Is(err, service.ErrInsufficientCoins):
		respondError(c, http.StatusBadRequest, "not enough coins")
	case errors.Is(err, service.ErrStageNotReached):
		respondError(c, http.StatusBadRequest, "stage not reached yet")
	case errors.Is(err, service.ErrStageAlreadyClaimed):
		respondError(c, http.StatusBadRequest, "stage reward already claimed")
	default:
		respondError(c, http.StatusInternalServerError, "operation failed")
	}
}
