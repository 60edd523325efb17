package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lovenest/internal/db"
	"github.com/lovenest/internal/service"
)

// ListAchievements 返回成就目录与当前进度
func (a *API) ListAchievements(c *gin.Context) {
	statuses, err := a.achievements.List(a.coupleID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load achievements")
		return
	}

	items := make([]gin.H, 0, len(statuses))
	for _, status := range statuses {
		items = append(items, gin.H{
			"type":            status.Def.Type,
			"name":            status.Def.Name,
			"description":     status.Def.Description,
			"levels":          status.Def.Levels,
			"progress":        status.Progress.Progress,
			"unlocked":        status.Progress.Unlocked,
			"unlocked_levels": intSlice(status.Progress.UnlockedLevels),
			"claimed_levels":  intSlice(status.Progress.ClaimedLevels),
			"unclaimed":       intSlice(status.Unclaimed),
		})
	}
	c.JSON(http.StatusOK, gin.H{"achievements": items})
}

// UpdateAchievement 推进一个成就的进度
func (a *API) UpdateAchievement(c *gin.Context) {
	var payload struct {
		Type      string `json:"type"`
		Increment int    `json:"increment"`
	}
	if !bindJSON(c, &payload, "invalid request payload") {
		return
	}
	if payload.Type == "" {
		respondError(c, http.StatusBadRequest, "achievement type is required")
		return
	}

	outcome, err := a.achievements.Update(a.coupleID, payload.Type, payload.Increment)
	if err != nil {
		handleAchievementError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"progress":        achievementProgressPayload(outcome.Progress),
		"newly_unlocked":  intSlice(outcome.NewlyUnlocked),
		"pending_rewards": outcome.PendingRewards,
	})
}

// ClaimAchievement 领取已解锁等级的奖励，重复调用不会重复入账
func (a *API) ClaimAchievement(c *gin.Context) {
	var payload struct {
		Type string `json:"type"`
	}
	if !bindJSON(c, &payload, "invalid request payload") {
		return
	}
	if payload.Type == "" {
		respondError(c, http.StatusBadRequest, "achievement type is required")
		return
	}

	outcome, err := a.achievements.Claim(a.coupleID, payload.Type)
	if err != nil {
		handleAchievementError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"progress": achievementProgressPayload(outcome.Progress),
		"claimed":  intSlice(outcome.Claimed),
		"reward":   outcome.Reward,
	})
}

func achievementProgressPayload(row db.AchievementProgress) gin.H {
	return gin.H{
		"type":            row.Type,
		"progress":        row.Progress,
		"target":          row.Target,
		"unlocked":        row.Unlocked,
		"unlocked_levels": intSlice(row.UnlockedLevels),
		"claimed_levels":  intSlice(row.ClaimedLevels),
	}
}

func intSlice(values []int) []int {
	if values == nil {
		return []int{}
	}
	return values
}

func handleAchievementError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrAchievementUnknown) {
		respondError(c, http.StatusNotFound, "achievement not found")
		return
	}
	respondError(c, http.StatusInternalServerError, "operation failed")
}
