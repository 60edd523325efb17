package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lovenest/internal/service"
)

type likePayload struct {
	TargetType string `json:"target_type"`
	TargetID   uint   `json:"target_id"`
	Username   string `json:"username"`
}

// GetLikeState 返回单个目标的点赞数与请求者状态
func (a *API) GetLikeState(c *gin.Context) {
	targetID := parseUintQuerySlice([]string{c.Query("target_id")})
	if len(targetID) != 1 {
		respondError(c, http.StatusBadRequest, "invalid target id")
		return
	}

	state, err := a.likes.State(c.Query("target_type"), targetID[0], requesterName(c, ""))
	if err != nil {
		handleLikeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": state.Count, "liked": state.Liked})
}

// CreateLike 点赞；首次点赞入账积分，重复点赞保持幂等
func (a *API) CreateLike(c *gin.Context) {
	var payload likePayload
	if !bindJSON(c, &payload, "invalid request payload") {
		return
	}

	username := requesterName(c, payload.Username)
	if username == "" {
		respondError(c, http.StatusBadRequest, "username is required")
		return
	}

	created, err := a.likes.Like(payload.TargetType, payload.TargetID, username)
	if err != nil {
		handleLikeError(c, err)
		return
	}

	if created {
		a.award("send_like", "Thả tim", fmt.Sprintf("%s-%d", payload.TargetType, payload.TargetID), service.AchievementSweetTalker)
	}

	state, err := a.likes.State(payload.TargetType, payload.TargetID, username)
	if err != nil {
		handleLikeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": state.Count, "liked": state.Liked})
}

// DeleteLike 取消点赞
func (a *API) DeleteLike(c *gin.Context) {
	var payload likePayload
	if !bindJSON(c, &payload, "invalid request payload") {
		return
	}

	username := requesterName(c, payload.Username)
	if err := a.likes.Unlike(payload.TargetType, payload.TargetID, username); err != nil {
		handleLikeError(c, err)
		return
	}

	state, err := a.likes.State(payload.TargetType, payload.TargetID, username)
	if err != nil {
		handleLikeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": state.Count, "liked": state.Liked})
}

// GetLikeBatchCounts 批量返回同类目标的点赞数
func (a *API) GetLikeBatchCounts(c *gin.Context) {
	ids := parseUintQuerySlice(c.QueryArray("ids"))
	counts, err := a.likes.BatchCounts(c.Query("target_type"), ids)
	if err != nil {
		handleLikeError(c, err)
		return
	}

	payload := make(map[string]int64, len(counts))
	for id, count := range counts {
		payload[fmt.Sprintf("%d", id)] = count
	}
	c.JSON(http.StatusOK, gin.H{"counts": payload})
}

func handleLikeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrLikeTargetInvalid):
		respondError(c, http.StatusBadRequest, "invalid like target type")
	default:
		respondError(c, http.StatusInternalServerError, "operation failed")
	}
}
