package handler

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lovenest/internal/db"
	"github.com/lovenest/internal/service"
)

type eventPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	EventDate   string `json:"event_date"` // 2006-01-02
	ImageURL    string `json:"image_url"`
	Recurring   bool   `json:"recurring"`
	CreatedBy   string `json:"created_by"`
}

func (p eventPayload) toInput(c *gin.Context) (service.EventInput, error) {
	date, err := time.ParseInLocation(dateFormat, p.EventDate, time.Local)
	if err != nil {
		return service.EventInput{}, service.ErrEventDateInvalid
	}

	return service.EventInput{
		Title:       p.Title,
		Description: p.Description,
		EventDate:   date,
		ImageURL:    p.ImageURL,
		Recurring:   p.Recurring,
		CreatedBy:   requesterName(c, p.CreatedBy),
	}, nil
}

// ListEvents 返回全部事件
func (a *API) ListEvents(c *gin.Context) {
	events, err := a.events.List()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load events")
		return
	}

	items := make([]gin.H, 0, len(events))
	for _, event := range events {
		items = append(items, eventToPayload(event))
	}
	c.JSON(http.StatusOK, gin.H{"events": items})
}

// ListUpcomingEvents 返回未来若干天内的事件出现日，周期事件按月日展开
func (a *API) ListUpcomingEvents(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil || days <= 0 {
		days = 30
	}

	upcoming, err := a.events.Upcoming(time.Now(), days)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load upcoming events")
		return
	}

	items := make([]gin.H, 0, len(upcoming))
	for _, occ := range upcoming {
		item := eventToPayload(occ.Event)
		item["occurs_on"] = occ.OccursOn.Format(dateFormat)
		item["days_left"] = occ.DaysLeft
		items = append(items, item)
	}
	c.JSON(http.StatusOK, gin.H{"events": items})
}

// CreateEvent 创建事件并入账积分
func (a *API) CreateEvent(c *gin.Context) {
	var payload eventPayload
	if !bindJSON(c, &payload, "invalid request payload") {
		return
	}

	input, err := payload.toInput(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid event date")
		return
	}

	event, err := a.events.Create(input)
	if err != nil {
		handleEventError(c, err)
		return
	}

	a.award("create_event", "Tạo sự kiện mới", fmt.Sprintf("event-%d", event.ID), service.AchievementEventPlanner)

	c.JSON(http.StatusOK, gin.H{"event": eventToPayload(*event)})
}

// UpdateEvent 更新事件
func (a *API) UpdateEvent(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid event id")
		return
	}

	var payload eventPayload
	if !bindJSON(c, &payload, "invalid request payload") {
		return
	}

	input, err := payload.toInput(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid event date")
		return
	}

	event, err := a.events.Update(id, input)
	if err != nil {
		handleEventError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"event": eventToPayload(*event)})
}

// DeleteEvent 删除事件
func (a *API) DeleteEvent(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid event id")
		return
	}

	if err := a.events.Delete(id); err != nil {
		handleEventError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// UploadEventImage 上传事件配图，限制更小的体积
func (a *API) UploadEventImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "image file is required")
		return
	}
	if file.Size > a.eventImageMax {
		respondError(c, http.StatusBadRequest, "image exceeds the size limit")
		return
	}
	if !strings.HasPrefix(file.Header.Get("Content-Type"), "image/") {
		respondError(c, http.StatusBadRequest, "only image files are allowed")
		return
	}

	key := fmt.Sprintf("%s-%s%s", time.Now().Format("20060102"), uuid.New().String(), filepath.Ext(file.Filename))
	url, err := a.store.Save(file, key)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to store image")
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// ListMilestones 返回恋爱时间线
func (a *API) ListMilestones(c *gin.Context) {
	milestones, err := a.events.Milestones()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load milestones")
		return
	}

	items := make([]gin.H, 0, len(milestones))
	for _, milestone := range milestones {
		items = append(items, gin.H{
			"id":          milestone.ID,
			"title":       milestone.Title,
			"description": milestone.Description,
			"happened_at": milestone.HappenedAt.Format(dateFormat),
		})
	}
	c.JSON(http.StatusOK, gin.H{"milestones": items})
}

// CreateMilestone 新建里程碑并入账积分
func (a *API) CreateMilestone(c *gin.Context) {
	var payload struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		HappenedAt  string `json:"happened_at"` // 2006-01-02
	}
	if !bindJSON(c, &payload, "invalid request payload") {
		return
	}

	date, err := time.ParseInLocation(dateFormat, payload.HappenedAt, time.Local)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid milestone date")
		return
	}

	milestone, err := a.events.CreateMilestone(service.MilestoneInput{
		Title:       payload.Title,
		Description: payload.Description,
		HappenedAt:  date,
	})
	if err != nil {
		handleEventError(c, err)
		return
	}

	a.award("add_milestone", "Thêm cột mốc tình yêu", fmt.Sprintf("milestone-%d", milestone.ID), "")

	c.JSON(http.StatusOK, gin.H{"milestone": gin.H{
		"id":          milestone.ID,
		"title":       milestone.Title,
		"description": milestone.Description,
		"happened_at": milestone.HappenedAt.Format(dateFormat),
	}})
}

// DeleteMilestone 删除里程碑
func (a *API) DeleteMilestone(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid milestone id")
		return
	}

	if err := a.events.DeleteMilestone(id); err != nil {
		handleEventError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func eventToPayload(event db.LoveEvent) gin.H {
	return gin.H{
		"id":          event.ID,
		"title":       event.Title,
		"description": event.Description,
		"event_date":  event.EventDate.Format(dateFormat),
		"image_url":   event.ImageURL,
		"recurring":   event.Recurring,
		"created_by":  event.CreatedBy,
	}
}

func handleEventError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEventNotFound):
		respondError(c, http.StatusNotFound, "event not found")
	case errors.Is(err, service.ErrMilestoneNotFound):
		respondError(c, http.StatusNotFound, "milestone not found")
	case errors.Is(err, service.ErrEventDateInvalid):
		respondError(c, http.StatusBadRequest, "invalid event date")
	default:
		respondError(c, http.StatusInternalServerError, "operation failed")
	}
}
