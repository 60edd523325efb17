package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lovenest/internal/db"
	"github.com/lovenest/internal/service"
)

type notificationPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Author  string `json:"author"`
	Target  string `json:"target"`
	Link    string `json:"link"`
}

// ListNotifications 返回当前用户的通知；读失败时返回空列表保证轮询端可用
func (a *API) ListNotifications(c *gin.Context) {
	username := requesterName(c, "")
	if username == "" {
		respondError(c, http.StatusBadRequest, "username is required")
		return
	}

	notifications, err := a.notifications.ListFor(username, 0)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"notifications": []gin.H{}, "unread": 0})
		return
	}

	unread := 0
	items := make([]gin.H, 0, len(notifications))
	for _, n := range notifications {
		read := n.ReadByUser(username)
		if !read {
			unread++
		}
		items = append(items, notificationToPayload(n, read))
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items, "unread": unread})
}

// CreateNotification 发送通知，广播目标对所有其他用户扇出
func (a *API) CreateNotification(c *gin.Context) {
	var payload notificationPayload
	if !bindJSON(c, &payload, "invalid request payload") {
		return
	}

	payload.Author = requesterName(c, payload.Author)
	created, err := a.notifications.Send(service.NotificationInput{
		Type:    payload.Type,
		Message: payload.Message,
		Author:  payload.Author,
		Target:  payload.Target,
		Link:    payload.Link,
	})
	if err != nil {
		handleNotificationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sent": len(created)})
}

// MarkNotificationRead 把当前用户并入已读集合
func (a *API) MarkNotificationRead(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid notification id")
		return
	}

	username := requesterName(c, "")
	if username == "" {
		respondError(c, http.StatusBadRequest, "username is required")
		return
	}

	notification, err := a.notifications.MarkRead(id, username)
	if err != nil {
		handleNotificationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notification": notificationToPayload(*notification, true)})
}

// MarkAllNotificationsRead 把当前用户的全部通知标记为已读
func (a *API) MarkAllNotificationsRead(c *gin.Context) {
	username := requesterName(c, "")
	if username == "" {
		respondError(c, http.StatusBadRequest, "username is required")
		return
	}

	updated, err := a.notifications.MarkAllRead(username)
	if err != nil {
		handleNotificationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// DeleteNotification 删除单条通知
func (a *API) DeleteNotification(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid notification id")
		return
	}

	if err := a.notifications.Delete(id); err != nil {
		handleNotificationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// DeleteAllNotifications 清空当前用户的通知
func (a *API) DeleteAllNotifications(c *gin.Context) {
	username := requesterName(c, "")
	if username == "" {
		respondError(c, http.StatusBadRequest, "username is required")
		return
	}

	if err := a.notifications.DeleteAllFor(username); err != nil {
		handleNotificationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func notificationToPayload(n db.Notification, read bool) gin.H {
	return gin.H{
		"id":         n.ID,
		"type":       n.Type,
		"message":    n.Message,
		"author":     n.Author,
		"recipient":  n.Recipient,
		"link":       n.Link,
		"read":       read,
		"created_at": n.CreatedAt.Format(time.RFC3339),
	}
}

func handleNotificationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotificationNotFound):
		respondError(c, http.StatusNotFound, "notification not found")
	case errors.Is(err, service.ErrRecipientUnknown):
		respondError(c, http.StatusBadRequest, "recipient not found")
	default:
		respondError(c, http.StatusInternalServerError, "operation failed")
	}
}
