package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lovenest/internal/db"
	"gorm.io/gorm"
)

// 广播目标别名；命中任意一个即对除作者外的所有用户扇出
var broadcastTargets = []string{"Tất cả", "Của chúng ta", "all"}

var (
	// ErrNotificationNotFound 在通知不存在时返回
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrRecipientUnknown 在定向发送的接收者不存在时返回
	ErrRecipientUnknown = errors.New("recipient not found")
)

// NotificationService 负责通知扇出与已读状态。
// 广播时每个接收者各落一行；已读通过 read_by 集合并集维护。
type NotificationService struct {
	db *gorm.DB
}

// NotificationInput 定义发送通知时的字段
type NotificationInput struct {
	Type    string
	Message string
	Author  string
	Target  string
	Link    string
}

// NewNotificationService 构造 NotificationService
func NewNotificationService(gdb *gorm.DB) *NotificationService {
	return &NotificationService{db: gdb}
}

// IsBroadcastTarget 判断目标是否为广播别名
func IsBroadcastTarget(target string) bool {
	target = strings.TrimSpace(target)
	for _, alias := range broadcastTargets {
		if strings.EqualFold(target, alias) {
			return true
		}
	}
	return false
}

// Send 发送通知。广播目标对除作者外的每个用户各写一行，
// 否则只写给指定接收者。返回实际落库的行。
func (s *NotificationService) Send(input NotificationInput) ([]db.Notification, error) {
	if strings.TrimSpace(input.Message) == "" {
		return nil, errors.New("notification message is required")
	}

	recipients, err := s.resolveRecipients(input.Target, input.Author)
	if err != nil {
		return nil, err
	}

	notifications := make([]db.Notification, 0, len(recipients))
	for _, recipient := range recipients {
		notifications = append(notifications, db.Notification{
			Type:      strings.TrimSpace(input.Type),
			Message:   strings.TrimSpace(input.Message),
			Author:    strings.TrimSpace(input.Author),
			Recipient: recipient,
			Link:      strings.TrimSpace(input.Link),
			ReadBy:    []string{},
		})
	}

	if len(notifications) == 0 {
		return notifications, nil
	}

	if err := s.db.Create(&notifications).Error; err != nil {
		return nil, fmt.Errorf("create notifications: %w", err)
	}
	return notifications, nil
}

// ListFor 返回指定用户的通知，按时间倒序
func (s *NotificationService) ListFor(username string, limit int) ([]db.Notification, error) {
	if limit <= 0 {
		limit = 100
	}

	var notifications []db.Notification
	if err := s.db.Where("recipient = ?", strings.TrimSpace(username)).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// UnreadCount 统计指定用户的未读通知数
func (s *NotificationService) UnreadCount(username string) (int, error) {
	notifications, err := s.ListFor(username, 0)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, n := range notifications {
		if !n.ReadByUser(username) {
			count++
		}
	}
	return count, nil
}

// MarkRead 把用户并入通知的已读集合，重复标记无副作用
func (s *NotificationService) MarkRead(id uint, username string) (*db.Notification, error) {
	var notification db.Notification
	if err := s.db.First(&notification, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("get notification: %w", err)
	}

	if notification.ReadByUser(username) {
		return &notification, nil
	}

	notification.ReadBy = append(notification.ReadBy, strings.TrimSpace(username))
	if err := s.db.Save(&notification).Error; err != nil {
		return nil, fmt.Errorf("mark notification read: %w", err)
	}
	return &notification, nil
}

// MarkAllRead 把用户的全部通知标记为已读，返回受影响的行数
func (s *NotificationService) MarkAllRead(username string) (int, error) {
	notifications, err := s.ListFor(username, 0)
	if err != nil {
		return 0, err
	}

	updated := 0
	for i := range notifications {
		if notifications[i].ReadByUser(username) {
			continue
		}
		notifications[i].ReadBy = append(notifications[i].ReadBy, strings.TrimSpace(username))
		if err := s.db.Save(&notifications[i]).Error; err != nil {
			return updated, fmt.Errorf("mark notification read: %w", err)
		}
		updated++
	}
	return updated, nil
}

// Delete 删除单条通知
func (s *NotificationService) Delete(id uint) error {
	result := s.db.Delete(&db.Notification{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete notification: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// DeleteAllFor 清空指定用户的通知
func (s *NotificationService) DeleteAllFor(username string) error {
	if err := s.db.Where("recipient = ?", strings.TrimSpace(username)).
		Delete(&db.Notification{}).Error; err != nil {
		return fmt.Errorf("delete notifications: %w", err)
	}
	return nil
}

// HasReminderToday 判断某链接的提醒当天是否已发过，调度器用它去重
func (s *NotificationService) HasReminderToday(link, day string) (bool, error) {
	var count int64
	if err := s.db.Model(&db.Notification{}).
		Where("type = ? AND link = ? AND strftime('%Y-%m-%d', created_at) = ?", "event_reminder", link, day).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("check reminder: %w", err)
	}
	return count > 0, nil
}

// resolveRecipients 解析发送目标：广播别名展开为除作者外的全部用户
func (s *NotificationService) resolveRecipients(target, author string) ([]string, error) {
	if IsBroadcastTarget(target) {
		var users []db.User
		if err := s.db.Find(&users).Error; err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}

		recipients := make([]string, 0, len(users))
		for _, user := range users {
			if db.EqualName(user.Name, author) {
				continue
			}
			recipients = append(recipients, user.Name)
		}
		return recipients, nil
	}

	target = strings.TrimSpace(target)
	if target == "" {
		return nil, ErrRecipientUnknown
	}

	var user db.User
	if err := s.db.Where("name = ? COLLATE NOCASE", target).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipientUnknown
		}
		return nil, fmt.Errorf("find recipient: %w", err)
	}
	return []string{user.Name}, nil
}
