package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lovenest/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrEventNotFound 在事件不存在时返回
	ErrEventNotFound = errors.New("love event not found")
	// ErrMilestoneNotFound 在里程碑不存在时返回
	ErrMilestoneNotFound = errors.New("milestone not found")
	// ErrEventDateInvalid 在日期缺失或无法解析时返回
	ErrEventDateInvalid = errors.New("event date is invalid")
)

// EventService 负责纪念日/约会事件与恋爱里程碑
type EventService struct {
	db *gorm.DB
}

// EventInput 定义创建/更新事件时可配置字段
type EventInput struct {
	Title       string
	Description string
	EventDate   time.Time
	ImageURL    string
	Recurring   bool
	CreatedBy   string
}

// MilestoneInput 定义创建里程碑时可配置字段
type MilestoneInput struct {
	Title       string
	Description string
	HappenedAt  time.Time
}

// NewEventService 构造 EventService
func NewEventService(gdb *gorm.DB) *EventService {
	return &EventService{db: gdb}
}

// List 返回全部事件，按事件日期正序
func (s *EventService) List() ([]db.LoveEvent, error) {
	var events []db.LoveEvent
	if err := s.db.Order("event_date ASC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// Get 根据 ID 获取事件
func (s *EventService) Get(id uint) (*db.LoveEvent, error) {
	var event db.LoveEvent
	if err := s.db.First(&event, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &event, nil
}

// Create 新建事件
func (s *EventService) Create(input EventInput) (*db.LoveEvent, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, errors.New("event title is required")
	}
	if input.EventDate.IsZero() {
		return nil, ErrEventDateInvalid
	}

	event := db.LoveEvent{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		EventDate:   input.EventDate,
		ImageURL:    strings.TrimSpace(input.ImageURL),
		Recurring:   input.Recurring,
		CreatedBy:   strings.TrimSpace(input.CreatedBy),
	}
	if err := s.db.Create(&event).Error; err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return &event, nil
}

// Update 更新事件
func (s *EventService) Update(id uint, input EventInput) (*db.LoveEvent, error) {
	event, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, errors.New("event title is required")
	}
	if input.EventDate.IsZero() {
		return nil, ErrEventDateInvalid
	}

	event.Title = strings.TrimSpace(input.Title)
	event.Description = strings.TrimSpace(input.Description)
	event.EventDate = input.EventDate
	event.ImageURL = strings.TrimSpace(input.ImageURL)
	event.Recurring = input.Recurring

	if err := s.db.Save(event).Error; err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return event, nil
}

// Delete 删除事件
func (s *EventService) Delete(id uint) error {
	if err := s.db.Delete(&db.LoveEvent{}, id).Error; err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// UpcomingEvent 表示提醒窗口内的一次事件发生
type UpcomingEvent struct {
	Event    db.LoveEvent
	OccursOn time.Time
	DaysLeft int
}

// Upcoming 返回 now 起 days 天内发生的事件。
// 周年事件按月-日展开到当前或下一年。
func (s *EventService) Upcoming(now time.Time, days int) ([]UpcomingEvent, error) {
	events, err := s.List()
	if err != nil {
		return nil, err
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	horizon := today.AddDate(0, 0, days)

	var upcoming []UpcomingEvent
	for _, event := range events {
		occurs := event.EventDate
		if event.Recurring {
			occurs = time.Date(today.Year(), event.EventDate.Month(), event.EventDate.Day(), 0, 0, 0, 0, today.Location())
			if occurs.Before(today) {
				occurs = occurs.AddDate(1, 0, 0)
			}
		} else {
			occurs = time.Date(occurs.Year(), occurs.Month(), occurs.Day(), 0, 0, 0, 0, today.Location())
		}

		if occurs.Before(today) || occurs.After(horizon) {
			continue
		}

		upcoming = append(upcoming, UpcomingEvent{
			Event:    event,
			OccursOn: occurs,
			DaysLeft: int(occurs.Sub(today).Hours() / 24),
		})
	}

	return upcoming, nil
}

// Milestones 返回全部里程碑，按发生时间正序
func (s *EventService) Milestones() ([]db.Milestone, error) {
	var milestones []db.Milestone
	if err := s.db.Order("happened_at ASC").Find(&milestones).Error; err != nil {
		return nil, fmt.Errorf("list milestones: %w", err)
	}
	return milestones, nil
}

// CreateMilestone 新建里程碑
func (s *EventService) CreateMilestone(input MilestoneInput) (*db.Milestone, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, errors.New("milestone title is required")
	}
	if input.HappenedAt.IsZero() {
		return nil, ErrEventDateInvalid
	}

	milestone := db.Milestone{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		HappenedAt:  input.HappenedAt,
	}
	if err := s.db.Create(&milestone).Error; err != nil {
		return nil, fmt.Errorf("create milestone: %w", err)
	}
	return &milestone, nil
}

// DeleteMilestone 删除里程碑
func (s *EventService) DeleteMilestone(id uint) error {
	var milestone db.Milestone
	if err := s.db.First(&milestone, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMilestoneNotFound
		}
		return fmt.Errorf("get milestone: %w", err)
	}
	return s.db.Delete(&milestone).Error
}
