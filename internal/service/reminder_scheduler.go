package service

import (
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// ReminderScheduler 周期性扫描提醒窗口内的事件并广播提醒通知。
// 每个事件每天最多提醒一次，由通知表按 (type, link, 日期) 去重。
type ReminderScheduler struct {
	events        *EventService
	notifications *NotificationService
	windowDays    int
	scheduler     gocron.Scheduler
}

// NewReminderScheduler 构造 ReminderScheduler
func NewReminderScheduler(events *EventService, notifications *NotificationService, windowDays int) *ReminderScheduler {
	if windowDays <= 0 {
		windowDays = 3
	}
	return &ReminderScheduler{
		events:        events,
		notifications: notifications,
		windowDays:    windowDays,
	}
}

// Start 启动调度器：启动时跑一轮，此后每小时扫描一次
func (r *ReminderScheduler) Start() error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	if _, err := sched.NewJob(
		gocron.DurationJob(time.Hour),
		gocron.NewTask(func() {
			if err := r.RunOnce(time.Now()); err != nil {
				log.Printf("[reminder] scan failed: %v", err)
			}
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	); err != nil {
		return fmt.Errorf("register reminder job: %w", err)
	}

	sched.Start()
	r.scheduler = sched
	return nil
}

// Stop 停止调度器
func (r *ReminderScheduler) Stop() {
	if r.scheduler != nil {
		_ = r.scheduler.Shutdown()
	}
}

// RunOnce 执行一轮提醒扫描，供调度器与测试调用
func (r *ReminderScheduler) RunOnce(now time.Time) error {
	upcoming, err := r.events.Upcoming(now, r.windowDays)
	if err != nil {
		return err
	}

	day := now.Format(dateLayout)
	for _, item := range upcoming {
		link := fmt.Sprintf("/events/%d", item.Event.ID)

		sent, err := r.notifications.HasReminderToday(link, day)
		if err != nil {
			return err
		}
		if sent {
			continue
		}

		message := fmt.Sprintf("Sắp đến %q", item.Event.Title)
		if item.DaysLeft == 0 {
			message = fmt.Sprintf("Hôm nay là %q", item.Event.Title)
		}

		if _, err := r.notifications.Send(NotificationInput{
			Type:    "event_reminder",
			Message: message,
			Author:  "LoveNest",
			Target:  "Tất cả",
			Link:    link,
		}); err != nil {
			log.Printf("[reminder] send failed for event %d: %v", item.Event.ID, err)
		}
	}

	return nil
}
