package handler

import (
	"log"
	"time"

	"github.com/lovenest/internal/config"
	"github.com/lovenest/internal/service"
	"github.com/lovenest/internal/storage"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db            *gorm.DB
	diary         *service.DiaryService
	likes         *service.LikeService
	photos        *service.PhotoService
	events        *service.EventService
	notifications *service.NotificationService
	garden        *service.GardenService
	achievements  *service.AchievementService
	store         storage.Store
	coupleID      string
	photoMaxBytes int64
	eventImageMax int64
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, store storage.Store, cfg config.AppConfig) *API {
	return &API{
		db:            gdb,
		diary:         service.NewDiaryService(gdb),
		likes:         service.NewLikeService(gdb),
		photos:        service.NewPhotoService(gdb),
		events:        service.NewEventService(gdb),
		notifications: service.NewNotificationService(gdb),
		garden:        service.NewGardenService(gdb),
		achievements:  service.NewAchievementService(gdb),
		store:         store,
		coupleID:      cfg.CoupleID,
		photoMaxBytes: cfg.PhotoMaxBytes,
		eventImageMax: cfg.EventImageMax,
	}
}

// DB exposes the underlying gorm instance for tests.
func (a *API) DB() *gorm.DB {
	return a.db
}

// award 尽力而为地入账活动积分并推进成就，失败只记日志不影响主流程
func (a *API) award(activityType, description, reference string, achievementType string) {
	now := time.Now()

	if _, err := a.garden.AddPoints(a.coupleID, service.AddPointsInput{
		ActivityType: activityType,
		Description:  description,
		ReferenceID:  reference,
	}, now); err != nil {
		log.Printf("award %s failed: %v", activityType, err)
		return
	}

	if achievementType != "" {
		if _, err := a.achievements.Update(a.coupleID, achievementType, 1); err != nil {
			log.Printf("achievement %s update failed: %v", achievementType, err)
		}
	}
}
