package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lovenest/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrFlowerUnknown 在花朵不在图鉴中时返回
	ErrFlowerUnknown = errors.New("unknown flower")
	// ErrFlowerNotOwned 在尝试操作未购买的花朵时返回
	ErrFlowerNotOwned = errors.New("flower not owned")
	// ErrInvalidWaterAmount 在浇水数量非正时返回
	ErrInvalidWaterAmount = errors.New("water amount must be positive")
	// ErrInsufficientWater 在账本水量不足时返回
	ErrInsufficientWater = errors.New("insufficient water balance")
	// ErrInsufficientCoins 在金币不足以购买花朵时返回
	ErrInsufficientCoins = errors.New("insufficient coin balance")
	// ErrStageNotReached 在领取尚未达到的生长阶段奖励时返回
	ErrStageNotReached = errors.New("flower stage not reached")
	// ErrStageAlreadyClaimed 在重复领取同一阶段奖励时返回
	ErrStageAlreadyClaimed = errors.New("flower stage already claimed")
)

const (
	dateLayout        = "2006-01-02"
	streakBonusPerDay = 10

	defaultReadRetries   = 3
	defaultReadRetryWait = 500 * time.Millisecond
)

// FlowerTier 划分花朵价位，生长阈值随价位放大
type FlowerTier string

const (
	TierCheap    FlowerTier = "cheap"
	TierStandard FlowerTier = "standard"
	TierPremium  FlowerTier = "premium"
)

// Flower 是花园图鉴中的一个条目
type Flower struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Tier  FlowerTier `json:"tier"`
	Price int        `json:"price"`
}

// 花园图鉴为静态表，价格即购买所需金币
var flowerCatalog = []Flower{
	{ID: "rose", Name: "Hoa hồng", Tier: TierCheap, Price: 100},
	{ID: "tulip", Name: "Hoa tulip", Tier: TierCheap, Price: 100},
	{ID: "sunflower", Name: "Hoa hướng dương", Tier: TierStandard, Price: 300},
	{ID: "hydrangea", Name: "Hoa cẩm tú cầu", Tier: TierStandard, Price: 300},
	{ID: "orchid", Name: "Hoa lan", Tier: TierPremium, Price: 500},
	{ID: "cherry", Name: "Hoa anh đào", Tier: TierPremium, Price: 500},
}

// stageThresholds 给出每个价位的三道生长阈值。
// 越过第 i 道（0 起）即进入阶段 i+1，阶段 3 为盛开。
var stageThresholds = map[FlowerTier][3]int{
	TierCheap:    {150, 300, 500},
	TierStandard: {250, 500, 800},
	TierPremium:  {350, 650, 1000},
}

// stageRewards 是各生长阶段可领取一次的金币奖励，下标即阶段
var stageRewards = [4]int{0, 20, 50, 100}

// activityRewards 是活动类型到默认水量奖励的静态查表
var activityRewards = map[string]int{
	"write_diary":   20,
	"upload_photo":  15,
	"send_comment":  10,
	"send_like":     5,
	"create_event":  15,
	"add_milestone": 25,
}

// FlowerByID 在图鉴中查找花朵
func FlowerByID(id string) (Flower, bool) {
	for _, f := range flowerCatalog {
		if f.ID == id {
			return f, true
		}
	}
	return Flower{}, false
}

// FlowerCatalog 返回完整图鉴
func FlowerCatalog() []Flower {
	out := make([]Flower, len(flowerCatalog))
	copy(out, flowerCatalog)
	return out
}

// StageFor 根据累计水量推导生长阶段（0-3）
func StageFor(tier FlowerTier, water int) int {
	thresholds, ok := stageThresholds[tier]
	if !ok {
		return 0
	}
	stage := 0
	for _, threshold := range thresholds {
		if water >= threshold {
			stage++
		}
	}
	return stage
}

// BloomThreshold 返回该价位盛开（阶段 3）所需的累计水量
func BloomThreshold(tier FlowerTier) int {
	return stageThresholds[tier][2]
}

// GardenService 负责积分账本、连胜与花园的全部记账逻辑。
// 多步更新（扣水+浇花、解锁+入账）都放在单个事务中，
// 并对账本行加 UPDATE 锁，避免并发请求互相覆盖。
type GardenService struct {
	db         *gorm.DB
	retryWait  time.Duration
	retryCount int
}

// NewGardenService 构造 GardenService，读取路径默认重试 3 次、间隔 500ms。
func NewGardenService(gdb *gorm.DB) *GardenService {
	return &GardenService{db: gdb, retryWait: defaultReadRetryWait, retryCount: defaultReadRetries}
}

// WithRetryWait 允许在测试中缩短读取重试间隔
func (s *GardenService) WithRetryWait(d time.Duration) *GardenService {
	if d > 0 {
		s.retryWait = d
	}
	return s
}

// AddPointsInput 描述一次积分入账。
// Points 为 nil 时按 ActivityType 查默认奖励表。
type AddPointsInput struct {
	ActivityType   string
	Points         *int
	Coins          int
	OwnedFlowerID  string
	ClaimedStageID string
	Description    string
	ReferenceID    string
}

// AddPointsResult 汇总一次入账后的账本状态与连胜奖励
type AddPointsResult struct {
	Ledger      db.PointsLedger
	StreakBonus int
}

// AddPoints 为指定情侣入账一次活动积分并推进连胜。
// 连胜规则：同一天多次活动不变；昨天有活动则 +1；否则重置为 1。
// 当天首次活动额外奖励 连胜×10 的水，并单独落一条流水。
func (s *GardenService) AddPoints(coupleID string, input AddPointsInput, now time.Time) (*AddPointsResult, error) {
	if strings.TrimSpace(coupleID) == "" {
		return nil, errors.New("couple id is required")
	}

	points := 0
	if input.Points != nil {
		points = *input.Points
	} else {
		points = activityRewards[input.ActivityType]
	}

	result := &AddPointsResult{}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var ledger db.PointsLedger
		if err := lockLedger(tx, coupleID, &ledger); err != nil {
			return err
		}

		today := now.Format(dateLayout)
		yesterday := now.AddDate(0, 0, -1).Format(dateLayout)

		bonus := 0
		if ledger.LastActivityDate != today {
			if ledger.LastActivityDate == yesterday {
				ledger.CurrentStreak++
			} else {
				ledger.CurrentStreak = 1
			}
			if ledger.CurrentStreak > ledger.LongestStreak {
				ledger.LongestStreak = ledger.CurrentStreak
			}
			ledger.LastActivityDate = today
			bonus = ledger.CurrentStreak * streakBonusPerDay
		}

		ledger.Water += points + bonus
		ledger.Coins += input.Coins
		if input.OwnedFlowerID != "" {
			ledger.OwnedFlowers = appendUnique(ledger.OwnedFlowers, input.OwnedFlowerID)
		}
		if input.ClaimedStageID != "" {
			ledger.ClaimedStages = appendUnique(ledger.ClaimedStages, input.ClaimedStageID)
		}

		if err := tx.Save(&ledger).Error; err != nil {
			return fmt.Errorf("save ledger: %w", err)
		}

		entry := db.ActivityLog{
			CoupleID:     coupleID,
			ActivityType: input.ActivityType,
			Points:       points,
			Coins:        input.Coins,
			Description:  input.Description,
			ReferenceID:  input.ReferenceID,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("append activity log: %w", err)
		}

		if bonus > 0 {
			bonusEntry := db.ActivityLog{
				CoupleID:     coupleID,
				ActivityType: "streak_bonus",
				Points:       bonus,
				Description:  fmt.Sprintf("Thưởng chuỗi ngày thứ %d", ledger.CurrentStreak),
			}
			if err := tx.Create(&bonusEntry).Error; err != nil {
				return fmt.Errorf("append streak bonus log: %w", err)
			}
		}

		result.Ledger = ledger
		result.StreakBonus = bonus
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// WaterResult 汇总一次浇水后的状态
type WaterResult struct {
	Ledger       db.PointsLedger
	Flower       db.FlowerProgress
	Stage        int
	CrossedBloom bool
}

// WaterFlower 把账本中的水转移到指定花朵上。
// 扣减与累加在同一事务内完成；刚越过盛开阈值时置 CrossedBloom，
// 由调用方在事务外尽力触发花园成就的重算。
func (s *GardenService) WaterFlower(coupleID, flowerID string, amount int, now time.Time) (*WaterResult, error) {
	flower, ok := FlowerByID(flowerID)
	if !ok {
		return nil, ErrFlowerUnknown
	}
	if amount <= 0 {
		return nil, ErrInvalidWaterAmount
	}

	result := &WaterResult{}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var ledger db.PointsLedger
		if err := lockLedger(tx, coupleID, &ledger); err != nil {
			return err
		}
		if !containsString(ledger.OwnedFlowers, flowerID) {
			return ErrFlowerNotOwned
		}
		if amount > ledger.Water {
			return ErrInsufficientWater
		}

		var progress db.FlowerProgress
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("couple_id = ? AND flower_id = ?", coupleID, flowerID).
			First(&progress).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			progress = db.FlowerProgress{CoupleID: coupleID, FlowerID: flowerID, PurchasedAt: now}
			if err := tx.Create(&progress).Error; err != nil {
				return fmt.Errorf("create flower progress: %w", err)
			}
		} else if err != nil {
			return err
		}

		before := progress.Water
		ledger.Water -= amount
		progress.Water += amount

		if err := tx.Save(&ledger).Error; err != nil {
			return fmt.Errorf("save ledger: %w", err)
		}
		if err := tx.Save(&progress).Error; err != nil {
			return fmt.Errorf("save flower progress: %w", err)
		}

		entry := db.ActivityLog{
			CoupleID:     coupleID,
			ActivityType: "water_flower",
			Points:       -amount,
			Description:  fmt.Sprintf("Tưới nước cho %s", flower.Name),
			ReferenceID:  flowerID,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("append activity log: %w", err)
		}

		bloomAt := BloomThreshold(flower.Tier)
		result.Ledger = ledger
		result.Flower = progress
		result.Stage = StageFor(flower.Tier, progress.Water)
		result.CrossedBloom = before < bloomAt && progress.Water >= bloomAt
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// PurchaseFlower 用金币购买花朵。重新购买会把花朵水量清零。
func (s *GardenService) PurchaseFlower(coupleID, flowerID string, now time.Time) (*db.PointsLedger, error) {
	flower, ok := FlowerByID(flowerID)
	if !ok {
		return nil, ErrFlowerUnknown
	}

	var ledger db.PointsLedger

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockLedger(tx, coupleID, &ledger); err != nil {
			return err
		}
		if flower.Price > ledger.Coins {
			return ErrInsufficientCoins
		}

		ledger.Coins -= flower.Price
		ledger.OwnedFlowers = appendUnique(ledger.OwnedFlowers, flowerID)
		if err := tx.Save(&ledger).Error; err != nil {
			return fmt.Errorf("save ledger: %w", err)
		}

		progress := db.FlowerProgress{
			CoupleID:    coupleID,
			FlowerID:    flowerID,
			Water:       0,
			PurchasedAt: now,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "couple_id"}, {Name: "flower_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"water": 0, "purchased_at": now}),
		}).Create(&progress).Error; err != nil {
			return fmt.Errorf("reset flower progress: %w", err)
		}

		entry := db.ActivityLog{
			CoupleID:     coupleID,
			ActivityType: "purchase_flower",
			Coins:        -flower.Price,
			Description:  fmt.Sprintf("Mua %s", flower.Name),
			ReferenceID:  flowerID,
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return nil, err
	}

	return &ledger, nil
}

// StageClaimResult 汇总一次阶段奖励领取
type StageClaimResult struct {
	Ledger  db.PointsLedger
	ClaimID string
	Coins   int
}

// ClaimStageReward 领取花朵某个生长阶段的金币奖励，每个阶段只能领一次。
// 领取记录以 "<flowerID>-stage<N>" 形式落在账本的 claimed_stages 集合里。
func (s *GardenService) ClaimStageReward(coupleID, flowerID string, stage int, now time.Time) (*StageClaimResult, error) {
	flower, ok := FlowerByID(flowerID)
	if !ok {
		return nil, ErrFlowerUnknown
	}
	if stage < 1 || stage > 3 {
		return nil, ErrStageNotReached
	}

	result := &StageClaimResult{ClaimID: fmt.Sprintf("%s-stage%d", flowerID, stage)}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var ledger db.PointsLedger
		if err := lockLedger(tx, coupleID, &ledger); err != nil {
			return err
		}
		if !containsString(ledger.OwnedFlowers, flowerID) {
			return ErrFlowerNotOwned
		}
		if containsString(ledger.ClaimedStages, result.ClaimID) {
			return ErrStageAlreadyClaimed
		}

		var progress db.FlowerProgress
		if err := tx.Where("couple_id = ? AND flower_id = ?", coupleID, flowerID).First(&progress).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrStageNotReached
			}
			return err
		}
		if StageFor(flower.Tier, progress.Water) < stage {
			return ErrStageNotReached
		}

		reward := stageRewards[stage]
		ledger.Coins += reward
		ledger.ClaimedStages = appendUnique(ledger.ClaimedStages, result.ClaimID)
		if err := tx.Save(&ledger).Error; err != nil {
			return fmt.Errorf("save ledger: %w", err)
		}

		entry := db.ActivityLog{
			CoupleID:     coupleID,
			ActivityType: "stage_reward",
			Coins:        reward,
			Description:  fmt.Sprintf("Nhận thưởng giai đoạn %d của %s", stage, flower.Name),
			ReferenceID:  result.ClaimID,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("append activity log: %w", err)
		}

		result.Ledger = ledger
		result.Coins = reward
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Ledger 读取账本；行不存在时按零状态返回而不落库。
// 读取失败按固定间隔重试，写入路径不重试。
func (s *GardenService) Ledger(coupleID string) (*db.PointsLedger, error) {
	var ledger db.PointsLedger
	var lastErr error

	for attempt := 0; attempt < s.retryCount; attempt++ {
		if attempt > 0 {
			time.Sleep(s.retryWait)
		}
		err := s.db.Where("couple_id = ?", coupleID).First(&ledger).Error
		if err == nil {
			return &ledger, nil
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &db.PointsLedger{CoupleID: coupleID}, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("load ledger: %w", lastErr)
}

// FlowerStatus 聚合图鉴条目与当前养成状态
type FlowerStatus struct {
	Flower        Flower
	Owned         bool
	Water         int
	Stage         int
	ClaimedStages []string
	PurchasedAt   *time.Time
}

// Flowers 返回整个花园的状态：每朵花是否拥有、水量与生长阶段。
func (s *GardenService) Flowers(coupleID string) ([]FlowerStatus, error) {
	ledger, err := s.Ledger(coupleID)
	if err != nil {
		return nil, err
	}

	var rows []db.FlowerProgress
	if err := s.db.Where("couple_id = ?", coupleID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list flower progress: %w", err)
	}

	progressByID := make(map[string]db.FlowerProgress, len(rows))
	for _, row := range rows {
		progressByID[row.FlowerID] = row
	}

	statuses := make([]FlowerStatus, 0, len(flowerCatalog))
	for _, flower := range flowerCatalog {
		status := FlowerStatus{
			Flower: flower,
			Owned:  containsString(ledger.OwnedFlowers, flower.ID),
		}
		if row, ok := progressByID[flower.ID]; ok {
			status.Water = row.Water
			status.Stage = StageFor(flower.Tier, row.Water)
			purchased := row.PurchasedAt
			status.PurchasedAt = &purchased
		}
		prefix := flower.ID + "-stage"
		for _, claim := range ledger.ClaimedStages {
			if strings.HasPrefix(claim, prefix) {
				status.ClaimedStages = append(status.ClaimedStages, claim)
			}
		}
		statuses = append(statuses, status)
	}

	return statuses, nil
}

// WaterHistory 返回影响水量的流水，按时间倒序
func (s *GardenService) WaterHistory(coupleID string, limit int) ([]db.ActivityLog, error) {
	if limit <= 0 {
		limit = 50
	}

	var entries []db.ActivityLog
	if err := s.db.Where("couple_id = ? AND points <> 0", coupleID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list water history: %w", err)
	}

	return entries, nil
}

// lockLedger 对账本行加 UPDATE 锁，不存在时先创建
func lockLedger(tx *gorm.DB, coupleID string, ledger *db.PointsLedger) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("couple_id = ?", coupleID).
		First(ledger).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		*ledger = db.PointsLedger{CoupleID: coupleID}
		return tx.Create(ledger).Error
	}
	return err
}

func appendUnique(values []string, value string) []string {
	if containsString(values, value) {
		return values
	}
	return append(values, value)
}

func containsString(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
