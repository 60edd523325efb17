package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lovenest/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrAchievementUnknown 在成就类型不在目录中时返回
	ErrAchievementUnknown = errors.New("unknown achievement type")
)

// 成就类型常量，进度策略见 Update
const (
	AchievementDailyDiary     = "daily_diary"
	AchievementCommentKing    = "comment_king"
	AchievementPhotoCollector = "photo_collector"
	AchievementSweetTalker    = "sweet_talker"
	AchievementEventPlanner   = "event_planner"
	AchievementGardenBloom    = "love_garden_bloom"
)

// AchievementLevel 是一个 (目标, 奖励) 档位
type AchievementLevel struct {
	Target int `json:"target"`
	Reward int `json:"reward"`
}

// AchievementDef 定义一种成就及其四个递增档位
type AchievementDef struct {
	Type        string               `json:"type"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Levels      [4]AchievementLevel `json:"levels"`
}

// 成就目录为静态表；奖励以水结算，领取时才入账
var achievementCatalog = []AchievementDef{
	{
		Type:        AchievementDailyDiary,
		Name:        "Nhật ký mỗi ngày",
		Description: "Duy trì chuỗi ngày hoạt động liên tiếp",
		Levels: [4]AchievementLevel{
			{Target: 3, Reward: 30}, {Target: 7, Reward: 60}, {Target: 14, Reward: 100}, {Target: 30, Reward: 200},
		},
	},
	{
		Type:        AchievementCommentKing,
		Name:        "Vua bình luận",
		Description: "Gửi lời nhắn dưới nhật ký của nhau",
		Levels: [4]AchievementLevel{
			{Target: 3, Reward: 30}, {Target: 10, Reward: 60}, {Target: 20, Reward: 100}, {Target: 35, Reward: 150},
		},
	},
	{
		Type:        AchievementPhotoCollector,
		Name:        "Nhà sưu tầm ảnh",
		Description: "Lưu giữ kỷ niệm trên tường ảnh",
		Levels: [4]AchievementLevel{
			{Target: 5, Reward: 30}, {Target: 15, Reward: 60}, {Target: 30, Reward: 100}, {Target: 50, Reward: 150},
		},
	},
	{
		Type:        AchievementSweetTalker,
		Name:        "Lời ngọt ngào",
		Description: "Thả tim cho những khoảnh khắc đáng yêu",
		Levels: [4]AchievementLevel{
			{Target: 10, Reward: 20}, {Target: 30, Reward: 50}, {Target: 60, Reward: 80}, {Target: 100, Reward: 120},
		},
	},
	{
		Type:        AchievementEventPlanner,
		Name:        "Người lên kế hoạch",
		Description: "Tạo những buổi hẹn hò và kỷ niệm",
		Levels: [4]AchievementLevel{
			{Target: 3, Reward: 30}, {Target: 8, Reward: 60}, {Target: 15, Reward: 100}, {Target: 25, Reward: 150},
		},
	},
	{
		Type:        AchievementGardenBloom,
		Name:        "Vườn yêu nở rộ",
		Description: "Chăm sóc hoa đến khi nở rộ",
		Levels: [4]AchievementLevel{
			{Target: 1, Reward: 50}, {Target: 3, Reward: 100}, {Target: 5, Reward: 150}, {Target: 8, Reward: 250},
		},
	},
}

// AchievementByType 在目录中查找成就定义
func AchievementByType(typ string) (AchievementDef, bool) {
	for _, def := range achievementCatalog {
		if def.Type == typ {
			return def, true
		}
	}
	return AchievementDef{}, false
}

// AchievementCatalog 返回完整成就目录
func AchievementCatalog() []AchievementDef {
	out := make([]AchievementDef, len(achievementCatalog))
	copy(out, achievementCatalog)
	return out
}

// AchievementService 负责成就进度与奖励领取。
// 解锁与入账是分离的：Update 只把档位写进 unlocked_levels，
// 货币统一由 Claim 在一个事务里按 unclaimed 差集结算，
// 同一档位因此永远不会被记账两次。
type AchievementService struct {
	db *gorm.DB
}

// NewAchievementService 构造 AchievementService
func NewAchievementService(gdb *gorm.DB) *AchievementService {
	return &AchievementService{db: gdb}
}

// UpdateOutcome 汇总一次进度更新
type UpdateOutcome struct {
	Progress       db.AchievementProgress
	NewlyUnlocked  []int
	PendingRewards int
}

// Update 重算指定成就的进度并解锁新达成的档位。
// 进度策略按类型三选一：daily_diary 从账本连胜重算，
// love_garden_bloom 统计已盛开的花朵数，其余类型单调累加 increment（默认 1）。
func (s *AchievementService) Update(coupleID, typ string, increment int) (*UpdateOutcome, error) {
	def, ok := AchievementByType(typ)
	if !ok {
		return nil, ErrAchievementUnknown
	}
	if strings.TrimSpace(coupleID) == "" {
		return nil, errors.New("couple id is required")
	}

	outcome := &UpdateOutcome{}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		row, err := lockAchievement(tx, coupleID, def)
		if err != nil {
			return err
		}

		switch typ {
		case AchievementDailyDiary:
			var ledger db.PointsLedger
			err := tx.Where("couple_id = ?", coupleID).First(&ledger).Error
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			row.Progress = ledger.CurrentStreak
		case AchievementGardenBloom:
			count, err := bloomedFlowerCount(tx, coupleID)
			if err != nil {
				return err
			}
			row.Progress = count
		default:
			if increment < 1 {
				increment = 1
			}
			row.Progress += increment
		}

		for i, level := range def.Levels {
			if containsInt(row.UnlockedLevels, i) {
				continue
			}
			if row.Progress >= level.Target {
				row.UnlockedLevels = append(row.UnlockedLevels, i)
				outcome.NewlyUnlocked = append(outcome.NewlyUnlocked, i)
			}
		}
		row.Unlocked = row.Progress >= row.Target

		if err := tx.Save(row).Error; err != nil {
			return fmt.Errorf("save achievement progress: %w", err)
		}

		outcome.Progress = *row
		for _, i := range diffInts(row.UnlockedLevels, row.ClaimedLevels) {
			outcome.PendingRewards += def.Levels[i].Reward
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return outcome, nil
}

// ClaimOutcome 汇总一次奖励领取；Claimed 为空表示没有可领取的档位
type ClaimOutcome struct {
	Progress db.AchievementProgress
	Claimed  []int
	Reward   int
}

// Claim 把已解锁但尚未领取的档位奖励一次性记入账本水量。
// 幂等：重复调用时差集为空，不再入账。
func (s *AchievementService) Claim(coupleID, typ string) (*ClaimOutcome, error) {
	def, ok := AchievementByType(typ)
	if !ok {
		return nil, ErrAchievementUnknown
	}

	outcome := &ClaimOutcome{}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		row, err := lockAchievement(tx, coupleID, def)
		if err != nil {
			return err
		}

		unclaimed := diffInts(row.UnlockedLevels, row.ClaimedLevels)
		if len(unclaimed) == 0 {
			outcome.Progress = *row
			return nil
		}

		total := 0
		for _, i := range unclaimed {
			total += def.Levels[i].Reward
		}

		var ledger db.PointsLedger
		if err := lockLedger(tx, coupleID, &ledger); err != nil {
			return err
		}
		ledger.Water += total
		if err := tx.Save(&ledger).Error; err != nil {
			return fmt.Errorf("save ledger: %w", err)
		}

		row.ClaimedLevels = append(row.ClaimedLevels, unclaimed...)
		if err := tx.Save(row).Error; err != nil {
			return fmt.Errorf("save achievement progress: %w", err)
		}

		entry := db.ActivityLog{
			CoupleID:     coupleID,
			ActivityType: "achievement_reward",
			Points:       total,
			Description:  fmt.Sprintf("Nhận thưởng thành tích %s", def.Name),
			ReferenceID:  typ,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("append activity log: %w", err)
		}

		outcome.Progress = *row
		outcome.Claimed = unclaimed
		outcome.Reward = total
		return nil
	})
	if err != nil {
		return nil, err
	}

	return outcome, nil
}

// AchievementStatus 聚合成就定义与当前进度
type AchievementStatus struct {
	Def       AchievementDef
	Progress  db.AchievementProgress
	Unclaimed []int
}

// List 返回目录中全部成就及其进度；没有进度行的成就按零进度返回。
func (s *AchievementService) List(coupleID string) ([]AchievementStatus, error) {
	var rows []db.AchievementProgress
	if err := s.db.Where("couple_id = ?", coupleID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list achievement progress: %w", err)
	}

	byType := make(map[string]db.AchievementProgress, len(rows))
	for _, row := range rows {
		byType[row.Type] = row
	}

	statuses := make([]AchievementStatus, 0, len(achievementCatalog))
	for _, def := range achievementCatalog {
		status := AchievementStatus{Def: def}
		if row, ok := byType[def.Type]; ok {
			status.Progress = row
			status.Unclaimed = diffInts(row.UnlockedLevels, row.ClaimedLevels)
		} else {
			status.Progress = db.AchievementProgress{
				CoupleID: coupleID,
				Type:     def.Type,
				Target:   def.Levels[len(def.Levels)-1].Target,
			}
		}
		statuses = append(statuses, status)
	}

	return statuses, nil
}

// lockAchievement 对进度行加 UPDATE 锁，不存在时按目录默认值创建
func lockAchievement(tx *gorm.DB, coupleID string, def AchievementDef) (*db.AchievementProgress, error) {
	var row db.AchievementProgress
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("couple_id = ? AND type = ?", coupleID, def.Type).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = db.AchievementProgress{
			CoupleID: coupleID,
			Type:     def.Type,
			Target:   def.Levels[len(def.Levels)-1].Target,
		}
		if err := tx.Create(&row).Error; err != nil {
			return nil, fmt.Errorf("create achievement progress: %w", err)
		}
		return &row, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// bloomedFlowerCount 统计已拥有且水量达到盛开阈值的花朵数
func bloomedFlowerCount(tx *gorm.DB, coupleID string) (int, error) {
	var ledger db.PointsLedger
	err := tx.Where("couple_id = ?", coupleID).First(&ledger).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var rows []db.FlowerProgress
	if err := tx.Where("couple_id = ?", coupleID).Find(&rows).Error; err != nil {
		return 0, err
	}

	count := 0
	for _, row := range rows {
		if !containsString(ledger.OwnedFlowers, row.FlowerID) {
			continue
		}
		flower, ok := FlowerByID(row.FlowerID)
		if !ok {
			continue
		}
		if row.Water >= BloomThreshold(flower.Tier) {
			count++
		}
	}
	return count, nil
}

func containsInt(values []int, value int) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

// diffInts 返回 a \ b，保持 a 中的顺序
func diffInts(a, b []int) []int {
	out := make([]int, 0, len(a))
	for _, v := range a {
		if !containsInt(b, v) {
			out = append(out, v)
		}
	}
	return out
}
