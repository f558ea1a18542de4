package services

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BadgeService struct {
	db *gorm.DB
}

func NewBadgeService(db *gorm.DB) *BadgeService {
	return &BadgeService{db: db}
}

// Award grants a badge once. Awarding an already held badge is a no-op.
func (s *BadgeService) Award(ctx context.Context, userID uuid.UUID, badge string) error {
	row := models.UserBadge{UserID: userID, Badge: badge}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

func (s *BadgeService) List(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var badges []string
	err := s.db.WithContext(ctx).Model(&models.UserBadge{}).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Pluck("badge", &badges).Error
	return badges, err
}
