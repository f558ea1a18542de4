package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/integrations/strava"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/models"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/session"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	stravaPageSize     = 50
	stravaInitialRange = 30 * 24 * time.Hour
)

// StravaService keeps a user's recent activities in sync. Syncs only happen
// when the user asks for one.
type StravaService struct {
	db     *gorm.DB
	api    strava.API
	badges *BadgeService
	guard  Guard
	now    func() time.Time
}

func NewStravaService(db *gorm.DB, api strava.API, badges *BadgeService) *StravaService {
	return &StravaService{db: db, api: api, badges: badges, now: time.Now}
}

// Connect stores (or replaces) the caller's tokens from the OAuth callback.
func (s *StravaService) Connect(ctx context.Context, caller *session.Session, athleteID string, token strava.Token) (*models.StravaConnection, error) {
	if err := s.guard.RequireSession(caller); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var conn models.StravaConnection
	err := db.Where("user_id = ?", caller.ID).First(&conn).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	conn.UserID = caller.ID
	conn.AthleteID = athleteID
	conn.AccessToken = token.AccessToken
	conn.RefreshToken = token.RefreshToken
	conn.ExpiresAt = token.ExpiresAt
	if err := db.Omit("User").Save(&conn).Error; err != nil {
		return nil, fmt.Errorf("failed to store strava connection: %w", err)
	}

	if err := s.badges.Award(ctx, caller.ID, models.BadgeStravaConnected); err != nil {
		slog.Warn("failed to award badge", "user_id", caller.ID.String(), "badge", models.BadgeStravaConnected, "error", err)
	}
	return &conn, nil
}

// Sync pulls activities since the last sync and returns how many were stored.
func (s *StravaService) Sync(ctx context.Context, caller *session.Session) (int, error) {
	if err := s.guard.RequireSession(caller); err != nil {
		return 0, err
	}
	db := s.db.WithContext(ctx)

	var conn models.StravaConnection
	if err := db.Where("user_id = ?", caller.ID).First(&conn).Error; err != nil {
		return 0, notFound(err, ErrNotConnected)
	}

	now := s.now()
	if now.After(conn.ExpiresAt.Add(-time.Minute)) {
		token, err := s.api.Refresh(ctx, conn.RefreshToken)
		if err != nil {
			return 0, fmt.Errorf("failed to refresh strava token: %w", err)
		}
		conn.AccessToken = token.AccessToken
		conn.RefreshToken = token.RefreshToken
		conn.ExpiresAt = token.ExpiresAt
	}

	after := now.Add(-stravaInitialRange)
	if conn.LastSyncedAt != nil {
		after = *conn.LastSyncedAt
	}
	activities, err := s.api.Activities(ctx, conn.AccessToken, after, stravaPageSize)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch strava activities: %w", err)
	}

	if len(activities) > 0 {
		rows := make([]models.StravaActivity, 0, len(activities))
		for _, a := range activities {
			rows = append(rows, models.StravaActivity{
				UserID:     caller.ID,
				StravaID:   a.ID,
				Name:       a.Name,
				SportType:  a.SportType,
				Distance:   a.Distance,
				MovingTime: a.MovingTime,
				StartDate:  a.StartDate,
				Raw:        datatypes.JSON(a.Raw),
			})
		}
		err = db.Omit("User").Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "strava_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "sport_type", "distance", "moving_time", "start_date", "raw", "updated_at"}),
		}).Create(&rows).Error
		if err != nil {
			return 0, fmt.Errorf("failed to store strava activities: %w", err)
		}
	}

	conn.LastSyncedAt = &now
	if err := db.Omit("User").Save(&conn).Error; err != nil {
		return 0, fmt.Errorf("failed to update strava connection: %w", err)
	}
	slog.Info("strava sync complete", "user_id", caller.ID.String(), "activities", len(activities))
	return len(activities), nil
}

func (s *StravaService) Activities(ctx context.Context, caller *session.Session, limit int) ([]models.StravaActivity, error) {
	if err := s.guard.RequireSession(caller); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var activities []models.StravaActivity
	err := s.db.WithContext(ctx).
		Where("user_id = ?", caller.ID).
		Order("start_date DESC").
		Limit(limit).
		Find(&activities).Error
	return activities, err
}

func (s *StravaService) Disconnect(ctx context.Context, caller *session.Session) error {
	if err := s.guard.RequireSession(caller); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", caller.ID).Delete(&models.StravaActivity{}).Error; err != nil {
			return err
		}
		res := tx.Where("user_id = ?", caller.ID).Delete(&models.StravaConnection{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotConnected
		}
		return nil
	})
}
