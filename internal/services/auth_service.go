package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/config"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/dto"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/models"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/session"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrSessionInvalid = fmt.Errorf("%w: session expired or revoked", ErrUnauthenticated)

// AuthService turns a verified provider identity into a server-side session.
// The JWT only names the session; who the caller is always comes from the
// Session and User rows.
type AuthService struct {
	db    *gorm.DB
	cfg   *config.Config
	users *UserService
	now   func() time.Time
}

func NewAuthService(db *gorm.DB, cfg *config.Config, users *UserService) *AuthService {
	return &AuthService{db: db, cfg: cfg, users: users, now: time.Now}
}

func (s *AuthService) SignIn(ctx context.Context, id Identity, ip, userAgent string) (*dto.SignInResponse, error) {
	user, err := s.users.UpsertFromIdentity(ctx, id)
	if err != nil {
		return nil, err
	}

	sess := models.Session{
		UserID:    user.ID,
		ExpiresAt: s.now().Add(s.cfg.SessionTTL),
		IP:        ip,
		UserAgent: userAgent,
	}
	if err := s.db.WithContext(ctx).Create(&sess).Error; err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	token, err := s.issueToken(user.ID, sess.ID, sess.ExpiresAt)
	if err != nil {
		return nil, err
	}
	slog.Info("user signed in", "user_id", user.ID.String(), "provider", id.Provider)
	return &dto.SignInResponse{Token: token, User: user.ID}, nil
}

// Resolve loads the caller behind a token's sub/sid pair.
func (s *AuthService) Resolve(ctx context.Context, userID, sessionID uuid.UUID) (*session.Session, error) {
	db := s.db.WithContext(ctx)

	var sess models.Session
	err := db.Where("id = ? AND user_id = ? AND revoked = ? AND expires_at > ?", sessionID, userID, false, s.now()).
		First(&sess).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, err
	}

	var user models.User
	if err := db.First(&user, "id = ?", sess.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, err
	}

	return &session.Session{
		ID:        user.ID,
		SessionID: sess.ID,
		IsAdmin:   user.IsAdmin,
		Email:     user.Email,
		Name:      user.Name,
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, caller *session.Session) error {
	if caller == nil {
		return ErrUnauthenticated
	}
	return s.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ? AND user_id = ?", caller.SessionID, caller.ID).
		Update("revoked", true).Error
}

// PurgeExpired deletes sessions past expiry or revoked before cutoff.
func (s *AuthService) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at < ? OR (revoked = ? AND updated_at < ?)", s.now(), true, cutoff).
		Delete(&models.Session{})
	return res.RowsAffected, res.Error
}

func (s *AuthService) issueToken(userID, sessionID uuid.UUID, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID.String(),
		"sid": sessionID.String(),
		"iat": s.now().Unix(),
		"exp": expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}
