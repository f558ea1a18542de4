package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/dto"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/models"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/session"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SupportService struct {
	db     *gorm.DB
	notify *NotificationService
	guard  Guard
}

func NewSupportService(db *gorm.DB, notify *NotificationService) *SupportService {
	return &SupportService{db: db, notify: notify}
}

func (s *SupportService) Create(ctx context.Context, caller *session.Session, req *dto.CreateTicketRequest) (*models.SupportTicket, error) {
	if err := s.guard.RequireSession(caller); err != nil {
		return nil, err
	}
	ticket := models.SupportTicket{
		UserID:  caller.ID,
		Subject: strings.TrimSpace(req.Subject),
		Body:    strings.TrimSpace(req.Body),
		IsAdmin: false,
	}
	if err := s.db.WithContext(ctx).Omit("User").Create(&ticket).Error; err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}
	return &ticket, nil
}

// Reply adds to a thread. Admin replies email the ticket author; a user may
// only reply on their own open thread.
func (s *SupportService) Reply(ctx context.Context, caller *session.Session, ticketID uuid.UUID, req *dto.ReplyTicketRequest) (*models.SupportTicket, error) {
	root, err := s.root(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.RequireOwnerOrAdmin(caller, root.UserID); err != nil {
		return nil, err
	}
	if root.IsResolved && !caller.IsAdmin {
		return nil, ErrTicketResolved
	}

	reply := models.SupportTicket{
		UserID:   caller.ID,
		ParentID: &root.ID,
		Subject:  root.Subject,
		Body:     strings.TrimSpace(req.Body),
		IsAdmin:  caller.IsAdmin,
	}
	if err := s.db.WithContext(ctx).Omit("User").Create(&reply).Error; err != nil {
		return nil, fmt.Errorf("failed to create reply: %w", err)
	}

	if reply.IsAdmin && root.UserID != caller.ID {
		if _, err := s.notify.SupportResponse(ctx, root, &reply); err != nil {
			slog.Error("support response notification failed", "ticket_id", root.ID.String(), "error", err)
		}
	}
	return &reply, nil
}

func (s *SupportService) Resolve(ctx context.Context, caller *session.Session, ticketID uuid.UUID) error {
	root, err := s.root(ctx, ticketID)
	if err != nil {
		return err
	}
	if err := s.guard.RequireOwnerOrAdmin(caller, root.UserID); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&models.SupportTicket{}).
		Where("id = ?", root.ID).
		Update("is_resolved", true).Error
}

// Thread returns a root ticket with its replies in order.
func (s *SupportService) Thread(ctx context.Context, caller *session.Session, ticketID uuid.UUID) (*models.SupportTicket, error) {
	root, err := s.root(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.RequireOwnerOrAdmin(caller, root.UserID); err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).
		Where("parent_id = ?", root.ID).
		Order("created_at ASC").
		Find(&root.Replies).Error
	return root, err
}

func (s *SupportService) ListMine(ctx context.Context, caller *session.Session) ([]models.SupportTicket, error) {
	if err := s.guard.RequireSession(caller); err != nil {
		return nil, err
	}
	var tickets []models.SupportTicket
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND parent_id IS NULL", caller.ID).
		Order("created_at DESC").
		Find(&tickets).Error
	return tickets, err
}

// ListAll returns root tickets for admins, open ones first.
func (s *SupportService) ListAll(ctx context.Context, caller *session.Session, includeResolved bool) ([]models.SupportTicket, error) {
	if err := s.guard.RequireAdmin(caller); err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).Where("parent_id IS NULL")
	if !includeResolved {
		q = q.Where("is_resolved = ?", false)
	}
	var tickets []models.SupportTicket
	err := q.Order("is_resolved ASC, created_at DESC").Find(&tickets).Error
	return tickets, err
}

// root loads the thread root for any ticket in the thread.
func (s *SupportService) root(ctx context.Context, id uuid.UUID) (*models.SupportTicket, error) {
	var ticket models.SupportTicket
	if err := s.db.WithContext(ctx).First(&ticket, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrTicketNotFound)
	}
	if ticket.ParentID == nil {
		return &ticket, nil
	}
	return s.root(ctx, *ticket.ParentID)
}

type FeedbackService struct {
	db    *gorm.DB
	guard Guard
}

func NewFeedbackService(db *gorm.DB) *FeedbackService {
	return &FeedbackService{db: db}
}

// Create records the caller's feedback. Each user may leave it once.
func (s *FeedbackService) Create(ctx context.Context, caller *session.Session, req *dto.CreateFeedbackRequest) (*models.Feedback, error) {
	if err := s.guard.RequireSession(caller); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var existing models.Feedback
	err := db.Where("user_id = ?", caller.ID).First(&existing).Error
	if err == nil {
		return nil, ErrFeedbackExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fb := models.Feedback{UserID: caller.ID, Rating: req.Rating, Text: strings.TrimSpace(req.Text)}
	if err := db.Omit("User").Create(&fb).Error; err != nil {
		return nil, fmt.Errorf("failed to save feedback: %w", err)
	}
	return &fb, nil
}

func (s *FeedbackService) List(ctx context.Context, caller *session.Session) ([]models.Feedback, error) {
	if err := s.guard.RequireAdmin(caller); err != nil {
		return nil, err
	}
	var feedback []models.Feedback
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&feedback).Error
	return feedback, err
}
