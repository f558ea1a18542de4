package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/mail"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeliveryReport summarises one fan-out. Skipped covers both opted-out
// recipients and recipients without an email address.
type DeliveryReport struct {
	Recipients int
	Sent       int
	Skipped    int
	Failed     int
}

// NotificationService turns state changes into in-app markers and emails.
// Email is best effort: failures are logged and counted, never returned.
type NotificationService struct {
	db       *gorm.DB
	mailer   mail.Sender
	renderer *mail.Renderer
	prefs    *PreferenceService
	baseURL  string
}

func NewNotificationService(db *gorm.DB, mailer mail.Sender, renderer *mail.Renderer, prefs *PreferenceService, baseURL string) *NotificationService {
	return &NotificationService{
		db:       db,
		mailer:   mailer,
		renderer: renderer,
		prefs:    prefs,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// NewMessage notifies every approved member except the sender, plus the owner
// when the owner is not the sender. Each recipient gets an UnreadMessage row.
func (s *NotificationService) NewMessage(ctx context.Context, msg *models.Message) (DeliveryReport, error) {
	db := s.db.WithContext(ctx)

	var product models.Product
	if err := db.First(&product, "id = ?", msg.ProductID).Error; err != nil {
		return DeliveryReport{}, notFound(err, ErrProductNotFound)
	}

	var memberIDs []uuid.UUID
	if err := db.Model(&models.Membership{}).
		Where("product_id = ? AND status = ? AND user_id <> ?", msg.ProductID, models.MembershipApproved, msg.UserID).
		Pluck("user_id", &memberIDs).Error; err != nil {
		return DeliveryReport{}, err
	}

	recipientIDs := messageRecipients(product.UserID, msg.UserID, memberIDs)
	if len(recipientIDs) == 0 {
		return DeliveryReport{}, nil
	}

	unread := make([]models.UnreadMessage, 0, len(recipientIDs))
	for _, id := range recipientIDs {
		unread = append(unread, models.UnreadMessage{UserID: id, MessageID: msg.ID, ProductID: msg.ProductID})
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&unread).Error; err != nil {
		return DeliveryReport{}, fmt.Errorf("failed to create unread markers: %w", err)
	}

	recipients, err := s.loadUsers(ctx, recipientIDs)
	if err != nil {
		return DeliveryReport{}, err
	}
	sender := s.userName(ctx, msg.UserID)

	category := models.EmailNewMessages
	return s.deliver(ctx, &category, recipients, func(u models.User) (mail.Message, error) {
		return s.render(u, "New message in "+product.Name, mail.TemplateNewMessage, mail.Data{
			ActorName:   sender,
			ProductName: product.Name,
			Snippet:     truncate(msg.Content, 140),
			Link:        s.link("/activities/", product.Slug, "/chat"),
		})
	}), nil
}

// JoinRequest tells the owner that someone asked to join.
func (s *NotificationService) JoinRequest(ctx context.Context, m *models.Membership) (DeliveryReport, error) {
	product, owner, err := s.productWithOwner(ctx, m.ProductID)
	if err != nil {
		return DeliveryReport{}, err
	}
	requester := s.userName(ctx, m.UserID)

	category := models.EmailJoinRequest
	return s.deliver(ctx, &category, []models.User{*owner}, func(u models.User) (mail.Message, error) {
		return s.render(u, requester+" wants to join "+product.Name, mail.TemplateJoinRequest, mail.Data{
			ActorName:   requester,
			ProductName: product.Name,
			Link:        s.link("/activities/", product.Slug, "/members"),
		})
	}), nil
}

// MembershipAccepted tells the requester they were let in.
func (s *NotificationService) MembershipAccepted(ctx context.Context, m *models.Membership) (DeliveryReport, error) {
	product, owner, err := s.productWithOwner(ctx, m.ProductID)
	if err != nil {
		return DeliveryReport{}, err
	}
	members, err := s.loadUsers(ctx, []uuid.UUID{m.UserID})
	if err != nil {
		return DeliveryReport{}, err
	}

	category := models.EmailMembership
	return s.deliver(ctx, &category, members, func(u models.User) (mail.Message, error) {
		return s.render(u, "You're in: "+product.Name, mail.TemplateMembershipAccepted, mail.Data{
			ActorName:   owner.Name,
			ProductName: product.Name,
			Link:        s.link("/activities/", product.Slug, "/chat"),
		})
	}), nil
}

// ReviewReceived tells the owner about a submitted review.
func (s *NotificationService) ReviewReceived(ctx context.Context, r *models.Review) (DeliveryReport, error) {
	product, owner, err := s.productWithOwner(ctx, r.ProductID)
	if err != nil {
		return DeliveryReport{}, err
	}
	reviewer := "Someone"
	if r.UserID != nil {
		reviewer = s.userName(ctx, *r.UserID)
	}

	category := models.EmailReview
	return s.deliver(ctx, &category, []models.User{*owner}, func(u models.User) (mail.Message, error) {
		return s.render(u, "New review for "+product.Name, mail.TemplateReviewReceived, mail.Data{
			ActorName:   reviewer,
			ProductName: product.Name,
			Rating:      r.Rating,
			Snippet:     truncate(r.Comment, 280),
			Link:        s.link("/activities/", product.Slug, "#reviews"),
		})
	}), nil
}

// SupportResponse emails the ticket author. It is never gated by preferences.
func (s *NotificationService) SupportResponse(ctx context.Context, root *models.SupportTicket, reply *models.SupportTicket) (DeliveryReport, error) {
	authors, err := s.loadUsers(ctx, []uuid.UUID{root.UserID})
	if err != nil {
		return DeliveryReport{}, err
	}

	return s.deliver(ctx, nil, authors, func(u models.User) (mail.Message, error) {
		return s.render(u, "Re: "+root.Subject, mail.TemplateSupportResponse, mail.Data{
			Snippet: truncate(reply.Body, 500),
			Link:    s.link("/support/", root.ID.String(), ""),
		})
	}), nil
}

// deliver sends one email per recipient. A nil category skips the preference gate.
func (s *NotificationService) deliver(ctx context.Context, category *models.EmailCategory, recipients []models.User, build func(models.User) (mail.Message, error)) DeliveryReport {
	label := "support"
	if category != nil {
		label = string(*category)
	}

	report := DeliveryReport{Recipients: len(recipients)}
	for _, u := range recipients {
		if u.Email == "" {
			report.Skipped++
			metrics.RecordNotification(label, "skipped")
			continue
		}
		if category != nil && !s.prefs.ShouldSend(ctx, u.ID, *category) {
			report.Skipped++
			metrics.RecordNotification(label, "skipped")
			continue
		}

		if err := s.sendOne(ctx, u, build); err != nil {
			report.Failed++
			metrics.RecordNotification(label, "failed")
			slog.Warn("notification email failed", "user_id", u.ID.String(), "category", label, "error", err)
			continue
		}
		report.Sent++
		metrics.RecordNotification(label, "sent")
	}
	return report
}

// sendOne isolates a single send so neither an error nor a panic in one
// recipient's delivery stops the loop.
func (s *NotificationService) sendOne(ctx context.Context, u models.User, build func(models.User) (mail.Message, error)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while sending email: %v", r)
		}
	}()

	msg, err := build(u)
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, msg)
}

func (s *NotificationService) render(u models.User, subject string, tmpl mail.Template, data mail.Data) (mail.Message, error) {
	data.RecipientName = u.Name
	html, err := s.renderer.Render(tmpl, data)
	if err != nil {
		return mail.Message{}, err
	}
	return mail.Message{To: u.Email, Subject: subject, HTML: html}, nil
}

func (s *NotificationService) productWithOwner(ctx context.Context, productID uuid.UUID) (*models.Product, *models.User, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).Preload("User").First(&product, "id = ?", productID).Error; err != nil {
		return nil, nil, notFound(err, ErrProductNotFound)
	}
	return &product, &product.User, nil
}

func (s *NotificationService) loadUsers(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *NotificationService) userName(ctx context.Context, id uuid.UUID) string {
	var u models.User
	if err := s.db.WithContext(ctx).Select("name").First(&u, "id = ?", id).Error; err != nil || u.Name == "" {
		return "Someone"
	}
	return u.Name
}

func (s *NotificationService) link(prefix, key, suffix string) string {
	return s.baseURL + prefix + key + suffix
}

// messageRecipients is the deduplicated recipient set for a chat message.
func messageRecipients(ownerID, senderID uuid.UUID, approvedMembers []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(approvedMembers)+1)
	out := make([]uuid.UUID, 0, len(approvedMembers)+1)
	add := func(id uuid.UUID) {
		if id == senderID || seen[id] {
			return
		}
		seen[id] = true
		out = append(out, id)
	}
	add(ownerID)
	for _, id := range approvedMembers {
		add(id)
	}
	return out
}

func truncate(s string, max int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= max {
		return string(r)
	}
	return string(r[:max]) + "…"
}
