package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/dto"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/integrations/maps"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/models"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/session"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxSlugAttempts = 3

type ProductService struct {
	db       *gorm.DB
	geocoder maps.Geocoder
	badges   *BadgeService
	guard    Guard
}

// NewProductService accepts a nil geocoder, in which case venues keep
// whatever coordinates the caller sent.
func NewProductService(db *gorm.DB, geocoder maps.Geocoder, badges *BadgeService) *ProductService {
	return &ProductService{db: db, geocoder: geocoder, badges: badges}
}

func (s *ProductService) Create(ctx context.Context, caller *session.Session, req *dto.CreateProductRequest) (*models.Product, error) {
	if err := s.guard.RequireSession(caller); err != nil {
		return nil, err
	}

	product := models.Product{
		UserID:       caller.ID,
		Name:         strings.TrimSpace(req.Name),
		Sport:        strings.ToLower(strings.TrimSpace(req.Sport)),
		Level:        req.Level,
		Description:  req.Description,
		VenueName:    req.VenueName,
		VenueAddress: req.VenueAddress,
		Lat:          req.Lat,
		Lng:          req.Lng,
		StartsAt:     req.StartsAt,
	}
	s.geocode(ctx, &product)

	base := Slugify(product.Name + " " + product.Level)
	db := s.db.WithContext(ctx)
	var err error
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		product.Slug, err = productSlug(db, base, uuid.Nil)
		if err != nil {
			return nil, err
		}
		product.ID = uuid.Nil
		err = db.Create(&product).Error
		if !isDuplicateKey(err) {
			break
		}
	}
	if err != nil {
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("%w: could not allocate a unique slug", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}

	if err := s.badges.Award(ctx, caller.ID, models.BadgeOrganizer); err != nil {
		slog.Warn("failed to award badge", "user_id", caller.ID.String(), "badge", models.BadgeOrganizer, "error", err)
	}
	return &product, nil
}

func (s *ProductService) Update(ctx context.Context, caller *session.Session, id uuid.UUID, req *dto.UpdateProductRequest) (*models.Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.RequireOwnerOrAdmin(caller, product.UserID); err != nil {
		return nil, err
	}

	renamed := false
	if req.Name != nil && strings.TrimSpace(*req.Name) != product.Name {
		product.Name = strings.TrimSpace(*req.Name)
		renamed = true
	}
	if req.Level != nil && *req.Level != product.Level {
		product.Level = *req.Level
		renamed = true
	}
	if req.Sport != nil {
		product.Sport = strings.ToLower(strings.TrimSpace(*req.Sport))
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.VenueName != nil {
		product.VenueName = *req.VenueName
	}
	if req.StartsAt != nil {
		product.StartsAt = req.StartsAt
	}
	if req.Lat != nil || req.Lng != nil {
		product.Lat, product.Lng = req.Lat, req.Lng
	}
	if req.VenueAddress != nil && *req.VenueAddress != product.VenueAddress {
		product.VenueAddress = *req.VenueAddress
		if req.Lat == nil && req.Lng == nil {
			product.Lat, product.Lng = nil, nil
			s.geocode(ctx, product)
		}
	}

	db := s.db.WithContext(ctx)
	base := Slugify(product.Name + " " + product.Level)
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		if renamed {
			if product.Slug, err = productSlug(db, base, product.ID); err != nil {
				return nil, err
			}
		}
		err = db.Omit("User").Save(product).Error
		if !renamed || !isDuplicateKey(err) {
			break
		}
	}
	if err != nil {
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("%w: could not allocate a unique slug", ErrConflict)
		}
		return nil, fmt.Errorf("failed to update activity: %w", err)
	}
	return product, nil
}

// Delete removes the product and everything hanging off it.
func (s *ProductService) Delete(ctx context.Context, caller *session.Session, id uuid.UUID) error {
	product, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.guard.RequireOwnerOrAdmin(caller, product.UserID); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteProducts(tx, []uuid.UUID{product.ID})
	})
}

// deleteProducts removes products and their dependent rows inside tx.
func deleteProducts(tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	for _, model := range []interface{}{
		&models.UnreadMessage{},
		&models.Message{},
		&models.Membership{},
		&models.Review{},
	} {
		if err := tx.Where("product_id IN ?", ids).Delete(model).Error; err != nil {
			return err
		}
	}
	return tx.Where("id IN ?", ids).Delete(&models.Product{}).Error
}

func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrProductNotFound)
	}
	return &product, nil
}

func (s *ProductService) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).Preload("User").Where("slug = ?", slug).First(&product).Error
	if err != nil {
		return nil, notFound(err, ErrProductNotFound)
	}
	return &product, nil
}

func (s *ProductService) List(ctx context.Context, filter dto.ProductFilter) ([]models.Product, int64, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Page < 1 {
		filter.Page = 1
	}

	q := s.db.WithContext(ctx).Model(&models.Product{})
	if filter.Sport != "" {
		q = q.Where("sport = ?", strings.ToLower(filter.Sport))
	}
	if filter.Level != "" {
		q = q.Where("level = ?", filter.Level)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	err := q.Preload("User").
		Order("created_at DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&products).Error
	return products, total, err
}

// geocode fills missing coordinates from the venue address. Failures leave
// them empty.
func (s *ProductService) geocode(ctx context.Context, product *models.Product) {
	if s.geocoder == nil || product.VenueAddress == "" || (product.Lat != nil && product.Lng != nil) {
		return
	}
	loc, err := s.geocoder.Geocode(ctx, product.VenueAddress)
	if err != nil {
		if !errors.Is(err, maps.ErrNotConfigured) {
			slog.Warn("geocoding failed", "address", product.VenueAddress, "error", err)
		}
		return
	}
	product.Lat, product.Lng = &loc.Lat, &loc.Lng
}
