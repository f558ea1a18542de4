package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/dto"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/integrations/maps"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Sunday Doubles intermediate", "sunday-doubles-intermediate"},
		{"Fútbol Café  beginner", "futbol-cafe-beginner"},
		{"  --Run!!  5k -- ", "run-5k"},
		{"Ünïcödé Élan", "unicode-elan"},
		{"!!!", ""},
		{"Straße Fußball", "strasse-fussball"},
		{"Øresund Łódź Æbeltoft", "oresund-lodz-aebeltoft"},
		{"Þórshöfn Œuvre Đakovo", "thorshofn-oeuvre-dakovo"},
		{"Футбол", ""},
		{"Футбол 5x5", "5x5"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestProductCreateSlugCollisions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "Olivia")
	req := &dto.CreateProductRequest{Name: "Morning Run", Sport: "Running", Level: "beginner"}

	first, err := env.products.Create(ctx, callerOf(owner), req)
	require.NoError(t, err)
	assert.Equal(t, "morning-run-beginner", first.Slug)
	assert.Equal(t, "running", first.Sport)

	second, err := env.products.Create(ctx, callerOf(owner), req)
	require.NoError(t, err)
	assert.Equal(t, "morning-run-beginner-1", second.Slug)

	third, err := env.products.Create(ctx, callerOf(owner), req)
	require.NoError(t, err)
	assert.Equal(t, "morning-run-beginner-2", third.Slug)

	require.NoError(t, env.products.Delete(ctx, callerOf(owner), second.ID))
	fourth, err := env.products.Create(ctx, callerOf(owner), req)
	require.NoError(t, err)
	assert.Equal(t, "morning-run-beginner-1", fourth.Slug, "smallest free suffix is reused")

	badges, err := env.badges.List(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{models.BadgeOrganizer}, badges)
}

// rivalProducts registers a create hook that inserts another product with
// the slug about to be written, as a concurrent create would.
func rivalProducts(t *testing.T, env *testEnv, owner *models.User, times int) *int {
	t.Helper()
	stolen := 0
	require.NoError(t, env.db.Callback().Create().Before("gorm:begin_transaction").Register("test:rival_product", func(tx *gorm.DB) {
		p, ok := tx.Statement.Dest.(*models.Product)
		if !ok || p.Name == "Rival" || stolen >= times {
			return
		}
		stolen++
		rival := models.Product{UserID: owner.ID, Name: "Rival", Sport: "running", Level: "beginner", Slug: p.Slug}
		require.NoError(t, env.db.Create(&rival).Error)
	}))
	return &stolen
}

func TestProductCreateRetriesSlugTakenConcurrently(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "Olivia")
	stolen := rivalProducts(t, env, owner, 1)

	p, err := env.products.Create(context.Background(), callerOf(owner), &dto.CreateProductRequest{Name: "Morning Run", Sport: "running", Level: "beginner"})
	require.NoError(t, err)
	assert.Equal(t, 1, *stolen)
	assert.Equal(t, "morning-run-beginner-1", p.Slug)

	var slugs []string
	require.NoError(t, env.db.Model(&models.Product{}).Order("slug").Pluck("slug", &slugs).Error)
	assert.Equal(t, []string{"morning-run-beginner", "morning-run-beginner-1"}, slugs)
}

func TestProductCreateGivesUpAfterRepeatedSlugConflicts(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "Olivia")
	stolen := rivalProducts(t, env, owner, maxSlugAttempts)

	_, err := env.products.Create(context.Background(), callerOf(owner), &dto.CreateProductRequest{Name: "Morning Run", Sport: "running", Level: "beginner"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, maxSlugAttempts, *stolen)

	var count int64
	env.db.Model(&models.Product{}).Where("name = ?", "Morning Run").Count(&count)
	assert.Zero(t, count)
}

func TestIsDuplicateKey(t *testing.T) {
	assert.True(t, isDuplicateKey(gorm.ErrDuplicatedKey))
	assert.True(t, isDuplicateKey(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isDuplicateKey(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isDuplicateKey(gorm.ErrRecordNotFound))
	assert.False(t, isDuplicateKey(nil))
}

func TestProductRenameKeepsOwnSlug(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "Olivia")

	p, err := env.products.Create(ctx, callerOf(owner), &dto.CreateProductRequest{Name: "Evening Swim", Sport: "swimming", Level: "advanced"})
	require.NoError(t, err)

	same := "Evening  Swim"
	updated, err := env.products.Update(ctx, callerOf(owner), p.ID, &dto.UpdateProductRequest{Name: &same})
	require.NoError(t, err)
	assert.Equal(t, "evening-swim-advanced", updated.Slug)

	level := "expert"
	updated, err = env.products.Update(ctx, callerOf(owner), p.ID, &dto.UpdateProductRequest{Level: &level})
	require.NoError(t, err)
	assert.Equal(t, "evening-swim-expert", updated.Slug)

	fetched, err := env.products.GetBySlug(ctx, "evening-swim-expert")
	require.NoError(t, err)
	assert.Equal(t, p.ID, fetched.ID)
	assert.Equal(t, "Olivia", fetched.User.Name)

	_, err = env.products.GetBySlug(ctx, "evening-swim-advanced")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductUpdateAndDeleteGuards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "Olivia")
	stranger := env.user(t, "Sam")
	admin := env.admin(t)
	p := env.product(t, owner, "Padel Night")

	desc := "bring a racket"
	_, err := env.products.Update(ctx, callerOf(stranger), p.ID, &dto.UpdateProductRequest{Description: &desc})
	assert.ErrorIs(t, err, ErrUnauthorized)

	updated, err := env.products.Update(ctx, callerOf(admin), p.ID, &dto.UpdateProductRequest{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, desc, updated.Description)

	assert.ErrorIs(t, env.products.Delete(ctx, callerOf(stranger), p.ID), ErrUnauthorized)
	assert.ErrorIs(t, env.products.Delete(ctx, nil, p.ID), ErrUnauthenticated)
}

func TestProductDeleteCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "Olivia")
	member := env.user(t, "Mike")
	p := env.product(t, owner, "Padel Night")
	other := env.product(t, owner, "Tennis Club")
	env.membership(t, member, p, models.MembershipApproved)
	env.membership(t, member, other, models.MembershipApproved)

	_, err := env.messages.Send(ctx, callerOf(member), p.ID, "hello")
	require.NoError(t, err)

	require.NoError(t, env.products.Delete(ctx, callerOf(owner), p.ID))

	for _, model := range []interface{}{&models.Membership{}, &models.Message{}, &models.UnreadMessage{}, &models.Review{}} {
		var count int64
		env.db.Model(model).Where("product_id = ?", p.ID).Count(&count)
		assert.Zero(t, count)
	}
	var remaining int64
	env.db.Model(&models.Membership{}).Where("product_id = ?", other.ID).Count(&remaining)
	assert.Equal(t, int64(1), remaining)

	_, err = env.products.Get(ctx, p.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductGeocoding(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "Olivia")

	env.products.geocoder = &fakeGeocoder{loc: &maps.Location{Lat: 41.01, Lng: 28.97}}
	p, err := env.products.Create(ctx, callerOf(owner), &dto.CreateProductRequest{
		Name: "Bosphorus Run", Sport: "running", Level: "expert", VenueAddress: "Kadikoy, Istanbul",
	})
	require.NoError(t, err)
	require.NotNil(t, p.Lat)
	assert.InDelta(t, 41.01, *p.Lat, 0.0001)

	env.products.geocoder = &fakeGeocoder{err: errors.New("quota exceeded")}
	p, err = env.products.Create(ctx, callerOf(owner), &dto.CreateProductRequest{
		Name: "Bosphorus Ride", Sport: "cycling", Level: "expert", VenueAddress: "Besiktas, Istanbul",
	})
	require.NoError(t, err, "geocoding is best effort")
	assert.Nil(t, p.Lat)
	assert.Nil(t, p.Lng)
}

func TestProductList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "Olivia")
	for _, name := range []string{"A Tennis", "B Tennis", "C Tennis"} {
		_, err := env.products.Create(ctx, callerOf(owner), &dto.CreateProductRequest{Name: name, Sport: "tennis", Level: "beginner"})
		require.NoError(t, err)
	}
	_, err := env.products.Create(ctx, callerOf(owner), &dto.CreateProductRequest{Name: "Golf Day", Sport: "golf", Level: "expert"})
	require.NoError(t, err)

	products, total, err := env.products.List(ctx, dto.ProductFilter{Sport: "Tennis", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, products, 2)

	products, total, err = env.products.List(ctx, dto.ProductFilter{Level: "expert"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, products, 1)
	assert.Equal(t, "Golf Day", products[0].Name)
}
