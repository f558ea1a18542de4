package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/database"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/integrations/maps"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/mail"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/models"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/session"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB returns a migrated in-memory database. A single connection keeps
// every query on the same in-memory store.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// fakeMailer records accepted messages. Sends to addresses in fail return an
// error; sends to addresses in panics panic.
type fakeMailer struct {
	mu     sync.Mutex
	sent   []mail.Message
	fail   map[string]bool
	panics map[string]bool
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{fail: map[string]bool{}, panics: map[string]bool{}}
}

func (f *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	if f.panics[msg.To] {
		panic("mail provider exploded")
	}
	if f.fail[msg.To] {
		return errors.New("mail provider unavailable")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMailer) to(addr string) []mail.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []mail.Message
	for _, m := range f.sent {
		if m.To == addr {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeMailer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeMailer) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = nil
}

type fakeGeocoder struct {
	loc *maps.Location
	err error
}

func (g *fakeGeocoder) Geocode(_ context.Context, _ string) (*maps.Location, error) {
	return g.loc, g.err
}

type testEnv struct {
	db          *gorm.DB
	mailer      *fakeMailer
	prefs       *PreferenceService
	notify      *NotificationService
	badges      *BadgeService
	memberships *MembershipService
	products    *ProductService
	messages    *MessageService
	reviews     *ReviewService
	support     *SupportService
	feedback    *FeedbackService
	users       *UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	mailer := newFakeMailer()
	prefs := NewPreferenceService(db)
	notify := NewNotificationService(db, mailer, mail.MustRenderer(), prefs, "https://sportpartner.test")
	badges := NewBadgeService(db)
	filter := NewContentFilter()

	return &testEnv{
		db:          db,
		mailer:      mailer,
		prefs:       prefs,
		notify:      notify,
		badges:      badges,
		memberships: NewMembershipService(db, notify, badges),
		products:    NewProductService(db, nil, badges),
		messages:    NewMessageService(db, notify, filter),
		reviews:     NewReviewService(db, notify, badges, filter, "test-ip-key"),
		support:     NewSupportService(db, notify),
		feedback:    NewFeedbackService(db),
		users:       NewUserService(db, badges, nil, "admin@sportpartner.test"),
	}
}

func (e *testEnv) user(t *testing.T, name string) *models.User {
	t.Helper()
	u := models.User{Name: name, Email: strings.ToLower(name) + "@example.com"}
	require.NoError(t, e.db.Create(&u).Error)
	return &u
}

func (e *testEnv) admin(t *testing.T) *models.User {
	t.Helper()
	u := models.User{Name: "Admin", Email: "admin@sportpartner.test", IsAdmin: true}
	require.NoError(t, e.db.Create(&u).Error)
	return &u
}

func (e *testEnv) product(t *testing.T, owner *models.User, name string) *models.Product {
	t.Helper()
	p := models.Product{UserID: owner.ID, Name: name, Sport: "tennis", Level: "intermediate", Slug: Slugify(name + " intermediate")}
	require.NoError(t, e.db.Create(&p).Error)
	return &p
}

func (e *testEnv) membership(t *testing.T, u *models.User, p *models.Product, status models.MembershipStatus) *models.Membership {
	t.Helper()
	m := models.Membership{UserID: u.ID, ProductID: p.ID, Status: status}
	require.NoError(t, e.db.Create(&m).Error)
	return &m
}

func (e *testEnv) optOut(t *testing.T, u *models.User, column string) {
	t.Helper()
	pref := models.DefaultEmailPreference(u.ID)
	require.NoError(t, e.db.Create(&pref).Error)
	require.NoError(t, e.db.Model(&pref).Update(column, false).Error)
}

func callerOf(u *models.User) *session.Session {
	return &session.Session{ID: u.ID, IsAdmin: u.IsAdmin, Email: u.Email, Name: u.Name}
}
