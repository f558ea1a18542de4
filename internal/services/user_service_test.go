package services

import (
	"context"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/config"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/dto"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertFromIdentity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, err := env.users.UpsertFromIdentity(ctx, Identity{Provider: "google", Email: "  Nora@Example.com ", Name: "Nora"})
	require.NoError(t, err)
	assert.Equal(t, "nora@example.com", u.Email)
	assert.False(t, u.IsAdmin)

	again, err := env.users.UpsertFromIdentity(ctx, Identity{Provider: "google", Email: "nora@example.com", Name: "Other", Image: "https://img.example/n.png"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)
	assert.Equal(t, "Nora", again.Name, "existing names are kept")

	stored, err := env.users.Me(ctx, callerOf(again))
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/n.png", stored.Image)

	admin, err := env.users.UpsertFromIdentity(ctx, Identity{Provider: "google", Email: "admin@sportpartner.test", Name: "Boss"})
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)

	_, err = env.users.UpsertFromIdentity(ctx, Identity{Provider: "google"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateProfileAndPublicProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "Nora")

	profile, err := env.users.PublicProfile(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, profile.ProfileComplete)
	assert.Nil(t, profile.LastActiveAt)

	sex, country, bio := "female", "tr", "Weekend padel"
	updated, err := env.users.UpdateProfile(ctx, callerOf(u), &dto.UpdateProfileRequest{Sex: &sex, Country: &country, Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "TR", updated.Country)
	assert.True(t, updated.ProfileComplete())

	require.NoError(t, env.badges.Award(ctx, u.ID, models.BadgeReviewer))
	require.NoError(t, env.badges.Award(ctx, u.ID, models.BadgeReviewer))

	profile, err = env.users.PublicProfile(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, profile.ProfileComplete)
	assert.Equal(t, []string{models.BadgeReviewer}, profile.Badges)

	_, err = env.users.PublicProfile(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDeleteAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	leaver := env.user(t, "Lea")
	owner := env.user(t, "Olivia")
	admin := env.admin(t)

	own := env.product(t, leaver, "Lea's Ride")
	joined := env.product(t, owner, "Padel Night")
	env.membership(t, owner, own, models.MembershipApproved)
	env.membership(t, leaver, joined, models.MembershipApproved)
	_, err := env.messages.Send(ctx, callerOf(leaver), joined.ID, "hi all")
	require.NoError(t, err)
	_, err = env.prefs.Get(ctx, callerOf(leaver))
	require.NoError(t, err)
	ticket, err := env.support.Create(ctx, callerOf(leaver), &dto.CreateTicketRequest{Subject: "Bye", Body: "Deleting"})
	require.NoError(t, err)
	_, err = env.support.Reply(ctx, callerOf(admin), ticket.ID, &dto.ReplyTicketRequest{Body: "Sorry to see you go"})
	require.NoError(t, err)

	assert.ErrorIs(t, env.users.DeleteAccount(ctx, callerOf(admin), leaver.ID), ErrUnauthorized)
	require.NoError(t, env.users.DeleteAccount(ctx, callerOf(leaver), leaver.ID))

	counts := map[string]int64{}
	count := func(name string, model interface{}, query string, args ...interface{}) {
		var n int64
		env.db.Model(model).Where(query, args...).Count(&n)
		counts[name] = n
	}
	count("user", &models.User{}, "id = ?", leaver.ID)
	count("owned products", &models.Product{}, "user_id = ?", leaver.ID)
	count("owned product memberships", &models.Membership{}, "product_id = ?", own.ID)
	count("memberships", &models.Membership{}, "user_id = ?", leaver.ID)
	count("messages", &models.Message{}, "user_id = ?", leaver.ID)
	count("tickets", &models.SupportTicket{}, "user_id = ? OR parent_id = ?", leaver.ID, ticket.ID)
	count("preferences", &models.EmailPreference{}, "user_id = ?", leaver.ID)
	for name, n := range counts {
		assert.Zero(t, n, name)
	}

	_, err = env.products.Get(ctx, joined.ID)
	require.NoError(t, err, "other users' products survive")
}

func newTestAuth(t *testing.T, env *testEnv) *AuthService {
	t.Helper()
	cfg := &config.Config{JWTSecret: "test-secret", SessionTTL: time.Hour}
	return NewAuthService(env.db, cfg, env.users)
}

func TestAuthSignInResolveLogout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	auth := newTestAuth(t, env)

	resp, err := auth.SignIn(ctx, Identity{Provider: "google", Email: "nora@example.com", Name: "Nora"}, "203.0.113.7", "test-agent")
	require.NoError(t, err)

	token, err := jwt.Parse(resp.Token, func(*jwt.Token) (interface{}, error) { return []byte("test-secret"), nil })
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, resp.User.String(), claims["sub"])
	assert.NotContains(t, claims, "email")
	assert.NotContains(t, claims, "is_admin")

	sid, err := uuid.Parse(claims["sid"].(string))
	require.NoError(t, err)

	caller, err := auth.Resolve(ctx, resp.User, sid)
	require.NoError(t, err)
	assert.Equal(t, "nora@example.com", caller.Email)
	assert.False(t, caller.IsAdmin)

	_, err = auth.Resolve(ctx, uuid.New(), sid)
	assert.ErrorIs(t, err, ErrUnauthenticated, "sid must belong to sub")

	// admin rights are read from the user row on every request
	require.NoError(t, env.db.Model(&models.User{}).Where("id = ?", resp.User).Update("is_admin", true).Error)
	caller, err = auth.Resolve(ctx, resp.User, sid)
	require.NoError(t, err)
	assert.True(t, caller.IsAdmin)

	require.NoError(t, auth.Logout(ctx, caller))
	_, err = auth.Resolve(ctx, resp.User, sid)
	assert.ErrorIs(t, err, ErrSessionInvalid)
}

func TestAuthExpiredSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	auth := newTestAuth(t, env)

	resp, err := auth.SignIn(ctx, Identity{Provider: "google", Email: "nora@example.com"}, "", "")
	require.NoError(t, err)
	var sess models.Session
	require.NoError(t, env.db.Where("user_id = ?", resp.User).First(&sess).Error)

	auth.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = auth.Resolve(ctx, resp.User, sess.ID)
	assert.ErrorIs(t, err, ErrSessionInvalid)

	purged, err := auth.PurgeExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
}
