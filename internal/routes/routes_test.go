package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/config"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/database"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/mail"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/models"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/services"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/markbates/goth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

// fakeOAuth completes every sign-in as the user queued under the provider.
type fakeOAuth struct {
	users map[string]goth.User
}

func (f *fakeOAuth) Begin(c *fiber.Ctx, provider string) error {
	return c.Redirect("https://accounts.example/" + provider)
}

func (f *fakeOAuth) Complete(_ *fiber.Ctx, provider string) (goth.User, error) {
	u, ok := f.users[provider]
	if !ok {
		return goth.User{}, fmt.Errorf("no %s user queued", provider)
	}
	return u, nil
}

type testServer struct {
	app    *fiber.App
	db     *gorm.DB
	cfg    *config.Config
	oauth  *fakeOAuth
	mailer *recordingMailer
}

func newTestServer(t *testing.T) *testServer {
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

	cfg := &config.Config{
		JWTSecret:   "test-secret",
		SessionTTL:  time.Hour,
		CORSOrigins: "*",
		AdminEmails: "admin@sportpartner.test",
		BaseURL:     "https://sportpartner.test",
	}

	mailer := &recordingMailer{}
	renderer, err := mail.NewRenderer()
	require.NoError(t, err)

	badges := services.NewBadgeService(db)
	prefs := services.NewPreferenceService(db)
	notify := services.NewNotificationService(db, mailer, renderer, prefs, cfg.BaseURL)
	filter := services.NewContentFilter()
	users := services.NewUserService(db, badges, nil, cfg.AdminEmails)
	auth := services.NewAuthService(db, cfg, users)
	products := services.NewProductService(db, nil, badges)
	memberships := services.NewMembershipService(db, notify, badges)
	messages := services.NewMessageService(db, notify, filter)
	reviews := services.NewReviewService(db, notify, badges, filter, "test-ip-key")
	support := services.NewSupportService(db, notify)
	feedback := services.NewFeedbackService(db)
	strava := services.NewStravaService(db, nil, badges)

	oauth := &fakeOAuth{users: map[string]goth.User{}}
	app := fiber.New()
	Setup(app, cfg, auth, nil, Handlers{
		Auth:        handlers.NewAuthHandler(auth, strava, oauth, cfg),
		Health:      handlers.NewHealthHandler(func() error { return nil }),
		Products:    handlers.NewProductHandler(products),
		Memberships: handlers.NewMembershipHandler(memberships),
		Messages:    handlers.NewMessageHandler(messages),
		Reviews:     handlers.NewReviewHandler(reviews),
		Support:     handlers.NewSupportHandler(support, feedback),
		Users:       handlers.NewUserHandler(users, prefs),
		Strava:      handlers.NewStravaHandler(strava),
	})

	return &testServer{app: app, db: db, cfg: cfg, oauth: oauth, mailer: mailer}
}

type result struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

// signIn runs the Google callback for email and returns the session token.
func (s *testServer) signIn(t *testing.T, name, email string) string {
	t.Helper()
	s.oauth.users["google"] = goth.User{Email: email, Name: name}
	resp, raw := s.do(t, http.MethodGet, "/api/auth/google/callback", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var res result
	require.NoError(t, json.Unmarshal(raw, &res))
	var signIn struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &signIn))
	require.NotEmpty(t, signIn.Token)
	return signIn.Token
}

func decodeData(t *testing.T, raw []byte, into interface{}) {
	t.Helper()
	var res result
	require.NoError(t, json.Unmarshal(raw, &res))
	require.True(t, res.Success, res.Error)
	require.NoError(t, json.Unmarshal(res.Data, into))
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	resp, raw := s.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `"db":"ok"`)
}

func TestSignInSetsCookieAndSessionWorks(t *testing.T) {
	s := newTestServer(t)
	s.oauth.users["google"] = goth.User{Email: "nora@example.com", Name: "Nora"}

	resp, _ := s.do(t, http.MethodGet, "/api/auth/google/callback", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cookie *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == middleware.SessionCookie {
			cookie = ck
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	// the cookie alone authenticates browser requests
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: cookie.Value})
	me, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, me.StatusCode)

	// bearer tokens work for API clients
	resp, raw := s.do(t, http.MethodGet, "/api/me", cookie.Value, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "nora@example.com")

	resp, _ = s.do(t, http.MethodPost, "/api/auth/logout", cookie.Value, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = s.do(t, http.MethodGet, "/api/me", cookie.Value, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "revoked sessions are rejected")
}

func TestFailedSignIn(t *testing.T) {
	s := newTestServer(t)
	resp, raw := s.do(t, http.MethodGet, "/api/auth/google/callback", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(raw), `"success":false`)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	s := newTestServer(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/products"},
		{http.MethodGet, "/api/me"},
		{http.MethodGet, "/api/me/unread"},
		{http.MethodPost, "/api/reviews"},
		{http.MethodGet, "/api/admin/tickets"},
	} {
		resp, _ := s.do(t, tc.method, tc.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, tc.path)
	}

	resp, _ := s.do(t, http.MethodGet, "/api/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// public reads stay open
	resp, _ = s.do(t, http.MethodGet, "/api/products", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMembershipFlowOverHTTP(t *testing.T) {
	s := newTestServer(t)
	owner := s.signIn(t, "Olivia", "olivia@example.com")
	member := s.signIn(t, "Mike", "mike@example.com")
	stranger := s.signIn(t, "Sam", "sam@example.com")

	resp, raw := s.do(t, http.MethodPost, "/api/products", owner, map[string]interface{}{
		"name": "Sunday Padel", "sport": "padel", "level": "beginner",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var product struct {
		ID   string `json:"id"`
		Slug string `json:"slug"`
	}
	decodeData(t, raw, &product)
	assert.Equal(t, "sunday-padel-beginner", product.Slug)

	resp, _ = s.do(t, http.MethodGet, "/api/products/"+product.Slug, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw = s.do(t, http.MethodPost, "/api/products/"+product.ID+"/memberships", member, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var membership struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decodeData(t, raw, &membership)
	assert.Equal(t, "PENDING", membership.Status)

	resp, _ = s.do(t, http.MethodPost, "/api/products/"+product.ID+"/memberships", member, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = s.do(t, http.MethodPost, "/api/memberships/"+membership.ID+"/accept", stranger, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, raw = s.do(t, http.MethodPost, "/api/memberships/"+membership.ID+"/accept", owner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	resp, _ = s.do(t, http.MethodPost, "/api/products/"+product.ID+"/messages", member, map[string]string{"content": "see you there"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = s.do(t, http.MethodPost, "/api/products/"+product.ID+"/messages", stranger, map[string]string{"content": "hi"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, raw = s.do(t, http.MethodGet, "/api/me/unread", owner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), product.ID)

	resp, raw = s.do(t, http.MethodGet, "/api/products/"+product.ID+"/messages?limit=10", owner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "see you there")
	assert.Contains(t, string(raw), "Mike joined the activity")
}

func TestRequestValidation(t *testing.T) {
	s := newTestServer(t)
	token := s.signIn(t, "Olivia", "olivia@example.com")

	resp, raw := s.do(t, http.MethodPost, "/api/products", token, map[string]string{"name": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(raw), "invalid input")

	resp, _ = s.do(t, http.MethodPost, "/api/memberships/not-a-uuid/accept", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(t, http.MethodGet, "/api/products/00000000-0000-0000-0000-000000000000/messages?before=yesterday", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req := httptest.NewRequest(http.MethodPost, "/api/feedback", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	bad, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	user := s.signIn(t, "Una", "una@example.com")
	admin := s.signIn(t, "Boss", "admin@sportpartner.test")

	resp, _ := s.do(t, http.MethodGet, "/api/admin/feedback", user, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = s.do(t, http.MethodPost, "/api/feedback", user, map[string]interface{}{"rating": 4, "text": "nice"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, raw := s.do(t, http.MethodGet, "/api/admin/feedback", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "nice")
}

func TestDeleteAccountClearsCookie(t *testing.T) {
	s := newTestServer(t)
	token := s.signIn(t, "Lea", "lea@example.com")

	resp, _ := s.do(t, http.MethodDelete, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cleared := false
	for _, ck := range resp.Cookies() {
		if ck.Name == middleware.SessionCookie && ck.Value == "" {
			cleared = true
		}
	}
	assert.True(t, cleared)

	resp, _ = s.do(t, http.MethodGet, "/api/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPublicResponsesHideEmails(t *testing.T) {
	s := newTestServer(t)
	owner := s.signIn(t, "Olivia", "olivia.private@example.com")
	reviewer := s.signIn(t, "Rita", "rita.private@example.com")

	resp, raw := s.do(t, http.MethodPost, "/api/products", owner, map[string]interface{}{
		"name": "Padel", "sport": "padel", "level": "beginner",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var product struct {
		ID   string `json:"id"`
		Slug string `json:"slug"`
	}
	decodeData(t, raw, &product)

	resp, raw = s.do(t, http.MethodPost, "/api/reviews", reviewer, map[string]interface{}{
		"product_id": product.ID, "rating": 4, "comment": "great court",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	resp, _ = s.do(t, http.MethodPost, "/api/products/"+product.ID+"/messages", owner, map[string]string{"content": "welcome"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	for path, name := range map[string]string{
		"/api/products":                            "Olivia",
		"/api/products/" + product.Slug:            "Olivia",
		"/api/products/" + product.ID + "/reviews": "Rita",
	} {
		resp, raw = s.do(t, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Contains(t, string(raw), name, path)
		assert.NotContains(t, string(raw), "private@example.com", path)
		assert.NotContains(t, string(raw), "is_admin", path)
	}

	resp, raw = s.do(t, http.MethodGet, "/api/products/"+product.ID+"/messages", owner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "welcome")
	assert.NotContains(t, string(raw), "private@example.com")

	resp, raw = s.do(t, http.MethodGet, "/api/me", reviewer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "rita.private@example.com")
	assert.Contains(t, string(raw), `"is_admin":false`)
}

func TestStravaConnectNeedsEncryptionInProduction(t *testing.T) {
	s := newTestServer(t)
	token := s.signIn(t, "Rhea", "rhea@example.com")

	resp, _ := s.do(t, http.MethodGet, "/api/connect/strava", token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, "no client id")

	s.cfg.StravaClientID = "strava-client"
	s.cfg.Env = "production"
	resp, _ = s.do(t, http.MethodGet, "/api/connect/strava", token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp, _ = s.do(t, http.MethodGet, "/api/connect/strava/callback", token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var count int64
	s.db.Model(&models.StravaConnection{}).Count(&count)
	assert.Zero(t, count)

	s.cfg.TokenEncryptionKey = "0123456789abcdef0123456789abcdef"
	resp, _ = s.do(t, http.MethodGet, "/api/connect/strava", token, nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}
