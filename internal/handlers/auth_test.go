package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/lavanda/internal/config"
	"github.com/example/lavanda/internal/middleware"
	"github.com/example/lavanda/internal/models"
	"github.com/example/lavanda/internal/services"
)

// fakeVerifier scripts provider responses for handler tests.
type fakeVerifier struct {
	check       *services.CallCheck
	requestErr  error
	statuses    []string
	statusErr   error
	statusCalls int
}

func (f *fakeVerifier) RequestCall(phone string) (*services.CallCheck, error) {
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	if f.check != nil {
		return f.check, nil
	}
	return &services.CallCheck{CheckID: "chk_test", CallPhone: "+78005553535"}, nil
}

func (f *fakeVerifier) CheckStatus(checkID string) (string, error) {
	f.statusCalls++
	if f.statusErr != nil {
		return "", f.statusErr
	}
	if len(f.statuses) == 0 {
		return models.VerificationPending, nil
	}
	status := f.statuses[0]
	if len(f.statuses) > 1 {
		f.statuses = f.statuses[1:]
	}
	return status, nil
}

func newAuthTestApp(t *testing.T, fake *fakeVerifier) (*fiber.App, *gorm.DB, *config.Config) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.CallVerification{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	cfg := &config.Config{
		JWTSecret:           "test-secret",
		TokenExpires:        time.Hour,
		CallWindow:          300 * time.Second,
		CallPollInterval:    3 * time.Second,
		CallAttemptLimit:    3,
		CallAttemptCooldown: 600 * time.Second,
	}

	// Unreachable Redis: the limiter fails open, which is what these
	// tests need anyway.
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	limiter := services.NewAttemptLimiter(rdb, cfg.CallAttemptLimit, cfg.CallAttemptCooldown)

	handler := NewAuthHandler(db, cfg, fake, limiter)

	app := fiber.New()
	app.Post("/api/auth/call/request", handler.RequestCall)
	app.Post("/api/auth/call/status", handler.CallStatus)
	app.Post("/api/auth/logout", handler.Logout)
	app.Get("/api/auth/me", middleware.AuthMiddleware(cfg), handler.Me)

	return app, db, cfg
}

func postJSON(t *testing.T, app *fiber.App, path string, payload any) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return body
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookie && c.Value != "" {
			return c
		}
	}
	return nil
}

func TestRequestCallCreatesAttempt(t *testing.T) {
	fake := &fakeVerifier{}
	app, db, cfg := newAuthTestApp(t, fake)

	resp := postJSON(t, app, "/api/auth/call/request", map[string]string{
		"phone": "8 (916) 123-45-67",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	if body["check_id"] != "chk_test" {
		t.Errorf("check_id = %v", body["check_id"])
	}
	if body["call_phone_pretty"] != "+7 (800) 555-35-35" {
		t.Errorf("call_phone_pretty = %v", body["call_phone_pretty"])
	}
	if int(body["expires_in"].(float64)) != int(cfg.CallWindow.Seconds()) {
		t.Errorf("expires_in = %v", body["expires_in"])
	}
	if int(body["poll_interval"].(float64)) != 3 {
		t.Errorf("poll_interval = %v", body["poll_interval"])
	}

	var verification models.CallVerification
	if err := db.First(&verification, "check_id = ?", "chk_test").Error; err != nil {
		t.Fatalf("verification row missing: %v", err)
	}
	if verification.Phone != "+79161234567" {
		t.Errorf("stored phone = %q, want normalized form", verification.Phone)
	}
	if verification.Status != models.VerificationPending {
		t.Errorf("status = %q, want pending", verification.Status)
	}
}

func TestRequestCallSupersedesPendingAttempt(t *testing.T) {
	fake := &fakeVerifier{}
	app, db, _ := newAuthTestApp(t, fake)

	postJSON(t, app, "/api/auth/call/request", map[string]string{"phone": "+79161234567"})
	fake.check = &services.CallCheck{CheckID: "chk_second", CallPhone: "+78005553535"}
	postJSON(t, app, "/api/auth/call/request", map[string]string{"phone": "+79161234567"})

	var count int64
	db.Model(&models.CallVerification{}).Where("phone = ?", "+79161234567").Count(&count)
	if count != 1 {
		t.Errorf("pending attempts = %d, want only the newest", count)
	}
}

func TestRequestCallRejectsInvalidPhone(t *testing.T) {
	app, _, _ := newAuthTestApp(t, &fakeVerifier{})

	resp := postJSON(t, app, "/api/auth/call/request", map[string]string{"phone": "12345"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestRequestCallProviderDown(t *testing.T) {
	fake := &fakeVerifier{requestErr: services.ErrCallProviderDisabled}
	app, _, _ := newAuthTestApp(t, fake)

	resp := postJSON(t, app, "/api/auth/call/request", map[string]string{"phone": "+79161234567"})
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", resp.StatusCode)
	}
}

func TestCallStatusVerifiedIssuesSession(t *testing.T) {
	fake := &fakeVerifier{statuses: []string{models.VerificationPending, models.VerificationVerified}}
	app, db, _ := newAuthTestApp(t, fake)

	postJSON(t, app, "/api/auth/call/request", map[string]string{"phone": "+79161234567"})

	poll := map[string]string{"check_id": "chk_test", "phone": "+79161234567"}

	// First poll: the user has not called yet.
	resp := postJSON(t, app, "/api/auth/call/status", poll)
	body := decodeBody(t, resp)
	if body["status"] != models.VerificationPending {
		t.Fatalf("first poll status = %v, want pending", body["status"])
	}
	if sessionCookie(resp) != nil {
		t.Fatal("pending poll must not set a session cookie")
	}

	// Second poll: the provider confirmed the inbound call.
	resp = postJSON(t, app, "/api/auth/call/status", poll)
	body = decodeBody(t, resp)
	if body["status"] != models.VerificationVerified {
		t.Fatalf("second poll status = %v, want verified", body["status"])
	}

	cookie := sessionCookie(resp)
	if cookie == nil {
		t.Fatal("verified poll must set the session cookie")
	}
	if !cookie.HttpOnly {
		t.Error("session cookie must be HTTP-only")
	}

	// First login creates the account at the entry tier.
	var user models.User
	if err := db.First(&user, "phone = ?", "+79161234567").Error; err != nil {
		t.Fatalf("user was not created: %v", err)
	}
	if user.BonusLevel != models.LevelBronze {
		t.Errorf("new user level = %q, want bronze", user.BonusLevel)
	}

	// The resolved attempt is gone.
	var count int64
	db.Model(&models.CallVerification{}).Where("check_id = ?", "chk_test").Count(&count)
	if count != 0 {
		t.Errorf("verification rows = %d, want 0 after success", count)
	}

	// The cookie authenticates /me.
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(cookie)
	meResp, err := app.Test(req)
	if err != nil {
		t.Fatalf("me request failed: %v", err)
	}
	if meResp.StatusCode != http.StatusOK {
		t.Errorf("me status = %d, want 200", meResp.StatusCode)
	}
}

func TestCallStatusLocalWindowIsAuthoritative(t *testing.T) {
	// The provider would say verified, but the local window has elapsed.
	fake := &fakeVerifier{statuses: []string{models.VerificationVerified}}
	app, db, _ := newAuthTestApp(t, fake)

	verification := models.CallVerification{
		Phone:     "+79161234567",
		CheckID:   "chk_old",
		CallPhone: "+78005553535",
		Status:    models.VerificationPending,
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	if err := db.Create(&verification).Error; err != nil {
		t.Fatalf("failed to seed verification: %v", err)
	}

	resp := postJSON(t, app, "/api/auth/call/status",
		map[string]string{"check_id": "chk_old", "phone": "+79161234567"})
	body := decodeBody(t, resp)

	if body["status"] != models.VerificationExpired {
		t.Errorf("status = %v, want expired", body["status"])
	}
	if sessionCookie(resp) != nil {
		t.Error("expired attempt must never authenticate")
	}
	if fake.statusCalls != 0 {
		t.Errorf("provider polled %d times, want 0 for expired attempts", fake.statusCalls)
	}

	var count int64
	db.Model(&models.CallVerification{}).Where("check_id = ?", "chk_old").Count(&count)
	if count != 0 {
		t.Errorf("expired attempt should be discarded, %d rows left", count)
	}
}

func TestCallStatusPhoneMismatch(t *testing.T) {
	fake := &fakeVerifier{}
	app, _, _ := newAuthTestApp(t, fake)

	postJSON(t, app, "/api/auth/call/request", map[string]string{"phone": "+79161234567"})

	resp := postJSON(t, app, "/api/auth/call/status",
		map[string]string{"check_id": "chk_test", "phone": "+79997654321"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCallStatusUnknownCheck(t *testing.T) {
	app, _, _ := newAuthTestApp(t, &fakeVerifier{})

	resp := postJSON(t, app, "/api/auth/call/status",
		map[string]string{"check_id": "chk_missing", "phone": "+79161234567"})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestCallStatusProviderErrorIsTransient(t *testing.T) {
	fake := &fakeVerifier{statusErr: services.ErrCallProviderDisabled}
	app, db, _ := newAuthTestApp(t, fake)

	postJSON(t, app, "/api/auth/call/request", map[string]string{"phone": "+79161234567"})

	resp := postJSON(t, app, "/api/auth/call/status",
		map[string]string{"check_id": "chk_test", "phone": "+79161234567"})
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", resp.StatusCode)
	}

	// The attempt survives: the client keeps polling.
	var count int64
	db.Model(&models.CallVerification{}).Where("check_id = ?", "chk_test").Count(&count)
	if count != 1 {
		t.Errorf("verification rows = %d, attempt must survive a transient error", count)
	}
}

func TestMeRequiresSession(t *testing.T) {
	app, _, _ := newAuthTestApp(t, &fakeVerifier{})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}
