package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/tuitionhub/server/internal/auth"
	"github.com/tuitionhub/server/internal/config"
	"github.com/tuitionhub/server/internal/db"
	"github.com/tuitionhub/server/internal/handlers"
	"github.com/tuitionhub/server/internal/logging"
	"github.com/tuitionhub/server/internal/services"
)

func testEnv(t *testing.T) *handlers.Env {
	t.Helper()
	gdb, err := db.Open(config.Database{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "web.db")})
	require.NoError(t, err)
	gdb.Logger = logger.Default.LogMode(logger.Silent)
	return &handlers.Env{
		DB:       gdb,
		Log:      logging.Discard(),
		Sessions: auth.NewSessions("test-secret", time.Hour, false),
		BaseURL:  "http://tuition.test",
		Loc:      time.UTC,
	}
}

func TestRouterHealthz(t *testing.T) {
	r := Router(testEnv(t))
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouterMetrics(t *testing.T) {
	rec := httptest.NewRecorder()
	Router(testEnv(t)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tuition_payments_recorded_total")
}

func TestRouterGuards(t *testing.T) {
	env := testEnv(t)
	r := Router(env)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/batches", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	_, err := services.CreateTeacher(env.DB, services.AccountInput{Name: "T", Email: "t@example.com", Password: "password1"})
	require.NoError(t, err)

	body, _ := json.Marshal(map[string]string{"email": "t@example.com", "password": "password1"})
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	withSession := func(method, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.AddCookie(cookies[0])
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}
	assert.Equal(t, http.StatusOK, withSession(http.MethodGet, "/api/batches").Code)
	assert.Equal(t, http.StatusOK, withSession(http.MethodGet, "/api/dashboard").Code)
	assert.Equal(t, http.StatusForbidden, withSession(http.MethodGet, "/api/admin/stats").Code)
}

func TestRouterDashboardIsTeacherOnly(t *testing.T) {
	env := testEnv(t)
	r := Router(env)

	admin, err := services.CreateSuperAdmin(env.DB, services.AccountInput{Name: "A", Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)
	token, _, err := env.Sessions.Issue(*admin)
	require.NoError(t, err)

	get := func(path string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusForbidden, get("/api/dashboard"))
	assert.Equal(t, http.StatusOK, get("/api/admin/stats"))
	assert.Equal(t, http.StatusOK, get("/api/batches"))
}
