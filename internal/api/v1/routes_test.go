package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"task-manager/configs"
	"task-manager/internal/auth"
	"task-manager/internal/config"
	"task-manager/internal/repository"
	"task-manager/pkg/database"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func testConfig() configs.Config {
	return configs.Config{
		AppName:                  "Task Manager API",
		AppVersion:               "test",
		DBDriver:                 "sqlite",
		SecretKey:                testSecret,
		Algorithm:                "HS256",
		AccessTokenExpireMinutes: 30,
		BcryptCost:               4,
		PasswordMinLength:        8,
		UsernameMinLength:        3,
		UsernameMaxLength:        50,
		TitleMaxLength:           255,
		DescriptionMaxLength:     2000,
		DefaultLimit:             100,
		MaxLimit:                 100,
		CacheTTL:                 time.Minute,
	}
}

// CreateTestApp membuat app dengan database sqlite sementara.
func CreateTestApp(t *testing.T) *fiber.App {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, repository.CreateTableIfNotExists(context.Background(), db, repository.SQLite))

	deps, err := config.NewDependencies(testConfig(), db, repository.SQLite, nil)
	require.NoError(t, err)
	return NewApp(deps)
}

type response struct {
	Status int
	Header http.Header
	Body   map[string]any
}

func do(t *testing.T, app *fiber.App, method, path, token string, body any) response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return send(t, app, req)
}

func send(t *testing.T, app *fiber.App, req *http.Request) response {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := response{Status: resp.StatusCode, Header: resp.Header}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out.Body), string(raw))
	}
	return out
}

func register(t *testing.T, app *fiber.App, username, password string) response {
	t.Helper()
	return do(t, app, http.MethodPost, "/api/v1/auth/register", "",
		map[string]string{"username": username, "password": password})
}

// login memakai form urlencoded seperti OAuth2 password flow.
func login(t *testing.T, app *fiber.App, username, password string) response {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return send(t, app, req)
}

func tokenFor(t *testing.T, app *fiber.App, username string) string {
	t.Helper()
	require.Equal(t, http.StatusCreated, register(t, app, username, "password123").Status)
	resp := login(t, app, username, "password123")
	require.Equal(t, http.StatusOK, resp.Status)
	return resp.Body["access_token"].(string)
}

func createTask(t *testing.T, app *fiber.App, token, title string) int {
	t.Helper()
	resp := do(t, app, http.MethodPost, "/api/v1/tasks", token, map[string]any{"title": title})
	require.Equal(t, http.StatusCreated, resp.Status)
	return int(resp.Body["id"].(float64))
}

func TestRootAndHealth(t *testing.T) {
	app := CreateTestApp(t)

	resp := do(t, app, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "Welcome to Task Manager API", resp.Body["message"])

	resp = do(t, app, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "healthy", resp.Body["status"])
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestRegisterAndLogin(t *testing.T) {
	app := CreateTestApp(t)

	resp := register(t, app, "alice", "password123")
	require.Equal(t, http.StatusCreated, resp.Status)
	assert.Equal(t, "alice", resp.Body["username"])
	assert.NotNil(t, resp.Body["id"])
	assert.NotContains(t, resp.Body, "password_hash")

	resp = register(t, app, "alice", "password123")
	assert.Equal(t, http.StatusConflict, resp.Status)
	assert.Equal(t, false, resp.Body["success"])

	resp = login(t, app, "alice", "wrongpass")
	assert.Equal(t, http.StatusUnauthorized, resp.Status)
	assert.Equal(t, "Incorrect username or password", resp.Body["message"])
	assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))

	unknown := login(t, app, "nobody", "password123")
	assert.Equal(t, resp.Status, unknown.Status)
	assert.Equal(t, resp.Body, unknown.Body)

	resp = login(t, app, "alice", "password123")
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "bearer", resp.Body["token_type"])
	token, _ := resp.Body["access_token"].(string)
	assert.NotEmpty(t, token)

	// JSON login juga diterima
	resp = do(t, app, http.MethodPost, "/api/v1/auth/login", "",
		map[string]string{"username": "alice", "password": "password123"})
	assert.Equal(t, http.StatusOK, resp.Status)

	resp = do(t, app, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "alice", resp.Body["username"])
}

func TestRegisterValidation(t *testing.T) {
	app := CreateTestApp(t)

	cases := map[string]map[string]string{
		"short password":   {"username": "alice", "password": "short"},
		"short username":   {"username": "al", "password": "password123"},
		"missing password": {"username": "alice"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp := do(t, app, http.MethodPost, "/api/v1/auth/register", "", body)
			assert.Equal(t, http.StatusBadRequest, resp.Status)
			assert.Equal(t, "Validation error", resp.Body["message"])
			assert.NotEmpty(t, resp.Body["errors"])
		})
	}
}

func TestRegisteredUserCanAlwaysLogin(t *testing.T) {
	app := CreateTestApp(t)

	resp := register(t, app, "     ", "password123")
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "Validation error", resp.Body["message"])

	resp = login(t, app, "     ", "password123")
	assert.Equal(t, http.StatusUnauthorized, resp.Status)

	// spasi di pinggir tetap bagian dari username
	resp = register(t, app, " bob ", "password123")
	require.Equal(t, http.StatusCreated, resp.Status)
	assert.Equal(t, " bob ", resp.Body["username"])

	resp = login(t, app, " bob ", "password123")
	require.Equal(t, http.StatusOK, resp.Status)
	token := resp.Body["access_token"].(string)

	resp = do(t, app, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, " bob ", resp.Body["username"])
}

func TestProtectedRoutesRejectBadTokens(t *testing.T) {
	app := CreateTestApp(t)
	token := tokenFor(t, app, "alice")

	expiredIssuer, err := auth.NewTokenManager([]byte(testSecret), "HS256", func() time.Time {
		return time.Now().Add(-time.Hour)
	})
	require.NoError(t, err)
	expired, err := expiredIssuer.Issue("alice", 30*time.Minute)
	require.NoError(t, err)

	forger, err := auth.NewTokenManager([]byte("another-secret"), "HS256", nil)
	require.NoError(t, err)
	forged, err := forger.Issue("alice", 30*time.Minute)
	require.NoError(t, err)

	ghostIssuer, err := auth.NewTokenManager([]byte(testSecret), "HS256", nil)
	require.NoError(t, err)
	ghost, err := ghostIssuer.Issue("ghost", 30*time.Minute)
	require.NoError(t, err)

	headers := map[string]string{
		"missing":     "",
		"malformed":   "Token " + token,
		"garbage":     "Bearer not-a-jwt",
		"expired":     "Bearer " + expired,
		"forged":      "Bearer " + forged,
		"unknown sub": "Bearer " + ghost,
	}
	for name, header := range headers {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			resp := send(t, app, req)
			assert.Equal(t, http.StatusUnauthorized, resp.Status)
			assert.Equal(t, "Could not validate credentials", resp.Body["message"])
			assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
		})
	}

	// skema case-insensitive
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
	req.Header.Set("Authorization", "bearer "+token)
	assert.Equal(t, http.StatusOK, send(t, app, req).Status)
}

func TestTaskLifecycle(t *testing.T) {
	app := CreateTestApp(t)
	token := tokenFor(t, app, "alice")

	resp := do(t, app, http.MethodPost, "/api/v1/tasks", token,
		map[string]any{"title": "Buy milk", "description": "2 litres"})
	require.Equal(t, http.StatusCreated, resp.Status)
	assert.Equal(t, "Buy milk", resp.Body["title"])
	assert.Equal(t, false, resp.Body["completed"])
	id := int(resp.Body["id"].(float64))
	path := fmt.Sprintf("/api/v1/tasks/%d", id)

	resp = do(t, app, http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "2 litres", resp.Body["description"])

	resp = do(t, app, http.MethodPatch, path, token, map[string]any{"title": "Buy oat milk"})
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "Buy oat milk", resp.Body["title"])
	assert.Equal(t, "2 litres", resp.Body["description"])

	resp = do(t, app, http.MethodPut, path, token, map[string]any{"description": nil})
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Nil(t, resp.Body["description"])

	resp = do(t, app, http.MethodPatch, path, token, map[string]any{"title": nil})
	assert.Equal(t, http.StatusBadRequest, resp.Status)

	for i := 0; i < 2; i++ {
		resp = do(t, app, http.MethodPatch, path+"/complete", token, nil)
		require.Equal(t, http.StatusOK, resp.Status)
		assert.Equal(t, true, resp.Body["completed"])
	}
	resp = do(t, app, http.MethodPatch, path+"/incomplete", token, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, false, resp.Body["completed"])

	resp = do(t, app, http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "Task deleted successfully", resp.Body["message"])

	resp = do(t, app, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.Status)
	resp = do(t, app, http.MethodGet, path, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.Status)

	resp = do(t, app, http.MethodGet, "/api/v1/tasks/abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Status)
}

func TestCreateTaskValidation(t *testing.T) {
	app := CreateTestApp(t)
	token := tokenFor(t, app, "alice")

	for name, body := range map[string]map[string]any{
		"missing title": {"description": "x"},
		"blank title":   {"title": "   "},
		"long title":    {"title": strings.Repeat("t", 256)},
	} {
		t.Run(name, func(t *testing.T) {
			resp := do(t, app, http.MethodPost, "/api/v1/tasks", token, body)
			assert.Equal(t, http.StatusBadRequest, resp.Status)
		})
	}
}

func TestUpdateTaskNeedsJSONFields(t *testing.T) {
	app := CreateTestApp(t)
	token := tokenFor(t, app, "alice")
	id := createTask(t, app, token, "Buy milk")
	path := fmt.Sprintf("/api/v1/tasks/%d", id)

	before := do(t, app, http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, before.Status)

	form := url.Values{"title": {"Buy oat milk"}, "completed": {"true"}}
	req := httptest.NewRequest(http.MethodPatch, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+token)
	resp := send(t, app, req)
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "Content-Type must be application/json", resp.Body["message"])

	resp = do(t, app, http.MethodPut, path, token, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "Validation error", resp.Body["message"])
	assert.NotEmpty(t, resp.Body["errors"])

	// field yang tidak dikenal tidak dihitung sebagai perubahan
	resp = do(t, app, http.MethodPatch, path, token, map[string]any{"owner_id": 2})
	assert.Equal(t, http.StatusBadRequest, resp.Status)

	after := do(t, app, http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, after.Status)
	assert.Equal(t, "Buy milk", after.Body["title"])
	assert.Equal(t, false, after.Body["completed"])
	assert.Equal(t, before.Body["updated_at"], after.Body["updated_at"])
}

func TestBobCannotSeeAlicesTask(t *testing.T) {
	app := CreateTestApp(t)
	alice := tokenFor(t, app, "alice")
	bob := tokenFor(t, app, "bob")

	id := createTask(t, app, alice, "Buy milk")
	path := fmt.Sprintf("/api/v1/tasks/%d", id)

	foreign := do(t, app, http.MethodGet, path, bob, nil)
	missing := do(t, app, http.MethodGet, fmt.Sprintf("/api/v1/tasks/%d", id+100), bob, nil)
	assert.Equal(t, http.StatusNotFound, foreign.Status)
	assert.Equal(t, missing.Status, foreign.Status)
	assert.Equal(t, missing.Body, foreign.Body)

	assert.Equal(t, http.StatusNotFound, do(t, app, http.MethodPatch, path, bob, map[string]any{"title": "mine"}).Status)
	assert.Equal(t, http.StatusNotFound, do(t, app, http.MethodPatch, path+"/complete", bob, nil).Status)
	assert.Equal(t, http.StatusNotFound, do(t, app, http.MethodDelete, path, bob, nil).Status)

	list := do(t, app, http.MethodGet, "/api/v1/tasks", bob, nil)
	require.Equal(t, http.StatusOK, list.Status)
	assert.Equal(t, float64(0), list.Body["total"])
	assert.Empty(t, list.Body["items"])

	// task alice tetap utuh
	own := do(t, app, http.MethodGet, path, alice, nil)
	require.Equal(t, http.StatusOK, own.Status)
	assert.Equal(t, "Buy milk", own.Body["title"])
	assert.Equal(t, false, own.Body["completed"])
}

func TestListTasksPagination(t *testing.T) {
	app := CreateTestApp(t)
	token := tokenFor(t, app, "alice")

	for _, title := range []string{"a", "b", "c"} {
		createTask(t, app, token, title)
	}

	resp := do(t, app, http.MethodGet, "/api/v1/tasks", token, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, float64(3), resp.Body["total"])
	assert.Equal(t, float64(0), resp.Body["skip"])
	assert.Equal(t, float64(100), resp.Body["limit"])

	resp = do(t, app, http.MethodGet, "/api/v1/tasks?skip=1&limit=1", token, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	items := resp.Body["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "b", items[0].(map[string]any)["title"])

	resp = do(t, app, http.MethodGet, "/api/v1/tasks?completed=true", token, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, float64(0), resp.Body["total"])

	for _, query := range []string{"skip=-1", "limit=0", "limit=101", "limit=x", "completed=maybe"} {
		resp = do(t, app, http.MethodGet, "/api/v1/tasks?"+query, token, nil)
		assert.Equal(t, http.StatusBadRequest, resp.Status, query)
	}
}

func TestStatistics(t *testing.T) {
	app := CreateTestApp(t)
	token := tokenFor(t, app, "alice")

	resp := do(t, app, http.MethodGet, "/api/v1/tasks/statistics", token, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, float64(0), resp.Body["total"])
	assert.Equal(t, float64(0), resp.Body["completion_percentage"])

	first := createTask(t, app, token, "Task 1")
	createTask(t, app, token, "Task 2")
	require.Equal(t, http.StatusOK,
		do(t, app, http.MethodPatch, fmt.Sprintf("/api/v1/tasks/%d/complete", first), token, nil).Status)

	for _, path := range []string{"/api/v1/tasks/statistics", "/api/v1/auth/statistics"} {
		resp = do(t, app, http.MethodGet, path, token, nil)
		require.Equal(t, http.StatusOK, resp.Status)
		assert.Equal(t, map[string]any{
			"total":                 float64(2),
			"completed":             float64(1),
			"pending":               float64(1),
			"completion_percentage": 50.0,
		}, resp.Body)
	}
}

func TestDeleteAccount(t *testing.T) {
	app := CreateTestApp(t)
	token := tokenFor(t, app, "alice")
	createTask(t, app, token, "Buy milk")

	resp := do(t, app, http.MethodDelete, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, resp.Status)

	// token lama tidak lagi valid karena subject sudah hilang
	resp = do(t, app, http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Status)

	again := tokenFor(t, app, "alice")
	list := do(t, app, http.MethodGet, "/api/v1/tasks", again, nil)
	require.Equal(t, http.StatusOK, list.Status)
	assert.Equal(t, float64(0), list.Body["total"])
}

func TestUnknownRoute(t *testing.T) {
	app := CreateTestApp(t)
	resp := do(t, app, http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, false, resp.Body["success"])
}
