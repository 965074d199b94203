package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"contacts/internal/app"
	"contacts/internal/config"
	"contacts/internal/database"
	"contacts/internal/repositories"
	"contacts/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testJWTSecret = "test_jwt_secret"

// recordingNotifier keeps the last verification token sent to each email.
type recordingNotifier struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (n *recordingNotifier) NotifyVerification(_ context.Context, email, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tokens[email] = token
	return nil
}

func (n *recordingNotifier) token(email string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.tokens[email]
}

type fakeAvatarStore struct {
	url  string
	err  error
	body []byte
}

func (s *fakeAvatarStore) Upload(_ context.Context, folder string, body io.Reader, _ int64, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.body, _ = io.ReadAll(body)
	return s.url + folder + "/avatar.png", nil
}

type testEnv struct {
	app      *fiber.App
	db       *gorm.DB
	notifier *recordingNotifier
	avatars  *fakeAvatarStore
}

// setupApp builds the full app on top of a private in-memory SQLite database.
func setupApp(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		AppBaseURL: "http://localhost:8080",
		Database: config.Database{
			Driver: "sqlite",
			DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString()),
		},
		JWT:        config.JWT{Secret: testJWTSecret, TTL: 30 * time.Minute},
		RateLimit:  config.RateLimit{Max: 5, Window: time.Minute},
		BcryptCost: bcrypt.MinCost,
	}

	db, err := database.Open(cfg.Database, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	env := &testEnv{
		db:       db,
		notifier: &recordingNotifier{tokens: make(map[string]string)},
		avatars:  &fakeAvatarStore{url: "https://cdn.example.com/"},
	}
	env.app = app.New(cfg, app.Deps{
		DB:       db,
		Log:      zap.NewNop(),
		Notifier: env.notifier,
		Avatars:  env.avatars,
	})
	return env
}

func (e *testEnv) do(t *testing.T, req *http.Request) (int, []byte, http.Header) {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body, resp.Header
}

func jsonRequest(method, path string, payload interface{}, token string) *http.Request {
	var body io.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func loginRequest(email, password string) *http.Request {
	form := url.Values{"username": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func decode(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out
}

func (e *testEnv) register(t *testing.T, email, password string) map[string]interface{} {
	t.Helper()
	status, body, _ := e.do(t, jsonRequest(http.MethodPost, "/register/", fiber.Map{"email": email, "password": password}, ""))
	require.Equal(t, http.StatusOK, status, string(body))
	return decode(t, body)
}

func (e *testEnv) verify(t *testing.T, email string) {
	t.Helper()
	path := "/verify-email/?token=" + url.QueryEscape(e.notifier.token(email))
	status, body, _ := e.do(t, httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusOK, status, string(body))
}

func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	status, body, _ := e.do(t, loginRequest(email, password))
	require.Equal(t, http.StatusOK, status, string(body))
	return decode(t, body)["access_token"].(string)
}

// signIn registers, verifies and logs a user in, returning a bearer token.
func (e *testEnv) signIn(t *testing.T, email string) string {
	t.Helper()
	e.register(t, email, "secret")
	e.verify(t, email)
	return e.login(t, email, "secret")
}

func sampleContact() fiber.Map {
	return fiber.Map{
		"first_name":      "Grace",
		"last_name":       "Hopper",
		"email":           "grace@example.com",
		"phone":           "+1-555-0100",
		"birthday":        "1906-12-09",
		"additional_info": "COBOL",
	}
}

func TestRegister(t *testing.T) {
	env := setupApp(t)

	user := env.register(t, "ada@example.com", "secret")
	assert.Equal(t, "ada@example.com", user["email"])
	assert.Equal(t, false, user["is_verified"])
	assert.Nil(t, user["avatar_url"])
	assert.NotZero(t, user["id"])
	assert.NotContains(t, user, "password_hash")
	assert.NotEmpty(t, env.notifier.token("ada@example.com"))

	status, body, _ := env.do(t, jsonRequest(http.MethodPost, "/register/", fiber.Map{"email": "ada@example.com", "password": "other"}, ""))
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "User with this email already exists", decode(t, body)["detail"])
}

func TestRegister_Validation(t *testing.T) {
	env := setupApp(t)

	status, body, _ := env.do(t, jsonRequest(http.MethodPost, "/register/", fiber.Map{"email": "not-an-email"}, ""))
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	errs := decode(t, body)["errors"].(map[string]interface{})
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password")

	req := httptest.NewRequest(http.MethodPost, "/register/", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	status, _, _ = env.do(t, req)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestVerifyEmail(t *testing.T) {
	env := setupApp(t)
	env.register(t, "ada@example.com", "secret")
	path := "/verify-email/?token=" + env.notifier.token("ada@example.com")

	status, body, _ := env.do(t, httptest.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Email verified successfully", decode(t, body)["msg"])

	// A token works exactly once.
	status, body, _ = env.do(t, httptest.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid token", decode(t, body)["detail"])

	status, _, _ = env.do(t, httptest.NewRequest(http.MethodGet, "/verify-email/?token=", nil))
	assert.Equal(t, http.StatusBadRequest, status)

	status, _, _ = env.do(t, httptest.NewRequest(http.MethodGet, "/verify-email/", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestLogin(t *testing.T) {
	env := setupApp(t)
	env.register(t, "ada@example.com", "secret")

	status, body, _ := env.do(t, loginRequest("ada@example.com", "secret"))
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Email not verified", decode(t, body)["detail"])

	env.verify(t, "ada@example.com")

	status, body, _ = env.do(t, loginRequest("ada@example.com", "wrong"))
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Incorrect email or password", decode(t, body)["detail"])

	status, body, _ = env.do(t, loginRequest("nobody@example.com", "secret"))
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Incorrect email or password", decode(t, body)["detail"])

	status, body, _ = env.do(t, loginRequest("ada@example.com", "secret"))
	require.Equal(t, http.StatusOK, status)
	resp := decode(t, body)
	assert.Equal(t, "bearer", resp["token_type"])

	subject, err := services.NewTokenService(testJWTSecret, time.Minute).Verify(resp["access_token"].(string))
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", subject)

	status, _, _ = env.do(t, loginRequest("", ""))
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestBearerAuthentication(t *testing.T) {
	env := setupApp(t)

	status, body, headers := env.do(t, jsonRequest(http.MethodPost, "/contacts/", sampleContact(), ""))
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Not authenticated", decode(t, body)["detail"])
	assert.Equal(t, "Bearer", headers.Get("WWW-Authenticate"))

	status, body, _ = env.do(t, jsonRequest(http.MethodPost, "/contacts/", sampleContact(), "garbage"))
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Could not validate credentials", decode(t, body)["detail"])

	ghost, err := services.NewTokenService(testJWTSecret, time.Minute).Issue("ghost@example.com")
	require.NoError(t, err)
	status, body, _ = env.do(t, jsonRequest(http.MethodPost, "/contacts/", sampleContact(), ghost))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "User not found", decode(t, body)["detail"])
}

func TestContactLifecycle(t *testing.T) {
	env := setupApp(t)
	token := env.signIn(t, "ada@example.com")

	status, body, _ := env.do(t, jsonRequest(http.MethodPost, "/contacts/", sampleContact(), token))
	require.Equal(t, http.StatusOK, status, string(body))
	created := decode(t, body)
	assert.Equal(t, "1906-12-09", created["birthday"])
	assert.NotZero(t, created["owner_id"])
	path := fmt.Sprintf("/contacts/%v", created["id"])

	status, body, _ = env.do(t, httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, created, decode(t, body))

	status, body, _ = env.do(t, jsonRequest(http.MethodPut, path, fiber.Map{"phone": "+1-555-0199"}, ""))
	require.Equal(t, http.StatusOK, status, string(body))
	updated := decode(t, body)
	assert.Equal(t, "+1-555-0199", updated["phone"])
	assert.Equal(t, "Grace", updated["first_name"])
	assert.Equal(t, "1906-12-09", updated["birthday"])

	status, body, _ = env.do(t, httptest.NewRequest(http.MethodGet, "/contacts/", nil))
	require.Equal(t, http.StatusOK, status)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "+1-555-0199", list[0]["phone"])

	status, body, _ = env.do(t, httptest.NewRequest(http.MethodDelete, path, nil))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, decode(t, body)["ok"])

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		status, body, _ = env.do(t, httptest.NewRequest(method, path, nil))
		assert.Equal(t, http.StatusNotFound, status, method)
		assert.Equal(t, "Contact not found", decode(t, body)["detail"])
	}
	status, _, _ = env.do(t, jsonRequest(http.MethodPut, path, fiber.Map{"phone": "x"}, ""))
	assert.Equal(t, http.StatusNotFound, status)
}

func TestContacts_EmptyList(t *testing.T) {
	env := setupApp(t)

	status, body, _ := env.do(t, httptest.NewRequest(http.MethodGet, "/contacts/", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, "[]", string(body))
}

func TestContacts_Validation(t *testing.T) {
	env := setupApp(t)
	token := env.signIn(t, "ada@example.com")

	incomplete := sampleContact()
	delete(incomplete, "birthday")
	status, body, _ := env.do(t, jsonRequest(http.MethodPost, "/contacts/", incomplete, token))
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, decode(t, body)["errors"], "birthday")

	badDate := sampleContact()
	badDate["birthday"] = "09/12/1906"
	status, _, _ = env.do(t, jsonRequest(http.MethodPost, "/contacts/", badDate, token))
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		status, _, _ = env.do(t, httptest.NewRequest(method, "/contacts/abc", nil))
		assert.Equal(t, http.StatusUnprocessableEntity, status, method)
	}
}

func TestCreateContact_RateLimited(t *testing.T) {
	env := setupApp(t)

	// The limiter runs before authentication, so rejected calls count too.
	for i := 0; i < 5; i++ {
		status, _, _ := env.do(t, jsonRequest(http.MethodPost, "/contacts/", sampleContact(), ""))
		require.Equal(t, http.StatusUnauthorized, status, "request %d", i+1)
	}

	status, body, _ := env.do(t, jsonRequest(http.MethodPost, "/contacts/", sampleContact(), ""))
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "Too Many Requests", decode(t, body)["detail"])

	// Other routes are not limited.
	status, _, _ = env.do(t, httptest.NewRequest(http.MethodGet, "/contacts/", nil))
	assert.Equal(t, http.StatusOK, status)
}

func avatarRequest(t *testing.T, token string, withFile bool) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if withFile {
		part, err := w.CreateFormFile("file", "me.png")
		require.NoError(t, err)
		_, err = part.Write([]byte("png-bytes"))
		require.NoError(t, err)
	} else {
		require.NoError(t, w.WriteField("other", "value"))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPut, "/users/avatar/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestUpdateAvatar(t *testing.T) {
	env := setupApp(t)
	token := env.signIn(t, "ada@example.com")

	status, body, _ := env.do(t, avatarRequest(t, token, true))
	require.Equal(t, http.StatusOK, status, string(body))
	resp := decode(t, body)
	assert.Equal(t, "Avatar updated", resp["msg"])
	assert.Equal(t, "https://cdn.example.com/avatars/avatar.png", resp["avatar_url"])
	assert.Equal(t, "png-bytes", string(env.avatars.body))

	user, err := repositories.NewGORMUserRepository(env.db).GetByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	require.NotNil(t, user.AvatarURL)
	assert.Equal(t, "https://cdn.example.com/avatars/avatar.png", *user.AvatarURL)

	status, _, _ = env.do(t, avatarRequest(t, token, false))
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _, _ = env.do(t, avatarRequest(t, "", true))
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestUpdateAvatar_UploadFailure(t *testing.T) {
	env := setupApp(t)
	token := env.signIn(t, "ada@example.com")
	env.avatars.err = errors.New("bucket unavailable")

	status, _, _ := env.do(t, avatarRequest(t, token, true))
	assert.Equal(t, http.StatusInternalServerError, status)

	user, err := repositories.NewGORMUserRepository(env.db).GetByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Nil(t, user.AvatarURL)
}

func TestCORS(t *testing.T) {
	env := setupApp(t)

	req := httptest.NewRequest(http.MethodGet, "/contacts/", nil)
	req.Header.Set("Origin", "https://frontend.example.com")
	status, _, headers := env.do(t, req)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "*", headers.Get("Access-Control-Allow-Origin"))
}

func TestHealthAndMetrics(t *testing.T) {
	env := setupApp(t)

	status, body, headers := env.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", decode(t, body)["status"])
	assert.NotEmpty(t, headers.Get("X-Request-ID"))

	status, body, _ = env.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `http_requests_total{method="GET",path="/health",status="200"} 1`)
}

func TestUnhandledErrorIsInternalServerError(t *testing.T) {
	env := setupApp(t)
	require.NoError(t, database.Close(env.db))

	status, body, _ := env.do(t, httptest.NewRequest(http.MethodGet, "/contacts/", nil))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Internal Server Error", decode(t, body)["detail"])
}
