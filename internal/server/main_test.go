package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gatepost/internal/config"
	"gatepost/internal/database"
	"gatepost/internal/models"
	"gatepost/internal/repository"
	"gatepost/internal/service"
	"gatepost/internal/session"
)

const testCookie = "gatepost_session"

// newTestServer wires a Server over in-memory sqlite and in-memory sessions.
// Prometheus middleware is left out so repeated test setups do not re-register
// collectors.
func newTestServer(t *testing.T) (*fiber.App, *Server, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))

	cfg := &config.Config{
		Env:             "test",
		SessionCookie:   testCookie,
		SessionTTLHours: 1,
	}

	userRepo := repository.NewUserRepository(db)
	inviteRepo := repository.NewInviteRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	s := &Server{
		config:      cfg,
		db:          db,
		sessions:    session.NewMemoryStore(time.Hour),
		userRepo:    userRepo,
		inviteRepo:  inviteRepo,
		postRepo:    postRepo,
		commentRepo: commentRepo,
	}
	s.accountService = service.NewAccountService(db, userRepo, inviteRepo)
	s.postService = service.NewPostService(postRepo)
	s.commentService = service.NewCommentService(commentRepo, postRepo)

	app := fiber.New()
	s.SetupRoutes(app)

	return app, s, db
}

func seedInviteCode(t *testing.T, db *gorm.DB, code string) {
	t.Helper()
	require.NoError(t, db.Create(&models.InviteCode{Code: code}).Error)
}

// doJSON performs a request with an optional JSON body and session cookie.
func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}, cookie string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(data))
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: testCookie, Value: cookie})
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, dst), "body: %s", string(data))
}

// sessionCookie extracts the session token from Set-Cookie, "" when cleared.
func sessionCookie(t *testing.T, resp *http.Response) string {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == testCookie {
			return c.Value
		}
	}
	return ""
}

// registerUser registers an account through the API and returns its session token.
func registerUser(t *testing.T, app *fiber.App, db *gorm.DB, username, password, code string) string {
	t.Helper()
	seedInviteCode(t, db, code)
	resp := doJSON(t, app, http.MethodPost, "/register", map[string]string{
		"username":   username,
		"password":   password,
		"inviteCode": code,
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	token := sessionCookie(t, resp)
	require.NotEmpty(t, token)
	return token
}
