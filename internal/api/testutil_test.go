package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"smartbreath-backend/config"
	"smartbreath-backend/internal/auth"
	"smartbreath-backend/internal/model"
	"smartbreath-backend/internal/report"
	"smartbreath-backend/internal/store"
)

const testSecret = "handler-test-secret"

// recordingNotifier captures dispatched machine ids.
type recordingNotifier struct {
	dispatched []string
}

func (n *recordingNotifier) Dispatch(machineID string) {
	n.dispatched = append(n.dispatched, machineID)
}

type testEnv struct {
	router   *gin.Engine
	store    store.Store
	notifier *recordingNotifier
}

func newTestEnv(t *testing.T, name string) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:api_%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Machine{},
		&model.Record{},
		&model.PushSubscription{},
	))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	authCfg := config.AuthConfig{
		JWTSecret:       testSecret,
		TokenTTLMinutes: 60,
		BcryptCost:      4,
		ClientLabel:     "client",
	}

	appStore := store.NewGormStore(db)
	notifier := &recordingNotifier{}
	handler := NewHandler(appStore, auth.NewGuard(authCfg.ClientLabel),
		report.NewService(time.Minute), notifier, authCfg, nil)
	router := NewRouter(handler, &config.ServerConfig{
		RateLimitPerSec: 10000,
		RateLimitBurst:  10000,
	})

	return &testEnv{router: router, store: appStore, notifier: notifier}
}

// do performs a JSON request against the test router.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// registerUser creates a user through the store and returns it with a token.
func (e *testEnv) registerUser(t *testing.T, username string) (*model.User, string) {
	t.Helper()

	hash, err := auth.HashPassword("password123", 4)
	require.NoError(t, err)

	user, err := e.store.CreateUser(context.Background(), store.CreateUserInput{
		FirstName: "Test", LastName: "Person", Username: username,
		Email: username + "@example.com", PasswordHash: hash, DOB: "1990-01-01",
		Weight: 70, Height: 175, Gender: model.GenderOther,
	})
	require.NoError(t, err)

	token, err := auth.IssueToken(user.ID, user.Username, "", testSecret, time.Hour)
	require.NoError(t, err)
	return user, token
}

// clientToken issues a token carrying the privileged client label.
func clientToken(t *testing.T) string {
	t.Helper()
	token, err := auth.IssueToken("service-1", "poller", "Client", testSecret, time.Hour)
	require.NoError(t, err)
	return token
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}
