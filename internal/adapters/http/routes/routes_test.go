package routes_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"emitrack/internal/adapters/http/middleware"
	"emitrack/internal/adapters/http/routes"
	"emitrack/internal/adapters/persistence/models"
	"emitrack/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBSeq int64

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:routesdb%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	cfg := &config.Config{
		AppMode: "dev",
		JWT: config.JWTConfig{
			Secret:           "test-access-secret",
			RefreshSecret:    "test-refresh-secret",
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
		},
	}
	config.AppConfig = cfg

	app := fiber.New(fiber.Config{ErrorHandler: middleware.CustomErrorHandler})
	routes.Setup(app, db, cfg)
	return app, db
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}, header map[string]string) (int, envelope) {
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
	for k, v := range header {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &env)
	}
	return resp.StatusCode, env
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestEndToEnd_ShopLifecycle(t *testing.T) {
	app, _ := newTestApp(t)

	// Signup
	status, env := doJSON(t, app, http.MethodPost, "/api/v1/auth/signup", fiber.Map{
		"username":  "shopadmin",
		"email":     "admin@shop.test",
		"password":  "s3cret-pass",
		"shop_name": "Galaxy Mobiles",
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	var signup struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &signup))
	require.NotEmpty(t, signup.AccessToken)
	token := signup.AccessToken

	// Onboard a customer holding the device IMEI
	const imei = "356938035643809"
	status, env = doJSON(t, app, http.MethodPost, "/api/v1/customers", fiber.Map{
		"name":             "Ravi Kumar",
		"mobile":           "9000000050",
		"imei_1":           imei,
		"total_emi_amount": "6000",
		"emi_per_month":    "1000",
		"total_months":     6,
	}, bearer(token))
	require.Equal(t, http.StatusCreated, status)

	var customer struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &customer))

	// Issue a balance key
	status, env = doJSON(t, app, http.MethodPost, "/api/v1/balance-keys", nil, bearer(token))
	require.Equal(t, http.StatusCreated, status)

	var key struct {
		Key string `json:"key"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &key))
	require.NotEmpty(t, key.Key)

	// Device registers itself with the key (no bearer auth)
	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/devices/register", fiber.Map{
		"key":  key.Key,
		"imei": imei,
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	// Reusing the key is refused
	status, env = doJSON(t, app, http.MethodPost, "/api/v1/devices/register", fiber.Map{
		"key":  key.Key,
		"imei": imei,
	}, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, env.Error, "already used")

	// Device self view via X-IMEI credential
	status, env = doJSON(t, app, http.MethodGet, "/api/v1/devices/me", nil,
		map[string]string{"X-IMEI": imei})
	require.Equal(t, http.StatusOK, status)

	var snapshot struct {
		RemainingMonths int `json:"remaining_months"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &snapshot))
	assert.Equal(t, 6, snapshot.RemainingMonths)

	// No credential at all is refused
	status, _ = doJSON(t, app, http.MethodGet, "/api/v1/devices/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	// Admin locks the device
	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/devices/lock", fiber.Map{"imei": imei}, bearer(token))
	require.Equal(t, http.StatusOK, status)

	// Record one installment
	status, env = doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/v1/customers/%d/advance-payment", customer.ID), nil, bearer(token))
	require.Equal(t, http.StatusOK, status)

	var ledger struct {
		PaidMonths      int `json:"paid_months"`
		RemainingMonths int `json:"remaining_months"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &ledger))
	assert.Equal(t, 1, ledger.PaidMonths)
	assert.Equal(t, 5, ledger.RemainingMonths)
}

func TestEndToEnd_UnknownIMEIRegistration(t *testing.T) {
	app, _ := newTestApp(t)

	status, env := doJSON(t, app, http.MethodPost, "/api/v1/auth/signup", fiber.Map{
		"username": "shopadmin",
		"email":    "admin@shop.test",
		"password": "s3cret-pass",
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	var signup struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &signup))

	status, env = doJSON(t, app, http.MethodPost, "/api/v1/balance-keys", nil, bearer(signup.AccessToken))
	require.Equal(t, http.StatusCreated, status)

	var key struct {
		Key string `json:"key"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &key))

	// No customer holds this IMEI
	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/devices/register", fiber.Map{
		"key":  key.Key,
		"imei": "490154203237518",
	}, nil)
	assert.Equal(t, http.StatusNotFound, status)

	// Malformed IMEI never reaches the key
	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/devices/register", fiber.Map{
		"key":  key.Key,
		"imei": "not-an-imei",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	app, _ := newTestApp(t)

	status, _ := doJSON(t, app, http.MethodGet, "/api/v1/customers", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/balance-keys", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/devices/lock", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}
