package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hr-onboarding/internal/session"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("TEST_INT", "12")
	t.Setenv("TEST_BAD_INT", "-3")
	t.Setenv("TEST_BOOL", " Yes ")
	t.Setenv("TEST_STR", "  value ")

	assert.Equal(t, 12, envIntOrDefault("TEST_INT", 1))
	assert.Equal(t, 1, envIntOrDefault("TEST_BAD_INT", 1))
	assert.Equal(t, 7, envIntOrDefault("TEST_UNSET_INT", 7))
	assert.Equal(t, 12*time.Second, envSecondsOrDefault("TEST_INT", 60))
	assert.Equal(t, 12*time.Hour, envHoursOrDefault("TEST_INT", 24))
	assert.True(t, EnvBoolOrDefault("TEST_BOOL", false))
	assert.True(t, EnvBoolOrDefault("TEST_UNSET_BOOL", true))
	assert.Equal(t, "value", envOrDefault("TEST_STR", "x"))

	_, err := mustEnv("TEST_UNSET_REQUIRED")
	assert.EqualError(t, err, "missing required env: TEST_UNSET_REQUIRED")
}

func TestBuildRejectsUnknownDriver(t *testing.T) {
	t.Setenv("SLOT_DRIVER", "floppy")

	_, err := Build(Options{})
	assert.ErrorContains(t, err, "unknown SLOT_DRIVER")
}

func TestBuildRedisRequiresAddr(t *testing.T) {
	t.Setenv("SLOT_DRIVER", "redis")
	t.Setenv("REDIS_ADDR", "")

	_, err := Build(Options{})
	assert.ErrorContains(t, err, "REDIS_ADDR")
}

func serve(t *testing.T, handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, handler http.Handler) *http.Cookie {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"name":"Bo","empNo":"1234","password":"employee"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(t, handler, req)
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func TestBuildServesEmployeeAreaWithServerSlots(t *testing.T) {
	drivers := map[string]func(t *testing.T){
		"memory": func(t *testing.T) {},
		"redis": func(t *testing.T) {
			t.Setenv("REDIS_ADDR", miniredis.RunT(t).Addr())
		},
	}

	for driver, setup := range drivers {
		t.Run(driver, func(t *testing.T) {
			t.Setenv("SLOT_DRIVER", driver)
			setup(t)

			runtime, err := Build(Options{})
			require.NoError(t, err)
			t.Cleanup(func() { _ = runtime.Close() })

			cookie := login(t, runtime.Handler)
			assert.Equal(t, session.DefaultKey+"_SID", cookie.Name)

			req := httptest.NewRequest(http.MethodGet, "/employee/", nil)
			req.AddCookie(cookie)
			rec := serve(t, runtime.Handler, req)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

			health := serve(t, runtime.Handler, httptest.NewRequest(http.MethodGet, "/health", nil))
			require.Equal(t, http.StatusOK, health.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(health.Body.Bytes(), &body))
			assert.Equal(t, "ok", body["status"])
			assert.Equal(t, driver, body["slot_driver"])
		})
	}
}

func TestBuildDefaultsToCookieSlot(t *testing.T) {
	t.Setenv("SLOT_DRIVER", "")
	t.Setenv("CRON_SECRET", "s3cret")

	runtime, err := Build(Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = runtime.Close() })

	cookie := login(t, runtime.Handler)
	assert.Equal(t, session.DefaultKey, cookie.Name)
	assert.True(t, cookie.HttpOnly)

	// cookie slots have nothing to clean up
	req := httptest.NewRequest(http.MethodPost, "/internal/maintenance/cleanup", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	assert.Equal(t, http.StatusNotFound, serve(t, runtime.Handler, req).Code)
}

func TestLoginFloodLimiterIsMounted(t *testing.T) {
	t.Setenv("SLOT_DRIVER", "memory")
	t.Setenv("LOGIN_RATE_LIMIT_MAX", "2")

	runtime, err := Build(Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = runtime.Close() })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"name":"Bo","empNo":"1234","password":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		codes = append(codes, serve(t, runtime.Handler, req).Code)
	}
	assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, codes)
}
