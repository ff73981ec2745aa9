package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hr-onboarding/internal/observability"
	"hr-onboarding/internal/session"
)

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time { return c.t }

// browser replays the cookies a real browser would keep between requests.
type browser struct {
	t       *testing.T
	mux     *http.ServeMux
	clock   *testClock
	cookies map[string]*http.Cookie
}

func newBrowser(t *testing.T) *browser {
	t.Helper()

	clock := &testClock{t: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	handler := NewHandler(session.NewCookieProvider(session.DefaultKey, false), observability.NewLoggerTo(io.Discard))
	handler.now = clock.Now

	mux := http.NewServeMux()
	handler.Routes(mux)
	mux.Handle("POST /api/login", handler.LoginHandler())

	return &browser{t: t, mux: mux, clock: clock, cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()
	for _, cookie := range b.cookies {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	b.mux.ServeHTTP(rec, req)

	for _, cookie := range rec.Result().Cookies() {
		if cookie.MaxAge < 0 {
			delete(b.cookies, cookie.Name)
			continue
		}
		b.cookies[cookie.Name] = cookie
	}
	return rec
}

func (b *browser) get(target string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, target, nil))
}

func (b *browser) post(target string, payload any) *httptest.ResponseRecorder {
	b.t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(b.t, err)
		body = strings.NewReader(string(raw))
	}
	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", "application/json")
	return b.do(req)
}

func (b *browser) login(name, empNo, password string) *httptest.ResponseRecorder {
	return b.post("/api/login", map[string]string{"name": name, "empNo": empNo, "password": password})
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func decision(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	d, ok := body["decision"].(map[string]any)
	require.True(t, ok, "decision missing from %v", body)
	return d
}

func TestLoginPageRendersLoginSection(t *testing.T) {
	b := newBrowser(t)

	rec := b.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-entry="login"`)
	assert.Contains(t, rec.Body.String(), `id="view-login"`)
	assert.Contains(t, rec.Body.String(), "view-admin")
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestEmployeeLoginOpensEmployeeArea(t *testing.T) {
	b := newBrowser(t)

	rec := b.login("Bo Ek", "1234", "employee")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "/employee/#employee", decision(t, body)["location"])
	require.Contains(t, b.cookies, session.DefaultKey)

	page := b.get("/employee/")
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "Bo Ek")
	assert.Contains(t, page.Body.String(), "1234")

	again := b.get("/")
	assert.Equal(t, http.StatusSeeOther, again.Code)
	assert.Equal(t, "/employee/#employee", again.Header().Get("Location"))
}

func TestEmployeePageWithoutSessionRedirectsToLogin(t *testing.T) {
	b := newBrowser(t)

	rec := b.get("/employee/")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/#login", rec.Header().Get("Location"))
}

func TestAdminIsSentBackFromEmployeePage(t *testing.T) {
	b := newBrowser(t)
	require.Equal(t, http.StatusOK, b.login("Ann", "9999", "admin").Code)

	rec := b.get("/employee/")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/#admin", rec.Header().Get("Location"))
}

func TestExpiredSessionIsTreatedAsAnonymous(t *testing.T) {
	b := newBrowser(t)
	require.Equal(t, http.StatusOK, b.login("Bo", "1234", "employee").Code)

	b.clock.t = b.clock.t.Add(session.TTL + time.Second)

	rec := b.get("/employee/")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/#login", rec.Header().Get("Location"))
}

func TestSixthAttemptIsRateLimited(t *testing.T) {
	b := newBrowser(t)

	for i := 0; i < 4; i++ {
		rec := b.login("Bo", "1234", "wrong")
		require.Equal(t, http.StatusUnauthorized, rec.Code, "attempt %d", i+1)
		body := decodeBody(t, rec)
		login := body["login"].(map[string]any)
		assert.Equal(t, "Felaktiga inloggningsuppgifter.", login["message"])
	}

	// the fifth failure starts the cooldown
	assert.Equal(t, http.StatusTooManyRequests, b.login("Bo", "1234", "wrong").Code)

	rec := b.login("Bo", "1234", "employee")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
	login := decodeBody(t, rec)["login"].(map[string]any)
	assert.Equal(t, true, login["disabled"])
	assert.Equal(t, "För många försök. Vänta 30 sekunder och försök igen.", login["message"])

	b.clock.t = b.clock.t.Add(31 * time.Second)
	assert.Equal(t, http.StatusOK, b.login("Bo", "1234", "employee").Code)
}

func TestLoginRejectsUnknownJSONFields(t *testing.T) {
	b := newBrowser(t)

	rec := b.post("/api/login", map[string]string{"user": "Bo"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginAcceptsFormBody(t *testing.T) {
	b := newBrowser(t)

	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader("name=Ann&empNo=9999&password=admin"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := b.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin", decision(t, decodeBody(t, rec))["view"])
}

func TestBootstrapQueryLogsIn(t *testing.T) {
	b := newBrowser(t)

	rec := b.get("/?name=Ann&empNo=9999&password=admin")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/#admin", rec.Header().Get("Location"))
	assert.Contains(t, b.cookies, session.DefaultKey)
}

func TestBootstrapPartialQueryPrefillsForm(t *testing.T) {
	b := newBrowser(t)

	rec := b.get("/?name=Ann&empNo=12")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="Ann"`)
	assert.Contains(t, rec.Body.String(), `value="12"`)
	assert.Contains(t, rec.Body.String(), "Felaktiga inloggningsuppgifter.")
}

func TestRouteEndpoint(t *testing.T) {
	b := newBrowser(t)

	rec := b.get("/api/route?entry=employee&fragment=%23tasks")
	require.Equal(t, http.StatusOK, rec.Code)
	d := decision(t, decodeBody(t, rec))
	assert.Equal(t, "login", d["view"])
	assert.Equal(t, "/#login", d["location"])
	assert.Equal(t, true, d["redirected"])

	require.Equal(t, http.StatusOK, b.login("Bo", "1234", "employee").Code)

	rec = b.get("/api/route?entry=employee&fragment=%23profile")
	d = decision(t, decodeBody(t, rec))
	assert.Equal(t, "profile", d["view"])
	assert.Equal(t, "route-profile", d["section"])
	assert.Equal(t, "home", d["nav"])
	assert.Equal(t, true, d["resetStatus"])
}

func TestRouteReportCarriesTechInfo(t *testing.T) {
	b := newBrowser(t)
	require.Equal(t, http.StatusOK, b.login("Bo", "1234", "employee").Code)

	req := httptest.NewRequest(http.MethodGet, "/api/route?entry=employee&fragment=%23report", nil)
	req.Header.Set("Accept-Language", "sv-SE,sv;q=0.9")
	req.Header.Set("X-Page-URL", "http://localhost/employee/#report")
	rec := b.do(req)

	body := decodeBody(t, rec)
	info := body["techInfo"].(map[string]any)
	assert.Equal(t, "sv-SE", info["language"])
	assert.Equal(t, "1234", info["empNo"])
	assert.Equal(t, "http://localhost/employee/#report", info["page"])
}

func TestLogoutClearsSession(t *testing.T) {
	b := newBrowser(t)
	require.Equal(t, http.StatusOK, b.login("Bo", "1234", "employee").Code)

	rec := b.post("/api/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "login", decision(t, decodeBody(t, rec))["view"])
	assert.NotContains(t, b.cookies, session.DefaultKey)

	assert.Equal(t, http.StatusSeeOther, b.get("/employee/").Code)
}

func TestLogoutFromEmployeeAreaSendsBrowserToLogin(t *testing.T) {
	b := newBrowser(t)
	require.Equal(t, http.StatusOK, b.login("Bo", "1234", "employee").Code)

	rec := b.post("/api/logout?entry=employee", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	d := decision(t, decodeBody(t, rec))
	assert.Equal(t, "login", d["view"])
	assert.Equal(t, "#login", d["fragment"])
	assert.Equal(t, "/#login", d["location"])
	assert.NotContains(t, b.cookies, session.DefaultKey)
}

func TestAdminLoginDecisionCarriesAdminFragment(t *testing.T) {
	b := newBrowser(t)

	rec := b.login("Ann", "9999", "admin")
	require.Equal(t, http.StatusOK, rec.Code)
	d := decision(t, decodeBody(t, rec))
	assert.Equal(t, "admin", d["view"])
	assert.Equal(t, "#admin", d["fragment"])
	assert.Empty(t, d["location"])

	rec = b.post("/api/logout?entry=login", nil)
	d = decision(t, decodeBody(t, rec))
	assert.Equal(t, "#login", d["fragment"])
	assert.Empty(t, d["location"])
}

func TestShimSyncsHashAfterLoginAndLogout(t *testing.T) {
	b := newBrowser(t)

	shim := b.get("/static/app.js").Body.String()
	assert.Contains(t, shim, "(syncHash || decision.redirected) && location.hash !== decision.fragment")
	assert.Equal(t, 2, strings.Count(shim, "applyDecision(res.data.decision, true)"))
	assert.Contains(t, shim, `"/api/logout?entry=" + encodeURIComponent(entry)`)
}

func TestLoginPageDuringCooldownRendersLockedForm(t *testing.T) {
	b := newBrowser(t)
	for i := 0; i < 5; i++ {
		b.login("Bo", "1234", "wrong")
	}

	for _, target := range []string{"/?name=Bo&empNo=1234", "/"} {
		rec := b.get(target)
		require.Equal(t, http.StatusOK, rec.Code, target)
		body := rec.Body.String()
		assert.Contains(t, body, "För många försök. Vänta 30 sekunder och försök igen.", target)
		assert.Contains(t, body, `<button id="btnLogin" type="submit" disabled>`, target)
		assert.NotContains(t, body, "Felaktiga inloggningsuppgifter.", target)
	}
}

func TestDemoActions(t *testing.T) {
	b := newBrowser(t)

	assert.Equal(t, http.StatusUnauthorized, b.post("/api/demo/done", nil).Code)

	require.Equal(t, http.StatusOK, b.login("Bo", "1234", "employee").Code)

	rec := b.post("/api/demo/done", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ack := decodeBody(t, rec)
	assert.Equal(t, "alert", ack["target"])
	assert.Equal(t, false, ack["implemented"])

	rec = b.post("/api/demo/goto-docs", nil)
	assert.Equal(t, "#docs", decodeBody(t, rec)["navigate"])

	rec = b.post("/api/demo/submit-report", map[string]string{"text": "   "})
	ack = decodeBody(t, rec)
	assert.Equal(t, "reportStatus", ack["target"])
	assert.Equal(t, "Skriv en kort beskrivning innan du skickar.", ack["message"])

	rec = b.post("/api/demo/submit-report", map[string]string{"text": "Skrivaren fungerar inte"})
	ack = decodeBody(t, rec)
	assert.Equal(t, true, ack["clearInput"])
	assert.NotNil(t, ack["techInfo"])

	assert.Equal(t, http.StatusNotFound, b.post("/api/demo/launch", nil).Code)
}

func TestCooldownStream(t *testing.T) {
	b := newBrowser(t)
	for i := 0; i < 5; i++ {
		b.login("Bo", "1234", "wrong")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := b.do(httptest.NewRequest(http.MethodGet, "/api/cooldown", nil).WithContext(ctx))
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "event: tick\n")
	assert.Contains(t, rec.Body.String(), `"seconds":30`)
	assert.NotContains(t, rec.Body.String(), "event: done")

	b.clock.t = b.clock.t.Add(30 * time.Second)
	rec = b.get("/api/cooldown")
	assert.Contains(t, rec.Body.String(), "event: done\n")
	assert.NotContains(t, rec.Body.String(), "event: tick")
}

func TestStaticAssetsAreServed(t *testing.T) {
	b := newBrowser(t)

	rec := b.get("/static/app.js")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/route")
}
