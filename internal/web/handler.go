package web

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io/fs"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"

	"hr-onboarding/internal/onboarding"
	"hr-onboarding/internal/observability"
	"hr-onboarding/internal/router"
	"hr-onboarding/internal/session"
)

//go:embed templates/*.html
var templateFiles embed.FS

//go:embed static
var staticFiles embed.FS

const maxJSONBodyBytes = 1 << 16

type Handler struct {
	provider  session.Provider
	router    *router.Router
	logger    *observability.Logger
	templates *template.Template
	now       func() time.Time
}

func NewHandler(provider session.Provider, logger *observability.Logger) *Handler {
	return &Handler{
		provider:  provider,
		router:    router.New(router.DefaultBindings()),
		logger:    logger,
		templates: template.Must(template.ParseFS(templateFiles, "templates/*.html")),
		now:       time.Now,
	}
}

// Routes mounts the UI and its JSON endpoints on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}

	mux.HandleFunc("GET /{$}", h.LoginPage)
	mux.HandleFunc("GET /employee/{$}", h.EmployeePage)
	mux.HandleFunc("GET /employee", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/employee/", http.StatusMovedPermanently)
	})
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))
	mux.HandleFunc("GET /api/route", h.Route)
	mux.HandleFunc("POST /api/logout", h.Logout)
	mux.HandleFunc("GET /api/cooldown", h.Cooldown)
	mux.HandleFunc("POST /api/demo/{action}", h.Demo)
}

// LoginHandler is registered separately so the flood limiter can wrap it.
func (h *Handler) LoginHandler() http.Handler {
	return http.HandlerFunc(h.Login)
}

// open loads the slot for this request into a fresh state container.
func (h *Handler) open(w http.ResponseWriter, r *http.Request) *onboarding.Controller {
	storageLogger := observability.StorageLogger{Logger: h.logger, RequestID: observability.RequestID(r.Context())}
	store := session.NewStore(r.Context(), h.provider.Open(w, r), h.now, storageLogger)
	if err := store.Load(); err != nil {
		h.logger.Info("session_envelope_discarded", map[string]any{
			"request_id": observability.RequestID(r.Context()),
			"reason":     err.Error(),
		})
	}
	return onboarding.NewController(store, h.router, h.now)
}

type pageData struct {
	Entry    router.Entry
	Sections []string
	Identity *onboarding.IdentityView
	Login    onboarding.LoginState
}

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	controller := h.open(w, r)

	if identity := controller.Identity(); identity != nil && router.Home(identity.Role) == router.EmployeeHome {
		http.Redirect(w, r, router.Location(router.EmployeeHome), http.StatusSeeOther)
		return
	}

	data := pageData{Entry: router.EntryLogin, Sections: h.router.Bindings().Sections(router.EntryLogin)}

	if result, handled := controller.Bootstrap(r.URL.Query()); handled {
		if result.Status == onboarding.StatusOK {
			http.Redirect(w, r, target(result.Decision), http.StatusSeeOther)
			return
		}
		data.Login = result.Login
	} else if nav := controller.Navigate(router.EntryLogin, router.Login.Fragment(), requestInfo(r)); nav.Login != nil {
		data.Login = *nav.Login
	}

	data.Identity = controller.Identity()
	h.render(w, "login.html", data)
}

// EmployeePage re-validates the session on its own; reaching it through the
// login redirect proves nothing.
func (h *Handler) EmployeePage(w http.ResponseWriter, r *http.Request) {
	controller := h.open(w, r)

	identity := controller.Identity()
	if identity == nil || router.Home(identity.Role) != router.EmployeeHome {
		decision := controller.Navigate(router.EntryEmployee, router.EmployeeHome.Fragment(), requestInfo(r)).Decision
		http.Redirect(w, r, target(decision), http.StatusSeeOther)
		return
	}

	h.render(w, "employee.html", pageData{
		Entry:    router.EntryEmployee,
		Sections: h.router.Bindings().Sections(router.EntryEmployee),
		Identity: identity,
	})
}

func (h *Handler) Route(w http.ResponseWriter, r *http.Request) {
	entry := requestEntry(r)
	controller := h.open(w, r)
	writeJSON(w, http.StatusOK, controller.Navigate(entry, r.URL.Query().Get("fragment"), requestInfo(r)))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	input, ok := decodeLogin(w, r)
	if !ok {
		return
	}

	controller := h.open(w, r)
	result := controller.Submit(input)

	switch result.Status {
	case onboarding.StatusOK:
		h.logger.Info("login_succeeded", map[string]any{
			"request_id": observability.RequestID(r.Context()),
			"role":       result.Identity.Role,
		})
		writeJSON(w, http.StatusOK, result)
	case onboarding.StatusRateLimited:
		retryAfter := int(math.Ceil(float64(result.Login.RemainingMs) / 1000))
		if retryAfter < 1 {
			retryAfter = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		writeJSON(w, http.StatusTooManyRequests, result)
	default:
		writeJSON(w, http.StatusUnauthorized, result)
	}
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	controller := h.open(w, r)
	writeJSON(w, http.StatusOK, map[string]any{"decision": controller.Logout(requestEntry(r))})
}

func (h *Handler) Demo(w http.ResponseWriter, r *http.Request) {
	var input onboarding.DemoInput
	if r.ContentLength != 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
	}

	controller := h.open(w, r)
	ack, err := controller.Demo(onboarding.Action(r.PathValue("action")), input, requestInfo(r))
	if err != nil {
		switch {
		case errors.Is(err, onboarding.ErrSessionRequired):
			writeError(w, http.StatusUnauthorized, "session required")
		case errors.Is(err, onboarding.ErrUnknownAction):
			writeError(w, http.StatusNotFound, "unknown action")
		default:
			sentry.CaptureException(err)
			writeError(w, http.StatusInternalServerError, "demo action failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, ack)
}

func (h *Handler) render(w http.ResponseWriter, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		sentry.CaptureException(err)
		h.logger.Error("render_failed", map[string]any{"template": name, "error": err.Error()})
	}
}

func decodeLogin(w http.ResponseWriter, r *http.Request) (onboarding.LoginInput, bool) {
	var input onboarding.LoginInput

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&input); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return onboarding.LoginInput{}, false
		}
		return input, true
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return onboarding.LoginInput{}, false
	}
	input.Name = r.PostForm.Get("name")
	input.EmployeeNumber = r.PostForm.Get("empNo")
	input.Password = r.PostForm.Get("password")
	return input, true
}

// requestEntry is the page the browser event came from, taken from the entry
// query parameter. Anything but "employee" is the login entry.
func requestEntry(r *http.Request) router.Entry {
	if r.URL.Query().Get("entry") == string(router.EntryEmployee) {
		return router.EntryEmployee
	}
	return router.EntryLogin
}

func requestInfo(r *http.Request) onboarding.RequestInfo {
	return onboarding.RequestInfo{
		Page:           r.Header.Get("X-Page-URL"),
		AcceptLanguage: r.Header.Get("Accept-Language"),
		UserAgent:      r.UserAgent(),
	}
}

// target is the URL a full page load should go to for decision.
func target(decision router.Decision) string {
	if decision.Location != "" {
		return decision.Location
	}
	return router.Location(decision.View)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
