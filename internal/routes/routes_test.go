package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet_tracker/internal/config"
	"fleet_tracker/internal/inspection"
	"fleet_tracker/internal/invoice"
	"fleet_tracker/internal/notify"
	"fleet_tracker/internal/session"
	"fleet_tracker/internal/store"
	"fleet_tracker/internal/timesheet"
	"fleet_tracker/internal/wtd"
)

type api struct {
	t        *testing.T
	router   *gin.Engine
	sessions *session.Registry
	clock    time.Time
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := config.Open(config.DBSettings{Driver: "sqlite", Path: ":memory:"}, nil)
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	config.DB = db

	a := &api{t: t, clock: time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)}
	hub := notify.NewHub()
	t.Cleanup(hub.Close)
	sessions := session.NewRegistry(8)
	a.sessions = sessions
	svc := timesheet.New(store.New(db, time.UTC), wtd.DefaultLimits(),
		timesheet.WithSink(hub),
		timesheet.WithCaches(sessions),
		timesheet.WithClock(func() time.Time { return a.clock }),
	)
	a.router = SetupRouter(Deps{
		Timesheet:   svc,
		Sessions:    sessions,
		Hub:         hub,
		Inspections: inspection.NewService(db),
		Invoices:    invoice.NewService(db, 0.2, "INV"),
		LogWriter:   io.Discard,
	})
	return a
}

func (a *api) do(method, path, token string, body any) (int, map[string]any) {
	a.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w.Code, out
}

func (a *api) signup(email, role string) string {
	a.t.Helper()
	code, body := a.do(http.MethodPost, "/auth/signup", "", gin.H{
		"name":           "Test " + role,
		"email":          email,
		"password":       "password123",
		"role":           role,
		"license_number": "DL-" + email,
	})
	require.Equal(a.t, http.StatusCreated, code, body)
	token, _ := body["token"].(string)
	require.NotEmpty(a.t, token)
	return token
}

func TestRouter_Health(t *testing.T) {
	a := newAPI(t)
	code, body := a.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestRouter_ClockCycle(t *testing.T) {
	a := newAPI(t)
	token := a.signup("driver@example.com", "driver")

	code, body := a.do(http.MethodPost, "/driver/timesheet/clock-in", token, gin.H{"label": "North Depot"})
	require.Equal(t, http.StatusCreated, code, body)

	code, body = a.do(http.MethodPost, "/driver/timesheet/clock-in", token, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, body["error"], "already clocked in")

	code, body = a.do(http.MethodGet, "/driver/timesheet/today", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "on_duty", body["state"])

	code, _ = a.do(http.MethodPost, "/driver/timesheet/break/end", token, nil)
	assert.Equal(t, http.StatusConflict, code)

	a.clock = a.clock.Add(8 * time.Hour)
	code, body = a.do(http.MethodPost, "/driver/timesheet/clock-out", token, nil)
	require.Equal(t, http.StatusOK, code, body)
	entry := body["entry"].(map[string]any)
	assert.Equal(t, "completed", entry["status"])
	assert.EqualValues(t, 8, entry["total_hours"])

	code, body = a.do(http.MethodGet, "/driver/compliance?date=2026-03-02", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 8, body["daily_working_time"])

	code, body = a.do(http.MethodGet, "/driver/weekly-rest", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["data"], 1)
}

func TestRouter_ClockInWithCoordinatesReturnsPoint(t *testing.T) {
	a := newAPI(t)
	token := a.signup("geo@example.com", "driver")

	code, body := a.do(http.MethodPost, "/driver/timesheet/clock-in", token, gin.H{
		"latitude":  -1.2921,
		"longitude": 36.8219,
	})
	require.Equal(t, http.StatusCreated, code, body)
	point, ok := body["clock_in_point"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Point", point["type"])
	entry := body["entry"].(map[string]any)
	loc := entry["clock_in_location"].(map[string]any)
	assert.Equal(t, wtd.UnknownLocation, loc["label"])
}

func TestRouter_RoleGuards(t *testing.T) {
	a := newAPI(t)
	driver := a.signup("d@example.com", "driver")
	manager := a.signup("m@example.com", "manager")

	code, _ := a.do(http.MethodGet, "/manager/drivers", driver, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = a.do(http.MethodGet, "/manager/drivers", manager, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = a.do(http.MethodPost, "/driver/timesheet/clock-in", manager, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = a.do(http.MethodGet, "/driver/timesheet/today", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRouter_TimeOffReview(t *testing.T) {
	a := newAPI(t)
	driver := a.signup("d@example.com", "driver")
	manager := a.signup("m@example.com", "manager")

	code, body := a.do(http.MethodPost, "/driver/time-off", driver, gin.H{
		"start_date":   "2026-03-10",
		"end_date":     "2026-03-12",
		"request_type": "annual_leave",
	})
	require.Equal(t, http.StatusCreated, code, body)

	code, body = a.do(http.MethodGet, "/manager/time-off/pending", manager, nil)
	require.Equal(t, http.StatusOK, code)
	pending := body["data"].([]any)
	require.Len(t, pending, 1)
	id := pending[0].(map[string]any)["id"].(string)

	code, body = a.do(http.MethodPost, "/manager/time-off/"+id+"/approve", manager, gin.H{"note": "enjoy"})
	require.Equal(t, http.StatusOK, code, body)

	code, _ = a.do(http.MethodPost, "/manager/time-off/"+id+"/reject", manager, nil)
	assert.Equal(t, http.StatusConflict, code)
}

func TestRouter_LogoutDropsSessionCache(t *testing.T) {
	a := newAPI(t)
	token := a.signup("d@example.com", "driver")

	code, _ := a.do(http.MethodGet, "/driver/compliance?date=2026-02-27", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, a.sessions.Len())

	code, _ = a.do(http.MethodPost, "/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, a.sessions.Len())
}

func TestRouter_ComplianceWithoutStore(t *testing.T) {
	a := newAPI(t)
	token := a.signup("d@example.com", "driver")

	sqlDB, err := config.DB.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	code, body := a.do(http.MethodGet, "/driver/compliance?date=2026-03-02", token, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, true, body["data_unavailable"])
	assert.EqualValues(t, 0, body["weekly_working_time"])
	assert.NotEmpty(t, body["warnings"])
}

func TestRouter_LimitsReportWindowInDays(t *testing.T) {
	a := newAPI(t)
	token := a.signup("d@example.com", "driver")

	code, body := a.do(http.MethodGet, "/driver/limits", token, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.EqualValues(t, 21, body["compensation_window_days"])
	assert.Equal(t, "504h0m0s", body["compensation_window"])
}
