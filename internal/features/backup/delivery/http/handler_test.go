package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swagly-backend/internal/common/middleware"
	"swagly-backend/internal/features/backup/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeScheduler struct {
	running bool
	status  models.Status
}

func (f *fakeScheduler) Start() bool {
	if f.running {
		return false
	}
	f.running = true
	return true
}

func (f *fakeScheduler) Stop() bool {
	if !f.running {
		return false
	}
	f.running = false
	return true
}

func (f *fakeScheduler) IsRunning() bool { return f.running }

func (f *fakeScheduler) Status(context.Context) (models.Status, error) {
	st := f.status
	st.IsRunning = f.running
	return st, nil
}

type fakeRunner struct {
	result models.Result
	calls  int
}

func (f *fakeRunner) RunCycle(context.Context) models.Result {
	f.calls++
	return f.result
}

func newRouter(s *fakeScheduler, r *fakeRunner) *gin.Engine {
	e := gin.New()
	e.Use(middleware.RequestID(), middleware.HandleErrors(), middleware.Recovery())
	NewBackupHandler(s, r).RegisterRoutes(e.Group("/api/v1"), middleware.RequireAdmin("tok"))
	return e
}

func post(e *gin.Engine, body string, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/backup", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(middleware.AdminTokenHeader, token)
	}
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	return w
}

func get(e *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestStatus(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := &fakeScheduler{running: true, status: models.Status{
		LastBackupTimestamp: &at,
		LastBackupCid:       "https://blob.example/a.json",
		BackupCount:         2,
		PublicURL:           "https://blob.example/a.json",
	}}
	w := get(newRouter(s, &fakeRunner{}), "/api/v1/backup")
	require.Equal(t, http.StatusOK, w.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.True(t, resp.Stats.IsRunning)
	assert.Equal(t, int64(2), resp.Stats.BackupCount)
	assert.Contains(t, w.Body.String(), `"lastBackupTimestamp":"2025-03-01T12:00:00Z"`)
}

func TestManualBackup(t *testing.T) {
	s := &fakeScheduler{status: models.Status{PublicURL: "https://blob.example/x.json"}}
	r := &fakeRunner{result: models.Result{Success: true, Locator: "https://blob.example/x.json", ScansCount: 2, ActivitiesCount: 1}}

	w := post(newRouter(s, r), `{"action":"manual"}`, "tok")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ControlResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Data)
	assert.Equal(t, 2, resp.Data.ScansCount)
	assert.Equal(t, 1, resp.Data.ActivitiesCount)
	assert.Equal(t, "https://blob.example/x.json", resp.Data.Cid)
	assert.Equal(t, 1, r.calls)
}

func TestManualBackupFailure(t *testing.T) {
	r := &fakeRunner{result: models.Result{Success: false, Error: "[BACKUP_CYCLE_ERROR] Backup cycle failed while uploading: blob 503"}}

	w := post(newRouter(&fakeScheduler{}, r), `{"action":"manual"}`, "tok")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
	assert.Contains(t, w.Body.String(), "BACKUP_CYCLE_ERROR")
}

func TestStartStop(t *testing.T) {
	s := &fakeScheduler{}
	e := newRouter(s, &fakeRunner{})

	w := post(e, `{"action":"start"}`, "tok")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "started")
	assert.True(t, s.running)

	w = post(e, `{"action":"start"}`, "tok")
	assert.Contains(t, w.Body.String(), "already running")

	w = post(e, `{"action":"stop"}`, "tok")
	assert.Contains(t, w.Body.String(), "stopped")
	assert.False(t, s.running)
}

func TestControlValidationAndAuth(t *testing.T) {
	e := newRouter(&fakeScheduler{}, &fakeRunner{})

	assert.Equal(t, http.StatusBadRequest, post(e, `{}`, "tok").Code)
	assert.Equal(t, http.StatusBadRequest, post(e, `{"action":"explode"}`, "tok").Code)
	assert.Equal(t, http.StatusUnauthorized, post(e, `{"action":"manual"}`, "").Code)
	assert.Equal(t, http.StatusForbidden, post(e, `{"action":"manual"}`, "wrong").Code)
}

func TestInitStartsScheduler(t *testing.T) {
	s := &fakeScheduler{}
	e := newRouter(s, &fakeRunner{})

	for i := 0; i < 2; i++ {
		w := get(e, "/api/v1/init")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"backups":"running"`)
	}
	assert.True(t, s.running)
}
