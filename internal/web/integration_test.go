package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/housecheck/internal/activity"
	"github.com/vbonduro/housecheck/internal/auth"
	backuplocal "github.com/vbonduro/housecheck/internal/backup/local"
	"github.com/vbonduro/housecheck/internal/checklist"
	"github.com/vbonduro/housecheck/internal/db"
	"github.com/vbonduro/housecheck/internal/domain"
	"github.com/vbonduro/housecheck/internal/inspection"
	"github.com/vbonduro/housecheck/internal/metrics"
	photolocal "github.com/vbonduro/housecheck/internal/photostore/local"
	"github.com/vbonduro/housecheck/internal/store"
	"github.com/vbonduro/housecheck/internal/web"
)

const (
	testSecret = "integration-secret"
	testIssuer = "pm-identity"
)

// minimalJPEG is 512 bytes with the JPEG magic bytes header followed by zeros.
// http.DetectContentType identifies JPEG from the leading 0xFF 0xD8 bytes.
var minimalJPEG = func() []byte {
	b := make([]byte, 512)
	b[0] = 0xFF
	b[1] = 0xD8
	b[2] = 0xFF
	b[3] = 0xE0
	return b
}()

// newTestServer sets up a real web.Server backed by in-memory SQLite, a
// local backup directory and a local photo directory.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	database, err := db.OpenForTesting()
	require.NoError(t, err)

	templates := store.NewTemplateStore(database)
	_, err = templates.Publish(context.Background(), &domain.Template{
		CheckType: domain.CheckTypeHome,
		Name:      "Home Check",
		Sections: []domain.Section{{
			Key:  "exterior",
			Name: "Exterior",
			Items: []domain.Item{
				{ID: "exterior.locks", Label: "Check locks", Required: true, Kind: domain.CheckItem{}},
				{ID: "exterior.paint", Label: "Check paint", Kind: domain.PhotoItem{MinPhotos: 1}},
			},
		}},
	})
	require.NoError(t, err)

	backups, err := backuplocal.NewLocalBackupStore(t.TempDir())
	require.NoError(t, err)
	photos, err := photolocal.NewLocalPhotoStore(t.TempDir())
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	logger := activity.NewLogger(store.NewActivityStore(database), time.Second, slog.Default(), m)
	loader := checklist.NewLoader(templates, slog.Default())
	mgr := inspection.NewManager(
		store.NewSessionStore(database),
		loader,
		backups,
		photos,
		logger,
		slog.Default(),
		inspection.Options{Metrics: m},
	)

	srv := httptest.NewServer(web.NewServer(mgr, loader, slog.Default(), web.Options{
		JWTSecret: []byte(testSecret),
		JWTIssuer: testIssuer,
		Metrics:   promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}))
	t.Cleanup(func() {
		srv.Close()
		mgr.Close(context.Background())
		logger.Wait()
		_ = database.Close()
	})
	return srv
}

func tokenFor(t *testing.T, userID string, role domain.Role) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    testIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

type client struct {
	t     *testing.T
	base  string
	token string
}

func (c *client) do(method, path, contentType string, body io.Reader) *http.Response {
	c.t.Helper()
	req, err := http.NewRequest(method, c.base+path, body)
	require.NoError(c.t, err)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	c.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (c *client) json(method, path string, payload any, out any) int {
	c.t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(c.t, err)
		body = bytes.NewReader(data)
	}
	resp := c.do(method, path, "application/json", body)
	if out != nil {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type sessionBody struct {
	Session struct {
		ID     string                      `json:"id"`
		Status string                      `json:"status"`
		Items  map[string]domain.ItemState `json:"items"`
	} `json:"session"`
	Template struct {
		Fallback bool `json:"fallback"`
		Sections []struct {
			Items []struct {
				ID    string `json:"id"`
				Input string `json:"input"`
			} `json:"items"`
		} `json:"sections"`
	} `json:"template"`
	Progress domain.Progress `json:"progress"`
}

type completionBody struct {
	Completed        bool               `json:"completed"`
	AlreadyCompleted bool               `json:"already_completed"`
	Unmet            []domain.UnmetItem `json:"unmet"`
	Session          struct {
		Status          string `json:"status"`
		DurationSeconds *int64 `json:"duration_seconds"`
	} `json:"session"`
}

func startSession(t *testing.T, c *client) string {
	t.Helper()
	var started sessionBody
	status := c.json(http.MethodPost, "/sessions", map[string]string{
		"property_id": "prop-1",
		"check_type":  domain.CheckTypeHome,
	}, &started)
	require.Equal(t, http.StatusCreated, status)
	return started.Session.ID
}

func TestIntegration_HealthAndAuth(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t)

	anon := &client{t: t, base: srv.URL}
	assert.Equal(t, http.StatusOK, anon.do(http.MethodGet, "/healthz", "", nil).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, anon.do(http.MethodGet, "/sessions/x", "", nil).StatusCode)

	bad := &client{t: t, base: srv.URL, token: "not-a-token"}
	assert.Equal(t, http.StatusUnauthorized, bad.do(http.MethodGet, "/sessions/x", "", nil).StatusCode)

	resp := anon.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
}

func TestIntegration_SessionLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t)
	c := &client{t: t, base: srv.URL, token: tokenFor(t, "alice", domain.RoleHouseWatcher)}

	var started sessionBody
	status := c.json(http.MethodPost, "/sessions", map[string]string{
		"property_id": "prop-1",
		"check_type":  domain.CheckTypeHome,
	}, &started)
	require.Equal(t, http.StatusCreated, status)
	id := started.Session.ID
	assert.Equal(t, "in_progress", started.Session.Status)
	assert.False(t, started.Template.Fallback)
	require.Len(t, started.Template.Sections, 1)
	assert.Equal(t, "photo", started.Template.Sections[0].Items[1].Input)
	assert.Len(t, started.Session.Items, 2)

	var st domain.ItemState
	status = c.json(http.MethodPost, "/sessions/"+id+"/items/exterior.paint/toggle", nil, &st)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, st.Completed)

	var blocked completionBody
	status = c.json(http.MethodPost, "/sessions/"+id+"/complete", map[string]string{"general_notes": "done"}, &blocked)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	assert.False(t, blocked.Completed)
	require.Len(t, blocked.Unmet, 1)
	assert.Equal(t, "exterior.locks", blocked.Unmet[0].ItemID)
	assert.Equal(t, "Check locks", blocked.Unmet[0].Label)
	assert.Equal(t, "in_progress", blocked.Session.Status)

	status = c.json(http.MethodPut, "/sessions/"+id+"/items/exterior.locks/notes", map[string]string{"notes": "new deadbolt"}, &st)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "new deadbolt", st.Notes)
	status = c.json(http.MethodPost, "/sessions/"+id+"/items/exterior.locks/toggle", nil, &st)
	require.Equal(t, http.StatusOK, status)

	var progress domain.Progress
	require.Equal(t, http.StatusOK, c.json(http.MethodGet, "/sessions/"+id+"/progress", nil, &progress))
	assert.InDelta(t, 100.0, progress.Overall, 0.001)

	var saved sessionBody
	require.Equal(t, http.StatusOK, c.json(http.MethodPost, "/sessions/"+id+"/save", nil, &saved))

	var done completionBody
	status = c.json(http.MethodPost, "/sessions/"+id+"/complete", map[string]string{"general_notes": "done"}, &done)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, done.Completed)
	assert.False(t, done.AlreadyCompleted)
	assert.Equal(t, "completed", done.Session.Status)
	assert.NotNil(t, done.Session.DurationSeconds)

	var again completionBody
	require.Equal(t, http.StatusOK, c.json(http.MethodPost, "/sessions/"+id+"/complete", nil, &again))
	assert.True(t, again.AlreadyCompleted)

	status = c.json(http.MethodPost, "/sessions/"+id+"/items/exterior.locks/toggle", nil, nil)
	assert.Equal(t, http.StatusConflict, status)

	var events []struct {
		EventType string `json:"event_type"`
	}
	require.Eventually(t, func() bool {
		events = nil
		return c.json(http.MethodGet, "/sessions/"+id+"/activity", nil, &events) == http.StatusOK && len(events) == 5
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, "session_started", events[0].EventType)
	assert.Equal(t, "session_completed", events[len(events)-1].EventType)
}

func TestIntegration_AccessAndErrors(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t)
	alice := &client{t: t, base: srv.URL, token: tokenFor(t, "alice", domain.RoleHouseWatcher)}
	bob := &client{t: t, base: srv.URL, token: tokenFor(t, "bob", domain.RoleTenant)}
	root := &client{t: t, base: srv.URL, token: tokenFor(t, "root", domain.RoleAdmin)}

	id := startSession(t, alice)

	assert.Equal(t, http.StatusForbidden, bob.json(http.MethodGet, "/sessions/"+id, nil, nil))
	assert.Equal(t, http.StatusForbidden, bob.json(http.MethodGet, "/sessions/"+id+"/activity", nil, nil))
	assert.Equal(t, http.StatusOK, root.json(http.MethodGet, "/sessions/"+id, nil, nil))

	assert.Equal(t, http.StatusNotFound, alice.json(http.MethodGet, "/sessions/missing", nil, nil))
	assert.Equal(t, http.StatusNotFound, alice.json(http.MethodPost, "/sessions/"+id+"/items/garage.door/toggle", nil, nil))
	assert.Equal(t, http.StatusBadRequest, alice.json(http.MethodPost, "/sessions", map[string]string{"check_type": "home_check"}, nil))
	assert.Equal(t, http.StatusBadRequest, alice.json(http.MethodPost, "/sessions", map[string]string{"bogus": "x"}, nil))
	assert.Equal(t, http.StatusBadRequest, alice.json(http.MethodPost, "/sessions/"+id+"/items/exterior.paint/photo-refs", map[string]string{"ref": ""}, nil))
}

func TestIntegration_FindOpenAndDetach(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t)
	c := &client{t: t, base: srv.URL, token: tokenFor(t, "alice", domain.RoleHouseWatcher)}

	assert.Equal(t, http.StatusBadRequest, c.json(http.MethodGet, "/properties/prop-1/sessions/open", nil, nil))
	assert.Equal(t, http.StatusNotFound, c.json(http.MethodGet, "/properties/prop-1/sessions/open?check_type=home_check", nil, nil))

	id := startSession(t, c)
	require.Equal(t, http.StatusOK, c.json(http.MethodPost, "/sessions/"+id+"/items/exterior.locks/toggle", nil, nil))
	assert.Equal(t, http.StatusNoContent, c.do(http.MethodPost, "/sessions/"+id+"/detach", "", nil).StatusCode)

	var open sessionBody
	require.Equal(t, http.StatusOK, c.json(http.MethodGet, "/properties/prop-1/sessions/open?check_type=home_check", nil, &open))
	assert.Equal(t, id, open.Session.ID)
	assert.True(t, open.Session.Items["exterior.locks"].Completed)
}

func TestIntegration_TemplateEndpoint(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t)
	c := &client{t: t, base: srv.URL, token: tokenFor(t, "alice", domain.RoleHouseWatcher)}

	var tpl struct {
		CheckType string `json:"check_type"`
		Fallback  bool   `json:"fallback"`
		Sections  []any  `json:"sections"`
	}
	require.Equal(t, http.StatusOK, c.json(http.MethodGet, "/templates/property_check", nil, &tpl))
	assert.True(t, tpl.Fallback)
	assert.Equal(t, "property_check", tpl.CheckType)
	assert.NotEmpty(t, tpl.Sections)

	require.Equal(t, http.StatusOK, c.json(http.MethodGet, "/templates/home_check", nil, &tpl))
	assert.False(t, tpl.Fallback)
}

func buildMultipartBody(t *testing.T, imageData []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	fw, err := w.CreateFormFile("image", "photo.jpg")
	require.NoError(t, err)
	_, err = fw.Write(imageData)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestIntegration_UploadAndDownloadPhoto(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t)
	c := &client{t: t, base: srv.URL, token: tokenFor(t, "alice", domain.RoleHouseWatcher)}
	id := startSession(t, c)

	body, contentType := buildMultipartBody(t, minimalJPEG)
	resp := c.do(http.MethodPost, "/sessions/"+id+"/items/exterior.paint/photos", contentType, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var st domain.ItemState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	require.Len(t, st.PhotoRefs, 1)
	key := st.PhotoRefs[0]

	resp = c.do(http.MethodGet, "/sessions/"+id+"/photos/"+key, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, minimalJPEG, data)

	body, contentType = buildMultipartBody(t, []byte("%PDF-1.4 not an image"))
	resp = c.do(http.MethodPost, "/sessions/"+id+"/items/exterior.paint/photos", contentType, body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = c.do(http.MethodGet, "/sessions/"+id+"/photos/session_"+id+"/missing.jpg", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIntegration_Metrics(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t)
	c := &client{t: t, base: srv.URL, token: tokenFor(t, "alice", domain.RoleHouseWatcher)}
	id := startSession(t, c)
	require.Equal(t, http.StatusOK, c.json(http.MethodPost, "/sessions/"+id+"/items/exterior.locks/toggle", nil, nil))
	require.Equal(t, http.StatusOK, c.json(http.MethodPost, "/sessions/"+id+"/save", nil, nil))

	resp := (&client{t: t, base: srv.URL}).do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `housecheck_autosave_ticks_total{result="saved"} 1`))
	assert.True(t, strings.Contains(string(data), "housecheck_active_sessions 1"))
}
