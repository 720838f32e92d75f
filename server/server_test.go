package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toonana/toonana/config"
	"github.com/toonana/toonana/internal/testutil"
	"github.com/toonana/toonana/journal"
	"github.com/toonana/toonana/studio"
	"github.com/toonana/toonana/vault"
)

type stubText struct {
	storyboard string
	healthErr  error
}

func (s *stubText) GenerateStream(ctx context.Context, _, _ string, onDelta func(string)) (string, error) {
	return s.storyboard, nil
}
func (s *stubText) Health(context.Context) error { return s.healthErr }
func (s *stubText) ModelName() string            { return "stub-model" }

type stubRenderer struct{}

func (stubRenderer) Render(context.Context, string, string) ([]byte, error) {
	return []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	v := viper.New()
	config.SetDefaults(v)
	var cfg config.Config
	require.NoError(t, v.Unmarshal(&cfg))

	cfg.DataDir = t.TempDir()
	cfg.Server.AllowedOrigins = []string{"http://localhost:1420"}
	return &cfg
}

func newTestServer(t *testing.T, text *stubText) (*Server, *httptest.Server, *journal.Store) {
	t.Helper()

	cfg := testConfig(t)
	database := testutil.CreateTestDB(t)

	codec, err := vault.New(bytes.Repeat([]byte{0x21}, 32))
	require.NoError(t, err)
	store := journal.NewStore(database, codec, cfg.ImagesDir())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	svc := studio.NewService(ctx, store, text, stubRenderer{}, cfg.ImagesDir(), cfg.Studio.Style)

	s := NewServer(cfg, database, store, svc, text)
	s.configPath = filepath.Join(cfg.DataDir, "config.toml")

	go s.runHub()
	t.Cleanup(s.cancel)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts, store
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestEntriesCRUD(t *testing.T) {
	_, ts, _ := newTestServer(t, &stubText{})

	// Create.
	resp := postJSON(t, ts.URL+"/api/entries", journal.Draft{Body: "first entry", Mood: "calm"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var created journal.Entry
	decodeBody(t, resp, &created)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "first entry", created.Body)

	// List.
	resp, err := http.Get(ts.URL + "/api/entries")
	require.NoError(t, err)
	var listing struct {
		Entries []journal.Summary `json:"entries"`
	}
	decodeBody(t, resp, &listing)
	require.Len(t, listing.Entries, 1)
	assert.Equal(t, "first entry", listing.Entries[0].Preview)

	// Get.
	resp, err = http.Get(ts.URL + "/api/entries/" + created.ID)
	require.NoError(t, err)
	var fetched journal.Entry
	decodeBody(t, resp, &fetched)
	assert.Equal(t, created.ID, fetched.ID)

	// Delete.
	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/entries/"+created.ID, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Gone.
	resp, err = http.Get(ts.URL + "/api/entries/" + created.ID)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateJobAndPollToDone(t *testing.T) {
	text := &stubText{storyboard: "PANEL 1\nPROMPT: a lighthouse at dusk\n"}
	_, ts, store := newTestServer(t, text)

	entry, err := store.Upsert(context.Background(), journal.Draft{Body: "saw the lighthouse"})
	require.NoError(t, err)

	resp := postJSON(t, ts.URL+"/api/jobs", createJobRequest{EntryID: entry.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created jobResponse
	decodeBody(t, resp, &created)
	require.NotEmpty(t, created.Status.JobID)

	require.Eventually(t, func() bool {
		resp, err := http.Get(ts.URL + "/api/jobs/" + created.Status.JobID)
		if err != nil {
			return false
		}
		var polled jobResponse
		decodeBody(t, resp, &polled)
		return polled.Display.Terminal && !polled.Display.Failed
	}, 5*time.Second, 20*time.Millisecond)
}

func TestCreateJobForMissingEntry(t *testing.T) {
	_, ts, _ := newTestServer(t, &stubText{})

	resp := postJSON(t, ts.URL+"/api/jobs", createJobRequest{EntryID: "ghost"})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestJobStatusUnknownJob(t *testing.T) {
	_, ts, _ := newTestServer(t, &stubText{})

	resp, err := http.Get(ts.URL + "/api/jobs/unknown")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	_, ts, _ := newTestServer(t, &stubText{})

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	var health map[string]interface{}
	decodeBody(t, resp, &health)
	assert.Equal(t, "ok", health["status"])
	assert.Contains(t, health, "entries")
}

func TestProvidersHealthReportsFailure(t *testing.T) {
	_, ts, _ := newTestServer(t, &stubText{healthErr: fmt.Errorf("connection refused")})

	resp, err := http.Get(ts.URL + "/api/providers/health")
	require.NoError(t, err)
	var status map[string]interface{}
	decodeBody(t, resp, &status)
	assert.Equal(t, "stub-model", status["text_model"])
	assert.Equal(t, "unreachable", status["text_status"])
}

func TestSettingsRoundTrip(t *testing.T) {
	s, ts, _ := newTestServer(t, &stubText{})

	resp, err := http.Get(ts.URL + "/api/settings")
	require.NoError(t, err)
	var settings settingsPayload
	decodeBody(t, resp, &settings)
	assert.Equal(t, "ligne-claire", settings.Style)

	settings.Style = "manga"
	raw, err := json.Marshal(settings)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/settings", bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "manga", s.cfg.Studio.Style)
	assert.FileExists(t, s.configPath)
}

func TestWebSocketReceivesJobStatus(t *testing.T) {
	s, ts, _ := newTestServer(t, &stubText{})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give the hub a beat to register the client.
	require.Eventually(t, func() bool {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return len(s.clients) == 1
	}, 5*time.Second, 10*time.Millisecond)

	s.broadcast <- studio.JobStatus{JobID: "job-1", EntryID: "entry-1", Stage: studio.StageDrafting()}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg jobStatusMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "job_status", msg.Type)
	assert.Equal(t, "job-1", msg.Status.JobID)
	assert.InDelta(t, 0.32, msg.Display.Fraction, 1e-9)
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	_, ts, _ := newTestServer(t, &stubText{})

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:1420")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "http://localhost:1420", resp.Header.Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "http://evil.example")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}
