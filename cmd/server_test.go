package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"jukebox/config"
	"jukebox/services"
	"jukebox/types"
	"jukebox/websocket"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubExtractor returns canned metadata keyed by file name
type stubExtractor map[string]*types.AudioMetadata

func (s stubExtractor) ExtractAudioMetadata(filePath string) (*types.AudioMetadata, error) {
	name := filepath.Base(filePath)
	if name == "corrupt.mp3" {
		return nil, errors.New("unreadable file")
	}
	if m, ok := s[name]; ok {
		return m, nil
	}
	return &types.AudioMetadata{}, nil
}

var scenario = stubExtractor{"a.mp3": {Artist: "X", Duration: 120.7}}

// TestHelper runs the full router against a temporary music directory
type TestHelper struct {
	Server      *httptest.Server
	Hub         websocket.Hub
	MusicDir    string
	CatalogFile string
}

// NewTestHelper builds a catalog from a.mp3 and b.mp3 and serves it
func NewTestHelper(t *testing.T) *TestHelper {
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	musicDir := filepath.Join(dir, "music")
	require.NoError(t, os.MkdirAll(musicDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(musicDir, "a.mp3"), []byte("first song bytes"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(musicDir, "b.mp3"), []byte("second"), 0644))

	cfg := &config.Config{
		MusicDir:    musicDir,
		CatalogFile: filepath.Join(dir, "songs.json"),
	}

	store, err := services.OpenCatalog(cfg.CatalogFile, cfg.MusicDir, scenario)
	require.NoError(t, err)

	hub := websocket.NewHub()
	go hub.Run()

	server := httptest.NewServer(NewRouter(cfg, store, services.NewFileService(), hub))

	helper := &TestHelper{
		Server:      server,
		Hub:         hub,
		MusicDir:    musicDir,
		CatalogFile: cfg.CatalogFile,
	}
	t.Cleanup(helper.Cleanup)
	return helper
}

// Cleanup stops the server and the hub
func (h *TestHelper) Cleanup() {
	h.Server.Close()
	h.Hub.Stop()
}

// MakeRequest makes an HTTP request to the test server
func (h *TestHelper) MakeRequest(t *testing.T, method, path string) *http.Response {
	req, err := http.NewRequest(method, h.Server.URL+path, nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// Do performs a request and returns status and body
func (h *TestHelper) Do(t *testing.T, method, path string) (int, []byte) {
	resp := h.MakeRequest(t, method, path)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

// GetJSON makes a GET request and unmarshals the JSON response
func (h *TestHelper) GetJSON(t *testing.T, path string, target interface{}) int {
	status, body := h.Do(t, http.MethodGet, path)
	if target != nil {
		require.NoError(t, json.Unmarshal(body, target), string(body))
	}
	return status
}

// ConnectWebSocket connects to a WebSocket endpoint
func (h *TestHelper) ConnectWebSocket(t *testing.T, path string) *gorillaws.Conn {
	wsURL := "ws" + strings.TrimPrefix(h.Server.URL, "http") + path

	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return conn
}

func TestFirstBuildScenario(t *testing.T) {
	helper := NewTestHelper(t)

	var songs []types.Song
	status := helper.GetJSON(t, "/songs", &songs)

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []types.Song{
		{ID: 1, Title: "a", Artist: "X", PlayCount: 0, Duration: 120},
		{ID: 2, Title: "b", Artist: "Unknown Artist", PlayCount: 0, Duration: 0},
	}, songs)
}

func TestPlayScenarioPersists(t *testing.T) {
	helper := NewTestHelper(t)

	status, body := helper.Do(t, http.MethodPost, "/play/1")
	require.Equal(t, http.StatusOK, status)

	var played types.Song
	require.NoError(t, json.Unmarshal(body, &played))
	assert.Equal(t, types.Song{ID: 1, Title: "a", Artist: "X", PlayCount: 1, Duration: 120}, played)

	persisted, err := services.LoadCatalog(helper.CatalogFile)
	require.NoError(t, err)
	require.Len(t, persisted, 2)
	assert.Equal(t, 1, persisted[0].PlayCount)
	assert.Equal(t, 0, persisted[1].PlayCount)
}

func TestRoutesEndToEnd(t *testing.T) {
	helper := NewTestHelper(t)

	status, body := helper.Do(t, http.MethodGet, "/songs/2")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"title":"b"`)

	status, body = helper.Do(t, http.MethodGet, "/songs/3")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Song not found", string(body))

	var results []types.Song
	assert.Equal(t, http.StatusOK, helper.GetJSON(t, "/search?q=A", &results))
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].ID)

	status, _ = helper.Do(t, http.MethodGet, "/search")
	assert.Equal(t, http.StatusBadRequest, status)

	resp := helper.MakeRequest(t, http.MethodGet, "/songs/1/stream")
	defer resp.Body.Close()
	streamed, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "audio/mpeg", resp.Header.Get("Content-Type"))
	assert.Equal(t, int64(len("first song bytes")), resp.ContentLength)
	assert.Equal(t, "first song bytes", string(streamed))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestPlayFeedReceivesEvents(t *testing.T) {
	helper := NewTestHelper(t)

	conn := helper.ConnectWebSocket(t, "/ws/plays")
	defer conn.Close()
	require.Eventually(t, func() bool { return helper.Hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	status, _ := helper.Do(t, http.MethodPost, "/play/2")
	require.Equal(t, http.StatusOK, status)

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var event types.PlayEvent
	require.NoError(t, conn.ReadJSON(&event))

	assert.Equal(t, "play", event.Type)
	assert.Equal(t, 2, event.SongID)
	assert.Equal(t, "b", event.Title)
	assert.Equal(t, 1, event.PlayCount)
}

func TestMetricsEndpoint(t *testing.T) {
	helper := NewTestHelper(t)

	helper.Do(t, http.MethodPost, "/play/1")
	status, body := helper.Do(t, http.MethodGet, "/metrics")

	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "jukebox_song_plays_total")
	assert.Contains(t, string(body), "jukebox_api_requests_total")
}

func TestRunScan(t *testing.T) {
	dir := t.TempDir()
	musicDir := filepath.Join(dir, "music")
	require.NoError(t, os.MkdirAll(musicDir, 0755))
	for _, name := range []string{"a.mp3", "b.mp3"} {
		require.NoError(t, os.WriteFile(filepath.Join(musicDir, name), []byte(name), 0644))
	}
	catalogFile := filepath.Join(dir, "songs.json")

	require.NoError(t, runScan(musicDir, catalogFile, false, scenario))
	songs, err := services.LoadCatalog(catalogFile)
	require.NoError(t, err)
	require.Len(t, songs, 2)
	assert.Equal(t, "X", songs[0].Artist)

	before, err := os.ReadFile(catalogFile)
	require.NoError(t, err)

	err = runScan(musicDir, catalogFile, false, scenario)
	assert.ErrorContains(t, err, "already exists")

	after, err := os.ReadFile(catalogFile)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(before, after))

	require.NoError(t, os.WriteFile(filepath.Join(musicDir, "c.mp3"), []byte("c"), 0644))
	require.NoError(t, runScan(musicDir, catalogFile, true, scenario))
	songs, err = services.LoadCatalog(catalogFile)
	require.NoError(t, err)
	assert.Len(t, songs, 3)
}

func TestRunScanBuildFailure(t *testing.T) {
	dir := t.TempDir()
	musicDir := filepath.Join(dir, "music")
	require.NoError(t, os.MkdirAll(musicDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(musicDir, "corrupt.mp3"), []byte("x"), 0644))
	catalogFile := filepath.Join(dir, "songs.json")

	err := runScan(musicDir, catalogFile, false, scenario)

	var buildErr *services.BuildError
	assert.ErrorAs(t, err, &buildErr)
	_, statErr := os.Stat(catalogFile)
	assert.True(t, os.IsNotExist(statErr))
}
