package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"

	"jukebox/services"
	"jukebox/types"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) writeAudio(t *testing.T, name string, content []byte) {
	require.NoError(t, os.WriteFile(filepath.Join(e.musicDir, name), content, 0644))
}

func audioBytes(n int) []byte {
	return bytes.Repeat([]byte{0xFF, 0xFB, 0x90, 0x64}, n/4)
}

func TestStreamSong(t *testing.T) {
	env := newTestEnv(t)
	content := audioBytes(4096)
	env.writeAudio(t, "Moonlight Sonata.mp3", content)

	w := env.do(http.MethodGet, "/songs/3/stream", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio/mpeg", w.Header().Get("Content-Type"))
	assert.Equal(t, strconv.Itoa(len(content)), w.Header().Get("Content-Length"))
	assert.Equal(t, "bytes", w.Header().Get("Accept-Ranges"))
	assert.Equal(t, content, w.Body.Bytes())
}

func TestStreamSongUsesTitleNotOriginalExtension(t *testing.T) {
	env := newTestEnv(t)
	env.writeAudio(t, "a.flac", audioBytes(64))

	w := env.do(http.MethodGet, "/songs/1/stream", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decode[map[string]string](t, w)
	assert.Equal(t, "audio file not found", body["error"])
	assert.Equal(t, "a", body["title"])
}

func TestStreamSongUnknownID(t *testing.T) {
	env := newTestEnv(t)

	for _, id := range []string{"0", "42", "x"} {
		w := env.do(http.MethodGet, "/songs/"+id+"/stream", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Song not found", w.Body.String())
	}
}

func TestStreamSongDirectoryInsteadOfFile(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.Mkdir(filepath.Join(env.musicDir, "b.mp3"), 0755))

	w := env.do(http.MethodGet, "/songs/2/stream", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStreamSongRange(t *testing.T) {
	env := newTestEnv(t)
	content := make([]byte, 1000)
	for i := range content {
		content[i] = byte(i % 251)
	}
	env.writeAudio(t, "a.mp3", content)

	tests := []struct {
		name          string
		rangeHeader   string
		status        int
		contentRange  string
		expectedBytes []byte
	}{
		{"bounded", "bytes=0-99", http.StatusPartialContent, "bytes 0-99/1000", content[0:100]},
		{"open ended", "bytes=900-", http.StatusPartialContent, "bytes 900-999/1000", content[900:]},
		{"end past size is clamped", "bytes=990-5000", http.StatusPartialContent, "bytes 990-999/1000", content[990:]},
		{"start past size", "bytes=1000-", http.StatusRequestedRangeNotSatisfiable, "bytes */1000", nil},
		{"end before start", "bytes=50-10", http.StatusRequestedRangeNotSatisfiable, "bytes */1000", nil},
		{"suffix ranges unsupported", "bytes=-100", http.StatusRequestedRangeNotSatisfiable, "bytes */1000", nil},
		{"wrong unit", "items=0-1", http.StatusRequestedRangeNotSatisfiable, "bytes */1000", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodGet, "/songs/1/stream", map[string]string{"Range": tt.rangeHeader})

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.contentRange, w.Header().Get("Content-Range"))
			if tt.expectedBytes != nil {
				assert.Equal(t, strconv.Itoa(len(tt.expectedBytes)), w.Header().Get("Content-Length"))
				assert.Equal(t, tt.expectedBytes, w.Body.Bytes())
			}
		})
	}
}

func TestStreamSongBackslashTitle(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("backslash is a path separator on windows")
	}
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	content := audioBytes(256)
	require.NoError(t, os.WriteFile(filepath.Join(dir, `AC\DC.mp3`), content, 0644))

	store := services.NewCatalogStore(filepath.Join(t.TempDir(), "songs.json"), []types.Song{{ID: 1, Title: `AC\DC`, Artist: types.UnknownArtist}})
	r := gin.New()
	r.GET("/songs/:id/stream", NewStreamHandler(store, services.NewFileService(), dir).StreamSong)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/songs/1/stream", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, content, w.Body.Bytes())
}
