package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"jukebox/logger"
	"jukebox/metrics"
	"jukebox/services"
	"jukebox/websocket"

	"github.com/gin-gonic/gin"
)

const songNotFound = "Song not found"

// SongHandler serves catalog reads and play-count updates
type SongHandler struct {
	store services.CatalogStore
	hub   websocket.Hub
}

// NewSongHandler creates a new song handler. hub may be nil.
func NewSongHandler(store services.CatalogStore, hub websocket.Hub) *SongHandler {
	return &SongHandler{
		store: store,
		hub:   hub,
	}
}

// parseSongID reads the :id path parameter. A non-numeric id is reported
// as not ok so callers answer it like an unknown id.
func parseSongID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, false
	}
	return id, true
}

// ListSongs returns the full catalog
func (h *SongHandler) ListSongs(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.All())
}

// GetSong returns one song by id
func (h *SongHandler) GetSong(c *gin.Context) {
	id, ok := parseSongID(c)
	if !ok {
		c.String(http.StatusNotFound, songNotFound)
		return
	}

	song, err := h.store.Get(id)
	if err != nil {
		c.String(http.StatusNotFound, songNotFound)
		return
	}

	c.JSON(http.StatusOK, song)
}

// Search matches the q parameter against song titles, ignoring case
func (h *SongHandler) Search(c *gin.Context) {
	query, ok := c.GetQuery("q")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": services.ErrMissingQuery.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, h.store.Search(query))
}

// Play increments a song's play count and returns the updated song
func (h *SongHandler) Play(c *gin.Context) {
	id, ok := parseSongID(c)
	if !ok {
		c.String(http.StatusNotFound, songNotFound)
		return
	}

	song, err := h.store.IncrementPlayCount(id)
	if errors.Is(err, services.ErrNotFound) {
		c.String(http.StatusNotFound, songNotFound)
		return
	}
	if err != nil {
		logger.Error("failed to record play", logger.Int("song_id", id), logger.ErrorField(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to save play count",
			"details": err.Error(),
		})
		return
	}

	metrics.RecordPlay()
	if h.hub != nil {
		h.hub.BroadcastPlay(song)
	}

	c.JSON(http.StatusOK, song)
}
