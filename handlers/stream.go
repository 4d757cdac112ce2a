package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"jukebox/logger"
	"jukebox/metrics"
	"jukebox/services"

	"github.com/gin-gonic/gin"
)

// streamContentType is sent for every stream; songs always map to <title>.mp3
const streamContentType = "audio/mpeg"

// StreamHandler streams the audio file behind a song
type StreamHandler struct {
	store       services.CatalogStore
	fileService services.FileService
	musicDir    string
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(store services.CatalogStore, fs services.FileService, musicDir string) *StreamHandler {
	return &StreamHandler{
		store:       store,
		fileService: fs,
		musicDir:    musicDir,
	}
}

// StreamSong sends <title>.mp3 from the music directory, honoring a
// single byte range when the client asks for one
func (h *StreamHandler) StreamSong(c *gin.Context) {
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

	fullPath, err := h.fileService.ResolveStreamPath(h.musicDir, song.Title)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "path security violation",
			"details": err.Error(),
		})
		return
	}

	fileInfo, err := os.Stat(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("stream file missing",
				logger.Int("song_id", song.ID),
				logger.String("path", fullPath))
			c.JSON(http.StatusNotFound, gin.H{
				"error": services.ErrStreamFileMissing.Error(),
				"title": song.Title,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "file access error",
			"details": err.Error(),
		})
		return
	}

	if fileInfo.IsDir() {
		c.JSON(http.StatusNotFound, gin.H{
			"error": services.ErrStreamFileMissing.Error(),
			"title": song.Title,
		})
		return
	}

	file, err := os.Open(fullPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to open file",
			"details": err.Error(),
		})
		return
	}
	defer file.Close()

	c.Header("Accept-Ranges", "bytes")

	if rangeHeader := c.GetHeader("Range"); rangeHeader != "" {
		h.handleRangeRequest(c, file, fileInfo.Size(), rangeHeader)
		return
	}

	c.Header("Content-Type", streamContentType)
	c.Header("Content-Length", strconv.FormatInt(fileInfo.Size(), 10))
	c.Status(http.StatusOK)

	written, err := io.Copy(c.Writer, file)
	metrics.RecordStreamBytes(written)
	if err != nil {
		logger.Warn("error streaming file", logger.String("path", fullPath), logger.ErrorField(err))
	}
}

// handleRangeRequest answers "bytes=start-end" and "bytes=start-" ranges
func (h *StreamHandler) handleRangeRequest(c *gin.Context, file *os.File, fileSize int64, rangeHeader string) {
	if !strings.HasPrefix(rangeHeader, "bytes=") {
		h.rangeNotSatisfiable(c, fileSize)
		return
	}

	ranges := strings.Split(strings.TrimPrefix(rangeHeader, "bytes="), "-")
	if len(ranges) != 2 || ranges[0] == "" {
		h.rangeNotSatisfiable(c, fileSize)
		return
	}

	start, err := strconv.ParseInt(ranges[0], 10, 64)
	if err != nil || start < 0 || start >= fileSize {
		h.rangeNotSatisfiable(c, fileSize)
		return
	}

	end := fileSize - 1
	if ranges[1] != "" {
		end, err = strconv.ParseInt(ranges[1], 10, 64)
		if err != nil || end < start {
			h.rangeNotSatisfiable(c, fileSize)
			return
		}
		if end >= fileSize {
			end = fileSize - 1
		}
	}

	contentLength := end - start + 1

	if _, err := file.Seek(start, io.SeekStart); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to seek file",
		})
		return
	}

	c.Header("Content-Type", streamContentType)
	c.Header("Content-Length", strconv.FormatInt(contentLength, 10))
	c.Header("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, fileSize))
	c.Status(http.StatusPartialContent)

	written, err := io.CopyN(c.Writer, file, contentLength)
	metrics.RecordStreamBytes(written)
	if err != nil {
		logger.Warn("error streaming range",
			logger.Int64("start", start),
			logger.Int64("end", end),
			logger.ErrorField(err))
	}
}

func (h *StreamHandler) rangeNotSatisfiable(c *gin.Context, fileSize int64) {
	c.Header("Content-Range", fmt.Sprintf("bytes */%d", fileSize))
	c.Status(http.StatusRequestedRangeNotSatisfiable)
}
