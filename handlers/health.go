package handlers

import (
	"net/http"
	"time"

	"jukebox/services"

	"github.com/gin-gonic/gin"
)

// Version is reported by the health endpoints
const Version = "1.0.0"

// HealthHandler handles health check endpoints
type HealthHandler struct {
	store    services.CatalogStore
	musicDir string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store services.CatalogStore, musicDir string) *HealthHandler {
	return &HealthHandler{
		store:    store,
		musicDir: musicDir,
	}
}

// HealthCheck returns the health status of the service
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "jukebox",
		"version":   Version,
		"songs":     h.store.Len(),
		"timestamp": time.Now().Unix(),
	})
}

// APIStatus returns where the catalog lives and how big it is
func (h *HealthHandler) APIStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":      "Jukebox API is running",
		"music_dir":    h.musicDir,
		"catalog_file": h.store.Path(),
		"songs":        h.store.Len(),
	})
}
