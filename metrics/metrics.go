package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jukebox_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jukebox_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5},
		},
		[]string{"method", "route"},
	)

	// Catalog
	CatalogSongs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jukebox_catalog_songs",
			Help: "Number of songs in the catalog",
		},
	)

	SongPlaysTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jukebox_song_plays_total",
			Help: "Total number of recorded plays",
		},
	)

	StreamBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jukebox_stream_bytes_total",
			Help: "Audio bytes written to streaming clients",
		},
	)

	PlayListeners = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jukebox_play_listeners",
			Help: "Connected play feed listeners",
		},
	)
)

// RecordAPIRequest records one finished request
func RecordAPIRequest(method, route, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordPlay counts a successful play-count increment
func RecordPlay() {
	SongPlaysTotal.Inc()
}

// RecordStreamBytes adds bytes sent by the stream endpoint
func RecordStreamBytes(n int64) {
	if n > 0 {
		StreamBytesTotal.Add(float64(n))
	}
}

// SetCatalogSize publishes the current catalog size
func SetCatalogSize(n int) {
	CatalogSongs.Set(float64(n))
}
