package types

import "time"

// PlayEvent is pushed to WebSocket listeners after a play count changes
type PlayEvent struct {
	Type      string    `json:"type"` // always "play"
	SongID    int       `json:"songId"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	PlayCount int       `json:"playCount"`
	Timestamp time.Time `json:"timestamp"`
}
