package types

// UnknownArtist is recorded when a file carries no artist tag
const UnknownArtist = "Unknown Artist"

// Song represents one catalog entry
type Song struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	PlayCount int    `json:"playCount"`
	Duration  int    `json:"duration"` // whole seconds
}

// AudioMetadata is what the extractor could read from a file.
// Empty fields mean the value was not available.
type AudioMetadata struct {
	Artist   string  `json:"artist,omitempty"`
	Duration float64 `json:"duration,omitempty"` // seconds
}
