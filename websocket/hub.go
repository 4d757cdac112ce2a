package websocket

import (
	"jukebox/logger"
	"jukebox/metrics"
	"jukebox/types"
	"sync"
	"time"
)

// Hub interface defines the methods for managing WebSocket connections
type Hub interface {
	Run()
	Stop()
	BroadcastPlay(song types.Song)
	RegisterClient(client *Client)
	UnregisterClient(client *Client)
	ClientCount() int
}

// hub maintains the set of listening clients and fans play events out to them
type hub struct {
	clients map[*Client]bool

	broadcast  chan types.PlayEvent
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub() Hub {
	return &hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan types.PlayEvent, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main event loop
func (h *hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			metrics.PlayListeners.Set(float64(len(h.clients)))
			h.mu.Unlock()
			logger.Debug("websocket client connected", logger.String("client", client.id))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			metrics.PlayListeners.Set(float64(len(h.clients)))
			h.mu.Unlock()
			logger.Debug("websocket client disconnected", logger.String("client", client.id))

		case event := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- event:
				default:
					// slow consumer
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()

		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop ends Run and disconnects every client
func (h *hub) Stop() {
	close(h.done)
}

// BroadcastPlay queues a play event for every listener without blocking
func (h *hub) BroadcastPlay(song types.Song) {
	event := types.PlayEvent{
		Type:      "play",
		SongID:    song.ID,
		Title:     song.Title,
		Artist:    song.Artist,
		PlayCount: song.PlayCount,
		Timestamp: time.Now(),
	}

	select {
	case h.broadcast <- event:
	default:
		logger.Warn("websocket broadcast channel full, dropping play event", logger.Int("song_id", song.ID))
	}
}

// RegisterClient registers a new client with the hub
func (h *hub) RegisterClient(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// UnregisterClient unregisters a client from the hub
func (h *hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount returns the number of connected listeners
func (h *hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
