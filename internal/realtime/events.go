// file: internal/realtime/events.go
// version: 2.0.0
// guid: 9e8d7f6a-5c4b-3a21-0f9e-8d7c6b5a4392

package realtime

import (
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/oklog/ulid/v2"

	"github.com/jdfalk/bookshelf/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// EventType defines the type of real-time event
type EventType string

const (
	EventConnected       EventType = "connection.established"
	EventBookAdded       EventType = "book.added"
	EventBookRemoved     EventType = "book.removed"
	EventLibraryReloaded EventType = "library.reloaded"
	EventHeartbeat       EventType = "heartbeat"
)

// HeartbeatInterval is how often idle streams get a heartbeat event.
const HeartbeatInterval = 15 * time.Second

const clientBuffer = 100

// Event represents a real-time event to send to clients. ID is the ISBN
// for book events and empty for library-wide ones.
type Event struct {
	Type      EventType      `json:"type"`
	ID        string         `json:"id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// Client represents a connected SSE client
type Client struct {
	ID      string
	Channel chan *Event

	mu    sync.RWMutex
	isbns map[string]bool // books this client is interested in; empty means all
}

// NewClient creates a new SSE client
func NewClient(id string) *Client {
	return &Client{
		ID:      id,
		Channel: make(chan *Event, clientBuffer),
		isbns:   make(map[string]bool),
	}
}

// Subscribe limits the client to events about isbn (plus library-wide events).
func (c *Client) Subscribe(isbn string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isbns[models.NormalizeISBN(isbn)] = true
}

// Wants reports whether event should be delivered to c.
func (c *Client) Wants(event *Event) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return event.ID == "" || len(c.isbns) == 0 || c.isbns[event.ID]
}

// EventHub manages SSE connections and event distribution
type EventHub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	closed  chan struct{}
	once    sync.Once
}

// NewEventHub creates a new event hub
func NewEventHub() *EventHub {
	return &EventHub{
		clients: make(map[string]*Client),
		closed:  make(chan struct{}),
	}
}

// RegisterClient registers a new client
func (h *EventHub) RegisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	log.Printf("[DEBUG] Events: client %s registered, total clients: %d", client.ID, len(h.clients))
}

// UnregisterClient removes a client
func (h *EventHub) UnregisterClient(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, exists := h.clients[clientID]; exists {
		close(client.Channel)
		delete(h.clients, clientID)
		log.Printf("[DEBUG] Events: client %s unregistered, remaining clients: %d", clientID, len(h.clients))
	}
}

// Broadcast sends an event to every interested client. Slow clients with a
// full buffer miss the event.
func (h *EventHub) Broadcast(event *Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if !client.Wants(event) {
			continue
		}
		select {
		case client.Channel <- event:
		default:
			log.Printf("[WARN] Events: client %s channel full, dropping %s", client.ID, event.Type)
		}
	}
}

// SendBookAdded announces a newly added book.
func (h *EventHub) SendBookAdded(book models.Book) {
	h.Broadcast(bookEvent(EventBookAdded, book))
}

// SendBookRemoved announces a removed book.
func (h *EventHub) SendBookRemoved(book models.Book) {
	h.Broadcast(bookEvent(EventBookRemoved, book))
}

// SendLibraryReloaded announces that the collection was replaced from disk.
func (h *EventHub) SendLibraryReloaded(count int) {
	h.Broadcast(&Event{
		Type:      EventLibraryReloaded,
		Timestamp: time.Now(),
		Data:      map[string]any{"book_count": count},
	})
}

func bookEvent(t EventType, book models.Book) *Event {
	return &Event{
		Type:      t,
		ID:        book.ISBN,
		Timestamp: time.Now(),
		Data: map[string]any{
			"isbn":   book.ISBN,
			"title":  book.Title,
			"author": book.Author,
		},
	}
}

// GetClientCount returns the number of connected clients
func (h *EventHub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close ends every open stream. Further connections are refused.
func (h *EventHub) Close() {
	h.once.Do(func() { close(h.closed) })
}

// HandleSSE streams events to the caller until it disconnects or the hub
// is closed. ?isbn= may be repeated to filter book events.
func (h *EventHub) HandleSSE(c *gin.Context) {
	select {
	case <-h.closed:
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	default:
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache, no-transform")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	// Streams outlive the server's write timeout.
	if err := http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{}); err != nil {
		log.Printf("[DEBUG] Events: cannot clear write deadline: %v", err)
	}

	client := NewClient(ulid.Make().String())
	for _, isbn := range c.QueryArray("isbn") {
		client.Subscribe(isbn)
	}

	h.RegisterClient(client)
	defer h.UnregisterClient(client.ID)

	if !writeEvent(c, &Event{
		Type:      EventConnected,
		Timestamp: time.Now(),
		Data:      map[string]any{"client_id": client.ID},
	}) {
		return
	}

	ticker := time.NewTicker(HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-h.closed:
			return
		case event := <-client.Channel:
			if !writeEvent(c, event) {
				return
			}
		case <-ticker.C:
			if !writeEvent(c, &Event{Type: EventHeartbeat, Timestamp: time.Now()}) {
				return
			}
		}
	}
}

// writeEvent writes one "data: {json}" frame and flushes it.
func writeEvent(c *gin.Context, event *Event) bool {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ERROR] Events: marshaling %s: %v", event.Type, err)
		return true
	}
	if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
		log.Printf("[DEBUG] Events: write failed: %v", err)
		return false
	}
	c.Writer.Flush()
	return true
}
