package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"qcview/internal/errors"
	"qcview/ports"

	"github.com/gin-gonic/gin"
)

// ssePingInterval keeps idle streams alive through proxies
const ssePingInterval = 15 * time.Second

// SSEClient represents a connected SSE client
type SSEClient struct {
	Topic   string
	Channel chan ports.WorkbookEvent
}

// SSEHub manages Server-Sent Events subscribers per topic
type SSEHub struct {
	clients    map[string]map[chan ports.WorkbookEvent]bool
	clientsMu  sync.RWMutex
	register   chan SSEClient
	unregister chan SSEClient
	broadcast  chan ports.WorkbookEvent
	done       chan struct{}
	closeOnce  sync.Once
}

// NewSSEHub creates a new SSE hub and starts its dispatch loop
func NewSSEHub() *SSEHub {
	hub := &SSEHub{
		clients:    make(map[string]map[chan ports.WorkbookEvent]bool),
		register:   make(chan SSEClient, 10),
		unregister: make(chan SSEClient, 10),
		broadcast:  make(chan ports.WorkbookEvent, 100),
		done:       make(chan struct{}),
	}

	go hub.run()
	return hub
}

// run processes SSE hub operations
func (h *SSEHub) run() {
	for {
		select {
		case <-h.done:
			return

		case client := <-h.register:
			h.clientsMu.Lock()
			if h.clients[client.Topic] == nil {
				h.clients[client.Topic] = make(map[chan ports.WorkbookEvent]bool)
			}
			h.clients[client.Topic][client.Channel] = true
			log.Printf("[SSE] Client registered for %s (total clients: %d)",
				client.Topic, len(h.clients[client.Topic]))
			h.clientsMu.Unlock()

		case client := <-h.unregister:
			h.clientsMu.Lock()
			if clients, exists := h.clients[client.Topic]; exists {
				if clients[client.Channel] {
					delete(clients, client.Channel)
					close(client.Channel)
				}
				if len(clients) == 0 {
					delete(h.clients, client.Topic)
				}
			}
			h.clientsMu.Unlock()

		case event := <-h.broadcast:
			h.clientsMu.RLock()
			for clientChan := range h.clients[event.Topic] {
				select {
				case clientChan <- event:
				default:
					log.Printf("[SSE] Client channel full for %s, skipping event", event.Topic)
				}
			}
			h.clientsMu.RUnlock()
		}
	}
}

// Close stops the dispatch loop
func (h *SSEHub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Publish sends an event to all clients listening to its topic
func (h *SSEHub) Publish(event ports.WorkbookEvent) {
	if event.Topic == "" {
		event.Topic = ports.TopicWorkbook
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case h.broadcast <- event:
	default:
		log.Printf("[SSE] Broadcast channel full, dropping event: %s", event.EventType)
	}
}

// Subscribe registers a listener and returns its channel and a cancel func
func (h *SSEHub) Subscribe(topic string) (<-chan ports.WorkbookEvent, func()) {
	ch := make(chan ports.WorkbookEvent, 10)
	h.register <- SSEClient{Topic: topic, Channel: ch}
	return ch, func() {
		select {
		case h.unregister <- SSEClient{Topic: topic, Channel: ch}:
		case <-h.done:
		}
	}
}

// HandleSSE streams events of the requested topic (default: workbook)
func (h *SSEHub) HandleSSE(c *gin.Context) {
	topic := c.DefaultQuery("topic", ports.TopicWorkbook)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	// the stream outlives the server's write timeout
	if err := http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		log.Printf("[SSE] Failed to clear write deadline: %v", err)
	}

	events, cancel := h.Subscribe(topic)
	defer cancel()

	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			eventJSON, err := json.Marshal(event)
			if err != nil {
				log.Printf("[SSE] Failed to marshal event: %v", err)
				return true
			}
			c.SSEvent(event.EventType, string(eventJSON))
			return true

		case <-time.After(ssePingInterval):
			c.SSEvent("ping", `{"status": "alive", "timestamp": "`+time.Now().Format(time.RFC3339)+`"}`)
			return true

		case <-ctx.Done():
			return false
		}
	})
}

// GetClientCount returns the number of active clients for a topic
func (h *SSEHub) GetClientCount(topic string) int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients[topic])
}
