package websocket

import (
	"log"
	"net/http"
	"sync"

	"anglehub/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	// In production, adjust the CheckOrigin function to allow only trusted origins.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ProgressBroker fans batch evaluation progress events out to websocket
// subscribers, keyed by conversation. Delivery is best effort: with no
// subscriber, or a slow one, events are dropped.
type ProgressBroker struct {
	mu   sync.Mutex
	subs map[string]map[chan services.ProgressEvent]struct{}
}

func NewProgressBroker() *ProgressBroker {
	return &ProgressBroker{
		subs: make(map[string]map[chan services.ProgressEvent]struct{}),
	}
}

// Publish delivers an event to every subscriber of its conversation.
func (b *ProgressBroker) Publish(ev services.ProgressEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[ev.ConversationID] {
		select {
		case ch <- ev:
		default:
			// Subscriber is not keeping up, drop the event.
		}
	}
}

func (b *ProgressBroker) subscribe(conversationID string) chan services.ProgressEvent {
	ch := make(chan services.ProgressEvent, 16)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[conversationID] == nil {
		b.subs[conversationID] = make(map[chan services.ProgressEvent]struct{})
	}
	b.subs[conversationID][ch] = struct{}{}
	return ch
}

func (b *ProgressBroker) unsubscribe(conversationID string, ch chan services.ProgressEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs[conversationID], ch)
	if len(b.subs[conversationID]) == 0 {
		delete(b.subs, conversationID)
	}
}

// ProgressHandler upgrades the connection and streams progress events for one
// conversation until the client disconnects.
func (b *ProgressBroker) ProgressHandler(c *gin.Context) {
	conversationID := c.Query("conversation")
	if conversationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing conversation parameter"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	ch := b.subscribe(conversationID)
	defer func() {
		b.unsubscribe(conversationID, ch)
		conn.Close()
	}()

	// Drain the reader so close frames are processed.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev := <-ch:
			if err := conn.WriteJSON(ev); err != nil {
				log.Printf("Error writing progress event: %v", err)
				return
			}
		case <-closed:
			return
		}
	}
}
