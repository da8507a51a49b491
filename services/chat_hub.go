package services

import (
	"context"
	"sync"

	"github.com/go-logr/logr"
	"github.com/kendall-kelly/repair-shop-api/models"
	"github.com/kendall-kelly/repair-shop-api/monitoring"
)

// defaultSubscriberBuffer is how many undelivered messages a subscriber may
// fall behind before new messages are dropped for it
const defaultSubscriberBuffer = 32

type subscriber struct {
	ch chan models.ChatMessage
}

// ChatHub fans chat messages out to the live subscribers of each repair request
type ChatHub struct {
	mu          sync.Mutex
	subscribers map[string]map[*subscriber]struct{}
	buffer      int
	log         logr.Logger
}

// NewChatHub creates a hub whose subscribers buffer up to buffer messages
func NewChatHub(buffer int, log logr.Logger) *ChatHub {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &ChatHub{
		subscribers: make(map[string]map[*subscriber]struct{}),
		buffer:      buffer,
		log:         log.WithName("chat-hub"),
	}
}

// Subscribe returns a channel receiving every message published for
// requestID from now on. The channel is closed once ctx is done.
func (h *ChatHub) Subscribe(ctx context.Context, requestID string) <-chan models.ChatMessage {
	sub := &subscriber{ch: make(chan models.ChatMessage, h.buffer)}

	h.mu.Lock()
	if h.subscribers[requestID] == nil {
		h.subscribers[requestID] = make(map[*subscriber]struct{})
	}
	h.subscribers[requestID][sub] = struct{}{}
	h.mu.Unlock()
	monitoring.ChatSubscriberAdded()

	go func() {
		<-ctx.Done()
		h.unsubscribe(requestID, sub)
	}()

	return sub.ch
}

func (h *ChatHub) unsubscribe(requestID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.subscribers[requestID], sub)
	if len(h.subscribers[requestID]) == 0 {
		delete(h.subscribers, requestID)
	}
	close(sub.ch)
	monitoring.ChatSubscriberRemoved()
}

// Publish delivers message to every subscriber of its request without
// blocking. A subscriber whose buffer is full misses the message.
func (h *ChatHub) Publish(message models.ChatMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subscribers[message.RepairRequestID] {
		select {
		case sub.ch <- message:
		default:
			h.log.Info("dropped chat message for slow subscriber", "repairRequestID", message.RepairRequestID, "messageID", message.ID)
		}
	}
}

// SubscriberCount returns the number of live subscribers for requestID
func (h *ChatHub) SubscriberCount(requestID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[requestID])
}
