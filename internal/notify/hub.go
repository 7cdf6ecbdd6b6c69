package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	familydomain "cras-cadastro/internal/domain/family"
	"cras-cadastro/pkg/logger"
)

// Message is the frame pushed to notice subscribers.
type Message struct {
	Type    string                   `json:"type"`
	Level   familydomain.NoticeLevel `json:"level"`
	Message string                   `json:"message"`
	At      time.Time                `json:"at"`
}

type SubscriberGauge interface {
	SetNoticeSubscribers(count int)
}

// Hub fans notices out to the websocket clients of the technician whose
// request produced them. Notices without a technician go to everyone.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	log     logger.Logger
	gauge   SubscriberGauge
	now     func() time.Time
}

func NewHub(log logger.Logger, gauge SubscriberGauge) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		log:     log,
		gauge:   gauge,
		now:     time.Now,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	h.report(count)
}

// Unregister removes the client and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	count := len(h.clients)
	h.mu.Unlock()
	h.report(count)
}

func (h *Hub) Notify(ctx context.Context, notice familydomain.Notice) {
	data, err := json.Marshal(Message{
		Type:    "notice",
		Level:   notice.Level,
		Message: notice.Message,
		At:      h.now().UTC(),
	})
	if err != nil {
		h.log.InternalError("notify.hub: marshal notice", err)
		return
	}

	tech, scoped := familydomain.TechnicianFromContext(ctx)

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if scoped && c.technicianID != tech.ID {
			continue
		}
		select {
		case c.send <- data:
		default:
			h.log.Debug("notify.hub: client buffer full, notice dropped", "technician_id", c.technicianID)
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) report(count int) {
	if h.gauge != nil {
		h.gauge.SetNoticeSubscribers(count)
	}
}
