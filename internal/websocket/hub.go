// internal/websocket/hub.go
package websocket

import (
	"context"
	"sync"

	wstypes "marketplace-service/internal/domain/websocket"

	"go.uber.org/zap"
)

const broadcastBacklog = 256

type Hub struct {
	// Registered clients by CRM account id (buyer Accounts id or Vendors id)
	clients map[string]map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage

	// closed when Run returns so pumps never block on a dead hub
	done chan struct{}

	logger *zap.Logger
}

type BroadcastMessage struct {
	AccountIDs []string
	Message    *wstypes.WSMessage
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, broadcastBacklog),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// Register hands a connected client to the hub.
func (h *Hub) Register(client *Client) error {
	select {
	case h.register <- client:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	if h.clients[client.accountID] == nil {
		h.clients[client.accountID] = make(map[*Client]bool)
	}
	h.clients[client.accountID][client] = true
	total := h.totalClients()
	h.mu.Unlock()

	h.logger.Info("websocket client connected",
		zap.String("account_id", client.accountID),
		zap.Int("total", total),
	)

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeConnected, map[string]interface{}{
		"accountId": client.accountID,
		"role":      client.role,
	}))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.accountID]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			client.Close()

			if len(clients) == 0 {
				delete(h.clients, client.accountID)
			}

			h.logger.Info("websocket client disconnected",
				zap.String("account_id", client.accountID),
				zap.Int("total", h.totalClients()),
			)
		}
	}
}

// deliver runs on the hub goroutine. Clients whose buffer is full are dropped.
func (h *Hub) deliver(msg *BroadcastMessage) {
	var slow []*Client

	h.mu.RLock()
	for _, accountID := range msg.AccountIDs {
		for client := range h.clients[accountID] {
			if !client.SendMessage(msg.Message) {
				slow = append(slow, client)
			}
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.logger.Warn("dropping slow websocket client", zap.String("account_id", client.accountID))
		h.unregisterClient(client)
	}
}

// PublishDealEvent queues the event for both parties of the deal. It never
// blocks; when the backlog is full the event is dropped and logged.
func (h *Hub) PublishDealEvent(eventType wstypes.EventType, data *wstypes.DealEventData) {
	recipients := data.Recipients()
	if len(recipients) == 0 {
		return
	}

	select {
	case h.broadcast <- &BroadcastMessage{AccountIDs: recipients, Message: wstypes.NewMessage(eventType, data)}:
	default:
		h.logger.Warn("websocket backlog full, dropping deal event",
			zap.String("type", string(eventType)),
			zap.String("deal_id", data.DealID),
		)
	}
}

func (h *Hub) ConnectedClients(accountID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[accountID])
}

func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalClients()
}

func (h *Hub) totalClients() int {
	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	return total
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for accountID, clients := range h.clients {
		for client := range clients {
			client.Close()
		}
		delete(h.clients, accountID)
	}
}
