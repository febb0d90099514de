package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Subscription pairs a client with a pool topic.
type Subscription struct {
	Client *Client
	Topic  string
}

// Hub maintains the set of active clients and fans pool events out to their
// subscribers.
type Hub struct {
	Clients map[*Client]bool

	Register    chan *Client
	Unregister  chan *Client
	Subscribe   chan *Subscription
	Unsubscribe chan *Subscription

	// topic -> subscribed clients
	Subscriptions map[string]map[*Client]bool

	Stats ConnectionStats

	mu       sync.RWMutex
	stop     chan struct{}
	stopOnce sync.Once
}

// NewHub creates an event hub.
func NewHub() *Hub {
	return &Hub{
		Clients:       make(map[*Client]bool),
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		Subscribe:     make(chan *Subscription),
		Unsubscribe:   make(chan *Subscription),
		Subscriptions: make(map[string]map[*Client]bool),
		stop:          make(chan struct{}),
		Stats:         ConnectionStats{LastUpdate: time.Now()},
	}
}

// Run processes registration and subscription traffic until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)
		case client := <-h.Unregister:
			h.unregisterClient(client)
		case sub := <-h.Subscribe:
			h.subscribeClient(sub)
		case sub := <-h.Unsubscribe:
			h.unsubscribeClient(sub)
		case <-h.stop:
			return
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.Clients[client] = true
	h.Stats.TotalConnections++
	h.Stats.ActiveConnections++
	h.Stats.LastUpdate = time.Now()

	logrus.WithField("client_id", client.ID).Debug("WebSocket client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.Clients[client]; !ok {
		return
	}
	delete(h.Clients, client)
	close(client.Send)
	h.Stats.ActiveConnections--
	h.Stats.LastUpdate = time.Now()

	for topic, clients := range h.Subscriptions {
		if _, subscribed := clients[client]; subscribed {
			delete(clients, client)
			h.Stats.TotalSubscriptions--
			if len(clients) == 0 {
				delete(h.Subscriptions, topic)
			}
		}
	}

	logrus.WithField("client_id", client.ID).Debug("WebSocket client unregistered")
}

func (h *Hub) subscribeClient(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.Subscriptions[sub.Topic] == nil {
		h.Subscriptions[sub.Topic] = make(map[*Client]bool)
	}
	if !h.Subscriptions[sub.Topic][sub.Client] {
		h.Subscriptions[sub.Topic][sub.Client] = true
		h.Stats.TotalSubscriptions++
		h.Stats.LastUpdate = time.Now()
	}
}

func (h *Hub) unsubscribeClient(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, exists := h.Subscriptions[sub.Topic]
	if !exists {
		return
	}
	if _, subscribed := clients[sub.Client]; subscribed {
		delete(clients, sub.Client)
		h.Stats.TotalSubscriptions--
		h.Stats.LastUpdate = time.Now()
		if len(clients) == 0 {
			delete(h.Subscriptions, sub.Topic)
		}
	}
}

// BroadcastToTopic sends a message to every client subscribed to topic.
func (h *Hub) BroadcastToTopic(topic string, message interface{}) {
	h.mu.RLock()
	subscribed, exists := h.Subscriptions[topic]
	if !exists || len(subscribed) == 0 {
		h.mu.RUnlock()
		return
	}
	clients := make([]*Client, 0, len(subscribed))
	for client := range subscribed {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	data, err := json.Marshal(message)
	if err != nil {
		logrus.WithError(err).WithField("topic", topic).Error("Failed to marshal broadcast message")
		return
	}

	var dropped []*Client
	var sent int64
	for _, client := range clients {
		select {
		case client.Send <- data:
			sent++
		default:
			// Slow consumer; drop the connection rather than block.
			close(client.Send)
			dropped = append(dropped, client)
		}
	}

	h.mu.Lock()
	for _, client := range dropped {
		delete(h.Clients, client)
		if topicClients, ok := h.Subscriptions[topic]; ok {
			delete(topicClients, client)
		}
	}
	h.Stats.MessagesSent += sent
	h.Stats.LastUpdate = time.Now()
	h.mu.Unlock()
}

// BroadcastPoolEvent publishes a sale event to the pool's topic.
func (h *Hub) BroadcastPoolEvent(event PoolEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	h.BroadcastToTopic(PoolTopic(event.PoolID), Message{
		Type:      MessageTypePoolEvent,
		Topic:     PoolTopic(event.PoolID),
		PoolID:    event.PoolID,
		Event:     event.Event,
		Data:      event,
		Timestamp: event.Timestamp,
	})
}

// GetStats returns a snapshot of the connection statistics.
func (h *Hub) GetStats() ConnectionStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.Stats
}

// GetClientCount returns the number of active clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.Clients)
}

// GetSubscriptionCount returns the total number of topic subscriptions.
func (h *Hub) GetSubscriptionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	count := 0
	for _, clients := range h.Subscriptions {
		count += len(clients)
	}
	return count
}

// Stop shuts the hub down and closes every client connection.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stop)

		h.mu.Lock()
		clients := make([]*Client, 0, len(h.Clients))
		for client := range h.Clients {
			clients = append(clients, client)
			delete(h.Clients, client)
		}
		h.mu.Unlock()

		for _, client := range clients {
			client.Close()
		}
	})
}
