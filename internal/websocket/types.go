package websocket

import (
	"strconv"
	"time"
)

// MessageType identifies the kind of frame exchanged with clients.
type MessageType string

const (
	MessageTypeSubscribe   MessageType = "subscribe"
	MessageTypeUnsubscribe MessageType = "unsubscribe"
	MessageTypePing        MessageType = "ping"
	MessageTypePong        MessageType = "pong"
	MessageTypeError       MessageType = "error"
	MessageTypePoolEvent   MessageType = "pool_event"
)

// EventType names the sale events broadcast on pool topics.
type EventType string

const (
	EventBidPlaced      EventType = "bid_placed"
	EventBidIncreased   EventType = "bid_increased"
	EventOrderFilled    EventType = "order_filled"
	EventAuctionSettled EventType = "auction_settled"
	EventClaimed        EventType = "claimed"
	EventBoxOpened      EventType = "box_opened"
)

// Message is the wire envelope for subscription control and pool events.
type Message struct {
	Type      MessageType `json:"type"`
	Topic     string      `json:"topic,omitempty"`
	PoolID    int64       `json:"pool_id,omitempty"`
	Event     EventType   `json:"event,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// ErrorMessage is sent to a client on protocol errors.
type ErrorMessage struct {
	Type      MessageType `json:"type"`
	Error     string      `json:"error"`
	Code      int         `json:"code"`
	Timestamp time.Time   `json:"timestamp"`
}

// PoolEvent carries a sale event for one pool.
type PoolEvent struct {
	PoolID    int64       `json:"pool_id"`
	Event     EventType   `json:"event"`
	Address   string      `json:"address,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// ConnectionStats tracks hub activity for the stats endpoint.
type ConnectionStats struct {
	TotalConnections   int64     `json:"total_connections"`
	ActiveConnections  int       `json:"active_connections"`
	TotalSubscriptions int       `json:"total_subscriptions"`
	MessagesSent       int64     `json:"messages_sent"`
	LastUpdate         time.Time `json:"last_update"`
}

const topicPoolPrefix = "pool"

// PoolTopic returns the subscription topic for a pool.
func PoolTopic(poolID int64) string {
	return topicPoolPrefix + ":" + strconv.FormatInt(poolID, 10)
}
