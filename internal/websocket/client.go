package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	readLimit  = 512
)

// Client is one WebSocket connection attached to the hub.
type Client struct {
	ID            string
	Conn          *websocket.Conn
	Hub           *Hub
	Send          chan []byte
	Subscriptions map[string]bool
	UserAddress   string
	IsAuth        bool

	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewClient wraps a raw connection.
func NewClient(conn *websocket.Conn, hub *Hub, id string) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		ID:            id,
		Conn:          conn,
		Hub:           hub,
		Send:          make(chan []byte, 256),
		Subscriptions: make(map[string]bool),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// ReadPump pumps subscription frames from the connection to the hub.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
		c.cancel()
	}()

	c.Conn.SetReadLimit(readLimit)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			_, message, err := c.Conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logrus.WithError(err).WithField("client_id", c.ID).Warn("WebSocket read error")
				}
				return
			}
			c.handleMessage(message)
		}
	}
}

// WritePump pumps hub messages to the connection and keeps it alive.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.cancel()
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(message []byte) {
	var msg Message
	if err := json.Unmarshal(message, &msg); err != nil {
		c.sendError("invalid message format", 400)
		return
	}

	switch msg.Type {
	case MessageTypeSubscribe:
		c.handleSubscribe(msg.PoolID)
	case MessageTypeUnsubscribe:
		c.handleUnsubscribe(msg.PoolID)
	case MessageTypePing:
		c.sendPong()
	default:
		c.sendError("unknown message type", 400)
	}
}

func (c *Client) handleSubscribe(poolID int64) {
	if poolID <= 0 {
		c.sendError("pool_id required for subscription", 400)
		return
	}
	topic := PoolTopic(poolID)

	c.mu.Lock()
	c.Subscriptions[topic] = true
	c.mu.Unlock()

	c.Hub.Subscribe <- &Subscription{Client: c, Topic: topic}
	c.sendConfirmation(MessageTypeSubscribe, poolID)
}

func (c *Client) handleUnsubscribe(poolID int64) {
	topic := PoolTopic(poolID)

	c.mu.Lock()
	delete(c.Subscriptions, topic)
	c.mu.Unlock()

	c.Hub.Unsubscribe <- &Subscription{Client: c, Topic: topic}
	c.sendConfirmation(MessageTypeUnsubscribe, poolID)
}

func (c *Client) sendError(errorMsg string, code int) {
	data, _ := json.Marshal(ErrorMessage{
		Type:      MessageTypeError,
		Error:     errorMsg,
		Code:      code,
		Timestamp: time.Now(),
	})
	c.trySend(data)
}

func (c *Client) sendPong() {
	data, _ := json.Marshal(Message{Type: MessageTypePong, Timestamp: time.Now()})
	c.trySend(data)
}

func (c *Client) sendConfirmation(msgType MessageType, poolID int64) {
	data, _ := json.Marshal(Message{
		Type:      msgType,
		Topic:     PoolTopic(poolID),
		PoolID:    poolID,
		Timestamp: time.Now(),
	})
	c.trySend(data)
}

func (c *Client) trySend(data []byte) {
	select {
	case c.Send <- data:
	default:
		close(c.Send)
	}
}

// IsSubscribed reports whether the client subscribed to topic.
func (c *Client) IsSubscribed(topic string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Subscriptions[topic]
}

// SetAuth marks the client authenticated as userAddress.
func (c *Client) SetAuth(userAddress string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.IsAuth = true
	c.UserAddress = userAddress
}

// Close tears the connection down.
func (c *Client) Close() {
	c.cancel()
	close(c.Send)
}
