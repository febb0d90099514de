package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_SubscribeAndBroadcast(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	client := NewClient(nil, hub, "client-1")
	hub.Register <- client
	hub.Subscribe <- &Subscription{Client: client, Topic: PoolTopic(7)}

	require.Eventually(t, func() bool {
		return hub.GetSubscriptionCount() == 1
	}, time.Second, 10*time.Millisecond)

	hub.BroadcastPoolEvent(PoolEvent{
		PoolID:  7,
		Event:   EventBidPlaced,
		Address: "0x00000000000000000000000000000000000000aa",
	})

	select {
	case data := <-client.Send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, MessageTypePoolEvent, msg.Type)
		assert.Equal(t, PoolTopic(7), msg.Topic)
		assert.Equal(t, int64(7), msg.PoolID)
		assert.Equal(t, EventBidPlaced, msg.Event)
	case <-time.After(time.Second):
		t.Fatal("no broadcast received")
	}
}

func TestHub_BroadcastSkipsOtherTopics(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	client := NewClient(nil, hub, "client-1")
	hub.Register <- client
	hub.Subscribe <- &Subscription{Client: client, Topic: PoolTopic(1)}

	hub.BroadcastPoolEvent(PoolEvent{PoolID: 2, Event: EventOrderFilled})

	select {
	case <-client.Send:
		t.Fatal("received a broadcast for a topic the client never subscribed to")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_UnsubscribeStopsDelivery(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	client := NewClient(nil, hub, "client-1")
	hub.Register <- client
	hub.Subscribe <- &Subscription{Client: client, Topic: PoolTopic(3)}
	hub.Unsubscribe <- &Subscription{Client: client, Topic: PoolTopic(3)}

	// Unsubscribe is processed before the broadcast reaches the hub state.
	require.Eventually(t, func() bool {
		return hub.GetSubscriptionCount() == 0
	}, time.Second, 10*time.Millisecond)

	hub.BroadcastPoolEvent(PoolEvent{PoolID: 3, Event: EventClaimed})

	select {
	case <-client.Send:
		t.Fatal("received a broadcast after unsubscribing")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_DropsSlowConsumer(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	// Unbuffered send channel with no reader stands in for a stuck socket.
	slow := &Client{ID: "slow", Send: make(chan []byte), Subscriptions: make(map[string]bool)}
	hub.Register <- slow
	hub.Subscribe <- &Subscription{Client: slow, Topic: PoolTopic(5)}

	require.Eventually(t, func() bool {
		return hub.GetSubscriptionCount() == 1
	}, time.Second, 10*time.Millisecond)

	hub.BroadcastPoolEvent(PoolEvent{PoolID: 5, Event: EventBoxOpened})

	assert.Equal(t, 0, hub.GetClientCount())
	assert.Equal(t, 0, hub.GetSubscriptionCount())

	_, open := <-slow.Send
	assert.False(t, open)
}

func TestHub_UnregisterCleansSubscriptions(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	client := NewClient(nil, hub, "client-1")
	hub.Register <- client
	hub.Subscribe <- &Subscription{Client: client, Topic: PoolTopic(1)}
	hub.Subscribe <- &Subscription{Client: client, Topic: PoolTopic(2)}

	require.Eventually(t, func() bool {
		return hub.GetSubscriptionCount() == 2
	}, time.Second, 10*time.Millisecond)

	hub.Unregister <- client

	require.Eventually(t, func() bool {
		return hub.GetClientCount() == 0 && hub.GetSubscriptionCount() == 0
	}, time.Second, 10*time.Millisecond)
}
