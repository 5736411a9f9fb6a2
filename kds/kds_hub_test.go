package kds_test

import (
	"testing"
	"time"

	"github.com/mesa-digital/restaurant-app/kds"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, sub *kds.Subscription) kds.Message {
	t.Helper()
	select {
	case msg := <-sub.C:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
	return kds.Message{}
}

func TestPublishReachesTenantTopicOnly(t *testing.T) {
	hub := kds.NewHub(4)
	kitchen := hub.Subscribe(1, kds.TopicKitchen)
	admin := hub.Subscribe(1, kds.TopicAdmin)
	otherTenant := hub.Subscribe(2, kds.TopicKitchen)
	defer kitchen.Close()
	defer admin.Close()
	defer otherTenant.Close()

	hub.Publish(1, kds.Message{Event: kds.EventOrderCreated, Data: 10}, kds.TopicKitchen)

	assert.Equal(t, kds.EventOrderCreated, receive(t, kitchen).Event)
	assert.Len(t, admin.C, 0)
	assert.Len(t, otherTenant.C, 0)
}

func TestPublishPreservesOrder(t *testing.T) {
	hub := kds.NewHub(8)
	sub := hub.Subscribe(1, kds.TopicAdmin)
	defer sub.Close()

	for i := 0; i < 5; i++ {
		hub.Publish(1, kds.Message{Event: kds.EventOrderStatusChanged, Data: i}, kds.TopicAdmin)
	}
	for i := 0; i < 5; i++ {
		assert.Equal(t, i, receive(t, sub).Data)
	}
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	hub := kds.NewHub(1)
	sub := hub.Subscribe(1, kds.TopicKitchen)
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		hub.Publish(1, kds.Message{Event: "a"}, kds.TopicKitchen)
		hub.Publish(1, kds.Message{Event: "b"}, kds.TopicKitchen)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
	assert.Equal(t, "a", receive(t, sub).Event)
	assert.Len(t, sub.C, 0)
}

func TestPublishWithoutSubscribers(t *testing.T) {
	hub := kds.NewHub(0)
	hub.Publish(9, kds.Message{Event: kds.EventTableClosed}, kds.TopicKitchen, kds.TopicAdmin)
	assert.Zero(t, hub.Subscribers(9, kds.TopicKitchen))
}

func TestCloseUnsubscribes(t *testing.T) {
	hub := kds.NewHub(1)
	sub := hub.Subscribe(1, kds.TopicKitchen)
	require.Equal(t, 1, hub.Subscribers(1, kds.TopicKitchen))

	sub.Close()
	sub.Close()
	assert.Zero(t, hub.Subscribers(1, kds.TopicKitchen))

	_, open := <-sub.C
	assert.False(t, open)
}

func TestParseTopic(t *testing.T) {
	topic, ok := kds.ParseTopic("kitchen")
	assert.True(t, ok)
	assert.Equal(t, kds.TopicKitchen, topic)

	_, ok = kds.ParseTopic("cashier")
	assert.False(t, ok)
}
