package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusPublishSubscribe(t *testing.T) {
	bus := NewBus[string]()
	a := bus.Subscribe()
	b := bus.Subscribe()

	bus.Publish("hello")

	assert.Equal(t, "hello", <-a)
	assert.Equal(t, "hello", <-b)
	assert.Equal(t, 2, bus.SubscriberCount())
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus[int]()
	ch := bus.Subscribe()
	bus.Unsubscribe(ch)

	_, ok := <-ch
	assert.False(t, ok)
	assert.Zero(t, bus.SubscriberCount())

	assert.NotPanics(t, func() { bus.Publish(1) })
}

func TestBusDropsForSlowSubscriber(t *testing.T) {
	bus := NewBus[int]()
	ch := bus.Subscribe()

	for i := 0; i < subscriberBuffer+5; i++ {
		bus.Publish(i)
	}

	assert.Len(t, ch, subscriberBuffer)
	assert.Equal(t, 0, <-ch)
}

func TestBusClose(t *testing.T) {
	bus := NewBus[int]()
	ch := bus.Subscribe()
	bus.Close()
	bus.Close()

	_, ok := <-ch
	assert.False(t, ok)

	late := bus.Subscribe()
	_, ok = <-late
	assert.False(t, ok, "subscribe after close returns a closed channel")

	assert.NotPanics(t, func() {
		bus.Unsubscribe(ch)
		bus.Publish(2)
	})
}
