package eventbus

import (
	evbus "github.com/asaskevich/EventBus"
)

// Bus decouples the analysis service from its observers. Publishing never
// blocks the pipeline: async subscribers run on their own goroutines and a
// publish with no subscribers is a no-op.
type Bus struct {
	bus evbus.Bus
}

func New() *Bus {
	return &Bus{bus: evbus.New()}
}

// Publish delivers the event synchronously to synchronous subscribers and
// queues it for asynchronous ones.
func (b *Bus) Publish(topic string, args ...interface{}) {
	b.bus.Publish(topic, args...)
}

// Subscribe registers a handler that runs inline with the publisher.
func (b *Bus) Subscribe(topic string, fn interface{}) error {
	return b.bus.Subscribe(topic, fn)
}

// SubscribeAsync registers a handler that runs on its own goroutine, so slow
// observers cannot stall a pipeline run.
func (b *Bus) SubscribeAsync(topic string, fn interface{}) error {
	return b.bus.SubscribeAsync(topic, fn, false)
}

// Unsubscribe removes a previously registered handler.
func (b *Bus) Unsubscribe(topic string, fn interface{}) error {
	return b.bus.Unsubscribe(topic, fn)
}

// HasSubscribers reports whether anyone listens on the topic.
func (b *Bus) HasSubscribers(topic string) bool {
	return b.bus.HasCallback(topic)
}

// WaitAsync blocks until all queued asynchronous handlers have finished.
// Used by shutdown and by tests.
func (b *Bus) WaitAsync() {
	b.bus.WaitAsync()
}
