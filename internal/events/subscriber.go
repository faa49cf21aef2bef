package events

// Message is a single event received from the bus: the concrete topic it was
// published on plus the raw JSON payload.
type Message struct {
	Topic string
	Data  []byte
}

// Subscriber receives events from the event bus.
type Subscriber interface {
	// Subscribe delivers events matching topic on the returned channel.
	// Wildcard subscriptions see the concrete topic in each Message.
	// Call the returned cancel function to unsubscribe and close the channel.
	Subscribe(topic string) (<-chan Message, func(), error)
	Close() error
}
