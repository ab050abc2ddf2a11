package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrUnsupported is returned when a feature is not supported by the selected broker.
	//
	// For example, not all brokers support delayed delivery.
	ErrUnsupported = errors.New("pkgmessage: unsupported operation")

	// ErrClosed is returned when Publish is called after Close.
	ErrClosed = errors.New("pkgmessage: client is closed")

	// ErrDestinationRequired is returned when Publish is called without a destination.
	ErrDestinationRequired = errors.New("pkgmessage: destination is required")
)

// Messaging is a broker-agnostic client that can publish messages.
type Messaging interface {
	io.Closer

	Publisher
}

// Publisher publishes messages to a destination (topic/subject).
type Publisher interface {
	// Publish sends a message to the destination.
	Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error)
}

// OutgoingMessage represents a broker-agnostic message to be published.
type OutgoingMessage struct {
	// Body is the message payload.
	Body []byte

	// Key is used by Kafka for partitioning.
	Key []byte

	// Headers support arbitrary binary values and duplicate keys.
	Headers []Header

	// Delay is used for deferred delivery (when supported).
	Delay time.Duration
}

// Header is a key/value pair used for message headers.
type Header struct {
	// Key is the header name.
	Key string
	// Value is the header value.
	Value []byte
}

// HeaderValue returns the first header value stored under key.
func (m OutgoingMessage) HeaderValue(key string) (string, bool) {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value), true
		}
	}
	return "", false
}

// PublishResult carries optional broker-specific publish metadata.
type PublishResult struct {
	// Topic is the destination used for publishing.
	Topic string

	// Timestamp is when the client handed the message to the broker.
	Timestamp time.Time
}
