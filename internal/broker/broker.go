// Package broker provides the publish/subscribe transport used by every
// service. Producers and consumers only ever see topic strings and opaque
// payloads; event schemas live in the models package.
package broker

import "context"

// Handler is invoked once per message delivered on a subscribed topic.
// The context is cancelled when the broker shuts down; a returned error is
// logged by the dispatcher and the message is dropped.
type Handler func(ctx context.Context, body []byte) error

// Broker decouples services from the underlying transport. AMQP implements it
// for real deployments, InMemory for tests and local single-process runs.
type Broker interface {
	// Publish hands the payload to the transport tagged with topic. It returns
	// once the local client has accepted the message; delivery to subscribers
	// is whatever the transport's default quality of service provides.
	Publish(ctx context.Context, topic string, body []byte) error

	// Subscribe registers handler for every message whose topic exactly equals
	// the argument. Handlers registered for the same topic are invoked in
	// registration order; a slow handler for one message never blocks dispatch
	// of the next message.
	Subscribe(topic string, handler Handler) error

	// Close terminates the session. In-flight handler invocations are not
	// guaranteed to complete; callers that want draining do it above this layer.
	Close() error
}
