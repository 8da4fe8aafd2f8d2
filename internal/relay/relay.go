// Package relay mirrors event bus traffic to NATS so other processes can
// observe chat activity.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"gc-portfolio/internal/config"
	"gc-portfolio/internal/eventbus"
)

// Envelope is the JSON body of every relayed message.
type Envelope struct {
	Topic     string    `json:"topic"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// Relay publishes bus events to <prefix>.<topic>.
type Relay struct {
	conn   *nats.Conn
	prefix string
	subs   []*nats.Subscription
}

// Connect dials NATS. The connection keeps retrying in the background if the
// server is not up yet.
func Connect(ctx context.Context, cfg config.RelayConfig) (*Relay, error) {
	opts := []nats.Option{
		nats.Name("gc-portfolio"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Printf("[relay] nats disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Printf("[relay] nats reconnected")
		}),
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	prefix := strings.TrimSuffix(cfg.SubjectPrefix, ".")
	if prefix == "" {
		prefix = "portfolio.chat"
	}
	return &Relay{conn: nc, prefix: prefix}, nil
}

// Subject returns the subject a topic is published on.
func (r *Relay) Subject(topic eventbus.Topic) string {
	return subject(r.prefix, topic)
}

func subject(prefix string, topic eventbus.Topic) string {
	return prefix + "." + string(topic)
}

// Attach forwards every event on bus.
func (r *Relay) Attach(bus *eventbus.Bus) {
	bus.SubscribeAll(func(ev eventbus.Event) {
		if err := r.Publish(ev); err != nil {
			log.Printf("[relay] publish %s: %v", ev.Topic, err)
		}
	})
}

// Publish sends one event.
func (r *Relay) Publish(ev eventbus.Event) error {
	data, err := encode(ev)
	if err != nil {
		return err
	}
	return r.conn.Publish(r.Subject(ev.Topic), data)
}

// Subscribe calls handler for every event relayed under the prefix.
func (r *Relay) Subscribe(handler func(Envelope)) error {
	sub, err := r.conn.Subscribe(r.prefix+".>", func(msg *nats.Msg) {
		var env Envelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			log.Printf("[relay] bad message on %s: %v", msg.Subject, err)
			return
		}
		handler(env)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s.>: %w", r.prefix, err)
	}
	r.subs = append(r.subs, sub)
	return nil
}

// Close drains subscriptions and closes the connection.
func (r *Relay) Close() {
	for _, sub := range r.subs {
		_ = sub.Unsubscribe()
	}
	r.conn.Close()
}

func encode(ev eventbus.Event) ([]byte, error) {
	payload := ev.Payload
	if err, ok := payload.(error); ok {
		payload = err.Error()
	}
	data, err := json.Marshal(Envelope{
		Topic:     string(ev.Topic),
		Timestamp: ev.Timestamp,
		Payload:   payload,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", ev.Topic, err)
	}
	return data, nil
}
