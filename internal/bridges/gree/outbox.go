package gree

import (
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/nerrad567/gray-logic-gree/internal/climate"
)

// outboundMessage is a packet ready for the gateway.
type outboundMessage struct {
	topic   string
	payload []byte
}

// outbox is the engines' transport. Send serialises the packet and queues it
// without blocking; a single worker publishes in queue order.
type outbox struct {
	queue chan outboundMessage
	done  <-chan struct{}
	sent  atomic.Uint64
	fails atomic.Uint64
}

func newOutbox(size int, done <-chan struct{}) *outbox {
	return &outbox{
		queue: make(chan outboundMessage, size),
		done:  done,
	}
}

// Send implements climate.Transport.
func (o *outbox) Send(pkt climate.Outbound) error {
	payload, err := json.Marshal(pkt)
	if err != nil {
		return fmt.Errorf("marshal packet: %w", err)
	}

	msg := outboundMessage{topic: GatewayOutTopic(pkt.Target()), payload: payload}

	select {
	case <-o.done:
		return ErrStopped
	default:
	}

	select {
	case o.queue <- msg:
		return nil
	default:
		return ErrOutboxFull
	}
}

// run publishes queued packets until done is closed. Packets still queued
// at shutdown are dropped.
func (o *outbox) run(publish func(topic string, payload []byte) error, onError func(error)) {
	for {
		select {
		case <-o.done:
			return
		case msg := <-o.queue:
			if err := publish(msg.topic, msg.payload); err != nil {
				o.fails.Add(1)
				onError(fmt.Errorf("publish %s: %w", msg.topic, err))
				continue
			}
			o.sent.Add(1)
		}
	}
}
