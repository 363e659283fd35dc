// Package bus is the hub-and-spoke message bus between messaging channels
// and the conversation engine, built on Go channels.
package bus

import (
	"context"
	"sync"
)

type MessageBus struct {
	inbound  chan InboundTurn
	outbound chan OutboundMessage
	subs     map[string][]func(OutboundMessage) // channel name -> subscribers
	mu       sync.RWMutex
	bufSize  int
}

// NewMessageBus creates a bus with the given buffer size (default 100).
func NewMessageBus(bufSize int) *MessageBus {
	if bufSize <= 0 {
		bufSize = 100
	}
	return &MessageBus{
		inbound:  make(chan InboundTurn, bufSize),
		outbound: make(chan OutboundMessage, bufSize),
		subs:     make(map[string][]func(OutboundMessage)),
		bufSize:  bufSize,
	}
}

// PublishInbound sends a turn onto the bus.
func (b *MessageBus) PublishInbound(t InboundTurn) {
	b.inbound <- t
}

// PublishOutbound sends an outbound message onto the bus.
func (b *MessageBus) PublishOutbound(msg OutboundMessage) {
	b.outbound <- msg
}

// ConsumeInbound blocks until a turn is available or ctx is cancelled.
func (b *MessageBus) ConsumeInbound(ctx context.Context) (InboundTurn, error) {
	select {
	case t, ok := <-b.inbound:
		if !ok {
			return InboundTurn{}, context.Canceled
		}
		return t, nil
	case <-ctx.Done():
		return InboundTurn{}, ctx.Err()
	}
}

// Subscribe registers fn to receive outbound messages for the given channel.
// An empty channel string subscribes to ALL channels.
func (b *MessageBus) Subscribe(channel string, fn func(OutboundMessage)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[channel] = append(b.subs[channel], fn)
}

// DispatchOutbound reads outbound messages and delivers them to matching
// subscribers until ctx is cancelled or the outbound channel closes.
func (b *MessageBus) DispatchOutbound(ctx context.Context) {
	for {
		select {
		case msg, ok := <-b.outbound:
			if !ok {
				return
			}
			b.dispatch(msg)
		case <-ctx.Done():
			return
		}
	}
}

func (b *MessageBus) dispatch(msg OutboundMessage) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, fn := range b.subs[msg.Channel] {
		fn(msg)
	}
	// wildcard subscribers (empty string = all channels)
	for _, fn := range b.subs[""] {
		fn(msg)
	}
}

// Close closes both directions.
func (b *MessageBus) Close() {
	close(b.inbound)
	close(b.outbound)
}
