package server

import (
	"sync"
)

// Broker is an in-process pub/sub keyed by room ID. Each subscriber is a
// connection's outbound queue.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[string]chan<- []byte
	// last delivered sequence per room and event kind
	last map[string]map[string]uint64
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[string]chan<- []byte),
		last: make(map[string]map[string]uint64),
	}
}

// Subscribe adds the connection's queue to the room.
func (b *Broker) Subscribe(roomID, connID string, ch chan<- []byte) {
	b.mu.Lock()
	if b.subs[roomID] == nil {
		b.subs[roomID] = make(map[string]chan<- []byte)
	}
	b.subs[roomID][connID] = ch
	b.mu.Unlock()
}

// Unsubscribe removes the connection from the room.
func (b *Broker) Unsubscribe(roomID, connID string) {
	b.mu.Lock()
	b.unsubscribe(roomID, connID)
	b.mu.Unlock()
}

// UnsubscribeAll removes the connection from every room.
func (b *Broker) UnsubscribeAll(connID string) {
	b.mu.Lock()
	for roomID := range b.subs {
		b.unsubscribe(roomID, connID)
	}
	b.mu.Unlock()
}

func (b *Broker) unsubscribe(roomID, connID string) {
	delete(b.subs[roomID], connID)
	if len(b.subs[roomID]) == 0 {
		delete(b.subs, roomID)
		delete(b.last, roomID)
	}
}

// Publish sends data to every subscriber of the room. It is skipped when an
// event of the same kind with a higher sequence was already published, and
// reports whether it was delivered.
func (b *Broker) Publish(roomID, kind string, seq uint64, data []byte) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[roomID]
	if len(subs) == 0 {
		return false
	}
	kinds := b.last[roomID]
	if kinds == nil {
		kinds = make(map[string]uint64)
		b.last[roomID] = kinds
	}
	if seq < kinds[kind] {
		return false
	}
	kinds[kind] = seq

	deliver(subs, data)
	return true
}

// Broadcast sends data to every subscriber of the topic without sequence
// checks. It reports whether anyone was subscribed.
func (b *Broker) Broadcast(topic string, data []byte) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[topic]
	deliver(subs, data)
	return len(subs) > 0
}

func deliver(subs map[string]chan<- []byte, data []byte) {
	for _, ch := range subs {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
}

// Subscribers returns the number of connections subscribed to the room.
func (b *Broker) Subscribers(roomID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[roomID])
}
