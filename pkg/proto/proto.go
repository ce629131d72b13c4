// Package proto defines the capability set every protocol implementation
// exposes to the repeater broker. The broker interacts with no other
// surface: it starts and stops protos, asks whether they are alive, and
// moves packets through rx and tx.
package proto

import (
	"sync"

	"github.com/dbehnke/dmr-bridge/pkg/protocol"
)

// Type identifies the protocol family of an implementation.
type Type int

const (
	TypeUnknown Type = iota
	TypeHomebrew
	TypeMMDVM
	TypeMBE
)

// Proto is the uniform contract between a protocol implementation and the
// broker. Start runs the protocol on its own worker; Stop requests
// shutdown and Wait blocks until the worker has exited.
//
// Rx delivers a received packet to the registered rx callbacks; callbacks
// must not retain the packet beyond their call. Tx accepts a packet for
// transmission, borrowing it only for the duration of the call.
type Proto interface {
	Name() string
	Type() Type
	Init() error
	Start() error
	Stop() error
	Wait() error
	Active() bool
	Rx(p *protocol.Packet)
	Tx(p *protocol.Packet) error

	// OnRx registers an rx callback, returning a stable key; RemoveRx
	// drops it again.
	OnRx(fn RxFunc) CallbackKey
	RemoveRx(key CallbackKey) bool
}

// RxFunc handles one received packet.
type RxFunc func(p *protocol.Packet)

// CallbackKey identifies one registered rx callback so it can be removed
// again.
type CallbackKey uint64

type callbackEntry struct {
	key CallbackKey
	fn  RxFunc
}

// Callbacks is an rx-callback registry. Callbacks run in registration
// order; registration hands out a stable key for removal.
type Callbacks struct {
	mu      sync.Mutex
	nextKey CallbackKey
	entries []callbackEntry
}

// Register appends a callback and returns its removal key.
func (c *Callbacks) Register(fn RxFunc) CallbackKey {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextKey++
	c.entries = append(c.entries, callbackEntry{key: c.nextKey, fn: fn})
	return c.nextKey
}

// Remove drops the callback registered under key. It reports whether the
// key was known.
func (c *Callbacks) Remove(key CallbackKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, e := range c.entries {
		if e.key == key {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Run invokes every registered callback with p, in registration order.
func (c *Callbacks) Run(p *protocol.Packet) {
	c.mu.Lock()
	entries := make([]callbackEntry, len(c.entries))
	copy(entries, c.entries)
	c.mu.Unlock()

	for _, e := range entries {
		e.fn(p)
	}
}

// Len returns the number of registered callbacks.
func (c *Callbacks) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
