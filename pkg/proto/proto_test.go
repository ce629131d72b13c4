package proto

import (
	"testing"

	"github.com/dbehnke/dmr-bridge/pkg/protocol"
)

func TestCallbacksRunInRegistrationOrder(t *testing.T) {
	var cb Callbacks
	var order []int

	cb.Register(func(p *protocol.Packet) { order = append(order, 1) })
	cb.Register(func(p *protocol.Packet) { order = append(order, 2) })
	cb.Register(func(p *protocol.Packet) { order = append(order, 3) })

	cb.Run(&protocol.Packet{})

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("Callbacks ran out of order: %v", order)
	}
}

func TestCallbacksRemove(t *testing.T) {
	var cb Callbacks
	var calls int

	key := cb.Register(func(p *protocol.Packet) { calls++ })
	cb.Register(func(p *protocol.Packet) { calls += 10 })

	if !cb.Remove(key) {
		t.Fatal("Remove of a known key failed")
	}
	if cb.Remove(key) {
		t.Error("Remove of an already-removed key succeeded")
	}

	cb.Run(&protocol.Packet{})
	if calls != 10 {
		t.Errorf("Removed callback still ran: calls=%d", calls)
	}
	if cb.Len() != 1 {
		t.Errorf("Expected 1 callback left, got %d", cb.Len())
	}
}

func TestCallbacksRunEmpty(t *testing.T) {
	var cb Callbacks
	cb.Run(&protocol.Packet{}) // must not panic
}
