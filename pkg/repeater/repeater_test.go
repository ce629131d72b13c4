package repeater

import (
	"sync"
	"testing"

	"github.com/dbehnke/dmr-bridge/pkg/logger"
	"github.com/dbehnke/dmr-bridge/pkg/proto"
	"github.com/dbehnke/dmr-bridge/pkg/protocol"
)

// fakeProto is an in-memory proto implementation for broker tests.
type fakeProto struct {
	name      string
	callbacks proto.Callbacks

	mu     sync.Mutex
	active bool
	sent   []protocol.Packet
}

func newFakeProto(name string) *fakeProto {
	return &fakeProto{name: name}
}

func (f *fakeProto) Name() string     { return f.name }
func (f *fakeProto) Type() proto.Type { return proto.TypeUnknown }
func (f *fakeProto) Init() error      { return nil }

func (f *fakeProto) Start() error {
	f.mu.Lock()
	f.active = true
	f.mu.Unlock()
	return nil
}

func (f *fakeProto) Stop() error {
	f.mu.Lock()
	f.active = false
	f.mu.Unlock()
	return nil
}

func (f *fakeProto) Wait() error { return nil }

func (f *fakeProto) Active() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

func (f *fakeProto) Rx(p *protocol.Packet) {
	f.callbacks.Run(p)
}

func (f *fakeProto) Tx(p *protocol.Packet) error {
	f.mu.Lock()
	f.sent = append(f.sent, *p)
	f.mu.Unlock()
	return nil
}

func (f *fakeProto) OnRx(fn proto.RxFunc) proto.CallbackKey {
	return f.callbacks.Register(fn)
}

func (f *fakeProto) RemoveRx(key proto.CallbackKey) bool {
	return f.callbacks.Remove(key)
}

func (f *fakeProto) sentPackets() []protocol.Packet {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]protocol.Packet, len(f.sent))
	copy(out, f.sent)
	return out
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "console"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func TestRouteFansOut(t *testing.T) {
	r := New(testLogger(t))
	upstream := newFakeProto("upstream")
	modem := newFakeProto("modem")
	audio := newFakeProto("audio")

	for _, p := range []proto.Proto{upstream, modem, audio} {
		if err := r.Register(p); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}

	pkt := &protocol.Packet{SrcID: 10, DstID: 20, DataType: protocol.DataTypeVoice}
	upstream.Rx(pkt)

	if got := len(upstream.sentPackets()); got != 0 {
		t.Errorf("Broker echoed %d packets back to the source proto", got)
	}
	for _, target := range []*fakeProto{modem, audio} {
		sent := target.sentPackets()
		if len(sent) != 1 {
			t.Fatalf("Expected 1 packet at %s, got %d", target.name, len(sent))
		}
		if sent[0].SrcID != 10 || sent[0].DstID != 20 {
			t.Errorf("Routed packet mismatch at %s: %+v", target.name, sent[0])
		}
	}
}

func TestRegisterTwice(t *testing.T) {
	r := New(testLogger(t))
	p := newFakeProto("upstream")

	if err := r.Register(p); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(p); err == nil {
		t.Error("Expected duplicate registration to fail")
	}
}

func TestUnregisterStopsRouting(t *testing.T) {
	r := New(testLogger(t))
	upstream := newFakeProto("upstream")
	modem := newFakeProto("modem")

	if err := r.Register(upstream); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(modem); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := r.Unregister("upstream"); err != nil {
		t.Fatalf("Unregister: %v", err)
	}
	if upstream.callbacks.Len() != 0 {
		t.Error("Unregister left the rx hook installed")
	}

	upstream.Rx(&protocol.Packet{})
	if len(modem.sentPackets()) != 0 {
		t.Error("Unregistered proto still routes")
	}

	if err := r.Unregister("upstream"); err == nil {
		t.Error("Expected error for unknown proto")
	}
}

func TestObservers(t *testing.T) {
	r := New(testLogger(t))
	upstream := newFakeProto("upstream")
	if err := r.Register(upstream); err != nil {
		t.Fatalf("Register: %v", err)
	}

	var gotSrc string
	var gotPkt protocol.Packet
	r.Observe(func(src string, p *protocol.Packet) {
		gotSrc = src
		gotPkt = *p
	})

	upstream.Rx(&protocol.Packet{StreamID: 42})

	if gotSrc != "upstream" {
		t.Errorf("Observer src = %q", gotSrc)
	}
	if gotPkt.StreamID != 42 {
		t.Errorf("Observer packet = %+v", gotPkt)
	}
}

func TestStartStop(t *testing.T) {
	r := New(testLogger(t))
	upstream := newFakeProto("upstream")
	modem := newFakeProto("modem")

	if err := r.Register(upstream); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(modem); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !upstream.Active() || !modem.Active() {
		t.Error("Expected all protos active after start")
	}

	r.Stop()
	if upstream.Active() || modem.Active() {
		t.Error("Expected all protos stopped")
	}
}
