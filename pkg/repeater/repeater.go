// Package repeater is the local event broker: it fans every packet
// received on one registered protocol out to the tx side of all others.
package repeater

import (
	"fmt"
	"sync"

	"github.com/dbehnke/dmr-bridge/pkg/logger"
	"github.com/dbehnke/dmr-bridge/pkg/proto"
	"github.com/dbehnke/dmr-bridge/pkg/protocol"
)

// RouteFunc observes every routed packet; src is the name of the protocol
// the packet arrived on. Observers must copy what they keep.
type RouteFunc func(src string, p *protocol.Packet)

type registration struct {
	proto proto.Proto
	key   proto.CallbackKey
}

// Repeater owns the registered protocol instances and the routing between
// them. Protos are registered before Start and torn down by Stop.
type Repeater struct {
	log *logger.Logger

	mu        sync.Mutex
	protos    map[string]*registration
	observers []RouteFunc
}

// New creates an empty repeater.
func New(log *logger.Logger) *Repeater {
	return &Repeater{
		log:    log.WithComponent("repeater"),
		protos: make(map[string]*registration),
	}
}

// Register hooks a protocol into the broker under its name. The broker
// subscribes to the proto's rx callbacks; the registration key is kept so
// the hook can be removed again.
func (r *Repeater) Register(p proto.Proto) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, ok := r.protos[name]; ok {
		return fmt.Errorf("repeater: proto %q already registered", name)
	}

	key := p.OnRx(func(pkt *protocol.Packet) {
		r.route(name, pkt)
	})
	r.protos[name] = &registration{proto: p, key: key}

	r.log.Info("proto registered", logger.String("proto", name))
	return nil
}

// Unregister removes a protocol and its rx hook.
func (r *Repeater) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.protos[name]
	if !ok {
		return fmt.Errorf("repeater: proto %q not registered", name)
	}
	reg.proto.RemoveRx(reg.key)
	delete(r.protos, name)

	r.log.Info("proto unregistered", logger.String("proto", name))
	return nil
}

// Observe adds a route observer, called for every packet the broker moves.
func (r *Repeater) Observe(fn RouteFunc) {
	r.mu.Lock()
	r.observers = append(r.observers, fn)
	r.mu.Unlock()
}

// route fans one received packet out to every other registered proto. Each
// target gets its own copy; tx borrows the packet only for the call, but
// implementations stamp ids into it.
func (r *Repeater) route(src string, p *protocol.Packet) {
	r.mu.Lock()
	targets := make([]*registration, 0, len(r.protos))
	for name, reg := range r.protos {
		if name != src {
			targets = append(targets, reg)
		}
	}
	observers := make([]RouteFunc, len(r.observers))
	copy(observers, r.observers)
	r.mu.Unlock()

	for _, fn := range observers {
		fn(src, p)
	}

	for _, reg := range targets {
		cp := *p
		if err := reg.proto.Tx(&cp); err != nil {
			r.log.Error("tx failed",
				logger.String("proto", reg.proto.Name()),
				logger.Error(err))
		}
	}
}

// Start initializes and starts every registered proto.
func (r *Repeater) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, reg := range r.protos {
		if err := reg.proto.Init(); err != nil {
			return fmt.Errorf("repeater: init %q: %w", name, err)
		}
		if err := reg.proto.Start(); err != nil {
			return fmt.Errorf("repeater: start %q: %w", name, err)
		}
		r.log.Info("proto started", logger.String("proto", name))
	}
	return nil
}

// Stop stops every registered proto and waits for their workers to exit.
func (r *Repeater) Stop() {
	r.mu.Lock()
	regs := make([]*registration, 0, len(r.protos))
	for _, reg := range r.protos {
		regs = append(regs, reg)
	}
	r.mu.Unlock()

	for _, reg := range regs {
		if err := reg.proto.Stop(); err != nil {
			r.log.Error("stop failed",
				logger.String("proto", reg.proto.Name()),
				logger.Error(err))
			continue
		}
		_ = reg.proto.Wait()
	}
}

// Names returns the registered proto names.
func (r *Repeater) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.protos))
	for name := range r.protos {
		names = append(names, name)
	}
	return names
}
