package metrics

import (
	"sync"
)

// Collector gathers bridge counters. All methods are safe for concurrent
// use from the protocol workers.
type Collector struct {
	mu sync.RWMutex

	framesReceived uint64
	framesSent     uint64
	bytesReceived  uint64
	bytesSent      uint64

	framesByType map[string]uint64

	pingsSent     uint64
	pongsReceived uint64
	authAttempts  uint64
	authFailures  uint64

	activeStreams map[uint32]bool
}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	return &Collector{
		framesByType:  make(map[string]uint64),
		activeStreams: make(map[uint32]bool),
	}
}

// FrameReceived records one inbound frame of the given type.
func (c *Collector) FrameReceived(frameType string, bytes int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.framesReceived++
	c.bytesReceived += uint64(bytes)
	c.framesByType[frameType]++
}

// FrameSent records one outbound frame.
func (c *Collector) FrameSent(bytes int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.framesSent++
	c.bytesSent += uint64(bytes)
}

// PingSent records one keepalive ping.
func (c *Collector) PingSent() {
	c.mu.Lock()
	c.pingsSent++
	c.mu.Unlock()
}

// PongReceived records one keepalive answer.
func (c *Collector) PongReceived() {
	c.mu.Lock()
	c.pongsReceived++
	c.mu.Unlock()
}

// AuthAttempt records one login handshake, failed or not.
func (c *Collector) AuthAttempt(failed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.authAttempts++
	if failed {
		c.authFailures++
	}
}

// StreamStarted records a stream as active.
func (c *Collector) StreamStarted(streamID uint32) {
	c.mu.Lock()
	c.activeStreams[streamID] = true
	c.mu.Unlock()
}

// StreamEnded removes a stream from the active set.
func (c *Collector) StreamEnded(streamID uint32) {
	c.mu.Lock()
	delete(c.activeStreams, streamID)
	c.mu.Unlock()
}

// GetFramesReceived returns the inbound frame count.
func (c *Collector) GetFramesReceived() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.framesReceived
}

// GetFramesSent returns the outbound frame count.
func (c *Collector) GetFramesSent() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.framesSent
}

// GetBytesReceived returns the inbound byte count.
func (c *Collector) GetBytesReceived() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bytesReceived
}

// GetBytesSent returns the outbound byte count.
func (c *Collector) GetBytesSent() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bytesSent
}

// GetFramesByType returns a copy of the per-type frame counters.
func (c *Collector) GetFramesByType() map[string]uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]uint64, len(c.framesByType))
	for k, v := range c.framesByType {
		out[k] = v
	}
	return out
}

// GetPingsSent returns the keepalive ping count.
func (c *Collector) GetPingsSent() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pingsSent
}

// GetAuthAttempts returns handshake attempts and failures.
func (c *Collector) GetAuthAttempts() (attempts, failures uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.authAttempts, c.authFailures
}

// GetActiveStreams returns the number of streams currently active.
func (c *Collector) GetActiveStreams() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.activeStreams)
}
