// Package homebrew implements the client side of the UDP repeater-to-master
// protocol: login and challenge/response authentication, the keepalive
// loop, and tunnelling of DMR bursts as fixed-size datagrams.
package homebrew

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/dbehnke/dmr-bridge/pkg/logger"
	"github.com/dbehnke/dmr-bridge/pkg/proto"
	"github.com/dbehnke/dmr-bridge/pkg/protocol"
)

const protoName = "homebrew"

const (
	// recvBufferSize covers the largest legal frame; the login + digest +
	// config exchange needs 328 bytes.
	recvBufferSize = 328

	pingInterval = 3 * time.Second
	recvTimeout  = 1 * time.Second
	closeLinger  = 100 * time.Millisecond

	// DefaultAuthTimeout bounds each send-then-recv step of the handshake
	// unless the configuration says otherwise.
	DefaultAuthTimeout = 5 * time.Second
)

// AuthPhase tracks the authentication state machine.
type AuthPhase int

const (
	AuthNone AuthPhase = iota
	AuthInit
	AuthFail
	AuthConf
	AuthDone
)

// String returns the phase name used in logs.
func (a AuthPhase) String() string {
	switch a {
	case AuthNone:
		return "none"
	case AuthInit:
		return "init"
	case AuthFail:
		return "failed"
	case AuthConf:
		return "config"
	case AuthDone:
		return "done"
	}
	return "invalid"
}

// Config holds everything one master connection needs.
type Config struct {
	LocalAddr   string
	LocalPort   int
	MasterAddr  string
	MasterPort  int
	Secret      string
	AuthTimeout time.Duration
	Repeater    *protocol.RepeaterConfig
}

// txState is the per-timeslot transmit state. The stream identifier is
// stable for the duration of one burst and regenerated when a new burst
// begins.
type txState struct {
	streamID      uint32
	lastVoiceSent time.Time
	lastDataSent  time.Time
}

// Homebrew is one long-lived session with an upstream master. The session
// exclusively owns its socket and transmit state; the active flag and the
// transmit state are the only fields touched from outside the worker, under
// the session mutex.
type Homebrew struct {
	log    *logger.Logger
	cfg    Config
	id     []byte // 8 ASCII digits, not NUL-terminated
	conn   *net.UDPConn
	master *net.UDPAddr

	buffer [recvBufferSize]byte
	nonce  [protocol.NonceLength]byte
	auth   AuthPhase

	mu           sync.Mutex
	active       bool
	started      bool
	closed       bool
	initDone     bool
	tx           [2]txState
	lastPingSent time.Time
	done         chan struct{}

	callbacks proto.Callbacks
}

// Interface compliance check
var _ proto.Proto = (*Homebrew)(nil)

// New binds the local socket and records the master address. The session
// is not usable for DMR data until Auth has run to completion.
func New(cfg Config, log *logger.Logger) (*Homebrew, error) {
	if cfg.Repeater == nil {
		return nil, fmt.Errorf("homebrew: repeater configuration can't be nil")
	}

	master, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", cfg.MasterAddr, cfg.MasterPort))
	if err != nil {
		return nil, fmt.Errorf("homebrew: resolve master: %w", err)
	}

	local := &net.UDPAddr{IP: net.ParseIP(cfg.LocalAddr), Port: cfg.LocalPort}
	conn, err := net.ListenUDP("udp", local)
	if err != nil {
		return nil, fmt.Errorf("homebrew: bind: %w", err)
	}

	h := &Homebrew{
		log:    log.WithComponent(protoName),
		cfg:    cfg,
		id:     protocol.FormatRepeaterID(cfg.Repeater.RepeaterID),
		conn:   conn,
		master: master,
	}

	h.log.Debug("session created",
		logger.String("master", master.String()),
		logger.String("local", conn.LocalAddr().String()))
	return h, nil
}

// Auth runs the login handshake: repeater id, SHA-256 challenge response,
// then the configuration blob. Each send-then-recv step is bounded by the
// configured timeout; a timeout is returned to the caller, which may retry.
// ErrRejected is terminal.
func (h *Homebrew) Auth() error {
	timeout := h.cfg.AuthTimeout
	if timeout <= 0 {
		timeout = DefaultAuthTimeout
	}

	h.log.Info("connecting to master",
		logger.String("master", h.master.String()),
		logger.String("repeater_id", string(h.id)))

	for h.auth != AuthDone {
		switch h.auth {
		case AuthNone:
			if err := h.sendRaw(protocol.BuildRepeaterLogin(h.id)); err != nil {
				return err
			}
			if err := h.awaitLoginReply(timeout); err != nil {
				return err
			}

		case AuthInit:
			digest := sha256.New()
			digest.Write(h.nonce[:])
			digest.Write([]byte(h.cfg.Secret))
			key := protocol.BuildRepeaterKey(h.id, hex.EncodeToString(digest.Sum(nil)))

			if err := h.sendRaw(key); err != nil {
				return err
			}
			if err := h.awaitKeyReply(timeout); err != nil {
				return err
			}

		case AuthConf:
			h.log.Debug("logged in, sending configuration")
			if err := h.sendRaw(h.cfg.Repeater.Encode()); err != nil {
				return err
			}
			h.auth = AuthDone
			h.setLastPing(time.Now())

		case AuthFail:
			return ErrRejected
		}
	}

	return nil
}

// awaitLoginReply reads until the master answers the login. DMR data or
// other stray frames arriving at this stage are ignored.
func (h *Homebrew) awaitLoginReply(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		data, err := h.recvRaw(time.Until(deadline))
		if err != nil {
			return err
		}

		switch protocol.FrameTypeOf(data) {
		case protocol.FrameMasterNAK:
			h.auth = AuthFail
			return fmt.Errorf("%w: master refused our DMR id", ErrRejected)
		case protocol.FrameMasterACKNonce:
			nonce, err := protocol.Nonce(data)
			if err != nil {
				return err
			}
			copy(h.nonce[:], nonce)
			h.log.Debug("master accepted our repeater id")
			h.auth = AuthInit
			return nil
		}
	}
}

// awaitKeyReply reads until the master answers the challenge response.
func (h *Homebrew) awaitKeyReply(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		data, err := h.recvRaw(time.Until(deadline))
		if err != nil {
			return err
		}

		switch protocol.FrameTypeOf(data) {
		case protocol.FrameMasterNAK:
			h.auth = AuthFail
			return fmt.Errorf("%w: master refused our key", ErrRejected)
		case protocol.FrameMasterACK:
			h.log.Debug("master accepted key, logged in")
			h.auth = AuthConf
			return nil
		}
	}
}

// AuthState returns the current authentication phase.
func (h *Homebrew) AuthState() AuthPhase {
	return h.auth
}

// sendRaw sends one exact datagram; the protocol has no fragmentation, so
// a short write is an error.
func (h *Homebrew) sendRaw(data []byte) error {
	n, err := h.conn.WriteToUDP(data, h.master)
	if err != nil {
		return fmt.Errorf("homebrew: send to %s: %w", h.master, err)
	}
	if n != len(data) {
		return fmt.Errorf("%w: %d of %d bytes", ErrShortWrite, n, len(data))
	}
	return nil
}

// recvRaw reads one datagram, bounded by timeout. Datagram boundaries are
// the frame boundaries; nothing is ever reassembled.
func (h *Homebrew) recvRaw(timeout time.Duration) ([]byte, error) {
	if err := h.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, fmt.Errorf("homebrew: set deadline: %w", err)
	}

	n, _, err := h.conn.ReadFromUDP(h.buffer[:])
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("homebrew: recv: %w", err)
	}
	return h.buffer[:n], nil
}

// generateStreamID mints a fresh 32-bit stream identifier.
func generateStreamID() uint32 {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand never fails on supported platforms; fall back to a
		// time-derived value rather than aborting a transmission.
		return uint32(time.Now().UnixNano())
	}
	return binary.BigEndian.Uint32(b[:])
}

// newBurst reports whether a packet opens a new voice or data burst, which
// regenerates the timeslot's stream identifier.
func newBurst(p *protocol.Packet) bool {
	if p.Sequence != 0 {
		return false
	}
	return p.DataType == protocol.DataTypeVoiceLCHeader || p.DataType == protocol.DataTypeDataHeader
}

// Send stamps the packet with the timeslot's stream identifier, minting a
// fresh one when the packet opens a new burst, and puts the encoded frame
// on the wire.
func (h *Homebrew) Send(p *protocol.Packet) error {
	if p == nil || p.Timeslot > 1 {
		return fmt.Errorf("homebrew: invalid packet")
	}
	if p.RepeaterID == 0 {
		p.RepeaterID = h.cfg.Repeater.RepeaterID
	}

	ts := p.Timeslot
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrClosed
	}
	switch p.DataType {
	case protocol.DataTypeVoice, protocol.DataTypeVoiceSync:
		h.tx[ts].lastVoiceSent = time.Now()
	default:
		if newBurst(p) {
			h.tx[ts].streamID = generateStreamID()
			h.log.Debug("new stream",
				logger.Uint8("ts", ts),
				logger.Uint32("src", p.SrcID),
				logger.Uint32("dst", p.DstID),
				logger.Uint32("stream_id", h.tx[ts].streamID))
		}
		h.tx[ts].lastDataSent = time.Now()
	}
	p.StreamID = h.tx[ts].streamID
	h.mu.Unlock()

	return h.sendRaw(protocol.EncodeDMRData(p))
}

// StreamID returns the current stream identifier for a timeslot.
func (h *Homebrew) StreamID(ts uint8) uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.tx[ts&1].streamID
}

func (h *Homebrew) lastPing() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastPingSent
}

func (h *Homebrew) setLastPing(t time.Time) {
	h.mu.Lock()
	h.lastPingSent = t
	h.mu.Unlock()
}

// loop is the steady-state dispatcher: keepalive every pingInterval, one
// bounded read per iteration, frames dispatched by kind. It runs until the
// active flag is cleared or the transport fails.
func (h *Homebrew) loop() {
	defer close(h.done)
	h.log.Debug("loop running")

	for h.Active() {
		if time.Since(h.lastPing()) > pingInterval {
			h.log.Debug("pinging master")
			if err := h.sendRaw(protocol.BuildMasterPing(h.id)); err != nil {
				h.log.Error("ping failed", logger.Error(err))
				break
			}
			h.setLastPing(time.Now())
		}

		data, err := h.recvRaw(recvTimeout)
		if errors.Is(err, ErrTimeout) {
			continue
		}
		if err != nil {
			h.log.Error("loop receive failed", logger.Error(err))
			break
		}

		if err := h.dispatch(data); err != nil {
			h.log.Error("loop send failed", logger.Error(err))
			break
		}
	}

	h.log.Debug("loop finished")
}

// dispatch handles one received frame. Only a failed reply to a master
// ping is returned as an error; undecodable frames are dropped.
func (h *Homebrew) dispatch(data []byte) error {
	frameType := protocol.FrameTypeOf(data)
	switch frameType {
	case protocol.FrameDMRData:
		p, err := protocol.ParseDMRData(data)
		if err != nil {
			h.log.Debug("dropping undecodable data frame", logger.Error(err))
			return nil
		}
		h.log.Debug("received packet",
			logger.String("data_type", p.DataType.String()),
			logger.Uint32("src", p.SrcID),
			logger.Uint32("dst", p.DstID),
			logger.Uint32("stream_id", p.StreamID))
		h.Rx(p)

	case protocol.FrameMasterPing:
		h.log.Debug("ping? pong!")
		return h.sendRaw(protocol.BuildRepeaterPong(data))

	case protocol.FrameMasterACK, protocol.FrameRepeaterPong,
		protocol.FrameRepeaterBeacon, protocol.FrameRepeaterRSSI:
		h.log.Debug("dropping frame", logger.String("frame_type", frameType.String()))

	case protocol.FrameMasterClosing:
		h.log.Error("master closing")

	default:
		h.log.Debug("dropping unknown frame", logger.Int("bytes", len(data)))
	}

	return nil
}

// Close sends the graceful close frame, waits briefly and releases the
// socket. The session cannot be reused afterwards.
func (h *Homebrew) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrClosed
	}
	h.closed = true
	wasRunning := h.started && h.active
	h.active = false
	done := h.done
	h.mu.Unlock()

	if wasRunning {
		select {
		case <-done:
		case <-time.After(2 * recvTimeout):
		}
	}

	if h.auth == AuthDone {
		if err := h.sendRaw(protocol.BuildRepeaterClosing(h.id)); err != nil {
			h.log.Warn("close frame failed", logger.Error(err))
		}
		time.Sleep(closeLinger)
	}

	return h.conn.Close()
}

// Proto capability set

// Name returns the protocol name.
func (h *Homebrew) Name() string {
	return protoName
}

// Type returns the protocol type.
func (h *Homebrew) Type() proto.Type {
	return proto.TypeHomebrew
}

// Init verifies the session is ready to run: authentication must be done.
func (h *Homebrew) Init() error {
	if h.auth != AuthDone {
		h.log.Error("init before authentication, did you call Auth?")
		return ErrNotReady
	}

	h.mu.Lock()
	h.initDone = true
	h.mu.Unlock()
	return nil
}

// Start launches the protocol loop on its own worker.
func (h *Homebrew) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.initDone {
		return fmt.Errorf("homebrew: start without init")
	}
	if h.started {
		return fmt.Errorf("homebrew: already active")
	}

	h.started = true
	h.active = true
	h.done = make(chan struct{})
	go h.loop()
	return nil
}

// Stop clears the active flag; the worker observes it at the next loop
// iteration, with worst-case latency of one receive timeout.
func (h *Homebrew) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.started {
		h.log.Info("not active")
		return nil
	}
	h.active = false
	return nil
}

// Wait blocks until the worker has exited.
func (h *Homebrew) Wait() error {
	h.mu.Lock()
	started := h.started
	done := h.done
	h.mu.Unlock()

	if !started {
		return nil
	}
	<-done
	return nil
}

// Active reports whether the worker is running.
func (h *Homebrew) Active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.started && h.active
}

// Rx invokes every registered rx callback in registration order. Callbacks
// must not retain the packet beyond their call.
func (h *Homebrew) Rx(p *protocol.Packet) {
	if p == nil {
		return
	}
	h.callbacks.Run(p)
}

// Tx transmits a packet towards the master, stamping the session's
// repeater id when the packet carries none.
func (h *Homebrew) Tx(p *protocol.Packet) error {
	if p == nil {
		return fmt.Errorf("homebrew: invalid packet")
	}
	if p.RepeaterID == 0 {
		p.RepeaterID = h.cfg.Repeater.RepeaterID
	}
	return h.Send(p)
}

// OnRx registers an rx callback and returns its removal key.
func (h *Homebrew) OnRx(fn proto.RxFunc) proto.CallbackKey {
	return h.callbacks.Register(fn)
}

// RemoveRx drops a previously registered rx callback.
func (h *Homebrew) RemoveRx(key proto.CallbackKey) bool {
	return h.callbacks.Remove(key)
}
