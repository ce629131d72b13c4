// Package web is the embedded HTTP status server: a JSON status endpoint,
// the last-heard log, and a WebSocket feed of decoded frame headers.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/dbehnke/dmr-bridge/pkg/database"
	"github.com/dbehnke/dmr-bridge/pkg/logger"
	"github.com/dbehnke/dmr-bridge/pkg/metrics"
	"github.com/dbehnke/dmr-bridge/pkg/protocol"
)

// Config holds web server configuration
type Config struct {
	Enabled bool
	Host    string
	Port    int
}

// StatusSource reports the state of the upstream session.
type StatusSource interface {
	Name() string
	Active() bool
}

// Server is the embedded status server.
type Server struct {
	config    Config
	log       *logger.Logger
	hub       *Hub
	collector *metrics.Collector
	heard     *database.HeardRepository
	sources   []StatusSource
	started   time.Time
	server    *http.Server
}

// NewServer creates a new status server.
func NewServer(cfg Config, log *logger.Logger) *Server {
	l := log.WithComponent("web")
	return &Server{
		config:  cfg,
		log:     l,
		hub:     NewHub(l),
		started: time.Now(),
	}
}

// WithCollector attaches the metrics collector backing /api/status.
func (s *Server) WithCollector(c *metrics.Collector) *Server {
	s.collector = c
	return s
}

// WithHeardRepository attaches the last-heard log backing /api/lastheard.
func (s *Server) WithHeardRepository(r *database.HeardRepository) *Server {
	s.heard = r
	return s
}

// WithStatusSource adds a protocol instance to the status report.
func (s *Server) WithStatusSource(src StatusSource) *Server {
	s.sources = append(s.sources, src)
	return s
}

// BroadcastPacket pushes one decoded frame header to the dashboards.
func (s *Server) BroadcastPacket(src string, p *protocol.Packet) {
	s.hub.Broadcast(Event{
		Type: "packet",
		Data: map[string]interface{}{
			"proto":       src,
			"src_id":      p.SrcID,
			"dst_id":      p.DstID,
			"timeslot":    p.Timeslot,
			"private":     p.FLCO == protocol.FLCOPrivate,
			"data_type":   p.DataType.String(),
			"voice_frame": string(p.VoiceFrameLetter()),
			"stream_id":   fmt.Sprintf("0x%08x", p.StreamID),
		},
	})
}

// Start runs the server until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.log.Info("web server disabled")
		return nil
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.log.Info("web server listening", logger.String("addr", addr))

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.hub.closeAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("web server shutdown error: %w", err)
		}
		return ctx.Err()
	case err := <-errChan:
		return err
	}
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/api/status", s.handleStatus).Methods("GET")
	router.HandleFunc("/api/lastheard", s.handleLastHeard).Methods("GET")
	router.HandleFunc("/ws", s.hub.handleWS)
	return router
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	protos := make([]map[string]interface{}, 0, len(s.sources))
	for _, src := range s.sources {
		protos = append(protos, map[string]interface{}{
			"name":   src.Name(),
			"active": src.Active(),
		})
	}

	status := map[string]interface{}{
		"uptime_seconds": int(time.Since(s.started).Seconds()),
		"protos":         protos,
		"ws_clients":     s.hub.ClientCount(),
	}

	if s.collector != nil {
		attempts, failures := s.collector.GetAuthAttempts()
		status["frames_received"] = s.collector.GetFramesReceived()
		status["frames_sent"] = s.collector.GetFramesSent()
		status["pings_sent"] = s.collector.GetPingsSent()
		status["auth_attempts"] = attempts
		status["auth_failures"] = failures
		status["active_streams"] = s.collector.GetActiveStreams()
	}

	writeJSON(w, status)
}

func (s *Server) handleLastHeard(w http.ResponseWriter, r *http.Request) {
	if s.heard == nil {
		http.Error(w, "last-heard log not enabled", http.StatusNotFound)
		return
	}

	entries, err := s.heard.GetRecent(25)
	if err != nil {
		s.log.Error("last-heard query failed", logger.Error(err))
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, entries)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
