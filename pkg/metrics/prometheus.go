package metrics

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/dbehnke/dmr-bridge/pkg/logger"
)

// PrometheusConfig holds Prometheus server configuration
type PrometheusConfig struct {
	Enabled bool
	Port    int
	Path    string
}

// PrometheusHandler renders the collector in Prometheus text exposition
// format.
type PrometheusHandler struct {
	collector *Collector
}

// NewPrometheusHandler creates a new Prometheus handler
func NewPrometheusHandler(collector *Collector) *PrometheusHandler {
	return &PrometheusHandler{collector: collector}
}

// ServeHTTP handles HTTP requests for metrics
func (h *PrometheusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	var output strings.Builder

	output.WriteString("# HELP dmr_frames_received_total Total frames received from the master\n")
	output.WriteString("# TYPE dmr_frames_received_total counter\n")
	output.WriteString(fmt.Sprintf("dmr_frames_received_total %d\n", h.collector.GetFramesReceived()))

	output.WriteString("# HELP dmr_frames_sent_total Total frames sent to the master\n")
	output.WriteString("# TYPE dmr_frames_sent_total counter\n")
	output.WriteString(fmt.Sprintf("dmr_frames_sent_total %d\n", h.collector.GetFramesSent()))

	output.WriteString("# HELP dmr_bytes_received_total Total bytes received\n")
	output.WriteString("# TYPE dmr_bytes_received_total counter\n")
	output.WriteString(fmt.Sprintf("dmr_bytes_received_total %d\n", h.collector.GetBytesReceived()))

	output.WriteString("# HELP dmr_bytes_sent_total Total bytes sent\n")
	output.WriteString("# TYPE dmr_bytes_sent_total counter\n")
	output.WriteString(fmt.Sprintf("dmr_bytes_sent_total %d\n", h.collector.GetBytesSent()))

	output.WriteString("# HELP dmr_frames_by_type_total Frames received by frame type\n")
	output.WriteString("# TYPE dmr_frames_by_type_total counter\n")
	byType := h.collector.GetFramesByType()
	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		label := strings.ReplaceAll(t, " ", "_")
		output.WriteString(fmt.Sprintf("dmr_frames_by_type_total{frame_type=%q} %d\n", label, byType[t]))
	}

	output.WriteString("# HELP dmr_pings_sent_total Keepalive pings sent\n")
	output.WriteString("# TYPE dmr_pings_sent_total counter\n")
	output.WriteString(fmt.Sprintf("dmr_pings_sent_total %d\n", h.collector.GetPingsSent()))

	attempts, failures := h.collector.GetAuthAttempts()
	output.WriteString("# HELP dmr_auth_attempts_total Login handshakes attempted\n")
	output.WriteString("# TYPE dmr_auth_attempts_total counter\n")
	output.WriteString(fmt.Sprintf("dmr_auth_attempts_total %d\n", attempts))
	output.WriteString("# HELP dmr_auth_failures_total Login handshakes that failed\n")
	output.WriteString("# TYPE dmr_auth_failures_total counter\n")
	output.WriteString(fmt.Sprintf("dmr_auth_failures_total %d\n", failures))

	output.WriteString("# HELP dmr_streams_active Number of active voice streams\n")
	output.WriteString("# TYPE dmr_streams_active gauge\n")
	output.WriteString(fmt.Sprintf("dmr_streams_active %d\n", h.collector.GetActiveStreams()))

	_, _ = w.Write([]byte(output.String()))
}

// PrometheusServer is an HTTP server for Prometheus metrics
type PrometheusServer struct {
	config    PrometheusConfig
	collector *Collector
	log       *logger.Logger
	server    *http.Server
}

// NewPrometheusServer creates a new Prometheus metrics server
func NewPrometheusServer(config PrometheusConfig, collector *Collector, log *logger.Logger) *PrometheusServer {
	return &PrometheusServer{
		config:    config,
		collector: collector,
		log:       log.WithComponent("metrics"),
	}
}

// Start runs the metrics server until the context is cancelled.
func (s *PrometheusServer) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.log.Info("metrics server disabled")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(s.config.Path, NewPrometheusHandler(s.collector))

	addr := fmt.Sprintf(":%d", s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.server = &http.Server{Handler: mux}

	s.log.Info("metrics server listening",
		logger.Int("port", listener.Addr().(*net.TCPAddr).Port),
		logger.String("path", s.config.Path))

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics server shutdown error: %w", err)
		}
		return ctx.Err()
	case err := <-errChan:
		return err
	}
}
