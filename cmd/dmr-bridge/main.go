package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dbehnke/dmr-bridge/pkg/config"
	"github.com/dbehnke/dmr-bridge/pkg/database"
	"github.com/dbehnke/dmr-bridge/pkg/homebrew"
	"github.com/dbehnke/dmr-bridge/pkg/logger"
	"github.com/dbehnke/dmr-bridge/pkg/metrics"
	"github.com/dbehnke/dmr-bridge/pkg/protocol"
	"github.com/dbehnke/dmr-bridge/pkg/repeater"
	"github.com/dbehnke/dmr-bridge/pkg/web"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// authRetries bounds how often a timed-out handshake step is retried
// before the node gives up.
const authRetries = 3

func main() {
	rootCmd := &cobra.Command{
		Use:     "dmr-bridge",
		Short:   "A DMR network bridge node",
		Long:    `dmr-bridge connects to an upstream Homebrew protocol master and fans DMR voice and data bursts between the master and local collaborators.`,
		Version: fmt.Sprintf("%s (built at %s)", version, buildTime),
		RunE:    runBridge,
	}

	rootCmd.Flags().StringP("config", "c", "config.yaml", "Configuration file path")
	rootCmd.Flags().Bool("validate", false, "Validate configuration and exit")

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func runBridge(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	validateOnly, _ := cmd.Flags().GetBool("validate")

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if validateOnly {
		fmt.Println("Configuration is valid")
		return nil
	}

	logg, err := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logg.Sync()

	logg.Info("starting dmr-bridge",
		logger.String("version", version),
		logger.String("config_file", configFile))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup

	collector := metrics.NewCollector()

	// Last-heard log
	var heardRepo *database.HeardRepository
	if cfg.Database.Enabled {
		db, err := database.NewDB(database.Config{Path: cfg.Database.Path}, logg.WithComponent("database"))
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()
		heardRepo = database.NewHeardRepository(db.GetDB())
	}

	// Metrics endpoint
	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewPrometheusServer(metrics.PrometheusConfig{
			Enabled: cfg.Metrics.Enabled,
			Port:    cfg.Metrics.Port,
			Path:    cfg.Metrics.Path,
		}, collector, logg)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := metricsServer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logg.Error("metrics server error", logger.Error(err))
			}
		}()
	}

	// Upstream master session
	session, err := homebrew.New(homebrew.Config{
		LocalAddr:   cfg.Master.LocalAddr,
		LocalPort:   cfg.Master.LocalPort,
		MasterAddr:  cfg.Master.Addr,
		MasterPort:  cfg.Master.Port,
		Secret:      cfg.Master.Secret,
		AuthTimeout: time.Duration(cfg.Master.AuthTimeout) * time.Second,
		Repeater: &protocol.RepeaterConfig{
			RepeaterID:  cfg.Repeater.ID,
			Callsign:    cfg.Repeater.Callsign,
			RXFreq:      cfg.Repeater.RXFreq,
			TXFreq:      cfg.Repeater.TXFreq,
			TXPower:     cfg.Repeater.TXPower,
			ColorCode:   cfg.Repeater.ColorCode,
			Latitude:    cfg.Repeater.Latitude,
			Longitude:   cfg.Repeater.Longitude,
			Height:      cfg.Repeater.Height,
			Location:    cfg.Repeater.Location,
			Description: cfg.Repeater.Description,
			URL:         cfg.Repeater.URL,
			SoftwareID:  cfg.Repeater.SoftwareID,
			PackageID:   cfg.Repeater.PackageID,
		},
	}, logg)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	if err := authenticate(session, collector, logg); err != nil {
		return err
	}

	// Status server
	var webServer *web.Server
	if cfg.Web.Enabled {
		webServer = web.NewServer(web.Config{
			Enabled: cfg.Web.Enabled,
			Host:    cfg.Web.Host,
			Port:    cfg.Web.Port,
		}, logg).
			WithCollector(collector).
			WithStatusSource(session)
		if heardRepo != nil {
			webServer = webServer.WithHeardRepository(heardRepo)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := webServer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logg.Error("web server error", logger.Error(err))
			}
		}()
	}

	// Broker fanning packets between the master and local collaborators
	broker := repeater.New(logg)
	if err := broker.Register(session); err != nil {
		return err
	}

	broker.Observe(func(src string, p *protocol.Packet) {
		collector.FrameReceived(p.DataType.String(), protocol.DMRDataFrameSize)
		switch p.DataType {
		case protocol.DataTypeVoiceLCHeader:
			collector.StreamStarted(p.StreamID)
		case protocol.DataTypeTerminatorWithLC:
			collector.StreamEnded(p.StreamID)
		}

		if webServer != nil {
			webServer.BroadcastPacket(src, p)
		}
		if heardRepo != nil && p.DataType == protocol.DataTypeVoiceLCHeader {
			err := heardRepo.Create(&database.Heard{
				SrcID:    p.SrcID,
				DstID:    p.DstID,
				Timeslot: p.Timeslot,
				Private:  p.FLCO == protocol.FLCOPrivate,
				StreamID: p.StreamID,
				Proto:    src,
			})
			if err != nil {
				logg.Error("last-heard insert failed", logger.Error(err))
			}
		}
	})

	if err := broker.Start(); err != nil {
		return err
	}

	logg.Info("dmr-bridge running",
		logger.String("master", fmt.Sprintf("%s:%d", cfg.Master.Addr, cfg.Master.Port)),
		logger.Uint32("repeater_id", cfg.Repeater.ID))

	sig := <-sigChan
	logg.Info("received shutdown signal", logger.String("signal", sig.String()))

	broker.Stop()
	if err := session.Close(); err != nil {
		logg.Warn("session close failed", logger.Error(err))
	}

	cancel()
	wg.Wait()

	logg.Info("dmr-bridge stopped")
	return nil
}

// authenticate runs the handshake, retrying steps that time out.
func authenticate(session *homebrew.Homebrew, collector *metrics.Collector, logg *logger.Logger) error {
	for attempt := 1; ; attempt++ {
		err := session.Auth()
		collector.AuthAttempt(err != nil)
		if err == nil {
			return nil
		}
		if errors.Is(err, homebrew.ErrTimeout) && attempt <= authRetries {
			logg.Warn("handshake timed out, retrying",
				logger.Int("attempt", attempt))
			continue
		}
		return fmt.Errorf("authentication failed: %w", err)
	}
}
