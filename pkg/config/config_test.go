package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Master: MasterConfig{
			Addr:        "203.0.113.10",
			Port:        62030,
			Secret:      "passw0rd",
			AuthTimeout: 5,
		},
		Repeater: RepeaterConfig{
			ID:        312000,
			Callsign:  "N0CALL",
			ColorCode: 1,
		},
	}
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Valid config rejected: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing master addr", func(c *Config) { c.Master.Addr = "" }},
		{"master port zero", func(c *Config) { c.Master.Port = 0 }},
		{"master port too large", func(c *Config) { c.Master.Port = 70000 }},
		{"missing secret", func(c *Config) { c.Master.Secret = "" }},
		{"zero auth timeout", func(c *Config) { c.Master.AuthTimeout = 0 }},
		{"repeater id zero", func(c *Config) { c.Repeater.ID = 0 }},
		{"repeater id too wide for 8 digits", func(c *Config) { c.Repeater.ID = 100000000 }},
		{"missing callsign", func(c *Config) { c.Repeater.Callsign = "" }},
		{"callsign too long", func(c *Config) { c.Repeater.Callsign = "W1AWAY12X" }},
		{"color code zero", func(c *Config) { c.Repeater.ColorCode = 0 }},
		{"color code too large", func(c *Config) { c.Repeater.ColorCode = 16 }},
		{"latitude out of range", func(c *Config) { c.Repeater.Latitude = 91 }},
		{"web port invalid", func(c *Config) { c.Web.Enabled = true; c.Web.Port = 0 }},
		{"metrics path missing", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Port = 9090; c.Metrics.Path = "" }},
		{"database path missing", func(c *Config) { c.Database.Enabled = true; c.Database.Path = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yaml := `
master:
  addr: 203.0.113.10
  port: 62030
  secret: passw0rd
repeater:
  id: 312000
  callsign: N0CALL
  rx_freq: 438800000
  tx_freq: 431200000
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Master.Addr != "203.0.113.10" {
		t.Errorf("master.addr = %q", cfg.Master.Addr)
	}
	if cfg.Repeater.ID != 312000 {
		t.Errorf("repeater.id = %d", cfg.Repeater.ID)
	}
	if cfg.Repeater.RXFreq != 438800000 {
		t.Errorf("repeater.rx_freq = %d", cfg.Repeater.RXFreq)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging.level = %q", cfg.Logging.Level)
	}

	// Defaults fill in what the file leaves out
	if cfg.Master.AuthTimeout != 5 {
		t.Errorf("master.auth_timeout default = %d", cfg.Master.AuthTimeout)
	}
	if cfg.Repeater.ColorCode != 1 {
		t.Errorf("repeater.color_code default = %d", cfg.Repeater.ColorCode)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yaml := `
master:
  addr: 203.0.113.10
  port: 62030
repeater:
  id: 312000
  callsign: N0CALL
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	// Secret is missing
	if _, err := Load(path); err == nil {
		t.Error("Expected load of incomplete config to fail")
	}
}
