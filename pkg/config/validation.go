package config

import "fmt"

// Validate validates the configuration
func (cfg *Config) Validate() error {
	// Validate master connection
	if cfg.Master.Addr == "" {
		return fmt.Errorf("master.addr is required")
	}
	if cfg.Master.Port <= 0 || cfg.Master.Port > 65535 {
		return fmt.Errorf("master.port must be between 1 and 65535")
	}
	if cfg.Master.LocalPort < 0 || cfg.Master.LocalPort > 65535 {
		return fmt.Errorf("master.local_port must be between 0 and 65535")
	}
	if cfg.Master.Secret == "" {
		return fmt.Errorf("master.secret is required")
	}
	if cfg.Master.AuthTimeout <= 0 {
		return fmt.Errorf("master.auth_timeout must be positive")
	}

	// Validate repeater identity; the id goes on the wire as 8 ASCII digits
	if cfg.Repeater.ID == 0 || cfg.Repeater.ID > 99999999 {
		return fmt.Errorf("repeater.id must be between 1 and 99999999")
	}
	if cfg.Repeater.Callsign == "" {
		return fmt.Errorf("repeater.callsign is required")
	}
	if len(cfg.Repeater.Callsign) > 8 {
		return fmt.Errorf("repeater.callsign must be at most 8 characters")
	}
	if cfg.Repeater.ColorCode < 1 || cfg.Repeater.ColorCode > 15 {
		return fmt.Errorf("repeater.color_code must be between 1 and 15")
	}
	if cfg.Repeater.TXPower > 99 {
		return fmt.Errorf("repeater.tx_power must be at most 99")
	}
	if cfg.Repeater.Latitude < -90 || cfg.Repeater.Latitude > 90 {
		return fmt.Errorf("repeater.latitude out of range")
	}
	if cfg.Repeater.Longitude < -180 || cfg.Repeater.Longitude > 180 {
		return fmt.Errorf("repeater.longitude out of range")
	}

	// Validate web config
	if cfg.Web.Enabled {
		if cfg.Web.Port <= 0 || cfg.Web.Port > 65535 {
			return fmt.Errorf("web.port must be between 1 and 65535")
		}
	}

	// Validate metrics config
	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port <= 0 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be between 1 and 65535")
		}
		if cfg.Metrics.Path == "" {
			return fmt.Errorf("metrics.path is required when metrics are enabled")
		}
	}

	// Validate database config
	if cfg.Database.Enabled && cfg.Database.Path == "" {
		return fmt.Errorf("database.path is required when the database is enabled")
	}

	return nil
}
