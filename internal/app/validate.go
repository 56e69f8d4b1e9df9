package app

import (
	"fmt"
	"os"

	"carechat/pkg/config"
)

// validateConfig performs quick, fail-fast validation of the effective
// configuration before starting long-running services. Keep checks light so
// callers can surface user-friendly errors.
func validateConfig(cfg *config.Config) error {
	if cfg.Server.DBPath == "" {
		return fmt.Errorf("database path is empty: set --db, CARECHAT_DB_PATH, or server.db_path in config")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cert := cfg.Server.TLS.CertFile; cert != "" {
		if _, err := os.Stat(cert); err != nil {
			return fmt.Errorf("tls cert file not accessible: %w", err)
		}
		if _, err := os.Stat(cfg.Server.TLS.KeyFile); err != nil {
			return fmt.Errorf("tls key file not accessible: %w", err)
		}
	}
	return nil
}
