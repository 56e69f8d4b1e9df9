package config

import (
	"flag"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Flags holds parsed command-line flag values and which were explicitly set.
type Flags struct {
	Addr     string
	DB       string
	Config   string
	Exchange string
	Set      map[string]bool
}

// ParseFlags parses command-line flags into a Flags struct.
func ParseFlags() Flags {
	addrPtr := flag.String("addr", ":8080", "HTTP listen address")
	dbPtr := flag.String("db", "./.carechat", "conversation DB path")
	cfgPtr := flag.String("config", "./carechat.yaml", "path to config file")
	exPtr := flag.String("exchange", "", "exchange service endpoint URL")
	flag.Parse()
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return Flags{Addr: *addrPtr, DB: *dbPtr, Config: *cfgPtr, Exchange: *exPtr, Set: set}
}

// ResolveConfigPath decides the config file path from the flag value and the
// CARECHAT_CONFIG environment variable when the flag was not set.
func ResolveConfigPath(flagPath string, flagSet bool) string {
	if flagSet {
		return flagPath
	}
	if p := os.Getenv("CARECHAT_CONFIG"); p != "" {
		return p
	}
	return flagPath
}

// applyEnv overlays CARECHAT_* environment variables onto cfg and reports
// whether any were present.
func applyEnv(cfg *Config) bool {
	used := false
	parseList := func(v string) []string {
		var parts []string
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				parts = append(parts, s)
			}
		}
		return parts
	}

	if v := os.Getenv("CARECHAT_ADDR"); v != "" {
		used = true
		if h, p, err := net.SplitHostPort(v); err == nil {
			cfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				cfg.Server.Port = pi
			}
		} else {
			cfg.Server.Address = v
		}
	}
	if v := os.Getenv("CARECHAT_DB_PATH"); v != "" {
		used = true
		cfg.Server.DBPath = v
	}
	if v := os.Getenv("CARECHAT_EXCHANGE_ENDPOINT"); v != "" {
		used = true
		cfg.Exchange.Endpoint = v
	}
	if v := os.Getenv("CARECHAT_EXCHANGE_TIMEOUT"); v != "" {
		if td, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			used = true
			cfg.Exchange.Timeout = Duration(td)
		}
	}
	if v := os.Getenv("CARECHAT_API_KEYS"); v != "" {
		used = true
		cfg.Security.APIKeys = parseList(v)
	}
	if v := os.Getenv("CARECHAT_CORS_ORIGINS"); v != "" {
		used = true
		cfg.Security.CORS.AllowedOrigins = parseList(v)
	}
	if v := os.Getenv("CARECHAT_RATE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			used = true
			cfg.Security.RateLimit.RPS = f
		}
	}
	if v := os.Getenv("CARECHAT_RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			used = true
			cfg.Security.RateLimit.Burst = n
		}
	}
	if v := os.Getenv("CARECHAT_LOG_LEVEL"); v != "" {
		used = true
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CARECHAT_LOG_SINK"); v != "" {
		used = true
		cfg.Logging.Sink = v
	}
	if v := os.Getenv("CARECHAT_SNAPSHOT_CRON"); v != "" {
		used = true
		cfg.Snapshot.Enabled = true
		cfg.Snapshot.Cron = v
	}
	if v := os.Getenv("CARECHAT_SNAPSHOT_KEEP"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			used = true
			cfg.Snapshot.Keep = n
		}
	}
	if c := os.Getenv("CARECHAT_TLS_CERT"); c != "" {
		used = true
		cfg.Server.TLS.CertFile = c
	}
	if k := os.Getenv("CARECHAT_TLS_KEY"); k != "" {
		used = true
		cfg.Server.TLS.KeyFile = k
	}
	return used
}

// applyFlags overlays explicitly set flags onto cfg. Flags win over every
// other source.
func applyFlags(cfg *Config, flags Flags) {
	if flags.Set["addr"] {
		if h, p, err := net.SplitHostPort(flags.Addr); err == nil {
			cfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				cfg.Server.Port = pi
			}
		} else {
			cfg.Server.Address = flags.Addr
		}
	}
	if flags.Set["db"] {
		cfg.Server.DBPath = flags.DB
	}
	if flags.Set["exchange"] {
		cfg.Exchange.Endpoint = flags.Exchange
	}
}

// LoadEffective builds the effective config: file values first, env overlaid,
// explicit flags last. An explicitly passed --config must exist; an absent
// default config file is fine.
func LoadEffective(flags Flags) (*Config, error) {
	cfgPath := ResolveConfigPath(flags.Config, flags.Set["config"])
	cfg, err := Load(cfgPath)
	if err != nil {
		if flags.Set["config"] || os.Getenv("CARECHAT_CONFIG") != "" {
			return nil, err
		}
		cfg = &Config{}
	}
	applyEnv(cfg)
	applyFlags(cfg, flags)
	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.DBPath == "" {
		cfg.Server.DBPath = "./.carechat"
	}
	if cfg.Security.RateLimit.RPS == 0 {
		cfg.Security.RateLimit.RPS = 20
	}
	if cfg.Security.RateLimit.Burst == 0 {
		cfg.Security.RateLimit.Burst = 40
	}
	if cfg.Limits.MaxQuestionBytes == 0 {
		cfg.Limits.MaxQuestionBytes = 64 << 10
	}
	if cfg.Snapshot.Keep == 0 {
		cfg.Snapshot.Keep = 10
	}
}
