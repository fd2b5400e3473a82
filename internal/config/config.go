// Package config loads server and client settings from defaults, an
// optional JSON config file and the environment.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// DefaultAddr is the address the server binds and the client dials when
// nothing else is configured.
const DefaultAddr = "0.0.0.0:4000"

// Server holds every tunable of the server process.
type Server struct {
	Addr     string `mapstructure:"addr"`
	ArenaW   int    `mapstructure:"arenaW"`
	ArenaH   int    `mapstructure:"arenaH"`
	Seed     int64  `mapstructure:"seed"`
	LogLevel string `mapstructure:"logLevel"`

	// OutboundSoftCap is where state-frame dropping starts; OutboundHardCap
	// is where the session is declared a slow consumer and closed.
	OutboundSoftCap int `mapstructure:"outboundSoftCap"`
	OutboundHardCap int `mapstructure:"outboundHardCap"`
}

// Load reads configuration for the server. configDir may be empty, in
// which case only defaults and the environment apply. The ASTEROIDS_ADDR
// environment variable overrides the configured address.
func Load(configDir string) (Server, error) {
	viper.SetDefault("addr", DefaultAddr)
	viper.SetDefault("arenaW", 120)
	viper.SetDefault("arenaH", 40)
	viper.SetDefault("seed", 0)
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("outboundSoftCap", 64)
	viper.SetDefault("outboundHardCap", 256)

	if err := viper.BindEnv("addr", "ASTEROIDS_ADDR"); err != nil {
		return Server{}, fmt.Errorf("bind env: %w", err)
	}

	if configDir != "" {
		viper.SetConfigName("asteroid_arena.cfg.json")
		viper.SetConfigType("json")
		viper.AddConfigPath(configDir)
		if err := viper.ReadInConfig(); err != nil {
			return Server{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Server
	if err := viper.Unmarshal(&cfg); err != nil {
		return Server{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.ArenaW <= 0 || cfg.ArenaH <= 0 {
		return Server{}, fmt.Errorf("invalid arena size %dx%d", cfg.ArenaW, cfg.ArenaH)
	}
	if cfg.OutboundSoftCap <= 0 || cfg.OutboundHardCap < cfg.OutboundSoftCap {
		return Server{}, fmt.Errorf("invalid outbound queue caps %d/%d",
			cfg.OutboundSoftCap, cfg.OutboundHardCap)
	}
	return cfg, nil
}

// ResolveAddr applies the flag-level overrides on top of the configured
// address: an explicit --addr wins, then --port rebinds the default host.
func ResolveAddr(cfg string, addrFlag, portFlag string) string {
	if addrFlag != "" {
		return addrFlag
	}
	if portFlag != "" {
		return "0.0.0.0:" + portFlag
	}
	return cfg
}
