// Asteroid Arena server entry point.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"asteroid-arena/internal/config"
	"asteroid-arena/internal/logging"
	"asteroid-arena/internal/server"
)

var (
	version = "1.0.0"

	addrFlag  = flag.String("addr", "", "Listen address as HOST:PORT (overrides config and env)")
	portFlag  = flag.String("port", "", "Listen port on 0.0.0.0 (overrides config and env)")
	configDir = flag.String("config-dir", "", "Directory containing asteroid_arena.cfg.json (optional)")
	logLevel  = flag.String("log-level", "", "Log level (debug, info, warn, error)")
	seed      = flag.Int64("seed", 0, "World RNG seed (0 picks one from the clock)")
	help      = flag.Bool("help", false, "Show help information")
	ver       = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *help {
		showHelp()
		return
	}
	if *ver {
		fmt.Printf("Asteroid Arena Server v%s\n", version)
		return
	}
	if flag.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument %q\n", flag.Arg(0))
		os.Exit(2)
	}

	cfg, err := config.Load(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad configuration: %v\n", err)
		os.Exit(2)
	}

	cfg.Addr = config.ResolveAddr(cfg.Addr, *addrFlag, *portFlag)
	if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		fmt.Fprintf(os.Stderr, "bad address %q: %v\n", cfg.Addr, err)
		os.Exit(2)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	log := logging.Default(cfg.LogLevel)
	log.Info().Str("version", version).Int64("seed", cfg.Seed).Msg("starting asteroid arena server")

	srv := server.New(cfg, log)
	if err := srv.Start(); err != nil {
		log.Error().Err(err).Msg("server failed to start")
		os.Exit(1)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Info().Msg("received shutdown signal")
	srv.Stop()
	srv.Wait()
}

// showHelp displays usage information.
func showHelp() {
	fmt.Printf(`Asteroid Arena Server v%s

USAGE:
    %s [OPTIONS]

OPTIONS:
    -addr string         Listen address as HOST:PORT (default "0.0.0.0:4000")
    -port string         Listen port on 0.0.0.0
    -config-dir string   Directory containing asteroid_arena.cfg.json
    -log-level string    Log level (debug, info, warn, error)
    -seed int            World RNG seed (0 picks one from the clock)
    -help                Show this help message
    -version             Show version information

ENVIRONMENT:
    ASTEROIDS_ADDR       Overrides the default listen address

EXAMPLES:
    # Start with default settings
    %s

    # Start on a specific port
    %s -port 9000

    # Reproducible world for debugging
    %s -seed 42 -log-level debug
`, version, os.Args[0], os.Args[0], os.Args[0], os.Args[0])
}
