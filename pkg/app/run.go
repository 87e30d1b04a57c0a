package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
)

// Run assembles the daemon, starts it, and blocks until a shutdown signal
// arrives.
func Run(params Params) error {
	a, err := New(params)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := a.Start(ctx); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	sig := <-sigCh
	a.logger.Info("shutdown signal received", "signal", sig.String())

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	a.Stop(stopCtx)
	a.logger.Info("shutdown complete")
	return nil
}

// ResolveConfigPath searches for a config file in standard locations.
// Search order: $XDG_CONFIG_HOME/recapd/recapd.yaml →
// ~/.config/recapd/recapd.yaml → ./recapd.yaml
func ResolveConfigPath() (string, error) {
	var candidates []string

	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidates = append(candidates, filepath.Join(xdg, "recapd", "recapd.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "recapd", "recapd.yaml"))
	}

	candidates = append(candidates, "recapd.yaml")

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no configuration file found (searched: %v)", candidates)
}

// DefaultDataDir returns the default persistent data directory.
// Uses $XDG_DATA_HOME/recapd if set, otherwise ~/.local/share/recapd.
func DefaultDataDir() string {
	if dir, ok := os.LookupEnv("XDG_DATA_HOME"); ok {
		return filepath.Join(dir, "recapd")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "recapd")
}
