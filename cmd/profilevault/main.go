// ABOUTME: Entry point for the profilevault CLI
// ABOUTME: Builds the root command, config path resolution and signal handling

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
                  __ _ _                            _ _
 _ __  _ __ ___  / _(_) | _____   ____ _ _   _| | |_
| '_ \| '__/ _ \| |_| | |/ _ \ \ / / _' | | | | | __|
| |_) | | | (_) |  _| | |  __/\ V / (_| | |_| | | |_
| .__/|_|  \___/|_| |_|_|\___| \_/ \__,_|\__,_|_|\__|
|_|
`

// getConfigPath returns the path to the config file.
// Priority: PROFILEVAULT_CONFIG env var > XDG_CONFIG_HOME/profilevault/config.yaml > ~/.config/profilevault/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("PROFILEVAULT_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "profilevault", "config.yaml")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if active != nil {
		if cerr := active.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		stop()
		os.Exit(1)
	}
}
