// Command kronosd runs the Kronos event storage service: a Cassandra-backed
// storage core (internal/cassandra) behind a small HTTP facade
// (internal/httpapi), wired together the way cmd/node and cmd/coordinator
// wire the distributed-storage prototype this binary was adapted from.
//
// Configuration is a YAML namespace-settings file (internal/config),
// overridable by KRONOS_* environment variables. Logging is structured,
// via zerolog, to stderr.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "kronosd",
		Short: "Kronos time-series event storage service",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to the namespace settings YAML file (required)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "zerolog level: debug, info, warn, error")
	_ = root.MarkPersistentFlagRequired("config")

	root.AddCommand(newServeCmd())
	root.AddCommand(newStreamsCmd())
	root.AddCommand(newClearCmd())
	return root
}

func newLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
