package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/dreamware/kronos/internal/cassandra"
	"github.com/dreamware/kronos/internal/config"
)

func buildRegistry(log zerolog.Logger) (*cassandra.Registry, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", configPath, err)
	}
	settings, err := config.LoadNamespaceSettings(data)
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", configPath, err)
	}
	return cassandra.NewRegistry(settings, log), nil
}
