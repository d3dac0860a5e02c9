package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dreamware/kronos/internal/cassandra"
	"github.com/dreamware/kronos/internal/httpapi"
)

var listenAddr string

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP facade in front of the storage core",
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&listenAddr, "listen", ":8090", "HTTP listen address")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	log := newLogger()

	registry, err := buildRegistry(log)
	if err != nil {
		return err
	}
	defer func() {
		if err := registry.Close(); err != nil {
			log.Error().Err(err).Msg("registry close")
		}
	}()

	svc := cassandra.NewService(registry)
	server := httpapi.NewHTTPServer(listenAddr, svc, log)

	go func() {
		log.Info().Str("addr", listenAddr).Msg("kronosd listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	log.Info().Msg("kronosd stopped")
	return nil
}
