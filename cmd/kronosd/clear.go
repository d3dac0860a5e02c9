package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dreamware/kronos/internal/cassandra"
)

func newClearCmd() *cobra.Command {
	var namespaces []string
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop every named namespace's keyspace (test/ops use only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			registry, err := buildRegistry(log)
			if err != nil {
				return err
			}
			defer registry.Close()

			// Clear only drops namespaces the Registry already knows about
			// (registry.Names(), populated by Namespace()); unlike the
			// original's eagerly-populated namespace dict, this process
			// starts with none, so every namespace meant to be dropped must
			// be named here to register it first.
			for _, ns := range namespaces {
				if _, err := registry.Namespace(ns); err != nil {
					return err
				}
			}

			svc := cassandra.NewService(registry)
			return svc.Clear(context.Background())
		},
	}
	cmd.Flags().StringArrayVar(&namespaces, "namespace", nil, "namespace to drop (repeatable, required)")
	_ = cmd.MarkFlagRequired("namespace")
	return cmd
}
