package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dreamware/kronos/internal/cassandra"
)

func newStreamsCmd() *cobra.Command {
	var namespace string
	cmd := &cobra.Command{
		Use:   "streams",
		Short: "List the streams registered in a namespace",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			registry, err := buildRegistry(log)
			if err != nil {
				return err
			}
			defer registry.Close()

			svc := cassandra.NewService(registry)
			names, err := svc.Streams(context.Background(), namespace)
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&namespace, "namespace", "", "namespace to list streams for (required)")
	_ = cmd.MarkFlagRequired("namespace")
	return cmd
}
