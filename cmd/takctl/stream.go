// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/takbridge/internal/bootstrap"
	"github.com/tomtom215/takbridge/internal/stream"
)

func (a *app) streamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stream",
		Short: "CoT streaming socket tools",
	}

	var (
		count    int
		features bool
	)
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Print CoT events from the stream until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sc, err := bootstrap.Stream(a.cfg)
			if err != nil {
				return err
			}
			defer sc.Destroy()

			errCh := make(chan error, 1)
			defer sc.OnError(func(err error) {
				select {
				case errCh <- err:
				default:
				}
			})()

			events := sc.Events(ctx)
			if err := sc.Connect(ctx); err != nil {
				return fmt.Errorf("failed to connect stream: %w", err)
			}
			waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			err = sc.WaitForState(waitCtx, stream.StateOpen)
			cancel()
			if err != nil {
				return fmt.Errorf("stream did not open: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "connected to %s (server %s)\n", bootstrap.Endpoint(&a.cfg.TAK).StreamAddr(), sc.Version())

			enc := json.NewEncoder(a.out)
			for n := 0; count <= 0 || n < count; n++ {
				select {
				case <-ctx.Done():
					return nil
				case err := <-errCh:
					return err
				case ev, ok := <-events:
					if !ok {
						return nil
					}
					if features {
						if err := enc.Encode(ev.ToFeature()); err != nil {
							return err
						}
						continue
					}
					fmt.Fprintln(a.out, ev.Raw)
				}
			}
			return nil
		},
	}
	tail.Flags().IntVarP(&count, "count", "n", 0, "stop after n events (0 for no limit)")
	tail.Flags().BoolVar(&features, "geojson", false, "print GeoJSON features instead of raw XML")

	cmd.AddCommand(tail)
	return cmd
}
