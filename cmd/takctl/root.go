// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/takbridge/internal/bootstrap"
	"github.com/tomtom215/takbridge/internal/config"
	"github.com/tomtom215/takbridge/internal/logging"
	"github.com/tomtom215/takbridge/internal/store"
	"github.com/tomtom215/takbridge/internal/takapi"
)

// app is the state shared by every command of one invocation.
type app struct {
	out        io.Writer
	configPath string
	verbose    bool

	cfg    *config.Config
	db     *store.Store
	ownsDB bool
}

func newApp(out io.Writer) *app {
	return &app{out: out}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "takctl",
		Short: "Operate a TAK Server and the TAKBridge Data Connection store",
		Long: `takctl inspects Missions and groups on a TAK Server, issues client
certificates, tails the CoT stream, and manages the Data Connections that
the TAKBridge daemon reconciles into Missions.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadFile(a.configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			a.cfg = cfg
			logging.Init(logging.Config{Level: "warn", Format: "console", Service: "takctl"})
			if a.verbose {
				logging.SetLevelString("debug")
			}
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.db != nil && a.ownsDB {
				err := a.db.Close()
				a.db = nil
				return err
			}
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a YAML config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging to stderr")

	root.AddCommand(
		a.missionsCmd(),
		a.groupsCmd(),
		a.dataCmd(),
		a.syncCmd(),
		a.certsCmd(),
		a.streamCmd(),
	)
	return root
}

func (a *app) client(ctx context.Context) (*takapi.Client, error) {
	return bootstrap.Client(ctx, &a.cfg.TAK)
}

// store opens the Badger store on first use. Badger holds a directory
// lock, so the daemon must not be running against the same path.
func (a *app) store() (*store.Store, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, err := store.Open(a.cfg.Store)
	if err != nil {
		return nil, err
	}
	a.db, a.ownsDB = db, true
	return db, nil
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
