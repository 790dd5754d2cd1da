// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/takbridge/internal/datasync"
	"github.com/tomtom215/takbridge/internal/logging"
)

func (a *app) syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync [data-id...]",
		Short: "Reconcile Data Connections with their Missions once",
		Long: `Runs the reconciler for the given Data Connections, or for every stored
Data Connection when none are given. Failures are reported per record and
do not stop the remaining records.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logging.ContextWithNewCorrelationID(cmd.Context())
			db, err := a.store()
			if err != nil {
				return err
			}

			var records []*datasync.DataConnection
			if len(args) == 0 {
				if records, err = db.ListDataConnections(ctx); err != nil {
					return err
				}
			}
			for _, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				d, err := db.GetDataConnection(ctx, id)
				if err != nil {
					return err
				}
				records = append(records, d)
			}

			c, err := a.client(ctx)
			if err != nil {
				return err
			}
			r := datasync.NewReconciler(c, db, datasync.WithMaxLayers(a.cfg.Sync.MaxLayers))

			var errs []error
			for _, d := range records {
				m, err := r.Sync(ctx, d)
				switch {
				case err != nil:
					fmt.Fprintf(a.out, "%d\t%s\terror: %v\n", d.ID, d.Name, err)
					errs = append(errs, fmt.Errorf("data connection %d: %w", d.ID, err))
				case m == nil:
					fmt.Fprintf(a.out, "%d\t%s\tabsent\n", d.ID, d.Name)
				default:
					fmt.Fprintf(a.out, "%d\t%s\tpresent\n", d.ID, m.Name)
				}
			}
			return errors.Join(errs...)
		},
	}
}
