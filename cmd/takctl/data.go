// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tomtom215/takbridge/internal/datasync"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: must be a positive integer", s)
	}
	return id, nil
}

func (a *app) dataCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Manage Data Connections in the local store",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List Data Connections",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.store()
			if err != nil {
				return err
			}
			records, err := db.ListDataConnections(cmd.Context())
			if err != nil {
				return err
			}
			for _, d := range records {
				fmt.Fprintf(a.out, "%d\t%s\tsync=%t\ttoken=%t\n", d.ID, d.Name, d.MissionSync, d.Token() != "")
			}
			return nil
		},
	}

	var in datasync.DataConnection
	put := &cobra.Command{
		Use:   "put <id> <mission-name>",
		Short: "Create or replace a Data Connection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			db, err := a.store()
			if err != nil {
				return err
			}
			d := in
			d.ID = id
			d.Name = args[1]
			if d.Connection == 0 {
				d.Connection = a.cfg.TAK.ConnectionID
			}
			// Keep an existing Mission token so the record still owns its Mission.
			if prev, err := db.GetDataConnection(cmd.Context(), id); err == nil {
				d.MissionToken = prev.MissionToken
			}
			if err := db.PutDataConnection(cmd.Context(), &d); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "saved data connection %d (%s)\n", d.ID, d.Name)
			return nil
		},
	}
	put.Flags().Int64Var(&in.Connection, "connection", 0, "owning connection id (defaults to tak.connection_id)")
	put.Flags().StringVar(&in.Description, "description", "", "Mission description")
	put.Flags().BoolVar(&in.MissionSync, "sync", true, "keep a Mission for this Data Connection")
	put.Flags().StringVar(&in.MissionRole, "role", "", "default Mission role")
	put.Flags().StringSliceVar(&in.MissionGroups, "groups", nil, "Mission groups (defaults to all of the caller's groups)")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a Data Connection and its layers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			db, err := a.store()
			if err != nil {
				return err
			}
			return db.DeleteDataConnection(cmd.Context(), id)
		},
	}

	cmd.AddCommand(list, put, del, a.layerCmd(), a.subscriberCmd())
	return cmd
}

func (a *app) layerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layer",
		Short: "Manage the local layers of a Data Connection",
	}

	add := &cobra.Command{
		Use:   "add <data-id> <layer-id> <name>",
		Short: "Add or rename a layer",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataID, err := parseID(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			db, err := a.store()
			if err != nil {
				return err
			}
			return db.PutLayer(cmd.Context(), datasync.Layer{ID: id, DataID: dataID, Name: args[2]})
		},
	}

	remove := &cobra.Command{
		Use:   "remove <data-id> <layer-id>",
		Short: "Remove a layer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataID, err := parseID(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			db, err := a.store()
			if err != nil {
				return err
			}
			return db.DeleteLayer(cmd.Context(), dataID, id)
		},
	}

	list := &cobra.Command{
		Use:   "list <data-id>",
		Short: "List layers with their Mission layer UIDs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataID, err := parseID(args[0])
			if err != nil {
				return err
			}
			db, err := a.store()
			if err != nil {
				return err
			}
			layers, err := db.ListLayers(cmd.Context(), dataID, 0)
			if err != nil {
				return err
			}
			for _, l := range layers {
				fmt.Fprintf(a.out, "%d\t%s\t%s\n", l.ID, datasync.LayerUID(l.ID), l.Name)
			}
			return nil
		},
	}

	cmd.AddCommand(add, remove, list)
	return cmd
}

func (a *app) subscriberCmd() *cobra.Command {
	var connection int64
	cmd := &cobra.Command{
		Use:   "subscriber [uid]",
		Short: "Show or set the UID subscribed to newly created Missions",
		Long: `With no argument, prints the subscriber UID for the connection. An
empty string argument clears it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if connection == 0 {
				connection = a.cfg.TAK.ConnectionID
			}
			db, err := a.store()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				return db.SetSubscriberUID(cmd.Context(), connection, args[0])
			}
			uid, err := db.SubscriberUID(cmd.Context(), connection)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, uid)
			return nil
		},
	}
	cmd.Flags().Int64Var(&connection, "connection", 0, "connection id (defaults to tak.connection_id)")
	return cmd
}
