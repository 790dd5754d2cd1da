// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tomtom215/takbridge/internal/takapi"
)

func (a *app) missionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "missions",
		Short: "Inspect Missions on the TAK Server",
	}

	var tool string
	list := &cobra.Command{
		Use:   "list",
		Short: "List Missions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			missions, err := c.Missions.List(cmd.Context(), takapi.ListMissionsInput{Tool: tool})
			if err != nil {
				return fmt.Errorf("failed to list missions: %w", err)
			}
			for _, m := range missions {
				fmt.Fprintf(a.out, "%s\t%s\t%s\n", m.Name, m.GUID, strings.Join(m.Groups, ","))
			}
			return nil
		},
	}
	list.Flags().StringVar(&tool, "tool", "", "only Missions created by this tool")

	var token string
	get := &cobra.Command{
		Use:   "get <name-or-guid>",
		Short: "Print one Mission as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			var opts *takapi.MissionOptions
			if token != "" {
				opts = &takapi.MissionOptions{Token: token}
			}
			m, err := c.Missions.Get(cmd.Context(), args[0], nil, opts)
			if err != nil {
				return fmt.Errorf("failed to get mission: %w", err)
			}
			return a.printJSON(m)
		},
	}
	get.Flags().StringVar(&token, "token", "", "Mission token for password protected Missions")

	cmd.AddCommand(list, get)
	return cmd
}

func (a *app) groupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List the caller's groups",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			groups, err := c.Groups.List(cmd.Context(), false)
			if err != nil {
				return fmt.Errorf("failed to list groups: %w", err)
			}
			for _, g := range groups {
				fmt.Fprintf(a.out, "%s\t%s\tactive=%t\n", g.Name, g.Direction, g.Active)
			}
			return nil
		},
	}
}
