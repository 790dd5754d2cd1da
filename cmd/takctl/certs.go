// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func (a *app) certsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "certs",
		Short: "Client certificate enrollment",
	}

	var (
		username  string
		clientUID string
		outDir    string
	)
	sign := &cobra.Command{
		Use:   "sign",
		Short: "Generate a key, have the Server sign it, and write PEM files",
		Long: `Requests a client certificate through tls/signClient/v2. The subject
uses the O and OU entries from the Server's tls/config. Writes cert.pem,
key.pem and ca.pem to --out.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if username == "" {
				username = a.cfg.TAK.Username
			}
			if username == "" {
				return fmt.Errorf("--username is required")
			}
			if clientUID == "" {
				clientUID = "takbridge-" + uuid.NewString()
			}

			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			issued, err := c.Credentials.Generate(cmd.Context(), username, clientUID)
			if err != nil {
				return fmt.Errorf("failed to sign client certificate: %w", err)
			}

			if err := os.MkdirAll(outDir, 0o700); err != nil {
				return err
			}
			files := map[string][]byte{
				"cert.pem": issued.CertPEM,
				"key.pem":  issued.KeyPEM,
				"ca.pem":   bytes.Join(issued.CA, nil),
			}
			for name, data := range files {
				if err := os.WriteFile(filepath.Join(outDir, name), data, 0o600); err != nil {
					return err
				}
			}
			fmt.Fprintf(a.out, "wrote cert.pem, key.pem and ca.pem to %s (uid %s)\n", outDir, clientUID)
			return nil
		},
	}
	sign.Flags().StringVar(&username, "username", "", "account the certificate is issued to (defaults to tak.username)")
	sign.Flags().StringVar(&clientUID, "uid", "", "client UID (defaults to a random takbridge-<uuid>)")
	sign.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")

	cmd.AddCommand(sign)
	return cmd
}
