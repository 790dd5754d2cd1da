// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

// Command takctl is the operator CLI for TAKBridge. It talks to the TAK
// Server directly with the same configuration the daemon uses, and edits
// the local Data Connection store.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newApp(os.Stdout).rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
