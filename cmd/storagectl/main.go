/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Command storagectl inspects and edits the storages of a modelstore config.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/suparena/modelstore/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.Run(ctx, os.Stdout, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
