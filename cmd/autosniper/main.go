// Package main はAutoSniperのCLIのエントリーポイントです
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"jo3qma.com/autosniper/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
