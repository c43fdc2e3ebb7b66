// Command kubeinterp streams AI interpretations of Kubernetes manifests and
// cluster issues from the dashboard backend.
//
// Usage:
//
//	kubeinterp yaml --file 'deploy/**/*.yaml' [--watch]
//	kubeinterp yaml --resource deploy --name web -n shop
//	kubeinterp issues [-n NS] [--limit 5] [--file audit.json]
//	kubeinterp replay [--text answer.md | --frames transcript.txt]
//	kubeinterp config init [--path FILE] [--force]
//
// The interpretation is shown in a terminal panel, or printed as it arrives
// with --plain or when stdout is not a terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.As(err, &reported{}) {
			fmt.Fprintf(os.Stderr, "kubeinterp: %v\n", err)
		}
		os.Exit(1)
	}
}
