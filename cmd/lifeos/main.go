package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/duongtruongbinh/life-os/cmd/lifeos/commands"
	"github.com/duongtruongbinh/life-os/internal/client"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := commands.New().ExecuteContext(ctx)
	stop()
	if err != nil {
		_, _ = color.New(color.FgRed).Fprintf(color.Error, "Error: %v\n", err)
		if client.IsNotAuthenticated(err) {
			_, _ = fmt.Fprintln(color.Error, "Set a token with LIFEOS_TOKEN or in ~/.config/life-os/config.yaml.")
		}
		os.Exit(1)
	}
}
