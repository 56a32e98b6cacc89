// Command server runs the scheduling-engine HTTP server.
//
// Configuration is read from CONFIG_PATH (YAML) and environment variables;
// DATABASE_DSN is required. The server shuts down gracefully on SIGINT and
// SIGTERM.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/a16vhoss/neuropath-backend/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
}
