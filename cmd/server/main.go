// Command server runs the match session server.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/midgame-live/midgame/internal/app"
	"github.com/midgame-live/midgame/internal/platform/config"
	"github.com/midgame-live/midgame/internal/platform/otel"
)

func main() {
	log.SetPrefix("[MIDGAME] ")

	var cfg app.Config
	if err := config.ParseEnv(&cfg); err != nil {
		config.Exitf("parse config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Setup(ctx, "midgame-server")
	if err != nil {
		config.Exitf("setup tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("shutdown tracing: %v", err)
		}
	}()

	if err := app.Run(ctx, cfg, log.Default()); err != nil {
		config.Exitf("serve: %v", err)
	}
}
