package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/jukebox/internal/server"
	"github.com/desertthunder/jukebox/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the player behind the HTTP API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := r.config.Server
	if cmd.IsSet("port") {
		cfg.Port = int(cmd.Int("port"))
	}

	p, err := bootPlayer(ctx, r.config, r.logger)
	if err != nil {
		return err
	}
	p.facade.Start(ctx)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		p.close(shutdownCtx)
	}()

	router := server.NewAPIRouter(p.facade, cfg, r.logger)
	srv := server.New(cfg, router, r.logger)

	ready := make(chan string, 1)
	if cmd.Bool("open") {
		go func() {
			select {
			case addr := <-ready:
				if err := shared.OpenBrowser("http://" + addr + "/api/status"); err != nil {
					r.logger.Warn("failed to open browser", "error", err)
				}
			case <-ctx.Done():
			}
		}()
	}

	if err := srv.Run(ctx, ready); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
