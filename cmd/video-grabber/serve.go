package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/alanbriolat/video-grabber"
	"github.com/alanbriolat/video-grabber/async"
	"github.com/alanbriolat/video-grabber/internal/boltdb"
	"github.com/alanbriolat/video-grabber/internal/broadcast"
	"github.com/alanbriolat/video-grabber/internal/platform"
	"github.com/alanbriolat/video-grabber/internal/session"
	"github.com/alanbriolat/video-grabber/internal/web"
)

const shutdownTimeout = 10 * time.Second

func cmdServe() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the web interface",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Value:   "localhost:8000",
				Usage:   "listen on `ADDR`",
				EnvVars: []string{envPrefix + "ADDR"},
			},
			&cli.StringFlag{
				Name:    "work-dir",
				Value:   ".",
				Usage:   "save videos submitted by form to `DIR`",
				EnvVars: []string{envPrefix + "WORK_DIR"},
			},
			&cli.StringFlag{
				Name:    "platform",
				Usage:   "pick the download folder as if running on `NAME` (Windows, Linux, Darwin, Android)",
				EnvVars: []string{envPrefix + "PLATFORM"},
			},
			&cli.StringFlag{
				Name:    "db",
				Usage:   "keep client sessions in the bbolt database at `PATH` (default: in memory)",
				EnvVars: []string{envPrefix + "DB"},
			},
			filenameTemplateFlag(),
		},
		Action: serve,
	}
}

func serve(c *cli.Context) error {
	ctx := c.Context
	logger := video_grabber.Logger(ctx)

	downloadConfig, err := video_grabber.ParseFilenameTemplate(c.String("filename-template"))
	if err != nil {
		return fmt.Errorf("invalid filename template: %w", err)
	}

	sessionConfig := session.DefaultConfig
	if path := c.String("db"); path != "" {
		db, err := boltdb.New(path)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		sessionConfig.Database = db
	}
	sessions, err := session.New(sessionConfig)
	if err != nil {
		return err
	}

	layer := broadcast.NewLayer()
	defer layer.Close()

	registry := web.NewProviderRegistry()

	server, err := web.NewServer(ctx,
		web.WithAddr(c.String("addr")),
		web.WithWorkDir(c.String("work-dir")),
		web.WithResolver(platform.NewResolver(c.String("platform"))),
		web.WithProviderRegistry(registry),
		web.WithSessions(sessions),
		web.WithLayer(layer),
		web.WithDownloadConfig(downloadConfig),
	)
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	logger.Info("HTTP server starting",
		zap.String("addr", server.Addr),
		zap.Strings("providers", registry.List()),
	)
	served := async.Run(server.ListenAndServe)

	select {
	case err := <-served:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		logger.Info("Shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server gracefully: %w", err)
	}
	logger.Info("Server shutdown complete")
	return nil
}
