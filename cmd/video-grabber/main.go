package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/alanbriolat/video-grabber"
	"github.com/alanbriolat/video-grabber/async"
	_ "github.com/alanbriolat/video-grabber/providers"
)

const envPrefix = "VIDEO_GRABBER_"

func newLogger(level string) (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if err := config.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return config.Build()
}

func filenameTemplateFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "filename-template",
		Value:   video_grabber.DefaultFilenameTemplate,
		Usage:   "name downloaded files with `TEMPLATE` (fields: .Info.ID, .Info.Title, .Stream.Quality, .Stream.Ext)",
		EnvVars: []string{envPrefix + "FILENAME_TEMPLATE"},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var logger *zap.Logger
	app := &cli.App{
		Name:  "video-grabber",
		Usage: "download videos, from a web page or the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "log at `LEVEL` (debug, info, warn, error)",
				EnvVars: []string{envPrefix + "LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			var err error
			if logger, err = newLogger(c.String("log-level")); err != nil {
				return err
			}
			zap.RedirectStdLog(logger)
			zap.ReplaceGlobals(logger)
			c.Context = video_grabber.WithLogger(c.Context, logger)
			return nil
		},
		Commands: []*cli.Command{
			cmdServe(),
			cmdFetch(),
		},
		HideHelpCommand: true,
	}

	result := async.Run(func() error { return app.RunContext(ctx, os.Args) })

	var err error
	select {
	case err = <-result:
	case <-ctx.Done():
		// Restore default signal handling, so a second interrupt kills the process
		stop()
		err = <-result
	}
	if logger == nil {
		if err != nil {
			log.Fatal(err)
		}
		return
	}
	_ = logger.Sync()
	if err != nil {
		logger.Fatal(err.Error())
	}
}
