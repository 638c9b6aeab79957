package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"

	"github.com/alanbriolat/video-grabber"
	"github.com/alanbriolat/video-grabber/async"
	"github.com/alanbriolat/video-grabber/generic"
	"github.com/alanbriolat/video-grabber/internal/broadcast"
)

func cmdFetch() *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "download videos from the terminal",
		ArgsUsage: "URL...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "target",
				Value: ".",
				Usage: "save downloaded videos to `DIR`",
			},
			&cli.BoolFlag{
				Name:  "lowest",
				Usage: "download the lowest resolution instead of the highest",
			},
			filenameTemplateFlag(),
		},
		Action: fetch,
	}
}

func fetch(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("no URLs given")
	}
	ctx := c.Context
	downloadConfig, err := video_grabber.ParseFilenameTemplate(c.String("filename-template"))
	if err != nil {
		return fmt.Errorf("invalid filename template: %w", err)
	}
	selector := video_grabber.DefaultStream
	if c.Bool("lowest") {
		selector = video_grabber.LowestResolution
	}

	// Progress goes through the same broadcast layer as the web interface, drawn as a progress bar
	layer := broadcast.NewLayer()
	defer layer.Close()
	member, err := layer.GroupAddTypes(broadcast.ProgressGroup, 64, broadcast.ProgressUpdate)
	if err != nil {
		return err
	}
	bar := progressbar.Default(100, "downloading")
	consumer := broadcast.NewConsumer().Handle(broadcast.ProgressUpdate, func(ctx context.Context, e broadcast.Event) error {
		return bar.Set(int(e.PercentageOfCompletion))
	})
	consumed := async.Run(func() error { return consumer.Run(ctx, member) })
	reporter := broadcast.NewReporter(layer, broadcast.ProgressGroup)

	for _, source := range c.Args().Slice() {
		bar.Reset()
		bar.Describe(source)
		d, err := download(ctx, source, c.String("target"), downloadConfig, selector, reporter)
		if err != nil {
			return err
		}
		downloaded, _ := d.Progress()
		video_grabber.Logger(ctx).Sugar().Infof("Download complete: %v (%v)", d.Files(), humanize.Bytes(uint64(downloaded)))
	}

	layer.Close()
	generic.Unwrap_(bar.Finish())
	return <-consumed
}

func download(ctx context.Context, source string, target string, config video_grabber.DownloadConfig, selector video_grabber.StreamSelector, reporter *broadcast.Reporter) (video_grabber.Download, error) {
	logger := video_grabber.Logger(ctx).Sugar()
	logger.Infof("Downloading from %s into %s", source, target)

	match, err := video_grabber.DefaultProviderRegistry.Match(source)
	if err != nil {
		return nil, fmt.Errorf("match failed: %w", err)
	}

	logger.Debugf("Starting recon with %v...", match.ProviderName)
	resolved, err := match.Source.Recon(ctx)
	if err != nil {
		return nil, fmt.Errorf("recon failed: %w", err)
	}

	d, err := video_grabber.NewDownloadBuilder().
		WithConfig(config).
		WithContext(ctx).
		WithProgressCallback(reporter.ProgressFunc()).
		WithTargetDir(target).
		Build()
	if err != nil {
		return nil, err
	}
	defer d.Cancel()

	stream, err := video_grabber.Fetch(d, resolved, selector)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	logger.Debugf("Downloaded %v", stream)
	return d, nil
}
