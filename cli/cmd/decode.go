package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/smelt-io/smelt/adapter"
	"github.com/smelt-io/smelt/adapter/redis"
	"github.com/smelt-io/smelt/adapter/webhook"
	"github.com/smelt-io/smelt/aggregate"
	"github.com/smelt-io/smelt/archive"
	"github.com/smelt-io/smelt/cli/config"
	"github.com/smelt-io/smelt/cli/render"
	"github.com/smelt-io/smelt/cli/tui"
	"github.com/smelt-io/smelt/log"
	"github.com/smelt-io/smelt/metrics"
	"github.com/smelt-io/smelt/sink"
	"github.com/smelt-io/smelt/stream"
	"github.com/smelt-io/smelt/types"
	"github.com/smelt-io/smelt/wire"
)

// Exit codes for decode.
const (
	exitSuccess     = 0
	exitDecodeError = 1
	exitUsageError  = 2
	exitSinkError   = 3
)

// DecodeCommand returns the decode command, the only command that
// consumes input.
func DecodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     "Decode a build-log stream into events",
		ArgsUsage: "[INPUT]",
		Flags: append([]cli.Flag{
			ConfigFlag,
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "Input log file (default: stdin)",
			},
			&cli.StringSliceFlag{
				Name:  "filter",
				Usage: "Event kinds to show: builds, artifacts, messages (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "aggregate",
				Usage: "Collect events and print one document at EOF",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Suppress progress logging",
			},
			// Archive flags
			&cli.StringFlag{
				Name:  "archive-dataset",
				Usage: "Archive dataset ID",
				Value: "smelt",
			},
			&cli.StringFlag{
				Name:  "archive-backend",
				Usage: "Archive backend: fs or s3",
				Value: "fs",
			},
			&cli.StringFlag{
				Name:  "archive-path",
				Usage: "Archive path (fs: directory, s3: bucket/prefix); empty disables archiving",
			},
			&cli.StringFlag{
				Name:  "archive-region",
				Usage: "AWS region for the s3 backend (optional, uses default chain)",
			},
			&cli.StringFlag{
				Name:  "archive-endpoint",
				Usage: "Custom S3 endpoint for S3-compatible providers",
			},
			&cli.BoolFlag{
				Name:  "archive-s3-path-style",
				Usage: "Force path-style S3 addressing",
			},
			&cli.IntFlag{
				Name:  "buffer-events",
				Usage: "Buffer this many events between sink writes (0 = write per line)",
			},
			// Frame relay
			&cli.StringFlag{
				Name:  "frames",
				Usage: "Write length-prefixed msgpack frames to this file ('-' for stdout)",
			},
			// Adapter flags
			&cli.StringFlag{
				Name:  "adapter",
				Usage: "Notification adapter: webhook or redis",
			},
			&cli.StringFlag{
				Name:  "adapter-url",
				Usage: "Adapter endpoint URL",
			},
			&cli.StringFlag{
				Name:  "adapter-channel",
				Usage: "Redis pub/sub channel (redis adapter only)",
			},
			&cli.DurationFlag{
				Name:  "adapter-timeout",
				Usage: "Per-publish adapter timeout",
			},
			&cli.IntFlag{
				Name:  "adapter-retries",
				Usage: "Adapter retry attempts",
				Value: -1, // -1 means "use config or adapter default"
			},
		}, SharedFlags()...),
		Action: decodeAction,
	}
}

// decodeOptions is the merged flag and config file view of one decode
// invocation. CLI flags always win over config values.
type decodeOptions struct {
	input     string // empty means stdin
	filters   []string
	aggregate bool
	quiet     bool
	useTUI    bool

	archiveDataset     string
	archiveBackend     string
	archivePath        string
	archiveRegion      string
	archiveEndpoint    string
	archiveS3PathStyle bool

	bufferEvents int
	framesOut    string

	adapterType    string
	adapterURL     string
	adapterChannel string
	adapterHeaders map[string]string
	adapterTimeout time.Duration
	adapterRetries int
}

// resolveOptions merges CLI flags over config file defaults.
// cfg may be nil when no config file was given.
func resolveOptions(c *cli.Context, cfg *config.Config) decodeOptions {
	opts := decodeOptions{
		input:              c.String("input"),
		filters:            c.StringSlice("filter"),
		aggregate:          c.Bool("aggregate"),
		quiet:              c.Bool("quiet"),
		useTUI:             c.Bool("tui"),
		archiveDataset:     c.String("archive-dataset"),
		archiveBackend:     c.String("archive-backend"),
		archivePath:        c.String("archive-path"),
		archiveRegion:      c.String("archive-region"),
		archiveEndpoint:    c.String("archive-endpoint"),
		archiveS3PathStyle: c.Bool("archive-s3-path-style"),
		bufferEvents:       c.Int("buffer-events"),
		framesOut:          c.String("frames"),
		adapterType:        c.String("adapter"),
		adapterURL:         c.String("adapter-url"),
		adapterChannel:     c.String("adapter-channel"),
		adapterTimeout:     c.Duration("adapter-timeout"),
		adapterRetries:     c.Int("adapter-retries"),
	}

	// Positional argument form: smelt decode build.log
	if opts.input == "" {
		opts.input = c.Args().First()
	}

	if cfg == nil {
		return opts
	}

	if opts.input == "" {
		opts.input = cfg.Source
	}
	if len(opts.filters) == 0 {
		opts.filters = cfg.Filters
	}
	if !c.IsSet("aggregate") {
		opts.aggregate = opts.aggregate || cfg.Aggregate
	}
	if opts.archivePath == "" {
		opts.archivePath = cfg.Archive.Path
	}
	if !c.IsSet("archive-dataset") && cfg.Archive.Dataset != "" {
		opts.archiveDataset = cfg.Archive.Dataset
	}
	if !c.IsSet("archive-backend") && cfg.Archive.Backend != "" {
		opts.archiveBackend = cfg.Archive.Backend
	}
	if opts.archiveRegion == "" {
		opts.archiveRegion = cfg.Archive.Region
	}
	if opts.archiveEndpoint == "" {
		opts.archiveEndpoint = cfg.Archive.Endpoint
	}
	if !c.IsSet("archive-s3-path-style") {
		opts.archiveS3PathStyle = cfg.Archive.S3PathStyle
	}
	if opts.adapterType == "" {
		opts.adapterType = cfg.Adapter.Type
	}
	if opts.adapterURL == "" {
		opts.adapterURL = cfg.Adapter.URL
	}
	if opts.adapterChannel == "" {
		opts.adapterChannel = cfg.Adapter.Channel
	}
	if opts.adapterTimeout == 0 {
		opts.adapterTimeout = cfg.Adapter.Timeout.Duration
	}
	if opts.adapterRetries < 0 && cfg.Adapter.Retries != nil {
		opts.adapterRetries = *cfg.Adapter.Retries
	}
	opts.adapterHeaders = cfg.Adapter.Headers

	return opts
}

// parseFilters validates --filter values and returns the set of event
// kinds to show. A nil set means show everything. Matching is
// case-sensitive; an unknown value is fatal and names the offending
// token.
func parseFilters(names []string) (map[types.EventKind]bool, error) {
	if len(names) == 0 {
		return nil, nil
	}

	set := make(map[types.EventKind]bool, len(names))
	for _, name := range names {
		switch name {
		case "builds":
			set[types.EventKindBuild] = true
		case "artifacts":
			set[types.EventKindArtifact] = true
		case "messages":
			set[types.EventKindMessage] = true
		default:
			return nil, fmt.Errorf("unknown filter %q (must be builds, artifacts, or messages)", name)
		}
	}
	return set, nil
}

func decodeAction(c *cli.Context) error {
	var cfg *config.Config
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cli.Exit(err.Error(), exitUsageError)
		}
		cfg = loaded
	}

	opts := resolveOptions(c, cfg)

	filters, err := parseFilters(opts.filters)
	if err != nil {
		return cli.Exit(err.Error(), exitUsageError)
	}

	// Input stream
	var in io.Reader = os.Stdin
	source := "stdin"
	if opts.input != "" && opts.input != "-" {
		f, err := os.Open(opts.input)
		if err != nil {
			return cli.Exit(fmt.Sprintf("cannot open input: %v", err), exitUsageError)
		}
		defer func() { _ = f.Close() }()
		in = f
		source = opts.input
	}

	logger := log.NewLogger(source)
	if opts.quiet {
		logger = log.Nop()
	}

	// Sinks (archive, frame relay)
	events, backend, err := buildSink(opts, source)
	if err != nil {
		return cli.Exit(err.Error(), exitUsageError)
	}
	if events != nil {
		defer func() { _ = events.Close() }()
	}

	// Notification adapter
	notifier, err := buildAdapter(opts)
	if err != nil {
		return cli.Exit(err.Error(), exitUsageError)
	}
	if notifier != nil {
		defer func() { _ = notifier.Close() }()
	}

	collector := metrics.NewCollector(source, backend)

	var renderer *render.Renderer
	if !opts.useTUI {
		renderer, err = render.NewRenderer(c)
		if err != nil {
			return cli.Exit(err.Error(), exitUsageError)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		cancel()
	}()

	var agg *aggregate.Aggregator
	if opts.aggregate {
		agg = aggregate.New()
	}

	var live *tui.Live
	if opts.useTUI {
		live = tui.NewLive(source)
	}

	consumer := func(event types.Event) {
		if notifier != nil && event.Kind == types.EventKindBuild {
			completed := adapter.NewBuildCompletedEvent(event, source)
			if err := notifier.Publish(ctx, completed); err != nil {
				logger.Warn("notification failed", map[string]any{
					"build": event.BuildName,
					"error": err.Error(),
				})
			}
		}

		if agg != nil {
			agg.Add(event)
		}

		if filters != nil && !filters[event.Kind] {
			return
		}

		switch {
		case live != nil:
			live.Observe(event, collector.Snapshot())
		case agg == nil:
			if err := renderer.RenderEvent(event); err != nil {
				logger.Warn("render failed", map[string]any{"error": err.Error()})
			}
		}
	}

	engine := stream.NewEngine(in, consumer, stream.Config{
		Logger:    logger,
		Collector: collector,
		Sink:      events,
	})

	var runErr error
	if live != nil {
		done := make(chan error, 1)
		go func() {
			err := engine.Run(ctx)
			live.Done(err)
			done <- err
		}()
		if err := live.Run(); err != nil {
			return cli.Exit(fmt.Sprintf("tui failed: %v", err), exitUsageError)
		}
		cancel()
		runErr = <-done
	} else {
		runErr = engine.Run(ctx)
	}

	if runErr != nil {
		return exitForStreamError(runErr)
	}

	if agg != nil && renderer != nil {
		doc := agg.Document()
		if err := renderer.Render(&doc); err != nil {
			return cli.Exit(fmt.Sprintf("render failed: %v", err), exitUsageError)
		}
	}

	return cli.Exit("", exitSuccess)
}

// exitForStreamError maps stream errors to decode exit codes.
func exitForStreamError(err error) error {
	code := exitDecodeError
	var streamErr *stream.Error
	if stream.IsCanceledError(err) {
		code = 130 // interrupted
	} else if errors.As(err, &streamErr) && streamErr.Kind == stream.ErrorSink {
		code = exitSinkError
	}
	return cli.Exit(err.Error(), code)
}

// buildSink assembles the optional event sinks. The returned backend
// label feeds the metrics collector's dimensions ("none" when no sink
// is configured).
func buildSink(opts decodeOptions, source string) (sink.Sink, string, error) {
	var sinks []sink.Sink
	backend := "none"

	if opts.archivePath != "" {
		cfg := archive.Config{
			Dataset: opts.archiveDataset,
			Source:  source,
			Day:     archive.DeriveDay(time.Now()),
		}

		var client archive.Client
		var err error
		switch opts.archiveBackend {
		case "fs", "":
			client, err = archive.NewLodeClient(cfg, opts.archivePath)
			backend = "fs"
		case "s3":
			bucket, prefix := archive.ParseS3Path(opts.archivePath)
			client, err = archive.NewLodeS3Client(cfg, archive.S3Config{
				Bucket:       bucket,
				Prefix:       prefix,
				Region:       opts.archiveRegion,
				Endpoint:     opts.archiveEndpoint,
				UsePathStyle: opts.archiveS3PathStyle,
			})
			backend = "s3"
		default:
			return nil, "", fmt.Errorf("unknown archive-backend: %s (must be fs or s3)", opts.archiveBackend)
		}
		if err != nil {
			return nil, "", fmt.Errorf("archive init failed: %w", err)
		}
		sinks = append(sinks, archive.NewSink(client))
	}

	if framesOut := opts.framesOut; framesOut != "" {
		var w io.WriteCloser
		if framesOut == "-" {
			w = os.Stdout
		} else {
			f, err := os.Create(framesOut)
			if err != nil {
				return nil, "", fmt.Errorf("cannot create frames output: %w", err)
			}
			w = f
		}
		sinks = append(sinks, wire.NewSink(w))
	}

	var combined sink.Sink
	switch len(sinks) {
	case 0:
		return nil, backend, nil
	case 1:
		combined = sinks[0]
	default:
		combined = sink.NewMulti(sinks...)
	}

	if opts.bufferEvents > 0 {
		buffered, err := sink.NewBuffered(combined, sink.BufferedConfig{MaxEvents: opts.bufferEvents})
		if err != nil {
			return nil, "", err
		}
		combined = buffered
	}

	return combined, backend, nil
}

// buildAdapter constructs the configured notification adapter, or nil
// when none is configured.
func buildAdapter(opts decodeOptions) (adapter.Adapter, error) {
	retries := opts.adapterRetries

	switch opts.adapterType {
	case "":
		return nil, nil
	case "webhook":
		if retries < 0 {
			retries = webhook.DefaultRetries
		}
		return webhook.New(webhook.Config{
			URL:     opts.adapterURL,
			Headers: opts.adapterHeaders,
			Timeout: opts.adapterTimeout,
			Retries: retries,
		})
	case "redis":
		if retries < 0 {
			retries = redis.DefaultRetries
		}
		return redis.New(redis.Config{
			URL:     opts.adapterURL,
			Channel: opts.adapterChannel,
			Timeout: opts.adapterTimeout,
			Retries: retries,
		})
	default:
		return nil, fmt.Errorf("unknown adapter: %s (must be webhook or redis)", opts.adapterType)
	}
}
