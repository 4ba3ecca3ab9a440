package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wegman-software/csv2osm-go/internal/config"
	"github.com/wegman-software/csv2osm-go/internal/flex"
	"github.com/wegman-software/csv2osm-go/internal/locale"
	"github.com/wegman-software/csv2osm-go/internal/logger"
	"github.com/wegman-software/csv2osm-go/internal/metrics"
	"github.com/wegman-software/csv2osm-go/internal/osmxml"
	"github.com/wegman-software/csv2osm-go/internal/pipeline"
	"github.com/wegman-software/csv2osm-go/internal/proj"
	"github.com/wegman-software/csv2osm-go/internal/style"
	"github.com/wegman-software/csv2osm-go/internal/table"
)

func runConvert(cmd *cobra.Command, args []string) {
	log := logger.Get()

	if len(args) > 0 {
		cfg.Input = args[0]
	}
	if len(args) > 1 {
		cfg.Output = args[1]
	}

	// Handle interrupt signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			log.Info("Received signal, shutting down", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	if _, err := convert(ctx, cfg, log); err != nil {
		exitWithError("Conversion failed", err)
	}
}

// convert runs one conversion described by cfg
func convert(ctx context.Context, cfg *config.Config, log *zap.Logger) (*pipeline.Stats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	sep, err := cfg.Separators()
	if err != nil {
		return nil, err
	}
	delimiter, err := cfg.DelimiterRune()
	if err != nil {
		return nil, err
	}
	src, err := cfg.Source()
	if err != nil {
		return nil, err
	}

	transformer, err := proj.NewTransformer(src)
	if err != nil {
		return nil, err
	}
	defer transformer.Close()

	reader, err := table.Open(cfg.Input, table.Options{
		Delimiter: delimiter,
		Encoding:  cfg.Encoding,
	})
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	// Columns are resolved before any output exists
	columns, err := pipeline.ResolveColumns(reader.Header(), cfg.Lon, cfg.Lat)
	if err != nil {
		return nil, err
	}

	filters, closeFilters, err := buildFilters(cfg, sep, log)
	if err != nil {
		return nil, err
	}
	defer closeFilters()

	log.Info("Starting conversion",
		zap.String("input", displayName(cfg.Input, "stdin")),
		zap.String("output", displayName(cfg.Output, "stdout")),
		zap.String("lon", columns.Lon),
		zap.String("lat", columns.Lat),
		zap.String("delimiter", string(reader.Delimiter)),
		zap.String("locale", sep.String()),
		zap.String("source", src.String()),
		zap.Bool("way", cfg.Way),
		zap.Int("filters", len(filters)),
	)

	out, err := openOutput(cfg.Output)
	if err != nil {
		return nil, err
	}
	defer out.Close()

	writer := osmxml.NewWriter(out, cfg.Generator)
	conv := pipeline.NewConverter(reader, transformer, writer, pipeline.Options{
		Columns:        columns,
		Separators:     sep,
		Filters:        filters,
		Way:            cfg.Way,
		WayEmittedOnly: cfg.WayEmittedOnly,
		ProgressEvery:  cfg.ProgressEvery,
	}, log)

	stats, err := run(ctx, conv, cfg, log)
	if err != nil {
		return stats, err
	}

	if err := out.Close(); err != nil {
		return stats, fmt.Errorf("failed to close output: %w", err)
	}

	if stats.Way {
		log.Debug("Way written",
			zap.Int64("way_id", int64(stats.WayID)),
			zap.Int64("refs", stats.WayRefs),
		)
	}
	return stats, nil
}

// run drives the converter, with the metrics collector alongside when
// an interval is configured
func run(ctx context.Context, conv *pipeline.Converter, cfg *config.Config, log *zap.Logger) (*pipeline.Stats, error) {
	if cfg.MetricsInterval <= 0 {
		return conv.Run(ctx)
	}

	collector := metrics.NewCollector(cfg.MetricsInterval, log, conv.Progress)
	log.Info("Metrics collection enabled", zap.Duration("interval", collector.Interval()))

	g, gctx := errgroup.WithContext(ctx)
	metricsCtx, stopMetrics := context.WithCancel(gctx)
	defer stopMetrics()

	var stats *pipeline.Stats
	g.Go(func() error {
		defer stopMetrics()
		var err error
		stats, err = conv.Run(gctx)
		return err
	})
	g.Go(func() error {
		return collector.Start(metricsCtx)
	})

	err := g.Wait()
	return stats, err
}

// buildFilters assembles the tag filters: style rules first, then the
// Lua script. The returned func releases them.
func buildFilters(cfg *config.Config, sep locale.Separators, log *zap.Logger) ([]pipeline.TagFilter, func(), error) {
	var filters []pipeline.TagFilter
	noop := func() {}

	rules := cfg.Tags
	if cfg.StyleFile != "" {
		sc, err := style.LoadConfig(cfg.StyleFile)
		if err != nil {
			return nil, noop, err
		}
		rules = sc.Tags.Merge(cfg.Tags)
	}

	filter, err := style.NewFilter(rules)
	if err != nil {
		return nil, noop, err
	}
	if filter.HasFilter() {
		filters = append(filters, filter)
	}

	if cfg.ScriptFile == "" {
		return filters, noop, nil
	}

	rt := flex.NewRuntime(sep)
	rt.SetLogger(log)
	if err := rt.LoadFile(cfg.ScriptFile); err != nil {
		rt.Close()
		return nil, noop, err
	}
	if !rt.HasProcessRow() {
		log.Warn("Script defines no csv2osm.process_row; tags pass through",
			zap.String("script", cfg.ScriptFile))
	}
	filters = append(filters, rt)
	return filters, rt.Close, nil
}

func displayName(path, std string) string {
	if path == "" || path == "-" {
		return std
	}
	return path
}
