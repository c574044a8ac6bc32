package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/archive-export/internal/archive"
	"github.com/angelmondragon/archive-export/internal/enrich"
	"github.com/angelmondragon/archive-export/internal/export"
	"github.com/angelmondragon/archive-export/internal/runlock"
	"github.com/angelmondragon/archive-export/internal/sink"
	"github.com/angelmondragon/archive-export/internal/stores"
	"github.com/angelmondragon/archive-export/pkg/config"
	pkgerrors "github.com/angelmondragon/archive-export/pkg/errors"
	"github.com/angelmondragon/archive-export/pkg/logger"
	"github.com/angelmondragon/archive-export/pkg/metrics"
	"github.com/angelmondragon/archive-export/pkg/redis"
	"github.com/angelmondragon/archive-export/pkg/storage/gcs"
)

const serviceName = "archive-export"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type cliFlags struct {
	outDir   string
	maxPages int
	upload   bool
}

func parseFlags(args []string, stderr io.Writer, cfg *config.Config) (*cliFlags, []string, error) {
	fs := flag.NewFlagSet(serviceName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, export.Usage)
		fs.PrintDefaults()
	}
	f := &cliFlags{}
	fs.StringVar(&f.outDir, "out", cfg.Export.OutputDir, "directory for the CSV files")
	fs.IntVar(&f.maxPages, "max-pages", cfg.Export.MaxPages, "page limit per store and category")
	fs.BoolVar(&f.upload, "upload", false, "upload finished files to the configured GCS bucket")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if f.maxPages <= 0 {
		return nil, nil, fmt.Errorf("-max-pages must be positive")
	}
	return f, fs.Args(), nil
}

func run(args []string, stdout, stderr io.Writer) int {
	bootLog := logger.New(logger.Options{ServiceName: serviceName, Output: stderr, Format: "console"})
	if err := godotenv.Load(); err != nil {
		bootLog.Debug(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		bootLog.Error(context.Background(), "failed to load config", err)
		return pkgerrors.ExitFatal
	}

	logg := logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
		Output:      stderr,
	})

	flags, positional, err := parseFlags(args, stderr, cfg)
	if err != nil {
		return pkgerrors.ExitUsage
	}

	plan, err := export.ParseArgs(positional, cfg.Region.DefaultRegion(), time.Now())
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeUsage {
			fmt.Fprintln(stderr, export.Usage)
			fmt.Fprintln(stderr, strings.Join(export.UsageHint[1:], "\n"))
		} else if typed != nil {
			fmt.Fprintln(stdout, typed.Message())
		}
		return pkgerrors.ExitCodeFor(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})

	svc, cleanup, err := wire(ctx, cfg, flags, logg, stdout)
	defer cleanup()
	if err != nil {
		logg.Error(logg.WithFields(ctx, pkgerrors.Dump(err).LogFields()), "failed to start export", err)
		return pkgerrors.ExitCodeFor(err)
	}

	report, err := svc.Run(ctx, plan)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeConflict {
			fmt.Fprintln(stderr, typed.Message())
		}
		return pkgerrors.ExitCodeFor(err)
	}
	for _, t := range report.Truncations() {
		logg.Warn(logg.WithFields(ctx, map[string]any{"store_id": t.StoreID, "reason": string(t.Reason)}), "export incomplete for store")
	}
	return report.ExitCode()
}

func wire(ctx context.Context, cfg *config.Config, flags *cliFlags, logg *logger.Logger, stdout io.Writer) (*export.Service, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	client, err := archive.NewClient(cfg.API.Token, archive.WithTimeout(cfg.API.RequestTimeout))
	if err != nil {
		return nil, cleanup, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "archive client")
	}

	registry := prometheus.NewRegistry()
	exportMetrics := metrics.NewExportMetrics(registry)

	fetcher, err := archive.NewFetcher(archive.FetcherParams{
		Source:   client,
		Enricher: enrich.NewTagEnricher(logg),
		Logger:   logg,
		Metrics:  exportMetrics,
		MaxPages: flags.maxPages,
	})
	if err != nil {
		return nil, cleanup, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "fetcher")
	}

	resolver, err := stores.NewResolver(client, cfg.Export.DemoGroups, logg)
	if err != nil {
		return nil, cleanup, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store resolver")
	}

	csvSink, err := sink.NewCSVSink(flags.outDir)
	if err != nil {
		return nil, cleanup, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "output directory")
	}

	var lock runlock.Lock = runlock.Noop{}
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, cleanup, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "bootstrap redis")
		}
		closers = append(closers, func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(ctx, "error closing redis", err)
			}
		})
		lockDir, err := runlock.OutputDir(flags.outDir)
		if err != nil {
			return nil, cleanup, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "run lock")
		}
		redisLock, err := runlock.NewRedisLock(redisClient, redisClient.LockKey(cfg.App.Env, lockDir), cfg.Redis.LockTTL)
		if err != nil {
			return nil, cleanup, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "run lock")
		}
		lock = redisLock
	}

	var uploader export.Uploader
	if flags.upload {
		if !cfg.GCS.Enabled() {
			return nil, cleanup, pkgerrors.New(pkgerrors.CodeValidation, "-upload requires ARCHIVE_EXPORT_GCS_BUCKET_NAME")
		}
		gcsClient, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
		if err != nil {
			return nil, cleanup, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "bootstrap gcs")
		}
		uploader = gcsClient
	}

	svc, err := export.NewService(export.ServiceParams{
		Logger:      logg,
		Regions:     cfg.Region,
		Resolver:    resolver,
		Fetcher:     fetcher,
		Sink:        csvSink,
		Lock:        lock,
		Metrics:     exportMetrics,
		Uploader:    uploader,
		Gatherer:    registry,
		MetricsPath: cfg.Metrics.TextfilePath,
		Out:         stdout,
	})
	if err != nil {
		return nil, cleanup, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "export service")
	}
	return svc, cleanup, nil
}
