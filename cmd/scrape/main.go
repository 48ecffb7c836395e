// Command scrape fetches posts from the configured subreddits, merges the
// new ones into the master dataset, and writes a timestamped backup of each
// batch. It can run once or poll on an interval, optionally publishing new
// records to NATS and serving Prometheus metrics.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mindsift/mindsift/engine/config"
	"github.com/mindsift/mindsift/engine/dataset"
	"github.com/mindsift/mindsift/engine/ingest"
	"github.com/mindsift/mindsift/engine/reddit"
	"github.com/mindsift/mindsift/pkg/metrics"
	"github.com/mindsift/mindsift/pkg/mid"
	"github.com/mindsift/mindsift/pkg/natsutil"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("scrape failed", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	var (
		configPath  = flag.String("config", "", "path to YAML config file")
		dataDir     = flag.String("data-dir", "", "override data directory")
		subs        = flag.String("subreddits", "", "override subreddits (comma separated)")
		sortFlag    = flag.String("sort", "", "listing order: hot, new, or top")
		limit       = flag.Int("limit", 0, "override max posts per subreddit")
		interval    = flag.Duration("interval", 0, "polling interval (0 = one-shot)")
		natsURL     = flag.String("nats", "", "override NATS URL for publishing new posts")
		subject     = flag.String("subject", "", "override NATS subject")
		metricsPort = flag.Int("metrics-port", 0, "override metrics server port (poll mode only)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *subs != "" {
		cfg.Subreddits = strings.Split(*subs, ",")
	}
	if *sortFlag != "" {
		cfg.Sort = *sortFlag
	}
	if *limit > 0 {
		cfg.Limit = *limit
	}
	if *natsURL != "" {
		cfg.NATS.URL = *natsURL
	}
	if *subject != "" {
		cfg.NATS.Subject = *subject
	}
	if *metricsPort > 0 {
		cfg.MetricsAddr = fmt.Sprintf(":%d", *metricsPort)
	}

	sort, err := ingest.ParseSort(cfg.Sort)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := metrics.New()
	runDur := reg.Histogram("scrape_run_duration_seconds", "Duration of one scrape cycle", nil)
	masterRows := reg.Gauge("scrape_master_rows", "Rows in the master dataset after merge")
	// The metrics endpoint only makes sense for a long-running poll.
	if cfg.MetricsAddr != "" && *interval > 0 {
		serveMetrics(cfg.MetricsAddr, reg, logger)
	}

	scraper := reddit.NewScraper(reddit.Config{
		UserAgent: cfg.UserAgent,
		RateLimit: cfg.RateLimit.Std(),
		Burst:     cfg.Burst,
	})
	ing := ingest.New(scraper, cfg.MasterPath(), logger)

	if cfg.NATS.URL != "" {
		nc, err := nats.Connect(cfg.NATS.URL, nats.Name("mindsift-scrape"))
		if err != nil {
			return fmt.Errorf("nats connect: %w", err)
		}
		defer nc.Close()
		logger.Info("publishing new posts", "url", cfg.NATS.URL, "subject", cfg.NATS.Subject)

		ing.OnNew = func(ctx context.Context, recs []dataset.Record) {
			for _, r := range recs {
				if err := natsutil.Publish(ctx, nc, cfg.NATS.Subject, r); err != nil {
					logger.Warn("nats publish failed", "id", r.ID, "err", err)
				}
			}
		}
	}

	cycle := func() error {
		start := time.Now()
		sum, err := ing.Run(ctx, cfg.Subreddits, sort, cfg.Limit)
		runDur.Since(start)
		if err != nil {
			return err
		}
		for _, stat := range []struct {
			name string
			n    int
		}{
			{"fetched", sum.Fetched},
			{"accepted", sum.Accepted},
			{"skipped", sum.Skipped},
			{"malformed", sum.Malformed},
		} {
			reg.Counter(metrics.WithLabels("scrape_posts_total", "result", stat.name),
				"Posts seen per result").Add(int64(stat.n))
		}
		masterRows.Set(int64(sum.MasterSize))

		logger.Info("scrape cycle done",
			"fetched", sum.Fetched,
			"new", sum.Accepted,
			"skipped", sum.Skipped,
			"malformed", sum.Malformed,
			"failed_categories", sum.FailedCategories,
			"master_rows", sum.MasterSize,
			"backup", sum.BackupPath,
		)
		return nil
	}

	if err := cycle(); err != nil {
		return err
	}
	if *interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil
		case <-ticker.C:
			if err := cycle(); err != nil {
				logger.Error("scrape cycle failed", "err", err)
			}
		}
	}
}

func serveMetrics(addr string, reg *metrics.Registry, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", reg.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok\n"))
	})
	handler := mid.Chain(mux, mid.Logger(logger), mid.Recover(logger), mid.OTel("mindsift-scrape"))

	go func() {
		if err := http.ListenAndServe(addr, handler); err != nil {
			logger.Error("metrics server error", "addr", addr, "err", err)
		}
	}()
}
