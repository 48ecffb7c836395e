// Command features reads a cleaned dataset and appends derived feature
// columns: word counts, posting-time buckets, engagement ratios, style
// markers, content flags, and author activity.
package main

import (
	"flag"
	"log/slog"
	"os"
	"strings"

	"github.com/mindsift/mindsift/engine/dataset"
	"github.com/mindsift/mindsift/engine/features"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("feature extraction failed", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	var (
		in       = flag.String("in", "data/reddit_posts_clean.csv", "input CSV")
		out      = flag.String("out", "data/reddit_posts_features.csv", "output CSV")
		families = flag.String("families", "", "comma-separated feature families to run (empty = all)")
	)
	flag.Parse()

	ex := features.New(logger)
	if *families != "" {
		if err := ex.Select(strings.Split(*families, ",")); err != nil {
			return err
		}
	}

	t, err := dataset.ReadFile(*in)
	if err != nil {
		return err
	}
	before := len(t.Columns)
	logger.Info("loaded dataset", "path", *in, "rows", t.Len(), "columns", before)

	ex.Extract(t)

	if err := dataset.WriteFile(t, *out); err != nil {
		return err
	}
	logger.Info("wrote feature dataset",
		"path", *out,
		"rows", t.Len(),
		"added_columns", len(t.Columns)-before,
	)
	return nil
}
