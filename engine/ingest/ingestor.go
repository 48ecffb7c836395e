package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/mindsift/mindsift/engine/dataset"
	"github.com/mindsift/mindsift/pkg/fn"
	"github.com/mindsift/mindsift/pkg/resilience"
)

// maxBackupSuffix bounds how many disambiguating suffixes we try before
// giving up on a backup name.
const maxBackupSuffix = 100

// Ingestor coordinates one scrape-merge-persist cycle against a master
// dataset file.
type Ingestor struct {
	Source     Source
	MasterPath string
	Log        *slog.Logger

	// Now is injectable for deterministic backup names in tests.
	Now func() time.Time

	// OnNew, when set, receives the accepted delta after a successful
	// persist, e.g. to publish new records to a broker.
	OnNew func(context.Context, []dataset.Record)

	breakers map[string]*resilience.Breaker
	brOpts   resilience.BreakerOpts
}

// New creates an Ingestor writing to masterPath. Backups land next to the
// master file.
func New(src Source, masterPath string, log *slog.Logger) *Ingestor {
	if log == nil {
		log = slog.Default()
	}
	return &Ingestor{
		Source:     src,
		MasterPath: masterPath,
		Log:        log,
		Now:        time.Now,
		breakers:   make(map[string]*resilience.Breaker),
		brOpts:     resilience.DefaultBreakerOpts,
	}
}

// Load reads the master dataset. A missing file is a fresh start, not an
// error; any other read failure surfaces wrapped in dataset.ErrStorageRead.
func (ing *Ingestor) Load() (*dataset.Table, error) {
	t, err := dataset.ReadFile(ing.MasterPath)
	if errors.Is(err, fs.ErrNotExist) {
		ing.Log.Info("no master dataset yet, starting empty", "path", ing.MasterPath)
		return dataset.NewTable(), nil
	}
	if err != nil {
		return nil, err
	}
	ing.Log.Info("loaded master dataset", "path", ing.MasterPath, "rows", t.Len())
	return t, nil
}

// FetchAndFilter fetches one category and keeps only records whose id is not
// in known. Records with an empty id are dropped as malformed. Accepted ids
// are added to known so later categories in the same run cannot re-accept
// them.
func (ing *Ingestor) FetchAndFilter(ctx context.Context, category string, sort SortOrder, limit int, known map[string]struct{}) ([]dataset.Record, FetchStats, error) {
	recs, err := ing.Source.Fetch(ctx, category, sort, limit)
	if err != nil {
		return nil, FetchStats{}, fmt.Errorf("fetch %s: %w", category, err)
	}

	var stats FetchStats
	stats.Fetched = len(recs)
	accepted := make([]dataset.Record, 0, len(recs))
	for _, r := range recs {
		if r.ID == "" {
			stats.Malformed++
			ing.Log.Warn("dropping malformed record", "category", category, "reason", "empty id", "err", ErrMalformedRecord)
			continue
		}
		if _, seen := known[r.ID]; seen {
			stats.Skipped++
			continue
		}
		known[r.ID] = struct{}{}
		accepted = append(accepted, r)
		stats.Accepted++
	}

	ing.Log.Info("fetched category",
		"category", category,
		"sort", string(sort),
		"fetched", stats.Fetched,
		"new", stats.Accepted,
		"skipped", stats.Skipped,
		"malformed", stats.Malformed,
	)
	return accepted, stats, nil
}

// MergeAndPersist appends delta to master, deduplicates defensively keeping
// the earliest occurrence of each id, writes the master file atomically, and
// writes the delta to a timestamped backup. An empty delta touches nothing
// and returns an empty backup path.
func (ing *Ingestor) MergeAndPersist(master *dataset.Table, delta []dataset.Record, sort SortOrder) (string, error) {
	if len(delta) == 0 {
		ing.Log.Info("no new records, master unchanged", "rows", master.Len())
		return "", nil
	}

	for _, r := range delta {
		master.Append(r)
	}
	if dropped := master.DedupByID(); dropped > 0 {
		ing.Log.Warn("dropped duplicate ids during merge", "count", dropped)
	}

	if err := dataset.WriteFile(master, ing.MasterPath); err != nil {
		return "", err
	}

	backup := dataset.NewTable(master.Columns...)
	backup.Rows = delta
	path, err := ing.writeBackup(backup, sort)
	if err != nil {
		return "", err
	}

	ing.Log.Info("persisted dataset",
		"master", ing.MasterPath,
		"rows", master.Len(),
		"added", len(delta),
		"backup", path,
	)
	return path, nil
}

// writeBackup claims a timestamped backup name with O_EXCL, appending a
// numeric suffix when two runs land on the same second.
func (ing *Ingestor) writeBackup(t *dataset.Table, sort SortOrder) (string, error) {
	dir := filepath.Dir(ing.MasterPath)
	stamp := ing.Now().UTC().Format("20060102_150405")
	base := fmt.Sprintf("reddit_posts_%s_%s", sort, stamp)

	for n := 0; n < maxBackupSuffix; n++ {
		name := base
		if n > 0 {
			name = fmt.Sprintf("%s_%d", base, n)
		}
		path := filepath.Join(dir, name+".csv")
		err := dataset.WriteFileExclusive(t, path)
		if err == nil {
			return path, nil
		}
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		return "", err
	}
	return "", fmt.Errorf("%w: no free backup name for %s", dataset.ErrStorageWrite, base)
}

// Run executes a full cycle: load the master, fetch every category, merge,
// persist. A category whose fetch fails is skipped and the run continues;
// storage failures abort the run. Each category gets its own circuit breaker
// so a flaky one stops being hammered across poll iterations.
func (ing *Ingestor) Run(ctx context.Context, categories []string, sort SortOrder, limit int) (RunSummary, error) {
	var sum RunSummary

	master, err := ing.Load()
	if err != nil {
		return sum, err
	}
	known := master.IDSet()

	var delta []dataset.Record
	for _, cat := range categories {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		br := ing.breaker(cat)
		res := resilience.CallResult(br, ctx, func(ctx context.Context) fn.Result[[]dataset.Record] {
			recs, stats, err := ing.FetchAndFilter(ctx, cat, sort, limit, known)
			if err != nil {
				return fn.Err[[]dataset.Record](err)
			}
			sum.add(stats)
			return fn.Ok(recs)
		})
		recs, err := res.Unwrap()
		if err != nil {
			sum.FailedCategories = append(sum.FailedCategories, cat)
			ing.Log.Warn("skipping category", "category", cat, "err", err)
			continue
		}
		delta = append(delta, recs...)
	}

	backup, err := ing.MergeAndPersist(master, delta, sort)
	if err != nil {
		return sum, err
	}
	sum.MasterSize = master.Len()
	sum.BackupPath = backup

	if ing.OnNew != nil && len(delta) > 0 {
		ing.OnNew(ctx, delta)
	}
	return sum, nil
}

func (ing *Ingestor) breaker(category string) *resilience.Breaker {
	if ing.breakers == nil {
		ing.breakers = make(map[string]*resilience.Breaker)
	}
	if b, ok := ing.breakers[category]; ok {
		return b
	}
	b := resilience.NewBreaker(ing.brOpts)
	ing.breakers[category] = b
	return b
}
