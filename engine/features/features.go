// Package features derives model-ready columns from post records: lexical
// counts per text column, calendar decomposition of the creation timestamp,
// engagement signals, text-style signals, content flags, and per-author
// activity buckets computed over the whole dataset.
package features

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/mindsift/mindsift/engine/dataset"
	"github.com/mindsift/mindsift/pkg/fn"
)

// textColumns are the candidate inputs for the per-column lexical family.
var textColumns = []string{"title", "selftext", "full_text", "clean_text"}

// family is one group of derived columns. Requires lists the input columns
// the family needs; a table missing any of them skips the whole family.
type family struct {
	name     string
	requires []string
	apply    func(*dataset.Table)
}

// Extractor applies every feature family that the table's schema supports.
type Extractor struct {
	Log *slog.Logger

	families []family
}

// New creates an Extractor with the full family set.
func New(log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	e := &Extractor{Log: log}
	for _, col := range textColumns {
		e.families = append(e.families, family{
			"word_count_" + col, []string{col}, wordCountFeatures(col),
		})
	}
	e.families = append(e.families,
		family{"time", []string{"created_utc"}, timeFeatures},
		family{"engagement", []string{"score", "num_comments"}, engagementFeatures},
		family{"style", []string{"full_text"}, styleFeatures},
		family{"content_flags", []string{"selftext", "over_18", "is_self"}, contentFlagFeatures},
		family{"author_activity", []string{"author"}, authorFeatures},
	)
	return e
}

// Select restricts extraction to the named families. Unknown names are an
// error; per-column lexical families go by "word_count_<col>" or the
// umbrella name "word_count".
func (e *Extractor) Select(names []string) error {
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[strings.TrimSpace(n)] = struct{}{}
	}
	matched := make(map[string]struct{})
	kept := fn.Filter(e.families, func(f family) bool {
		for _, n := range []string{f.name, umbrellaName(f.name)} {
			if _, ok := want[n]; ok {
				matched[n] = struct{}{}
				return true
			}
		}
		return false
	})
	for n := range want {
		if _, ok := matched[n]; !ok {
			return fmt.Errorf("unknown feature family %q", n)
		}
	}
	e.families = kept
	return nil
}

func umbrellaName(name string) string {
	if strings.HasPrefix(name, "word_count_") {
		return "word_count"
	}
	return name
}

// Extract appends derived columns to the table in place. Families whose
// input columns are absent are skipped with a warning rather than failing
// the run.
func (e *Extractor) Extract(t *dataset.Table) {
	for _, fam := range e.families {
		missing := fn.Filter(fam.requires, func(col string) bool { return !t.HasColumn(col) })
		if len(missing) > 0 {
			e.Log.Warn("skipping feature family", "family", fam.name, "missing", strings.Join(missing, ","))
			continue
		}
		fam.apply(t)
	}
}

// wordCountFeatures derives char count, word count, and average word length
// for one text column.
func wordCountFeatures(col string) func(*dataset.Table) {
	return func(t *dataset.Table) {
		for i, r := range t.Rows {
			text := r.Get(col)
			words := strings.Fields(text)

			t.Set(i, col+"_char_count", strconv.Itoa(len([]rune(text))))
			t.Set(i, col+"_word_count", strconv.Itoa(len(words)))

			var avg float64
			if len(words) > 0 {
				total := 0
				for _, w := range words {
					total += len([]rune(w))
				}
				avg = float64(total) / float64(len(words))
			}
			t.Set(i, col+"_avg_word_length", formatFloat(avg))
		}
	}
}

func timeFeatures(t *dataset.Table) {
	for i, r := range t.Rows {
		ts, ok := parseCreated(r.Get("created_utc"))
		if !ok {
			continue
		}

		t.Set(i, "year", strconv.Itoa(ts.Year()))
		t.Set(i, "month", strconv.Itoa(int(ts.Month())))
		t.Set(i, "day", strconv.Itoa(ts.Day()))
		t.Set(i, "hour", strconv.Itoa(ts.Hour()))
		t.Set(i, "weekday", ts.Weekday().String())

		// Monday = 0 .. Sunday = 6.
		wd := (int(ts.Weekday()) + 6) % 7
		t.Set(i, "weekday_num", strconv.Itoa(wd))
		t.Set(i, "is_weekend", bool01(wd >= 5))

		t.Set(i, "time_of_day", timeOfDay(ts.Hour()))
		t.Set(i, "season", season(ts.Month()))
	}
}

// parseCreated accepts Unix seconds (integer or fractional) with an RFC3339
// fallback.
func parseCreated(s string) (time.Time, bool) {
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Unix(int64(secs), 0).UTC(), true
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.UTC(), true
	}
	return time.Time{}, false
}

func timeOfDay(hour int) string {
	switch {
	case hour <= 6:
		return "Night"
	case hour <= 12:
		return "Morning"
	case hour <= 18:
		return "Afternoon"
	default:
		return "Evening"
	}
}

func season(m time.Month) string {
	switch m {
	case time.December, time.January, time.February:
		return "Winter"
	case time.March, time.April, time.May:
		return "Spring"
	case time.June, time.July, time.August:
		return "Summer"
	default:
		return "Fall"
	}
}

func engagementFeatures(t *dataset.Table) {
	for i, r := range t.Rows {
		score, _ := strconv.Atoi(r.Get("score"))
		comments, _ := strconv.Atoi(r.Get("num_comments"))

		t.Set(i, "score_positive", bool01(score > 0))

		// Symmetric log transform, preserves the sign of downvoted posts.
		scoreLog := math.Log1p(math.Abs(float64(score)))
		if score < 0 {
			scoreLog = -scoreLog
		}
		t.Set(i, "score_log", formatFloat(scoreLog))

		t.Set(i, "has_comments", bool01(comments > 0))
		t.Set(i, "comments_log", formatFloat(math.Log1p(float64(comments))))

		denom := math.Abs(float64(score))
		if denom < 1 {
			denom = 1
		}
		t.Set(i, "engagement_ratio", formatFloat(float64(comments)/denom))
	}
}

func styleFeatures(t *dataset.Table) {
	for i, r := range t.Rows {
		text := r.Get("full_text")
		t.Set(i, "uppercase_ratio", formatFloat(uppercaseRatio(text)))
		t.Set(i, "question_marks", strconv.Itoa(strings.Count(text, "?")))
		t.Set(i, "exclam_runs", strconv.Itoa(countRuns(text, func(r rune) bool { return r == '!' })))
		t.Set(i, "punct_runs", strconv.Itoa(countRuns(text, func(r rune) bool {
			return r == '!' || r == '?' || r == '.'
		})))
	}
}

// uppercaseRatio is the share of upper-case letters over the whole text,
// punctuation and spaces included.
func uppercaseRatio(s string) float64 {
	var upper, total int
	for _, r := range s {
		total++
		if unicode.IsUpper(r) {
			upper++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(upper) / float64(total)
}

// countRuns counts maximal runs of 2 or more consecutive matching runes.
func countRuns(s string, match func(rune) bool) int {
	runs, length := 0, 0
	for _, r := range s {
		if match(r) {
			length++
			continue
		}
		if length >= 2 {
			runs++
		}
		length = 0
	}
	if length >= 2 {
		runs++
	}
	return runs
}

func contentFlagFeatures(t *dataset.Table) {
	for i, r := range t.Rows {
		isSelf := r.Get("is_self") == "true"
		body := strings.TrimSpace(r.Get("selftext"))
		hasBody := body != "" && body != "[removed]" && body != "[deleted]"

		t.Set(i, "is_self_post", bool01(isSelf))
		t.Set(i, "has_body", bool01(hasBody))
		t.Set(i, "is_nsfw", bool01(r.Get("over_18") == "true"))
		t.Set(i, "title_only", bool01(isSelf && !hasBody))
	}
}

// authorFeatures counts posts per author across the whole table and buckets
// the activity level. Deleted or empty authors are excluded from the
// aggregation and bucket as unknown.
func authorFeatures(t *dataset.Table) {
	groups := fn.GroupBy(t.Rows, func(r dataset.Record) string { return r.Get("author") })
	for i, r := range t.Rows {
		author := r.Get("author")
		if author == "" || author == "[deleted]" {
			t.Set(i, "author_post_count", "0")
			t.Set(i, "author_activity", "unknown")
			continue
		}
		n := len(groups[author])
		t.Set(i, "author_post_count", strconv.Itoa(n))
		t.Set(i, "author_activity", activityBucket(n))
	}
}

func activityBucket(n int) string {
	switch {
	case n <= 1:
		return "single"
	case n <= 5:
		return "casual"
	case n <= 20:
		return "regular"
	default:
		return "frequent"
	}
}

func bool01(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
