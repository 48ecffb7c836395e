package features

import (
	"io"
	"log/slog"
	"testing"

	"github.com/mindsift/mindsift/engine/dataset"
)

func quietLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fullRecord(id string, fields map[string]string) dataset.Record {
	base := map[string]string{
		"title":        "a title",
		"selftext":     "some body",
		"full_text":    "a title some body",
		"score":        "1",
		"num_comments": "0",
		"created_utc":  "1692000000",
		"author":       "someone",
		"over_18":      "false",
		"is_self":      "true",
	}
	for k, v := range fields {
		base[k] = v
	}
	return dataset.Record{ID: id, Fields: base}
}

func extract(t *testing.T, recs ...dataset.Record) *dataset.Table {
	t.Helper()
	tbl := dataset.NewTable("title", "selftext", "full_text", "score", "num_comments", "created_utc", "author", "over_18", "is_self")
	for _, r := range recs {
		tbl.Append(r)
	}
	New(quietLog()).Extract(tbl)
	return tbl
}

func TestWordCountFeatures(t *testing.T) {
	tbl := extract(t, fullRecord("a", map[string]string{
		"title":    "why am I like this",
		"selftext": "",
	}))
	r := tbl.Rows[0]
	if r.Get("title_word_count") != "5" {
		t.Fatalf("title_word_count = %q", r.Get("title_word_count"))
	}
	if r.Get("title_char_count") != "18" {
		t.Fatalf("title_char_count = %q", r.Get("title_char_count"))
	}
	// why(3) am(2) I(1) like(4) this(4) = 14 letters over 5 words.
	if r.Get("title_avg_word_length") != "2.8" {
		t.Fatalf("title_avg_word_length = %q", r.Get("title_avg_word_length"))
	}
	if r.Get("selftext_word_count") != "0" || r.Get("selftext_avg_word_length") != "0" {
		t.Fatalf("empty selftext counts: %q / %q", r.Get("selftext_word_count"), r.Get("selftext_avg_word_length"))
	}
}

func TestTimeFeatures(t *testing.T) {
	// 1692000000 = Monday 2023-08-14 08:00:00 UTC.
	tbl := extract(t, fullRecord("a", map[string]string{"created_utc": "1692000000"}))
	r := tbl.Rows[0]

	if r.Get("year") != "2023" || r.Get("month") != "8" || r.Get("day") != "14" {
		t.Fatalf("date = %s-%s-%s", r.Get("year"), r.Get("month"), r.Get("day"))
	}
	if r.Get("hour") != "8" {
		t.Fatalf("hour = %q", r.Get("hour"))
	}
	if r.Get("weekday") != "Monday" || r.Get("weekday_num") != "0" {
		t.Fatalf("weekday = %q num %q", r.Get("weekday"), r.Get("weekday_num"))
	}
	if r.Get("is_weekend") != "0" {
		t.Fatalf("is_weekend = %q", r.Get("is_weekend"))
	}
	if r.Get("time_of_day") != "Morning" || r.Get("season") != "Summer" {
		t.Fatalf("time_of_day/season = %q/%q", r.Get("time_of_day"), r.Get("season"))
	}
}

func TestTimeFeaturesRFC3339Fallback(t *testing.T) {
	tbl := extract(t, fullRecord("a", map[string]string{"created_utc": "2024-01-06T23:30:00Z"}))
	r := tbl.Rows[0]
	if r.Get("season") != "Winter" || r.Get("is_weekend") != "1" {
		t.Fatalf("season/is_weekend = %q/%q", r.Get("season"), r.Get("is_weekend"))
	}
	if r.Get("time_of_day") != "Evening" {
		t.Fatalf("time_of_day = %q", r.Get("time_of_day"))
	}
}

func TestTimeOfDayBuckets(t *testing.T) {
	cases := map[int]string{0: "Night", 6: "Night", 7: "Morning", 12: "Morning", 13: "Afternoon", 18: "Afternoon", 19: "Evening", 23: "Evening"}
	for h, want := range cases {
		if got := timeOfDay(h); got != want {
			t.Errorf("timeOfDay(%d) = %q, want %q", h, got, want)
		}
	}
}

func TestEngagementFeatures(t *testing.T) {
	tbl := extract(t, fullRecord("a", map[string]string{"score": "-2", "num_comments": "3"}))
	r := tbl.Rows[0]

	if r.Get("engagement_ratio") != "1.5" {
		t.Fatalf("engagement_ratio = %q, want 1.5", r.Get("engagement_ratio"))
	}
	if r.Get("score_log")[0] != '-' {
		t.Fatalf("score_log must keep the sign of downvoted posts, got %q", r.Get("score_log"))
	}
	if r.Get("score_positive") != "0" {
		t.Fatalf("score_positive = %q", r.Get("score_positive"))
	}
	if r.Get("has_comments") != "1" {
		t.Fatalf("has_comments = %q", r.Get("has_comments"))
	}
	if r.Get("comments_log") == "" || r.Get("comments_log") == "0" {
		t.Fatalf("comments_log = %q", r.Get("comments_log"))
	}
}

func TestEngagementZeroScore(t *testing.T) {
	tbl := extract(t, fullRecord("a", map[string]string{"score": "0", "num_comments": "4"}))
	if got := tbl.Rows[0].Get("engagement_ratio"); got != "4" {
		t.Fatalf("zero score must divide by 1, got %q", got)
	}
}

func TestStyleFeatures(t *testing.T) {
	tbl := extract(t, fullRecord("a", map[string]string{
		"full_text": "HELP me please?! why... is this happening!!",
	}))
	r := tbl.Rows[0]
	if r.Get("question_marks") != "1" {
		t.Fatalf("question_marks = %q", r.Get("question_marks"))
	}
	// "!!" is a run; the lone "!" after "?" is not.
	if r.Get("exclam_runs") != "1" {
		t.Fatalf("exclam_runs = %q", r.Get("exclam_runs"))
	}
	// "?!", "...", "!!" are all runs of mixed terminal punctuation.
	if r.Get("punct_runs") != "3" {
		t.Fatalf("punct_runs = %q", r.Get("punct_runs"))
	}
}

func TestUppercaseRatio(t *testing.T) {
	// 4 upper-case letters in a 16-rune string.
	if got := uppercaseRatio("HELP me please?!"); got != 4.0/16.0 {
		t.Fatalf("uppercaseRatio = %v", got)
	}
	if got := uppercaseRatio(""); got != 0 {
		t.Fatalf("empty text must give 0, got %v", got)
	}
	if got := uppercaseRatio("123 !!!"); got != 0 {
		t.Fatalf("no letters must give 0, got %v", got)
	}
}

func TestContentFlags(t *testing.T) {
	tbl := extract(t,
		fullRecord("a", map[string]string{"selftext": "[removed]", "over_18": "true", "is_self": "true"}),
		fullRecord("b", map[string]string{"selftext": "real text", "is_self": "false"}),
	)
	a, b := tbl.Rows[0], tbl.Rows[1]
	if a.Get("has_body") != "0" || b.Get("has_body") != "1" {
		t.Fatalf("has_body: %q/%q", a.Get("has_body"), b.Get("has_body"))
	}
	if a.Get("title_only") != "1" || b.Get("title_only") != "0" {
		t.Fatalf("title_only: %q/%q", a.Get("title_only"), b.Get("title_only"))
	}
	if a.Get("is_nsfw") != "1" || a.Get("is_self_post") != "1" {
		t.Fatalf("flags: nsfw=%q self=%q", a.Get("is_nsfw"), a.Get("is_self_post"))
	}
}

func TestAuthorActivity(t *testing.T) {
	recs := []dataset.Record{
		fullRecord("a", map[string]string{"author": "alice"}),
		fullRecord("b", map[string]string{"author": "alice"}),
		fullRecord("c", map[string]string{"author": "[deleted]"}),
		fullRecord("d", map[string]string{"author": "bob"}),
	}
	tbl := extract(t, recs...)

	if got := tbl.Rows[0].Get("author_activity"); got != "casual" {
		t.Fatalf("alice bucket = %q", got)
	}
	if got := tbl.Rows[0].Get("author_post_count"); got != "2" {
		t.Fatalf("alice count = %q", got)
	}
	if got := tbl.Rows[2].Get("author_activity"); got != "unknown" {
		t.Fatalf("[deleted] bucket = %q", got)
	}
	if got := tbl.Rows[3].Get("author_activity"); got != "single" {
		t.Fatalf("bob bucket = %q", got)
	}
}

func TestActivityBuckets(t *testing.T) {
	cases := map[int]string{1: "single", 2: "casual", 5: "casual", 6: "regular", 20: "regular", 21: "frequent"}
	for n, want := range cases {
		if got := activityBucket(n); got != want {
			t.Errorf("activityBucket(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestSkipsFamilyWhenColumnsMissing(t *testing.T) {
	tbl := dataset.NewTable("title")
	tbl.Append(dataset.Record{ID: "a", Fields: map[string]string{"title": "only a title"}})
	New(quietLog()).Extract(tbl)

	if tbl.HasColumn("score_log") {
		t.Fatal("engagement family must be skipped without score columns")
	}
	if tbl.HasColumn("uppercase_ratio") {
		t.Fatal("style family must be skipped without full_text")
	}
	if !tbl.HasColumn("title_word_count") {
		t.Fatal("title lexical family should still run")
	}
}

func TestSelectFamilies(t *testing.T) {
	e := New(quietLog())
	if err := e.Select([]string{"word_count", "engagement"}); err != nil {
		t.Fatal(err)
	}

	tbl := dataset.NewTable("title", "selftext", "full_text", "score", "num_comments", "created_utc", "author", "over_18", "is_self")
	tbl.Append(fullRecord("a", nil))
	e.Extract(tbl)

	if !tbl.HasColumn("title_word_count") || !tbl.HasColumn("score_log") {
		t.Fatal("selected families must run")
	}
	if tbl.HasColumn("season") || tbl.HasColumn("author_activity") {
		t.Fatal("unselected families must not run")
	}

	if err := New(quietLog()).Select([]string{"nope"}); err == nil {
		t.Fatal("expected error for unknown family")
	}
}
