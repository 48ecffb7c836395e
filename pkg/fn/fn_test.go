package fn

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"
)

// --- Result ---

func TestOkAndErr(t *testing.T) {
	r := Ok(42)
	if !r.IsOk() || r.IsErr() {
		t.Fatal("Ok should be ok")
	}
	v, err := r.Unwrap()
	if v != 42 || err != nil {
		t.Fatal("wrong unwrap")
	}

	e := Err[int](errors.New("fail"))
	if e.IsOk() || !e.IsErr() {
		t.Fatal("Err should be err")
	}
}

func TestErrf(t *testing.T) {
	r := Errf[string]("code %d", 404)
	_, err := r.Unwrap()
	if err == nil || err.Error() != "code 404" {
		t.Fatal("Errf wrong message")
	}
}

func TestUnwrapOr(t *testing.T) {
	if Ok(1).UnwrapOr(9) != 1 {
		t.Fatal("should return value")
	}
	if Err[int](errors.New("x")).UnwrapOr(9) != 9 {
		t.Fatal("should return fallback")
	}
}

func TestFromPair(t *testing.T) {
	if FromPair(5, nil).IsErr() {
		t.Fatal("nil error should be Ok")
	}
	if FromPair(0, errors.New("x")).IsOk() {
		t.Fatal("error should be Err")
	}
}

// --- Stage composition ---

func TestThen(t *testing.T) {
	double := MapStage(func(n int) int { return n * 2 })
	str := MapStage(strconv.Itoa)

	r := Then(double, str)(context.Background(), 21)
	v, err := r.Unwrap()
	if err != nil || v != "42" {
		t.Fatalf("expected 42, got %q err %v", v, err)
	}
}

func TestThenShortCircuits(t *testing.T) {
	fail := func(_ context.Context, _ int) Result[int] { return Errf[int]("boom") }
	called := false
	second := TapStage(func(_ context.Context, _ int) { called = true })

	r := Then(Stage[int, int](fail), second)(context.Background(), 1)
	if r.IsOk() {
		t.Fatal("expected error to propagate")
	}
	if called {
		t.Fatal("second stage should not run after failure")
	}
}

func TestPipeline(t *testing.T) {
	inc := MapStage(func(n int) int { return n + 1 })
	r := Pipeline(inc, inc, inc)(context.Background(), 0)
	if v, _ := r.Unwrap(); v != 3 {
		t.Fatalf("expected 3, got %d", v)
	}
}

// --- Retry ---

func TestRetrySucceedsAfterFailures(t *testing.T) {
	attempts := 0
	r := Retry(context.Background(), RetryOpts{MaxAttempts: 3, InitialWait: time.Millisecond}, func(_ context.Context) Result[string] {
		attempts++
		if attempts < 3 {
			return Errf[string]("transient")
		}
		return Ok("done")
	})
	if v, err := r.Unwrap(); err != nil || v != "done" {
		t.Fatalf("expected success, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryExhausts(t *testing.T) {
	r := Retry(context.Background(), RetryOpts{MaxAttempts: 2, InitialWait: time.Millisecond}, func(_ context.Context) Result[int] {
		return Errf[int]("always fails")
	})
	if r.IsOk() {
		t.Fatal("expected failure after exhausting attempts")
	}
}

func TestRetryStopsOnPermanent(t *testing.T) {
	attempts := 0
	r := Retry(context.Background(), RetryOpts{MaxAttempts: 5, InitialWait: time.Millisecond}, func(_ context.Context) Result[int] {
		attempts++
		return Err[int](Permanent(errors.New("not found")))
	})
	if r.IsOk() {
		t.Fatal("expected failure")
	}
	if attempts != 1 {
		t.Fatalf("permanent error must not be retried, got %d attempts", attempts)
	}
	_, err := r.Unwrap()
	var pe *PermanentError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PermanentError in chain, got %v", err)
	}
}

func TestRetryRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := Retry(ctx, RetryOpts{MaxAttempts: 5, InitialWait: time.Second}, func(_ context.Context) Result[int] {
		return Errf[int]("fail")
	})
	_, err := r.Unwrap()
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// --- Slice helpers ---

func TestMapFilter(t *testing.T) {
	doubled := Map([]int{1, 2, 3}, func(n int) int { return n * 2 })
	if len(doubled) != 3 || doubled[2] != 6 {
		t.Fatalf("Map wrong: %v", doubled)
	}
	evens := Filter([]int{1, 2, 3, 4}, func(n int) bool { return n%2 == 0 })
	if len(evens) != 2 {
		t.Fatalf("Filter wrong: %v", evens)
	}
}

func TestGroupBy(t *testing.T) {
	groups := GroupBy([]string{"apple", "avocado", "banana"}, func(s string) byte { return s[0] })
	if len(groups['a']) != 2 || len(groups['b']) != 1 {
		t.Fatalf("GroupBy wrong: %v", groups)
	}
}

func TestReduce(t *testing.T) {
	sum := Reduce([]int{1, 2, 3, 4}, 0, func(acc, n int) int { return acc + n })
	if sum != 10 {
		t.Fatalf("expected 10, got %d", sum)
	}
}
