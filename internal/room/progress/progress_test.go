package progress

import (
	"errors"
	"testing"

	"github.com/Faultbox/virtual-room/internal/assets"
)

type recorder struct {
	values   []int
	failures []error
}

func (r *recorder) Progress(p int)    { r.values = append(r.values, p) }
func (r *recorder) Failure(err error) { r.failures = append(r.failures, err) }

func (r *recorder) count(v int) int {
	n := 0
	for _, x := range r.values {
		if x == v {
			n++
		}
	}
	return n
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSingleAssetExample(t *testing.T) {
	rec := &recorder{}
	agg := New(rec)
	agg.Track("room", 1000)

	for _, b := range []int64{250, 500, 1000} {
		agg.Update(assets.Event{Asset: "room", BytesLoaded: b, Total: 1000})
	}
	agg.Update(assets.Event{Asset: "room", BytesLoaded: 1000, Total: 1000, Done: true})

	want := []int{25, 50, 100, Ready}
	if !equalInts(rec.values, want) {
		t.Errorf("expected %v, got %v", want, rec.values)
	}
	if !agg.Ready() || agg.Percent() != Ready {
		t.Errorf("expected ready, got percent %d", agg.Percent())
	}
}

func TestSentinelOnceAcrossAssets(t *testing.T) {
	rec := &recorder{}
	agg := New(rec)
	agg.Track("room", 600)
	agg.Track("props", 400)

	agg.Update(assets.Event{Asset: "room", BytesLoaded: 300})
	agg.Update(assets.Event{Asset: "props", BytesLoaded: 400})
	agg.Update(assets.Event{Asset: "props", BytesLoaded: 400, Done: true})
	if agg.Ready() {
		t.Fatal("should not be ready with room still loading")
	}
	agg.Update(assets.Event{Asset: "room", BytesLoaded: 600, Done: true})

	// Late and repeated events after readiness
	agg.Update(assets.Event{Asset: "room", BytesLoaded: 600, Done: true})
	agg.Update(assets.Event{Asset: "props", BytesLoaded: 10})

	if rec.count(Ready) != 1 {
		t.Errorf("expected sentinel exactly once, got %v", rec.values)
	}
	if rec.values[len(rec.values)-1] != Ready {
		t.Errorf("sentinel should be last, got %v", rec.values)
	}
	if !equalInts(rec.values, []int{30, 70, 100, Ready}) {
		t.Errorf("unexpected sequence %v", rec.values)
	}
}

func TestMonotonicAndClamped(t *testing.T) {
	rec := &recorder{}
	agg := New(rec)
	agg.Track("room", 200) // estimate below the true size

	for _, b := range []int64{50, 50, 100, 150, 200, 300, 400} {
		agg.Update(assets.Event{Asset: "room", BytesLoaded: b})
	}

	prev := -1
	for _, v := range rec.values {
		if v < 0 || v > 100 {
			t.Errorf("value %d outside [0,100] before readiness", v)
		}
		if v <= prev {
			t.Errorf("value %d not increasing after %d", v, prev)
		}
		prev = v
	}
	if agg.Ready() {
		t.Error("should not be ready without a completion event")
	}
	if agg.Percent() != 100 {
		t.Errorf("expected clamped 100, got %d", agg.Percent())
	}
}

func TestUnknownSizeUsesStreamTotal(t *testing.T) {
	rec := &recorder{}
	agg := New(rec)
	agg.Track("room", 0)

	agg.Update(assets.Event{Asset: "room", BytesLoaded: 100, Total: 400})
	agg.Update(assets.Event{Asset: "room", BytesLoaded: 400, Total: 400, Done: true})

	if !equalInts(rec.values, []int{25, 100, Ready}) {
		t.Errorf("unexpected sequence %v", rec.values)
	}
}

func TestFailureSurfacedAndBlocksReadiness(t *testing.T) {
	rec := &recorder{}
	agg := New(rec)
	agg.Track("room", 100)
	agg.Track("props", 100)

	loadErr := &assets.LoadError{Asset: "props", Err: errors.New("decode error")}
	agg.Update(assets.Event{Asset: "room", BytesLoaded: 50})
	agg.Update(assets.Event{Asset: "props", Err: loadErr})
	agg.Update(assets.Event{Asset: "props", Err: loadErr})
	agg.Update(assets.Event{Asset: "room", BytesLoaded: 100, Done: true})

	if len(rec.failures) != 1 || !errors.Is(rec.failures[0], assets.ErrLoadFailed) {
		t.Errorf("expected one load failure, got %v", rec.failures)
	}
	if agg.Ready() || rec.count(Ready) != 0 {
		t.Error("readiness must not be reached after a failure")
	}
	if !agg.Failed() {
		t.Error("expected Failed to be true")
	}
	if agg.Percent() != 50 {
		t.Errorf("progress should stay where the failure left it, got %d", agg.Percent())
	}
}

func TestUntrackedAssetIsTracked(t *testing.T) {
	rec := &recorder{}
	agg := New(rec)
	agg.Update(assets.Event{Asset: "room", BytesLoaded: 10, Total: 10, Done: true})

	if !equalInts(rec.values, []int{100, Ready}) {
		t.Errorf("unexpected sequence %v", rec.values)
	}
}

func TestFanoutAndFuncs(t *testing.T) {
	var got int
	var gotErr error
	a, b := &recorder{}, &recorder{}
	f := Fanout{a, b, Funcs{OnProgress: func(p int) { got = p }, OnFailure: func(err error) { gotErr = err }}, Funcs{}}

	f.Progress(42)
	f.Failure(assets.ErrLoadFailed)

	if got != 42 || len(a.values) != 1 || len(b.values) != 1 {
		t.Errorf("progress not fanned out: %d %v %v", got, a.values, b.values)
	}
	if gotErr != assets.ErrLoadFailed || len(a.failures) != 1 {
		t.Errorf("failure not fanned out: %v %v", gotErr, a.failures)
	}
}

func TestFailAfterStreamCompleted(t *testing.T) {
	rec := &recorder{}
	agg := New(rec)
	agg.Track("room", 100)
	agg.Track("props", 100)

	agg.Update(assets.Event{Asset: "room", BytesLoaded: 100, Done: true})
	agg.Fail("props", &assets.LoadError{Asset: "props", Err: errors.New("bad glb")})
	agg.Update(assets.Event{Asset: "props", BytesLoaded: 100, Done: true})

	if len(rec.failures) != 1 {
		t.Errorf("expected one failure, got %v", rec.failures)
	}
	if agg.Ready() {
		t.Error("failed asset must block readiness")
	}
}
