// Package progress folds per-asset load events into the single percentage the
// host page shows, ending with a one-shot readiness value.
package progress

import (
	"math"

	"go.uber.org/zap"

	"github.com/Faultbox/virtual-room/internal/assets"
	"github.com/Faultbox/virtual-room/internal/logger"
)

// Ready is reported once every tracked asset has completed. It sits outside
// 0..100 so the host can tell it apart from an ordinary percentage.
const Ready = 101

// Reporter receives aggregate progress.
type Reporter interface {
	Progress(percent int)
	Failure(err error)
}

type tracked struct {
	expected int64
	loaded   int64
	done     bool
	failed   bool
}

// Aggregator combines several asset streams. Not safe for concurrent use;
// feed it from the frame loop.
type Aggregator struct {
	reporter Reporter
	order    []string
	assets   map[string]*tracked

	last   int
	ready  bool
	failed bool
	log    *zap.Logger
}

// New creates an aggregator reporting to r.
func New(r Reporter) *Aggregator {
	return &Aggregator{
		reporter: r,
		assets:   make(map[string]*tracked),
		last:     -1,
		log:      logger.Named("progress"),
	}
}

// Track registers an asset. Expected may be 0 when only the stream knows the size.
func (a *Aggregator) Track(name string, expected int64) {
	if _, ok := a.assets[name]; ok {
		return
	}
	a.order = append(a.order, name)
	a.assets[name] = &tracked{expected: expected}
}

// Update applies one loader event.
func (a *Aggregator) Update(ev assets.Event) {
	if a.ready {
		return
	}
	t, ok := a.assets[ev.Asset]
	if !ok {
		a.Track(ev.Asset, ev.Total)
		t = a.assets[ev.Asset]
	}
	if t.done || t.failed {
		return
	}

	if ev.Err != nil {
		t.failed = true
		a.failed = true
		a.log.Warn("asset failed", zap.String("asset", ev.Asset), zap.Error(ev.Err))
		a.reporter.Failure(ev.Err)
		return
	}

	if t.expected <= 0 && ev.Total > 0 {
		t.expected = ev.Total
	}
	t.loaded = ev.BytesLoaded
	if ev.Done {
		t.done = true
		if t.expected <= 0 {
			t.expected = ev.BytesLoaded
		}
		t.loaded = t.expected
	}
	if t.expected > 0 && t.loaded > t.expected {
		t.loaded = t.expected
	}

	a.report(a.aggregate())

	if !a.failed && a.allDone() {
		a.ready = true
		a.log.Info("all assets ready", zap.Int("assets", len(a.order)))
		a.reporter.Progress(Ready)
	}
}

// Fail marks an asset failed outside the byte stream, for example when the
// downloaded bytes do not decode.
func (a *Aggregator) Fail(name string, err error) {
	a.Update(assets.Event{Asset: name, Err: err})
}

// Percent returns the last reported value, Ready after readiness, or 0.
func (a *Aggregator) Percent() int {
	if a.ready {
		return Ready
	}
	if a.last < 0 {
		return 0
	}
	return a.last
}

// Ready reports whether the sentinel has been emitted.
func (a *Aggregator) Ready() bool {
	return a.ready
}

// Failed reports whether any tracked asset failed.
func (a *Aggregator) Failed() bool {
	return a.failed
}

func (a *Aggregator) aggregate() int {
	var loaded, expected int64
	for _, name := range a.order {
		t := a.assets[name]
		loaded += t.loaded
		expected += t.expected
	}
	if expected <= 0 {
		return 0
	}
	p := int(math.Round(float64(loaded) / float64(expected) * 100))
	if p > 100 {
		p = 100
	}
	return p
}

// report emits p when it is higher than anything reported so far.
func (a *Aggregator) report(p int) {
	if p <= a.last {
		return
	}
	a.last = p
	a.reporter.Progress(p)
}

func (a *Aggregator) allDone() bool {
	for _, name := range a.order {
		if !a.assets[name].done {
			return false
		}
	}
	return len(a.order) > 0
}

// Funcs adapts plain functions to Reporter. Nil fields are skipped.
type Funcs struct {
	OnProgress func(percent int)
	OnFailure  func(err error)
}

// Progress calls OnProgress.
func (f Funcs) Progress(percent int) {
	if f.OnProgress != nil {
		f.OnProgress(percent)
	}
}

// Failure calls OnFailure.
func (f Funcs) Failure(err error) {
	if f.OnFailure != nil {
		f.OnFailure(err)
	}
}

// Fanout forwards to several reporters in order.
type Fanout []Reporter

// Progress forwards percent.
func (f Fanout) Progress(percent int) {
	for _, r := range f {
		r.Progress(percent)
	}
}

// Failure forwards err.
func (f Fanout) Failure(err error) {
	for _, r := range f {
		r.Failure(err)
	}
}
