package states

import (
	"context"
	"fmt"
	"time"

	"github.com/qmuntal/gltf"
	"go.uber.org/zap"

	"github.com/Faultbox/virtual-room/internal/assets"
	"github.com/Faultbox/virtual-room/internal/engine/scene"
	"github.com/Faultbox/virtual-room/internal/engine/timer"
	"github.com/Faultbox/virtual-room/internal/logger"
	"github.com/Faultbox/virtual-room/internal/room/progress"
)

// LoadingStateConfig contains configuration for the loading state.
type LoadingStateConfig struct {
	Assets  []assets.Asset
	FadeOut time.Duration // Pause between readiness and the next state

	// Reporter receives aggregate progress, typically the host bridge. May be nil.
	Reporter progress.Reporter

	// Next builds the state that follows a successful load. Documents are
	// keyed by asset name.
	Next func(docs map[string]*gltf.Document) State
}

// LoadingState streams the room's assets and reports progress.
type LoadingState struct {
	config  LoadingStateConfig
	loader  *assets.Loader
	manager *Manager

	agg     *progress.Aggregator
	sched   *timer.Scheduler
	cancel  context.CancelFunc
	streams map[string]<-chan assets.Event
	docs    map[string]*gltf.Document

	// Loading progress
	StatusMsg  string
	ErrorMsg   string
	Progress   float32 // 0.0 to 1.0
	IsComplete bool

	fade *timer.Handle
}

// NewLoadingState creates a new loading state.
func NewLoadingState(cfg LoadingStateConfig, loader *assets.Loader, manager *Manager) *LoadingState {
	return &LoadingState{
		config:    cfg,
		loader:    loader,
		manager:   manager,
		StatusMsg: "Loading room...",
	}
}

// Enter starts every asset stream.
func (s *LoadingState) Enter() error {
	s.ErrorMsg = ""
	s.Progress = 0
	s.IsComplete = false
	s.sched = timer.NewScheduler()
	s.docs = make(map[string]*gltf.Document)
	s.streams = make(map[string]<-chan assets.Event, len(s.config.Assets))

	reporters := progress.Fanout{progress.Funcs{OnProgress: s.onProgress, OnFailure: s.onFailure}}
	if s.config.Reporter != nil {
		reporters = append(reporters, s.config.Reporter)
	}
	s.agg = progress.New(reporters)

	logger.Info("entering LoadingState", zap.Int("assets", len(s.config.Assets)))

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	for _, a := range s.config.Assets {
		s.agg.Track(a.Name, a.ExpectedSize)
	}
	for _, a := range s.config.Assets {
		s.streams[a.Name] = s.loader.Load(ctx, a)
	}
	return nil
}

// Exit cancels outstanding loads and the fade timer.
func (s *LoadingState) Exit() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.sched != nil {
		s.sched.Stop()
	}
	return nil
}

// Update drains whatever the streams delivered since the last frame.
func (s *LoadingState) Update(dt float64) error {
	for name, ch := range s.streams {
		s.drain(name, ch)
	}
	s.sched.Advance(time.Duration(dt * float64(time.Second)))
	return nil
}

func (s *LoadingState) drain(name string, ch <-chan assets.Event) {
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				delete(s.streams, name)
				return
			}
			s.handle(ev)
		default:
			return
		}
	}
}

func (s *LoadingState) handle(ev assets.Event) {
	if !ev.Done || ev.Err != nil {
		s.agg.Update(ev)
		return
	}

	// Decode before reporting completion so a bad file never counts as loaded.
	doc, err := scene.Decode(ev.Data)
	if err != nil {
		s.agg.Fail(ev.Asset, &assets.LoadError{Asset: ev.Asset, Err: err})
		return
	}
	s.docs[ev.Asset] = doc
	s.agg.Update(ev)
}

func (s *LoadingState) onProgress(p int) {
	if p == progress.Ready {
		s.Progress = 1
		s.IsComplete = true
		s.StatusMsg = "Entering room..."
		hits, misses := s.loader.Cache().Stats()
		logger.Info("room assets ready",
			zap.Duration("fadeOut", s.config.FadeOut),
			zap.Int("cacheHits", hits),
			zap.Int("cacheMisses", misses),
		)
		s.fade = s.sched.After(s.config.FadeOut, s.transition)
		return
	}
	s.Progress = float32(p) / 100
	s.StatusMsg = fmt.Sprintf("Loading room... %d%%", p)
}

func (s *LoadingState) onFailure(err error) {
	s.ErrorMsg = err.Error()
	s.StatusMsg = "Failed to load room"
	logger.Error("asset load failed", zap.Error(err))
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *LoadingState) transition() {
	if s.config.Next == nil {
		return
	}
	s.manager.Change(s.config.Next(s.docs))
}

// Fade returns the loading overlay opacity, from 1 down to 0 over the fade-out.
func (s *LoadingState) Fade() float32 {
	if !s.IsComplete {
		return 1
	}
	if !s.fade.Active() || s.config.FadeOut <= 0 {
		return 0
	}
	return float32(s.fade.Remaining()) / float32(s.config.FadeOut)
}

// Percent returns the aggregate progress, progress.Ready once complete.
func (s *LoadingState) Percent() int {
	if s.agg == nil {
		return 0
	}
	return s.agg.Percent()
}

// Render is called every frame to draw the state.
func (s *LoadingState) Render() error {
	// Drawing is done by the renderer from Progress and Fade
	return nil
}

// HandleInput processes input events.
func (s *LoadingState) HandleInput(event interface{}) error {
	return nil
}
