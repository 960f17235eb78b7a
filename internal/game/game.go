// Package game implements the viewer's main loop and wires the room to its
// window, renderer and host bridge.
package game

import (
	"context"
	"fmt"
	"time"

	"github.com/qmuntal/gltf"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/virtual-room/internal/assets"
	"github.com/Faultbox/virtual-room/internal/config"
	"github.com/Faultbox/virtual-room/internal/engine/debug"
	"github.com/Faultbox/virtual-room/internal/engine/input"
	"github.com/Faultbox/virtual-room/internal/engine/renderer"
	"github.com/Faultbox/virtual-room/internal/engine/scene"
	"github.com/Faultbox/virtual-room/internal/engine/window"
	"github.com/Faultbox/virtual-room/internal/game/states"
	"github.com/Faultbox/virtual-room/internal/hostlink"
	"github.com/Faultbox/virtual-room/internal/logger"
	"github.com/Faultbox/virtual-room/internal/navigation"
	"github.com/Faultbox/virtual-room/internal/room"
	"github.com/Faultbox/virtual-room/internal/room/progress"
)

// maxFrameDelta caps dt after stalls such as a window drag.
const maxFrameDelta = 250 * time.Millisecond

// Game is the main viewer instance.
type Game struct {
	config   *config.Config
	running  bool
	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	states   *states.Manager
	hub      *hostlink.Hub
	loader   *assets.Loader
	shots    *debug.Screenshots

	width, height int // Window size in screen coordinates
	failureShown  bool
	capture       bool // Save the next rendered frame
}

// New creates a new viewer instance.
func New(cfg *config.Config) (*Game, error) {
	logger.Info("initializing viewer",
		zap.String("title", cfg.Window.Title),
		zap.Int("width", cfg.Window.Width),
		zap.Int("height", cfg.Window.Height),
	)

	g := &Game{
		config: cfg,
		states: states.NewManager(),
		loader: assets.NewLoader(),
		shots:  debug.NewScreenshots(cfg.Window.ScreenshotDir, "room"),
	}

	// Create window (this also creates OpenGL context)
	var err error
	g.window, err = window.New(window.Config{
		Title:      cfg.Window.Title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	g.width, g.height = g.window.GetSize()

	// Create renderer (AFTER window, since OpenGL context must exist)
	dw, dh := g.window.DrawableSize()
	g.renderer, err = renderer.New(renderer.Config{
		Width:      dw,
		Height:     dh,
		Background: cfg.Window.Background,
	})
	if err != nil {
		g.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	g.input = input.New()

	if cfg.Host.Enabled {
		g.hub = hostlink.NewHub()
		if err := g.hub.Start(cfg.Host.Listen); err != nil {
			g.Close()
			return nil, fmt.Errorf("failed to start host bridge: %w", err)
		}
	}

	opts, err := g.roomOptions()
	if err != nil {
		g.Close()
		return nil, err
	}

	g.states.Change(states.NewLoadingState(states.LoadingStateConfig{
		Assets:   g.assetList(),
		FadeOut:  cfg.Scene.FadeOut,
		Reporter: g.reporter(),
		Next: func(docs map[string]*gltf.Document) states.State {
			return states.NewRoomState(room.New(opts), scene.New(docs[cfg.Scene.Assets[0].Name]), g.width, g.height)
		},
	}, g.loader, g.states))

	logger.Info("viewer initialized successfully")
	return g, nil
}

func (g *Game) assetList() []assets.Asset {
	list := make([]assets.Asset, 0, len(g.config.Scene.Assets))
	for _, a := range g.config.Scene.Assets {
		list = append(list, assets.Asset{
			Name:         a.Name,
			URL:          assets.ResolveURL(g.config.Scene.BasePath, a.URL),
			ExpectedSize: a.ExpectedSize,
		})
	}
	return list
}

func (g *Game) roomOptions() (room.Options, error) {
	opts, err := room.OptionsFromConfig(g.config)
	if err != nil {
		return room.Options{}, err
	}

	targets, err := navigation.Resolve(g.config.Navigation.Query, len(opts.Zones))
	if err != nil {
		return room.Options{}, err
	}
	for i, t := range targets {
		if !t.OK {
			logger.Debug("zone has no navigation target", zap.Int("zone", i), zap.String("param", navigation.ParamName(i)))
		}
	}
	opts.Targets = targets
	opts.Navigator = g.navigator()
	return opts, nil
}

// navigator picks where navigation intents go.
func (g *Game) navigator() navigation.Navigator {
	switch g.config.Navigation.Mode {
	case "host":
		if g.hub != nil {
			return navigation.Multi{g.hub, navigation.NewLogNavigator()}
		}
		logger.Warn("navigation mode is host but the host bridge is disabled, logging intents instead")
	case "browser":
		return navigation.NavigatorFunc(window.OpenURL)
	}
	return navigation.NewLogNavigator()
}

func (g *Game) reporter() progress.Reporter {
	if g.hub == nil {
		return nil
	}
	return g.hub
}

// Run starts the main loop.
func (g *Game) Run() error {
	g.running = true

	// Timing
	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	logger.Info("starting main loop")

	for g.running {
		now := time.Now()
		dt := now.Sub(lastTime)
		lastTime = now
		if dt > maxFrameDelta {
			dt = maxFrameDelta
		}

		// 1. Process input
		if g.input.Update() {
			g.running = false
			break
		}
		for _, event := range g.input.Events() {
			if err := g.handleEvent(event); err != nil {
				return fmt.Errorf("input error: %w", err)
			}
		}

		// 2. Update state
		if err := g.states.Update(dt.Seconds()); err != nil {
			return fmt.Errorf("update error: %w", err)
		}

		// 3. Render
		if err := g.render(); err != nil {
			return fmt.Errorf("render error: %w", err)
		}

		// 4. Present (swap buffers)
		g.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			logger.Debug("fps", zap.Int("count", frameCount), zap.Duration("dt", dt))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

func (g *Game) handleEvent(event input.Event) error {
	switch event.Type {
	case input.EventWindowResize:
		g.width, g.height = event.Width, event.Height
		g.renderer.Resize(g.window.DrawableSize())
		return g.states.HandleInput(states.ResizeEvent{Width: event.Width, Height: event.Height})
	case input.EventKeyDown:
		switch event.Key {
		case sdl.SCANCODE_ESCAPE:
			g.running = false
		case sdl.SCANCODE_F12:
			g.capture = true
		}
	case input.EventMouseMove:
		return g.states.HandleInput(states.PointerEvent{Kind: states.PointerMove, X: event.MouseX, Y: event.MouseY})
	case input.EventMouseDown:
		if event.Button == sdl.BUTTON_LEFT {
			return g.states.HandleInput(states.PointerEvent{Kind: states.PointerDown, X: event.MouseX, Y: event.MouseY})
		}
	case input.EventMouseUp:
		if event.Button == sdl.BUTTON_LEFT {
			return g.states.HandleInput(states.PointerEvent{Kind: states.PointerUp, X: event.MouseX, Y: event.MouseY})
		}
	case input.EventMouseLeave:
		return g.states.HandleInput(states.PointerEvent{Kind: states.PointerLeave})
	}
	return nil
}

// render draws the current frame.
func (g *Game) render() error {
	g.renderer.Begin()

	switch s := g.states.Current().(type) {
	case *states.LoadingState:
		if s.ErrorMsg != "" && !g.failureShown {
			g.failureShown = true
			g.window.SetTitle(fmt.Sprintf("%s - %s", g.config.Window.Title, s.StatusMsg))
		}
		g.renderer.DrawLoading(s.Progress, s.Fade())
	case *states.RoomState:
		r := s.Room()
		g.renderer.DrawZones(r.Camera.ViewProj(), r.Zones().Zones())
	}

	if err := g.states.Render(); err != nil {
		return err
	}

	if g.capture {
		g.capture = false
		g.saveScreenshot()
	}

	g.renderer.End()
	return nil
}

func (g *Game) saveScreenshot() {
	pixels, w, h := g.renderer.ReadPixels()
	path, err := g.shots.Save(pixels, w, h)
	if err != nil {
		logger.Warn("screenshot failed", zap.Error(err))
		return
	}
	logger.Info("screenshot saved", zap.String("path", path))
}

// Close cleans up viewer resources.
func (g *Game) Close() {
	logger.Info("closing viewer")

	if err := g.states.Shutdown(); err != nil {
		logger.Warn("state shutdown failed", zap.Error(err))
	}
	if g.hub != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := g.hub.Close(ctx); err != nil {
			logger.Warn("host bridge shutdown failed", zap.Error(err))
		}
		cancel()
	}
	if g.renderer != nil {
		g.renderer.Close()
	}
	if g.window != nil {
		g.window.Close()
	}
}
