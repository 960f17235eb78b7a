// Package config handles viewer configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds all viewer settings.
type Config struct {
	Window     WindowConfig     `yaml:"window"`
	Scene      SceneConfig      `yaml:"scene"`
	Doors      DoorConfig       `yaml:"doors"`
	Camera     CameraConfig     `yaml:"camera"`
	Viewport   ViewportConfig   `yaml:"viewport"`
	Zones      []ZoneConfig     `yaml:"zones"`
	Navigation NavigationConfig `yaml:"navigation"`
	Host       HostConfig       `yaml:"host"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title         string     `yaml:"title"`
	Width         int        `yaml:"width"`
	Height        int        `yaml:"height"`
	Fullscreen    bool       `yaml:"fullscreen"`
	VSync         bool       `yaml:"vsync"`
	Background    [3]float32 `yaml:"background"`     // RGB 0-1
	ScreenshotDir string     `yaml:"screenshot_dir"` // F12 captures land here
}

// AssetConfig describes one streamed asset.
type AssetConfig struct {
	Name         string `yaml:"name"`
	URL          string `yaml:"url"`           // Local path or http(s) URL
	ExpectedSize int64  `yaml:"expected_size"` // Bytes; 0 uses the stream's size hint
}

// SceneConfig holds asset and node settings.
type SceneConfig struct {
	BasePath  string        `yaml:"base_path"`
	Assets    []AssetConfig `yaml:"assets"`
	DoorNodes []string      `yaml:"door_nodes"` // Node names, one per door index
	FadeOut   time.Duration `yaml:"fade_out"`   // Delay between readiness and the room state
}

// DoorConfig holds door animation policy.
type DoorConfig struct {
	StepDeg       float64       `yaml:"step_deg"`
	TargetDeg     float64       `yaml:"target_deg"`
	Cooldown      time.Duration `yaml:"cooldown"`
	NavigateDelay time.Duration `yaml:"navigate_delay"`
}

// CameraConfig holds orbit and auto-rotation settings.
type CameraConfig struct {
	MinAzimuthDeg float64       `yaml:"min_azimuth_deg"`
	MaxAzimuthDeg float64       `yaml:"max_azimuth_deg"`
	PolarDeg      float64       `yaml:"polar_deg"`
	Distance      float32       `yaml:"distance"`
	Target        [3]float32    `yaml:"target"`
	Speed         float64       `yaml:"speed"` // Auto-rotate speed, radians per second
	InitialDelay  time.Duration `yaml:"initial_delay"`
	ResumeDelay   time.Duration `yaml:"resume_delay"`
}

// ViewportConfig holds field-of-view compensation constants.
type ViewportConfig struct {
	BaseFOV float64 `yaml:"base_fov"`
	MaxFOV  float64 `yaml:"max_fov"`
}

// ZoneConfig describes a click zone.
type ZoneConfig struct {
	Kind string     `yaml:"kind"` // "door" or "direct"
	Door int        `yaml:"door"` // Door index for door zones
	Min  [3]float32 `yaml:"min"`
	Max  [3]float32 `yaml:"max"`
}

// NavigationConfig holds navigation target settings.
type NavigationConfig struct {
	Query string `yaml:"query"` // URL query carrying url0..urlN targets
	Mode  string `yaml:"mode"`  // "host", "browser" or "log"
}

// HostConfig holds the host bridge settings.
type HostConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with the room's stock values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:         "Virtual Room",
			Width:         1280,
			Height:        720,
			VSync:         true,
			Background:    [3]float32{0.5, 0.25, 0.75}, // hsl(270, 50%, 50%)
			ScreenshotDir: "screenshots",
		},
		Scene: SceneConfig{
			BasePath: "assets",
			Assets: []AssetConfig{
				{Name: "room", URL: "room.glb", ExpectedSize: 12_000_000},
			},
			DoorNodes: []string{"door_0", "door_1"},
			FadeOut:   time.Second,
		},
		Doors: DoorConfig{
			StepDeg:       2.9,
			TargetDeg:     -120,
			Cooldown:      2 * time.Second,
			NavigateDelay: time.Second,
		},
		Camera: CameraConfig{
			MinAzimuthDeg: -120,
			MaxAzimuthDeg: 120,
			PolarDeg:      90,
			Distance:      5,
			Speed:         2 * 3.141592653589793 / 30, // OrbitControls autoRotateSpeed 2.0
			InitialDelay:  2 * time.Second,
			ResumeDelay:   3 * time.Second,
		},
		Viewport: ViewportConfig{
			BaseFOV: 40,
			MaxFOV:  90,
		},
		Zones: []ZoneConfig{
			{Kind: "door", Door: 0, Min: [3]float32{-1.6, -1, -4.7}, Max: [3]float32{-0.1, 1.2, -4.4}},
			{Kind: "door", Door: 1, Min: [3]float32{0.1, -1, -4.7}, Max: [3]float32{1.6, 1.2, -4.4}},
			{Kind: "direct", Min: [3]float32{-4.7, -0.5, -1}, Max: [3]float32{-4.4, 1, 1}},
			{Kind: "direct", Min: [3]float32{4.4, -0.5, -1}, Max: [3]float32{4.7, 1, 1}},
		},
		Navigation: NavigationConfig{
			Mode: "host",
		},
		Host: HostConfig{
			Enabled: true,
			Listen:  "127.0.0.1:8787",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks policy values that would break the controllers.
func (c *Config) Validate() error {
	var errs []error
	if c.Doors.StepDeg <= 0 {
		errs = append(errs, fmt.Errorf("doors.step_deg must be positive, got %v", c.Doors.StepDeg))
	}
	if c.Doors.TargetDeg >= 0 {
		errs = append(errs, fmt.Errorf("doors.target_deg must be negative, got %v", c.Doors.TargetDeg))
	}
	if c.Doors.Cooldown <= 0 {
		errs = append(errs, errors.New("doors.cooldown must be positive"))
	}
	if c.Camera.MinAzimuthDeg >= c.Camera.MaxAzimuthDeg {
		errs = append(errs, fmt.Errorf("camera azimuth bounds inverted: [%v, %v]",
			c.Camera.MinAzimuthDeg, c.Camera.MaxAzimuthDeg))
	}
	if c.Camera.Speed < 0 {
		errs = append(errs, errors.New("camera.speed must not be negative"))
	}
	if c.Viewport.BaseFOV <= 0 || c.Viewport.MaxFOV < c.Viewport.BaseFOV {
		errs = append(errs, fmt.Errorf("viewport fov invalid: base %v, max %v",
			c.Viewport.BaseFOV, c.Viewport.MaxFOV))
	}
	if len(c.Scene.Assets) == 0 {
		errs = append(errs, errors.New("scene.assets must list at least one asset"))
	}
	for i, z := range c.Zones {
		switch z.Kind {
		case "direct":
		case "door":
			if z.Door < 0 || z.Door >= len(c.Scene.DoorNodes) {
				errs = append(errs, fmt.Errorf("zones[%d]: door index %d out of range", i, z.Door))
			}
		default:
			errs = append(errs, fmt.Errorf("zones[%d]: unknown kind %q", i, z.Kind))
		}
	}
	switch c.Navigation.Mode {
	case "host", "browser", "log":
	default:
		errs = append(errs, fmt.Errorf("navigation.mode: unknown mode %q", c.Navigation.Mode))
	}
	return errors.Join(errs...)
}
