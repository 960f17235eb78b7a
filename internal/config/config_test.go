package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Doors.StepDeg != 2.9 {
		t.Errorf("expected door step 2.9, got %v", cfg.Doors.StepDeg)
	}
	if cfg.Doors.TargetDeg != -120 {
		t.Errorf("expected door target -120, got %v", cfg.Doors.TargetDeg)
	}
	if cfg.Doors.Cooldown != 2*time.Second {
		t.Errorf("expected cooldown 2s, got %v", cfg.Doors.Cooldown)
	}
	if cfg.Doors.NavigateDelay != time.Second {
		t.Errorf("expected navigate delay 1s, got %v", cfg.Doors.NavigateDelay)
	}

	if cfg.Camera.MinAzimuthDeg != -120 || cfg.Camera.MaxAzimuthDeg != 120 {
		t.Errorf("expected azimuth bounds [-120, 120], got [%v, %v]", cfg.Camera.MinAzimuthDeg, cfg.Camera.MaxAzimuthDeg)
	}
	if cfg.Camera.InitialDelay != 2*time.Second {
		t.Errorf("expected initial delay 2s, got %v", cfg.Camera.InitialDelay)
	}
	if cfg.Camera.ResumeDelay != 3*time.Second {
		t.Errorf("expected resume delay 3s, got %v", cfg.Camera.ResumeDelay)
	}

	if cfg.Viewport.BaseFOV != 40 || cfg.Viewport.MaxFOV != 90 {
		t.Errorf("expected fov 40/90, got %v/%v", cfg.Viewport.BaseFOV, cfg.Viewport.MaxFOV)
	}

	if len(cfg.Scene.DoorNodes) != 2 {
		t.Errorf("expected 2 door nodes, got %d", len(cfg.Scene.DoorNodes))
	}
	if len(cfg.Zones) != 4 {
		t.Errorf("expected 4 zones, got %d", len(cfg.Zones))
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "room.yaml")

	yamlContent := `
window:
  width: 1920
  height: 1080
  fullscreen: true

scene:
  base_path: "https://cdn.example.com/room"
  assets:
    - name: room
      url: room.glb
      expected_size: 1000
    - name: props
      url: props.glb

doors:
  step_deg: 3.5
  cooldown: 1500ms

camera:
  resume_delay: 5s

navigation:
  query: "url0=https://a.example&url1=https://b.example"
  mode: log

logging:
  level: "debug"
  log_file: "room.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Window.Width != 1920 || cfg.Window.Height != 1080 {
		t.Errorf("expected 1920x1080, got %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if !cfg.Window.Fullscreen {
		t.Error("expected fullscreen to be true")
	}
	if len(cfg.Scene.Assets) != 2 {
		t.Fatalf("expected 2 assets, got %d", len(cfg.Scene.Assets))
	}
	if cfg.Scene.Assets[0].ExpectedSize != 1000 {
		t.Errorf("expected size 1000, got %d", cfg.Scene.Assets[0].ExpectedSize)
	}
	if cfg.Doors.StepDeg != 3.5 {
		t.Errorf("expected step 3.5, got %v", cfg.Doors.StepDeg)
	}
	if cfg.Doors.Cooldown != 1500*time.Millisecond {
		t.Errorf("expected cooldown 1.5s, got %v", cfg.Doors.Cooldown)
	}
	// Untouched fields keep defaults
	if cfg.Doors.TargetDeg != -120 {
		t.Errorf("expected default target -120, got %v", cfg.Doors.TargetDeg)
	}
	if cfg.Camera.ResumeDelay != 5*time.Second {
		t.Errorf("expected resume delay 5s, got %v", cfg.Camera.ResumeDelay)
	}
	if cfg.Navigation.Mode != "log" {
		t.Errorf("expected mode log, got %s", cfg.Navigation.Mode)
	}
	if cfg.Logging.LogFile != "room.log" {
		t.Errorf("expected log file 'room.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")

	invalidYAML := `
window:
  width: not a number
  invalid syntax here
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if err := loadFromFile(Default(), configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if err := loadFromFile(Default(), "/nonexistent/path/room.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "zero step", mutate: func(c *Config) { c.Doors.StepDeg = 0 }, wantErr: "step_deg"},
		{name: "positive target", mutate: func(c *Config) { c.Doors.TargetDeg = 90 }, wantErr: "target_deg"},
		{name: "inverted bounds", mutate: func(c *Config) { c.Camera.MinAzimuthDeg = 130 }, wantErr: "inverted"},
		{name: "max fov below base", mutate: func(c *Config) { c.Viewport.MaxFOV = 30 }, wantErr: "fov"},
		{name: "no assets", mutate: func(c *Config) { c.Scene.Assets = nil }, wantErr: "assets"},
		{name: "door out of range", mutate: func(c *Config) { c.Zones[0].Door = 7 }, wantErr: "out of range"},
		{name: "unknown zone kind", mutate: func(c *Config) { c.Zones[2].Kind = "window" }, wantErr: "unknown kind"},
		{name: "unknown mode", mutate: func(c *Config) { c.Navigation.Mode = "teleport" }, wantErr: "navigation.mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	os.Chdir(tmpDir)

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile(filepath.Join(tmpDir, "room.yaml"), []byte("window:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find room.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "query flag",
			setup: func() { *flagQuery = "url0=https://example.com" },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Navigation.Query != "url0=https://example.com" {
					t.Errorf("unexpected query %q", cfg.Navigation.Query)
				}
			},
			teardown: func() { *flagQuery = "" },
		},
		{
			name:  "no-host flag",
			setup: func() { *flagNoHost = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Host.Enabled {
					t.Error("expected host bridge disabled")
				}
			},
			teardown: func() { *flagNoHost = false },
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 2560
				*flagHeight = 1440
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Window.Width != 2560 || cfg.Window.Height != 1440 {
					t.Errorf("expected 2560x1440, got %dx%d", cfg.Window.Width, cfg.Window.Height)
				}
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "room.yaml")

	yamlContent := `
window:
  width: 1600
  height: 900
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Window.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Window.Width)
	}
	if cfg.Window.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Window.Height)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "room.yaml")

	cfg := Default()
	cfg.Navigation.Query = "url2=https://panel.example"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload: %v", err)
	}
	if loaded.Navigation.Query != cfg.Navigation.Query {
		t.Errorf("expected query %q, got %q", cfg.Navigation.Query, loaded.Navigation.Query)
	}
	if loaded.Doors.Cooldown != cfg.Doors.Cooldown {
		t.Errorf("expected cooldown %v, got %v", cfg.Doors.Cooldown, loaded.Doors.Cooldown)
	}
}
