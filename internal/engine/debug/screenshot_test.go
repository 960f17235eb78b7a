package debug

import (
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFlip(t *testing.T) {
	// Two rows: bottom red, top blue.
	pixels := []byte{
		255, 0, 0, 255, 255, 0, 0, 255,
		0, 0, 255, 255, 0, 0, 255, 255,
	}
	img, err := Flip(pixels, 2, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := img.RGBAAt(0, 0); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("top row should be blue, got %v", got)
	}
	if got := img.RGBAAt(1, 1); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("bottom row should be red, got %v", got)
	}
}

func TestFlipRejectsBadInput(t *testing.T) {
	tests := []struct {
		name          string
		pixels        []byte
		width, height int
	}{
		{"short buffer", make([]byte, 3), 1, 1},
		{"zero width", nil, 0, 4},
		{"negative height", nil, 4, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Flip(tt.pixels, tt.width, tt.height); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSaveWritesPNG(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	s := NewScreenshots(dir, "room")
	s.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	first, err := s.Save(make([]byte, 4*3*2), 3, 2)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	second, err := s.Save(make([]byte, 4*3*2), 3, 2)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if first == second {
		t.Errorf("captures in the same second should not collide: %s", first)
	}
	if !strings.HasPrefix(filepath.Base(first), "room_2024-05-01_12-00-00") {
		t.Errorf("unexpected name %s", first)
	}

	f, err := os.Open(first)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Width != 3 || cfg.Height != 2 {
		t.Errorf("expected 3x2, got %dx%d", cfg.Width, cfg.Height)
	}
}
