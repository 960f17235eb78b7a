// Package debug provides developer capture utilities for the viewer.
package debug

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"
)

// Screenshots writes framebuffer captures as PNG files.
type Screenshots struct {
	dir    string
	prefix string
	now    func() time.Time
	seq    int
}

// NewScreenshots creates a capture writer. An empty dir writes to the working directory.
func NewScreenshots(dir, prefix string) *Screenshots {
	return &Screenshots{dir: dir, prefix: prefix, now: time.Now}
}

// Save writes bottom-up RGBA pixels, as returned by glReadPixels, to a new
// PNG and returns its path.
func (s *Screenshots) Save(pixels []byte, width, height int) (string, error) {
	img, err := Flip(pixels, width, height)
	if err != nil {
		return "", err
	}

	if s.dir != "" {
		if err := os.MkdirAll(s.dir, 0755); err != nil {
			return "", fmt.Errorf("creating screenshot dir: %w", err)
		}
	}

	name := s.Filename()
	file, err := os.Create(name)
	if err != nil {
		return "", fmt.Errorf("creating screenshot: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return "", fmt.Errorf("encoding screenshot: %w", err)
	}
	return name, nil
}

// Filename returns the path for the next capture. Captures in the same second
// get an increasing suffix.
func (s *Screenshots) Filename() string {
	s.seq++
	name := fmt.Sprintf("%s_%s_%03d.png", s.prefix, s.now().Format("2006-01-02_15-04-05"), s.seq)
	if s.dir != "" {
		name = filepath.Join(s.dir, name)
	}
	return name
}

// Flip converts bottom-up RGBA rows into a top-down image.
func Flip(pixels []byte, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid capture size %dx%d", width, height)
	}
	if len(pixels) != width*height*4 {
		return nil, fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	row := width * 4
	for y := 0; y < height; y++ {
		src := (height - 1 - y) * row
		copy(img.Pix[y*img.Stride:y*img.Stride+row], pixels[src:src+row])
	}
	return img, nil
}
