// Package assets streams scene assets and reports byte progress.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/virtual-room/internal/logger"
)

// ErrLoadFailed matches every *LoadError.
var ErrLoadFailed = errors.New("asset load failed")

// LoadError is the terminal failure of one asset.
type LoadError struct {
	Asset string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %v", e.Asset, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrLoadFailed) true for every LoadError.
func (e *LoadError) Is(target error) bool {
	return target == ErrLoadFailed
}

// Asset identifies a streamed file.
type Asset struct {
	Name         string
	URL          string // Local path or http(s) URL
	ExpectedSize int64  // Bytes; may be an estimate. 0 uses the stream's size hint.
}

// Event is one progress report. The last event on a stream has Done or Err set.
type Event struct {
	Asset       string
	BytesLoaded int64
	Total       int64 // Expected size used for Percent
	Percent     int
	Done        bool
	Err         error
	Data        []byte // Set on the completion event
}

// Terminal reports whether no further events follow.
func (e Event) Terminal() bool {
	return e.Done || e.Err != nil
}

// Percent returns round(loaded/total*100) clamped to [0,100].
// An unknown total reports 0 until completion.
func Percent(loaded, total int64) int {
	if total <= 0 || loaded <= 0 {
		return 0
	}
	p := int(math.Round(float64(loaded) / float64(total) * 100))
	if p > 100 {
		return 100
	}
	return p
}

// Opener opens an asset byte stream and returns its size hint (-1 if unknown).
type Opener func(ctx context.Context, url string) (io.ReadCloser, int64, error)

// Loader streams assets on background goroutines.
type Loader struct {
	open      Opener
	cache     *Cache
	chunkSize int
	log       *zap.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithOpener replaces the default file/HTTP opener.
func WithOpener(o Opener) Option {
	return func(l *Loader) { l.open = o }
}

// WithChunkSize sets the read size, which bounds the progress granularity.
func WithChunkSize(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.chunkSize = n
		}
	}
}

// WithCache shares a cache between loaders.
func WithCache(c *Cache) Option {
	return func(l *Loader) { l.cache = c }
}

// NewLoader creates a loader with the default opener.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		cache:     NewCache(),
		chunkSize: 64 * 1024,
		log:       logger.Named("assets"),
	}
	l.open = l.openDefault
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Cache returns the loader's cache.
func (l *Loader) Cache() *Cache {
	return l.cache
}

// Load starts streaming a and returns its event channel. The channel is closed
// after the terminal event, or when ctx is cancelled.
func (l *Loader) Load(ctx context.Context, a Asset) <-chan Event {
	events := make(chan Event, 16)

	if data, ok := l.cache.Get(a.Name); ok {
		size := int64(len(data))
		events <- Event{Asset: a.Name, BytesLoaded: size, Total: size, Percent: 100, Done: true, Data: data}
		close(events)
		l.log.Debug("asset served from cache", zap.String("asset", a.Name))
		return events
	}

	go l.stream(ctx, a, events)
	return events
}

func (l *Loader) stream(ctx context.Context, a Asset, events chan<- Event) {
	defer close(events)

	send := func(ev Event) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}
	fail := func(err error) {
		l.log.Warn("asset load failed", zap.String("asset", a.Name), zap.Error(err))
		send(Event{Asset: a.Name, Err: &LoadError{Asset: a.Name, Err: err}})
	}

	rc, hint, err := l.open(ctx, a.URL)
	if err != nil {
		fail(err)
		return
	}
	defer rc.Close()

	total := a.ExpectedSize
	if total <= 0 {
		total = hint
	}
	l.log.Debug("streaming asset",
		zap.String("asset", a.Name),
		zap.String("url", a.URL),
		zap.Int64("expected", total),
		zap.Int64("hint", hint))

	var (
		buf    = make([]byte, l.chunkSize)
		data   []byte
		loaded int64
	)
	if hint > 0 {
		data = make([]byte, 0, hint)
	}

	for {
		n, rerr := rc.Read(buf)
		if n > 0 {
			data = append(data, buf[:n]...)
			loaded += int64(n)
			if !send(Event{Asset: a.Name, BytesLoaded: loaded, Total: total, Percent: Percent(loaded, total)}) {
				return
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			fail(rerr)
			return
		}
		if ctx.Err() != nil {
			return
		}
	}

	if hint > 0 && loaded != hint {
		fail(fmt.Errorf("short read: got %d of %d bytes", loaded, hint))
		return
	}

	l.cache.Set(a.Name, data)
	l.log.Info("asset loaded", zap.String("asset", a.Name), zap.Int64("bytes", loaded))
	send(Event{Asset: a.Name, BytesLoaded: loaded, Total: total, Percent: 100, Done: true, Data: data})
}

func (l *Loader) openDefault(ctx context.Context, url string) (io.ReadCloser, int64, error) {
	if isRemote(url) {
		return openHTTP(ctx, url)
	}
	return openFile(url)
}

func openFile(path string) (io.ReadCloser, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("stat: %w", err)
	}
	return f, info.Size(), nil
}

func openHTTP(ctx context.Context, url string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("building request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("requesting: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, 0, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp.Body, resp.ContentLength, nil
}

// Cache keeps completed asset bytes by name.
type Cache struct {
	data map[string][]byte
	mu   sync.RWMutex

	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

// ResolveURL joins a relative asset URL onto a base directory or URL prefix.
func ResolveURL(base, url string) string {
	if base == "" || isRemote(url) {
		return url
	}
	if isRemote(base) {
		return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(url, "/")
	}
	if filepath.IsAbs(url) {
		return url
	}
	return filepath.Join(base, url)
}

func isRemote(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}
