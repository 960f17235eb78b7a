// Package navigation resolves zone targets and carries navigation intents to the host.
package navigation

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/virtual-room/internal/logger"
)

// ErrMissingTarget is returned when a zone has no resolvable URL.
var ErrMissingTarget = errors.New("navigation target missing")

// Target is a URL bound to a zone index. OK is false when the host supplied none.
type Target struct {
	URL string
	OK  bool
}

// None is the absent target.
var None = Target{}

// To returns a present target.
func To(u string) Target {
	return Target{URL: u, OK: u != ""}
}

// Navigator replaces the top-level browsing context's location.
type Navigator interface {
	Navigate(url string) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(url string) error

// Navigate calls f(url).
func (f NavigatorFunc) Navigate(url string) error {
	return f(url)
}

// ParamName returns the query key holding the target for a zone index.
func ParamName(index int) string {
	return fmt.Sprintf("url%d", index)
}

// Resolve reads count targets from a query string such as "?url0=...&url2=...".
// Indices without a value resolve to None.
func Resolve(query string, count int) ([]Target, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(query, "?"))
	if err != nil {
		return nil, fmt.Errorf("parsing target query: %w", err)
	}

	targets := make([]Target, count)
	for i := range targets {
		targets[i] = To(strings.TrimSpace(values.Get(ParamName(i))))
	}
	return targets, nil
}

// LogNavigator only records intents. Used when no host is attached.
type LogNavigator struct {
	log *zap.Logger
}

// NewLogNavigator creates a navigator that writes intents to the log.
func NewLogNavigator() *LogNavigator {
	return &LogNavigator{log: logger.Named("navigation")}
}

// Navigate logs the intent.
func (n *LogNavigator) Navigate(u string) error {
	n.log.Info("navigate", zap.String("url", u))
	return nil
}

// Multi fans an intent out to several navigators and joins their errors.
type Multi []Navigator

// Navigate calls every navigator in order.
func (m Multi) Navigate(u string) error {
	var errs []error
	for _, n := range m {
		if err := n.Navigate(u); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
