// Package google is the Google Maps JavaScript API backend.
package google

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/vbonduro/clawmap/internal/mapview"
)

const DefaultScriptURL = "https://maps.googleapis.com/maps/api/js"

// retryAfter bounds how long a failed probe is remembered.
const retryAfter = time.Minute

// Loader checks that the Maps loader script can be fetched with the configured
// key, waiting at most timeout. Results are shared by every provider built from
// the same Loader: success is remembered for good, failure for retryAfter.
type Loader struct {
	scriptURL string
	timeout   time.Duration
	http      *resty.Client
	now       func() time.Time

	mu       sync.Mutex
	ok       bool
	failedAt time.Time
	lastErr  error
}

func NewLoader(baseURL, apiKey string, timeout time.Duration) *Loader {
	if baseURL == "" {
		baseURL = DefaultScriptURL
	}
	q := url.Values{"key": {apiKey}, "loading": {"async"}}
	return &Loader{
		scriptURL: baseURL + "?" + q.Encode(),
		timeout:   timeout,
		http:      resty.New().SetHeader("User-Agent", "clawmap/1.0"),
		now:       time.Now,
	}
}

func (l *Loader) ScriptURL() string { return l.scriptURL }

// Check returns nil when the script is reachable, otherwise an error wrapping
// mapview.ErrUnavailable.
func (l *Loader) Check(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ok {
		return nil
	}
	if l.lastErr != nil && l.now().Sub(l.failedAt) < retryAfter {
		return l.lastErr
	}

	// The result is shared by every viewer, so one client going away must
	// not record a failure for all of them.
	if err := l.probe(context.WithoutCancel(ctx)); err != nil {
		l.lastErr = fmt.Errorf("%w: %v", mapview.ErrUnavailable, err)
		l.failedAt = l.now()
		return l.lastErr
	}
	l.ok = true
	l.lastErr = nil
	return nil
}

func (l *Loader) probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	resp, err := l.http.R().SetContext(ctx).Get(l.scriptURL)
	if err != nil {
		return fmt.Errorf("failed to load maps script: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("maps script returned status %d", resp.StatusCode())
	}
	return nil
}

type Provider struct {
	mapview.Layer
	loader *Loader
}

func New(loader *Loader) *Provider {
	return &Provider{loader: loader}
}

// Factory builds providers sharing one loader.
func Factory(loader *Loader) mapview.Factory {
	return func() mapview.Provider { return New(loader) }
}

func (p *Provider) Init(ctx context.Context) error {
	return p.loader.Check(ctx)
}

func (p *Provider) Config() mapview.WidgetConfig {
	return mapview.WidgetConfig{
		Provider:  "google",
		ScriptURL: p.loader.ScriptURL(),
		Center:    mapview.DefaultCenter,
		Zoom:      mapview.DefaultZoom,
	}
}
