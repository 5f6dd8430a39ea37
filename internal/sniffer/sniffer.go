package sniffer

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"streamscout/internal/logging"
	"streamscout/internal/metrics"
	"streamscout/internal/services"
)

// Default policy values.
const (
	DefaultNavigationTimeout = 20 * time.Second
	DefaultPollAttempts      = 4
	DefaultPollInterval      = time.Second
	DefaultManifestSuffix    = ".m3u8"
)

// DefaultBlockedTypes lists the resource types aborted during a sniff.
var DefaultBlockedTypes = []string{"Image", "Stylesheet", "Font"}

// Options is the sniff policy. Zero values take the defaults above.
type Options struct {
	NavigationTimeout time.Duration
	PollAttempts      int
	PollInterval      time.Duration
	ManifestSuffix    string
	BlockedTypes      []string

	// After returns a channel that fires once d has elapsed. Defaults to time.After.
	After func(d time.Duration) <-chan time.Time
}

func (o Options) withDefaults() Options {
	if o.NavigationTimeout <= 0 {
		o.NavigationTimeout = DefaultNavigationTimeout
	}
	if o.PollAttempts <= 0 {
		o.PollAttempts = DefaultPollAttempts
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.ManifestSuffix == "" {
		o.ManifestSuffix = DefaultManifestSuffix
	}
	if o.BlockedTypes == nil {
		o.BlockedTypes = slices.Clone(DefaultBlockedTypes)
	}
	if o.After == nil {
		o.After = time.After
	}
	return o
}

// Sniffer discovers manifest URLs by watching the network traffic of an embed page.
type Sniffer struct {
	browser Browser
	opts    Options
	logger  *slog.Logger
	metrics *metrics.Recorder
}

// New constructs a Sniffer. logger and rec may be nil.
func New(browser Browser, opts Options, logger *slog.Logger, rec *metrics.Recorder) *Sniffer {
	return &Sniffer{
		browser: browser,
		opts:    opts.withDefaults(),
		logger:  logging.NewComponentLogger(logger, "sniffer"),
		metrics: rec,
	}
}

// Sniff opens a fresh session, navigates to embedURL and returns the first
// request URL ending in the manifest suffix. found is false when nothing was
// observed within the navigation timeout plus the polling window.
//
// Navigation failures are logged and treated as "not yet detected". The only
// error returned is a failure to open or instrument the session.
func (s *Sniffer) Sniff(ctx context.Context, embedURL string) (manifestURL string, found bool, err error) {
	logger := logging.WithContext(ctx, s.logger).With(logging.String("embed_url", embedURL))
	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		s.metrics.ObserveSniff(elapsed)
		logger.Debug("sniff finished",
			logging.Bool("found", found),
			logging.Duration("elapsed", elapsed),
		)
	}()

	session, err := s.browser.NewSession(ctx)
	if err != nil {
		return "", false, services.Wrap(services.ErrExternalTool, "sniffer", "open session", "browser session unavailable", err)
	}
	s.metrics.SessionOpened()
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			logging.WarnWithContext(logger, "browser session close failed", "sniff_session_close_failed",
				logging.Error(closeErr),
				logging.String(logging.FieldErrorHint, "check for orphaned browser processes"),
				logging.String(logging.FieldImpact, "browser resources may be held until restart"),
			)
		}
		s.metrics.SessionClosed()
	}()

	detected := newDetection()
	if err := session.Intercept(s.observer(detected)); err != nil {
		return "", false, services.Wrap(services.ErrExternalTool, "sniffer", "intercept", "install request observer", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, s.opts.NavigationTimeout)
	navErr := session.Navigate(navCtx, embedURL)
	cancel()
	if navErr != nil {
		logging.WarnWithContext(logger, "embed navigation failed", "sniff_navigation_failed",
			logging.Error(navErr),
			logging.Duration("timeout", s.opts.NavigationTimeout),
			logging.String(logging.FieldErrorHint, "embed host may be slow or unreachable"),
			logging.String(logging.FieldImpact, "continuing to poll for a manifest request"),
		)
	}

	manifestURL, found = s.await(ctx, detected)
	if found {
		logger.Info("manifest detected", logging.String("manifest_url", manifestURL))
	} else {
		logger.Info("no manifest detected",
			logging.Int("poll_attempts", s.opts.PollAttempts),
			logging.Duration("poll_interval", s.opts.PollInterval),
		)
	}
	return manifestURL, found, nil
}

// observer records manifest URLs and blocks noisy resource types. Detection is
// evaluated before, and independently of, the block decision.
func (s *Sniffer) observer(detected *detection) InterceptFunc {
	return func(req Request) Verdict {
		if strings.HasSuffix(req.URL, s.opts.ManifestSuffix) {
			detected.record(req.URL)
		}
		if s.blocked(req.ResourceType) {
			s.metrics.BlockedRequest(req.ResourceType)
			return Abort
		}
		return Continue
	}
}

func (s *Sniffer) blocked(resourceType string) bool {
	for _, blocked := range s.opts.BlockedTypes {
		if strings.EqualFold(blocked, resourceType) {
			return true
		}
	}
	return false
}

// await polls up to PollAttempts times, returning as soon as a detection lands.
func (s *Sniffer) await(ctx context.Context, detected *detection) (string, bool) {
	for attempt := 0; attempt < s.opts.PollAttempts; attempt++ {
		if url, ok := detected.load(); ok {
			return url, true
		}
		select {
		case <-detected.done:
		case <-s.opts.After(s.opts.PollInterval):
		case <-ctx.Done():
			return detected.load()
		}
	}
	return detected.load()
}

// detection is a one-shot handoff from the request observer to the poll loop.
type detection struct {
	once sync.Once
	done chan struct{}
	url  string
}

func newDetection() *detection {
	return &detection{done: make(chan struct{})}
}

// record stores url if nothing has been recorded yet. Later calls are ignored.
func (d *detection) record(url string) {
	d.once.Do(func() {
		d.url = url
		close(d.done)
	})
}

func (d *detection) load() (string, bool) {
	select {
	case <-d.done:
		return d.url, true
	default:
		return "", false
	}
}
