package sniffer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"golang.org/x/sync/semaphore"

	"streamscout/internal/logging"
)

// RodOptions configures the Chromium backend.
type RodOptions struct {
	// Bin is the browser executable. Empty lets the launcher locate or download one.
	Bin            string
	Headless       bool
	ViewportWidth  int
	ViewportHeight int
	// MaxSessions bounds concurrently open incognito contexts.
	MaxSessions int64
}

// RodBrowser launches one Chromium process lazily and hands out an incognito
// context per session. Contexts share nothing but the process.
type RodBrowser struct {
	opts   RodOptions
	logger *slog.Logger
	slots  *semaphore.Weighted

	mu      sync.Mutex
	browser *rod.Browser
}

// NewRodBrowser constructs the backend without launching Chromium.
func NewRodBrowser(opts RodOptions, logger *slog.Logger) *RodBrowser {
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = 1
	}
	if opts.ViewportWidth <= 0 {
		opts.ViewportWidth = 1280
	}
	if opts.ViewportHeight <= 0 {
		opts.ViewportHeight = 720
	}
	return &RodBrowser{
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "browser"),
		slots:  semaphore.NewWeighted(opts.MaxSessions),
	}
}

// NewSession waits for a free slot, then opens an incognito page.
func (b *RodBrowser) NewSession(ctx context.Context) (Session, error) {
	if err := b.slots.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("wait for browser slot: %w", err)
	}
	release := sync.OnceFunc(func() { b.slots.Release(1) })

	browser, err := b.connect()
	if err != nil {
		release()
		return nil, err
	}

	incognito, err := browser.Incognito()
	if err != nil {
		release()
		return nil, fmt.Errorf("incognito context: %w", err)
	}

	page, err := incognito.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		_ = incognito.Close()
		release()
		return nil, fmt.Errorf("create page: %w", err)
	}

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             b.opts.ViewportWidth,
		Height:            b.opts.ViewportHeight,
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	}).Call(page); err != nil {
		b.logger.Debug("set viewport failed", logging.Error(err))
	}

	return &rodSession{incognito: incognito, page: page, release: release}, nil
}

// Close shuts the shared Chromium process down.
func (b *RodBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser == nil {
		return nil
	}
	err := b.browser.Close()
	b.browser = nil
	return err
}

// connect returns the shared browser, relaunching it when the connection went stale.
func (b *RodBrowser) connect() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser != nil {
		if _, err := b.browser.Version(); err == nil {
			return b.browser, nil
		}
		b.logger.Warn("stale browser connection, relaunching",
			logging.String(logging.FieldEventType, "browser_reconnect"),
			logging.String(logging.FieldErrorHint, "browser process exited or crashed"),
			logging.String(logging.FieldImpact, "next session pays the launch cost"),
		)
		_ = b.browser.Close()
		b.browser = nil
	}

	launch := launcher.New().
		Headless(b.opts.Headless).
		NoSandbox(true).
		Set("disable-dev-shm-usage").
		Set("disable-extensions").
		Set("disable-gpu")
	if b.opts.Bin != "" {
		launch = launch.Bin(b.opts.Bin)
	}
	controlURL, err := launch.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chromium: %w", err)
	}
	b.logger.Info("browser launched", logging.Bool("headless", b.opts.Headless))
	b.browser = browser
	return browser, nil
}

type rodSession struct {
	incognito *rod.Browser
	page      *rod.Page
	release   func()

	// stopEvents ends the paused-request listener installed by Intercept.
	stopEvents context.CancelFunc

	closeOnce sync.Once
	closeErr  error
}

// Intercept pauses every request through the Fetch domain. The paused event is
// consumed directly because HijackRouter exposes the URL only as a parsed
// *url.URL, which is nil for anything net/url rejects.
func (s *rodSession) Intercept(fn InterceptFunc) error {
	if s.stopEvents != nil {
		return errors.New("request observer already installed")
	}
	enable := proto.FetchEnable{Patterns: []*proto.FetchRequestPattern{{URLPattern: "*"}}}
	if err := enable.Call(s.page); err != nil {
		return fmt.Errorf("enable request interception: %w", err)
	}
	ctx, cancel := context.WithCancel(s.page.GetContext())
	page := s.page.Context(ctx)
	wait := page.EachEvent(func(e *proto.FetchRequestPaused) {
		verdict := fn(requestFromEvent(e))
		go settleRequest(page, e.RequestID, verdict)
	})
	go wait()
	s.stopEvents = cancel
	return nil
}

// settleRequest releases a paused request. Errors mean the page went away
// mid-flight and are dropped.
func settleRequest(page *rod.Page, id proto.FetchRequestID, verdict Verdict) {
	if verdict == Abort {
		_ = proto.FetchFailRequest{RequestID: id, ErrorReason: proto.NetworkErrorReasonBlockedByClient}.Call(page)
		return
	}
	_ = proto.FetchContinueRequest{RequestID: id}.Call(page)
}

// requestFromEvent reads the URL exactly as Chromium reported it. Pages may
// request URLs net/url refuses to parse (e.g. "%zz"), so nothing is re-encoded.
func requestFromEvent(e *proto.FetchRequestPaused) Request {
	if e == nil {
		return Request{}
	}
	req := Request{ResourceType: string(e.ResourceType)}
	if e.Request != nil {
		req.URL = e.Request.URL
	}
	return req
}

func (s *rodSession) Navigate(ctx context.Context, url string) error {
	page := s.page.Context(ctx)
	wait := page.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	wait()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("wait for DOMContentLoaded: %w", err)
	}
	return nil
}

func (s *rodSession) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if s.stopEvents != nil {
			s.stopEvents()
			if err := (proto.FetchDisable{}).Call(s.page); err != nil {
				errs = append(errs, fmt.Errorf("disable request interception: %w", err))
			}
		}
		if err := s.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close page: %w", err))
		}
		if err := s.incognito.Close(); err != nil {
			errs = append(errs, fmt.Errorf("dispose incognito context: %w", err))
		}
		s.release()
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}
