package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"keepalive/internal/config"
)

// playwrightEngine drives Chromium through the Playwright driver process.
type playwrightEngine struct {
	logger *zap.Logger
}

// NewPlaywright returns the playwright-backed engine.
func NewPlaywright(logger *zap.Logger) Engine {
	return &playwrightEngine{logger: logger}
}

func (e *playwrightEngine) Name() string { return config.EnginePlaywright }

func (e *playwrightEngine) Launch(ctx context.Context, opts Options) (Session, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright driver: %w", err)
	}

	var args []string
	if opts.CDPPort > 0 {
		args = append(args, fmt.Sprintf("--remote-debugging-port=%d", opts.CDPPort))
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     args,
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	browserCtx, err := browser.NewContext()
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("create browser context: %w", err)
	}

	page, err := browserCtx.NewPage()
	if err != nil {
		_ = browserCtx.Close()
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("create page: %w", err)
	}

	s := &pwSession{
		pw:      pw,
		browser: browser,
		bctx:    browserCtx,
		page:    page,
		logger:  e.logger,
	}
	s.hookEvents()

	e.logger.Debug("playwright session launched")
	return s, nil
}

type pwSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	bctx    playwright.BrowserContext
	page    playwright.Page
	logger  *zap.Logger
	subs    subscribers

	closeOnce sync.Once
	closeErr  error
}

// hookEvents registers the typed page event handlers and fans them out.
func (s *pwSession) hookEvents() {
	s.page.OnLoad(func(playwright.Page) {
		s.subs.emit(Event{Kind: PageLoaded})
	})
	s.page.OnFrameNavigated(func(f playwright.Frame) {
		s.subs.emit(Event{Kind: NavigationCommitted, URL: f.URL()})
	})
	s.page.OnRequest(func(r playwright.Request) {
		s.subs.emit(Event{Kind: RequestStarted, URL: r.URL(), Method: r.Method()})
	})
	s.page.OnRequestFinished(func(r playwright.Request) {
		s.subs.emit(Event{Kind: RequestFinished, URL: r.URL()})
	})
	s.page.OnRequestFailed(func(r playwright.Request) {
		failure := ""
		if ferr := r.Failure(); ferr != nil {
			failure = ferr.Error()
		}
		s.subs.emit(Event{Kind: RequestFailed, URL: r.URL(), Failure: failure})
	})
	s.page.OnResponse(func(r playwright.Response) {
		s.subs.emit(Event{Kind: ResponseReceived, URL: r.URL(), Status: r.Status()})
	})
}

// Goto navigates and waits for the load state. The Playwright driver has no
// context plumbing; ctx is honored at the call boundary only.
func (s *pwSession) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
	})
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (s *pwSession) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.page.Reload(playwright.PageReloadOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
	})
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	return nil
}

func (s *pwSession) CurrentURL() string {
	return s.page.URL()
}

func (s *pwSession) Subscribe(fn func(Event)) {
	s.subs.add(fn)
}

func (s *pwSession) Close() error {
	s.closeOnce.Do(func() {
		if err := s.page.Close(); err != nil {
			s.logger.Debug("page close", zap.Error(err))
		}
		if err := s.bctx.Close(); err != nil {
			s.logger.Debug("context close", zap.Error(err))
		}
		if err := s.browser.Close(); err != nil {
			s.logger.Debug("browser close", zap.Error(err))
		}
		s.closeErr = s.pw.Stop()
	})
	return s.closeErr
}
