package engine

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"keepalive/internal/config"
)

// rodEngine drives Chromium directly over CDP via go-rod.
type rodEngine struct {
	logger *zap.Logger
}

// NewRod returns the rod-backed engine.
func NewRod(logger *zap.Logger) Engine {
	return &rodEngine{logger: logger}
}

func (e *rodEngine) Name() string { return config.EngineRod }

func (e *rodEngine) Launch(ctx context.Context, opts Options) (Session, error) {
	l := launcher.New().Headless(opts.Headless)
	if opts.CDPPort > 0 {
		l = l.Set(flags.RemoteDebuggingPort, strconv.Itoa(opts.CDPPort))
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect to chromium: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("create page: %w", err)
	}

	evCtx, cancel := context.WithCancel(context.Background())
	s := &rodSession{
		browser:      browser,
		page:         page,
		logger:       e.logger,
		cancelEvents: cancel,
	}
	s.startEventStream(evCtx)

	e.logger.Debug("rod session launched", zap.String("control_url", controlURL))
	return s, nil
}

type rodSession struct {
	browser      *rod.Browser
	page         *rod.Page
	logger       *zap.Logger
	subs         subscribers
	cancelEvents context.CancelFunc
	closeOnce    sync.Once
	closeErr     error
}

// startEventStream wires CDP page and network events into the subscriber
// fan-out. EachEvent enables the required protocol domains itself.
func (s *rodSession) startEventStream(ctx context.Context) {
	wait := s.page.Context(ctx).EachEvent(
		func(ev *proto.PageLoadEventFired) {
			s.subs.emit(Event{Kind: PageLoaded})
		},
		func(ev *proto.PageFrameNavigated) {
			s.subs.emit(Event{Kind: NavigationCommitted, URL: ev.Frame.URL})
		},
		func(ev *proto.NetworkRequestWillBeSent) {
			s.subs.emit(Event{Kind: RequestStarted, URL: ev.Request.URL, Method: ev.Request.Method})
		},
		func(ev *proto.NetworkLoadingFinished) {
			s.subs.emit(Event{Kind: RequestFinished})
		},
		func(ev *proto.NetworkLoadingFailed) {
			s.subs.emit(Event{Kind: RequestFailed, Failure: ev.ErrorText})
		},
		func(ev *proto.NetworkResponseReceived) {
			s.subs.emit(Event{Kind: ResponseReceived, URL: ev.Response.URL, Status: ev.Response.Status})
		},
	)
	go wait()
}

func (s *rodSession) Goto(ctx context.Context, url string) error {
	p := s.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("wait for load of %s: %w", url, err)
	}
	return nil
}

func (s *rodSession) Reload(ctx context.Context) error {
	p := s.page.Context(ctx)
	if err := p.Reload(); err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("wait for load after reload: %w", err)
	}
	return nil
}

func (s *rodSession) CurrentURL() string {
	info, err := s.page.Info()
	if err != nil {
		s.logger.Debug("page info unavailable", zap.Error(err))
		return ""
	}
	return info.URL
}

func (s *rodSession) Subscribe(fn func(Event)) {
	s.subs.add(fn)
}

func (s *rodSession) Close() error {
	s.closeOnce.Do(func() {
		s.cancelEvents()
		if err := s.page.Close(); err != nil {
			s.logger.Debug("page close", zap.Error(err))
		}
		s.closeErr = s.browser.Close()
	})
	return s.closeErr
}
