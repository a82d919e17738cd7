// Package scheduler runs the keepalive refresh loop: timed sleep, optional
// idle wait, one browser-driving call per cycle, graceful stop on
// cancellation.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"keepalive/internal/config"
	"keepalive/internal/engine"
	"keepalive/internal/idle"
	"keepalive/internal/urlpolicy"
)

// Scheduler owns the session for the lifetime of the run. No other component
// drives it; the idle clock and any log subscribers only observe.
type Scheduler struct {
	cfg     config.Config
	session engine.Session
	clock   *idle.Clock
	logger  *zap.Logger

	closeOnce sync.Once
}

// New wires a scheduler around an already-launched session.
func New(cfg config.Config, session engine.Session, clock *idle.Clock, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{cfg: cfg, session: session, clock: clock, logger: logger}
}

// Run performs the initial load, then refreshes until ctx is cancelled.
// Cancellation is cooperative: it is observed after the sleep and after the
// idle wait, never mid-navigation — an in-flight browser call always settles
// before the loop exits. The session is closed exactly once on the way out.
//
// A nil return means graceful shutdown. Only a failed initial load is fatal;
// per-cycle refresh failures are logged and the loop continues.
func (s *Scheduler) Run(ctx context.Context) error {
	defer s.close()

	target := urlpolicy.InitialTarget(s.cfg)
	s.logger.Info("loading page",
		zap.String("url", target),
		zap.Duration("interval", s.cfg.Interval))
	if err := s.session.Goto(ctx, target); err != nil {
		return fmt.Errorf("initial navigation: %w", err)
	}
	// Baseline for idle-wait math: without this a quiet page would look
	// idle since process start rather than since first load.
	s.clock.Touch()

	for {
		if !s.sleep(ctx) {
			s.logger.Info("stopping")
			return nil
		}
		if s.cfg.OnlyIfIdle {
			if err := idle.Wait(ctx, s.cfg.Interval, s.clock); err != nil {
				s.logger.Info("stopping")
				return nil
			}
		}
		s.refresh(ctx)
	}
}

// sleep waits one interval; false means a stop was requested.
func (s *Scheduler) sleep(ctx context.Context) bool {
	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return ctx.Err() == nil
	}
}

// refresh executes one URL-policy decision. Errors are contained here: a
// single bad refresh must not kill the keepalive process.
func (s *Scheduler) refresh(ctx context.Context) {
	target, reload := urlpolicy.NextTarget(s.cfg, s.session.CurrentURL())

	var err error
	if reload {
		s.logger.Debug("reloading page")
		err = s.session.Reload(ctx)
	} else {
		s.logger.Debug("refreshing page", zap.String("url", target))
		err = s.session.Goto(ctx, target)
	}
	if err != nil {
		s.logger.Warn("refresh failed, retrying next cycle", zap.Error(err))
	}
}

func (s *Scheduler) close() {
	s.closeOnce.Do(func() {
		if err := s.session.Close(); err != nil {
			s.logger.Warn("session close", zap.Error(err))
		}
	})
}
