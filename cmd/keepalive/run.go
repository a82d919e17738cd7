// Package main implements the keepalive CLI.
// This file wires the run pipeline: config, launch recovery, event
// subscribers, and the refresh loop.
package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"keepalive/internal/cdp"
	"keepalive/internal/engine"
	"keepalive/internal/idle"
	"keepalive/internal/launch"
	"keepalive/internal/netlog"
	"keepalive/internal/scheduler"
)

// runKeepalive is the root command body: validate config, acquire a session
// (installing missing pieces when allowed), then refresh until a termination
// signal arrives.
func runKeepalive(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	eng, err := engine.New(cfg.Engine, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sess, err := launch.Acquire(ctx, eng, engine.Options{
		Headless: cfg.Headless,
		CDPPort:  cfg.CDPPort,
	}, launch.RecoveryOptions{
		AutoInstall: cfg.AutoInstall,
		AssumeYes:   cfg.Yes,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("launch %s: %w", cfg.Engine, err)
	}

	// Every page event feeds the idle clock; the network log is a second,
	// independent subscriber so enabling it never shifts idle timing.
	clock := idle.NewClock()
	sess.Subscribe(func(engine.Event) { clock.Touch() })

	if cfg.NetLogPath != "" {
		recorder, err := netlog.New(cfg.NetLogPath, logger)
		if err != nil {
			_ = sess.Close()
			return err
		}
		defer func() {
			if cerr := recorder.Close(); cerr != nil {
				logger.Warn("network log close", zap.Error(cerr))
			}
		}()
		sess.Subscribe(recorder.Record)
		logger.Info("recording network events", zap.String("path", cfg.NetLogPath))
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.CDPPort > 0 {
		g.Go(func() error {
			poller := cdp.Poller{Port: cfg.CDPPort, Logger: logger}
			wsURL, perr := poller.Wait(gctx)
			if perr != nil {
				logger.Warn("debugger endpoint not available",
					zap.Int("port", cfg.CDPPort), zap.Error(perr))
				return nil
			}
			logger.Info("debugger endpoint ready",
				zap.Int("port", cfg.CDPPort), zap.String("ws_url", wsURL))
			return nil
		})
	}
	g.Go(func() error {
		return scheduler.New(cfg, sess, clock, logger).Run(gctx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
