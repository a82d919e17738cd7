package launch

import (
	"context"
	"io"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"keepalive/internal/config"
)

// Installer remedies a missing driver or missing browser binary for one
// backend. Implementations are invoked at most once per failure class.
type Installer interface {
	InstallDriver(ctx context.Context) error
	InstallBrowser(ctx context.Context) error
}

func installerFor(engineName string, logger *zap.Logger) Installer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engineName == config.EnginePlaywright {
		return &playwrightInstaller{logger: logger}
	}
	return &rodInstaller{logger: logger}
}

// rodInstaller downloads a Chromium revision into rod's cache. Rod has no
// separate driver runtime, so InstallDriver is a no-op.
type rodInstaller struct {
	logger *zap.Logger
}

func (i *rodInstaller) InstallDriver(ctx context.Context) error { return nil }

func (i *rodInstaller) InstallBrowser(ctx context.Context) error {
	i.logger.Info("downloading chromium for rod")
	path, err := launcher.NewBrowser().Get()
	if err != nil {
		return err
	}
	i.logger.Info("chromium ready", zap.String("path", path))
	return nil
}

// playwrightInstaller shells out to the Playwright driver installer. Output
// is discarded so install progress never interleaves with our own logs.
type playwrightInstaller struct {
	logger *zap.Logger
}

func (i *playwrightInstaller) InstallDriver(ctx context.Context) error {
	i.logger.Info("installing playwright driver")
	return playwright.Install(&playwright.RunOptions{
		SkipInstallBrowsers: true,
		Verbose:             false,
		Stdout:              io.Discard,
		Stderr:              io.Discard,
	})
}

func (i *playwrightInstaller) InstallBrowser(ctx context.Context) error {
	i.logger.Info("installing chromium via playwright")
	return playwright.Install(&playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	})
}
