// Package launch wraps session acquisition with classified-error recovery:
// a missing driver or missing browser binary can be installed (with consent)
// and the launch retried, once per failure class.
package launch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"keepalive/internal/engine"
)

// RecoveryOptions configure the install/retry state machine.
type RecoveryOptions struct {
	// AutoInstall enables recovery at all; when false every launch error
	// propagates unchanged.
	AutoInstall bool
	// AssumeYes answers every consent prompt affirmatively.
	AssumeYes bool

	// In/Out carry the consent prompt; default to stdin/stderr.
	In  io.Reader
	Out io.Writer
	// IsTerminal reports whether prompting is possible; defaults to a
	// real TTY check on stdin.
	IsTerminal func() bool

	// Installer overrides the engine-matched installer (tests).
	Installer Installer

	Logger *zap.Logger
}

func (r *RecoveryOptions) fillDefaults(eng engine.Engine) {
	if r.In == nil {
		r.In = os.Stdin
	}
	if r.Out == nil {
		r.Out = os.Stderr
	}
	if r.IsTerminal == nil {
		r.IsTerminal = func() bool {
			return term.IsTerminal(int(os.Stdin.Fd()))
		}
	}
	if r.Installer == nil {
		r.Installer = installerFor(eng.Name(), r.Logger)
	}
	if r.Logger == nil {
		r.Logger = zap.NewNop()
	}
}

// Acquire launches a session, recovering at most once per failure class.
//
// Unknown failures propagate unchanged and are never retried. A failure that
// repeats its class after a recovery attempt is fatal — there is no install
// loop.
func Acquire(ctx context.Context, eng engine.Engine, opts engine.Options, rec RecoveryOptions) (engine.Session, error) {
	rec.fillDefaults(eng)

	attempted := make(map[engine.FailureClass]bool)
	for {
		sess, err := eng.Launch(ctx, opts)
		if err == nil {
			return sess, nil
		}
		if !rec.AutoInstall {
			return nil, err
		}

		class := engine.Classify(err)
		if class == engine.FailureUnknown || attempted[class] {
			return nil, err
		}
		attempted[class] = true
		rec.Logger.Warn("launch failed, attempting recovery",
			zap.String("engine", eng.Name()),
			zap.String("class", class.String()),
			zap.Error(err))

		switch class {
		case engine.FailureMissingDriver:
			if !rec.confirm(fmt.Sprintf("The %s driver is not installed. Install it now?", eng.Name())) {
				return nil, declined(err, "install the driver manually or re-run with --auto-install --yes")
			}
			if ierr := rec.Installer.InstallDriver(ctx); ierr != nil {
				return nil, fmt.Errorf("driver install failed: %w (original launch error: %v)", ierr, err)
			}
			// Chromium engines usually need matching browser binaries
			// right after a fresh driver install; offer them in the
			// same breath so the retry has a chance.
			if rec.confirm("Also install a matching Chromium binary?") {
				if ierr := rec.Installer.InstallBrowser(ctx); ierr != nil {
					rec.Logger.Warn("browser install after driver install failed", zap.Error(ierr))
				}
			}
		case engine.FailureMissingBrowser:
			if !rec.confirm("No controllable browser binary was found. Download one now?") {
				return nil, declined(err, "install a Chromium binary manually or re-run with --auto-install --yes")
			}
			if ierr := rec.Installer.InstallBrowser(ctx); ierr != nil {
				return nil, fmt.Errorf("browser install failed: %w (original launch error: %v)", ierr, err)
			}
		}
	}
}

// confirm asks for consent. Without a terminal (and without AssumeYes) the
// answer is always no, so unattended runs never hang on a prompt.
func (r *RecoveryOptions) confirm(prompt string) bool {
	if r.AssumeYes {
		return true
	}
	if !r.IsTerminal() {
		return false
	}
	fmt.Fprintf(r.Out, "%s [y/N]: ", prompt)
	scanner := bufio.NewScanner(r.In)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}

func declined(launchErr error, remediation string) error {
	return fmt.Errorf("%w (%s)", launchErr, remediation)
}
