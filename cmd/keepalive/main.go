package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"keepalive/internal/config"
	"keepalive/internal/version"
)

var (
	// Global flags
	flagURL         string
	flagInterval    int
	flagEngine      string
	flagHeadless    bool
	flagCacheBust   bool
	flagAlwaysReset bool
	flagOnlyIfIdle  bool
	flagCDPPort     int
	flagAutoInstall bool
	flagYes         bool
	flagNetLog      string
	flagConfig      string
	verbose         bool

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "keepalive [url]",
	Short: "Keep a browser page alive by refreshing it on a timer",
	Long: `keepalive loads a URL in a controllable browser and refreshes it
periodically so the page never goes stale or gets evicted.

Each refresh can cache-bust the current URL, return to the original URL, or
plainly reload, and can be deferred until the page has had no network
activity for a full interval. A remote-debugging endpoint can be exposed for
attaching external automation.

Two automation backends are supported: rod (direct CDP) and playwright.`,
	Args:          cobra.MaximumNArgs(1),
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runKeepalive,
}

func init() {
	rootCmd.Flags().StringVar(&flagURL, "url", "", "URL to keep alive (or pass as the positional argument)")
	rootCmd.Flags().IntVar(&flagInterval, "interval", 60, "seconds between refresh cycles")
	rootCmd.Flags().StringVar(&flagEngine, "engine", config.EngineRod, "automation backend (rod or playwright)")
	rootCmd.Flags().BoolVar(&flagHeadless, "headless", false, "run the browser without a visible window")
	rootCmd.Flags().BoolVar(&flagCacheBust, "cache-bust", true, "append a fresh marker parameter on every refresh")
	rootCmd.Flags().BoolVar(&flagAlwaysReset, "always-reset", false, "return to the original URL each cycle")
	rootCmd.Flags().BoolVar(&flagOnlyIfIdle, "only-if-idle", false, "refresh only after a full interval without page activity")
	rootCmd.Flags().IntVar(&flagCDPPort, "cdp-port", 0, "expose the DevTools endpoint on this local port")
	rootCmd.Flags().BoolVar(&flagAutoInstall, "auto-install", false, "offer to install a missing driver or browser binary")
	rootCmd.Flags().BoolVar(&flagYes, "yes", false, "auto-confirm install prompts")
	rootCmd.Flags().StringVar(&flagNetLog, "net-log", "", "record network events to this JSONL file")
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "YAML config file (flags override it)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// buildConfig assembles the immutable runtime configuration: YAML file first
// (when given), then any flag explicitly set on the command line.
func buildConfig(cmd *cobra.Command, args []string) (config.Config, error) {
	cfg := config.Default()
	if flagConfig != "" {
		var err error
		cfg, err = config.Load(flagConfig)
		if err != nil {
			return cfg, err
		}
	}

	flags := cmd.Flags()
	if len(args) > 0 {
		cfg.URL = args[0]
	}
	if flags.Changed("url") {
		cfg.URL = flagURL
	}
	if flags.Changed("interval") {
		cfg.Interval = time.Duration(flagInterval) * time.Second
	}
	if flags.Changed("engine") {
		cfg.Engine = flagEngine
	}
	if flags.Changed("headless") {
		cfg.Headless = flagHeadless
	}
	if flags.Changed("cache-bust") {
		cfg.CacheBust = flagCacheBust
	}
	if flags.Changed("always-reset") {
		cfg.AlwaysReset = flagAlwaysReset
	}
	if flags.Changed("only-if-idle") {
		cfg.OnlyIfIdle = flagOnlyIfIdle
	}
	if flags.Changed("cdp-port") {
		cfg.CDPPort = flagCDPPort
	}
	if flags.Changed("auto-install") {
		cfg.AutoInstall = flagAutoInstall
	}
	if flags.Changed("yes") {
		cfg.Yes = flagYes
	}
	if flags.Changed("net-log") {
		cfg.NetLogPath = flagNetLog
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "keepalive: %v\n", err)
		os.Exit(1)
	}
}
