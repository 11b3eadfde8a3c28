// Package main provides the tabguard daemon. It drives a browser profile and closes the
// newest tab of any site that goes over its configured tab limit.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/entrhq/tabguard/pkg/browser"
	"github.com/entrhq/tabguard/pkg/config"
	"github.com/entrhq/tabguard/pkg/enforcer"
	"github.com/entrhq/tabguard/pkg/hostname"
	"github.com/entrhq/tabguard/pkg/logging"
)

const version = "0.1.0"

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigFile  string
	StoragePath string
	Headless    bool
	ShowVersion bool

	headlessSet bool
}

func main() {
	cli := parseFlags()

	if cli.ShowVersion {
		fmt.Printf("tabguard v%s\n", version)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cli); err != nil {
		stop()
		log.Printf("tabguard failed: %v", err)
		os.Exit(1)
	}
}

// parseFlags parses command line flags
func parseFlags() *CLIConfig {
	cli := &CLIConfig{}

	flag.StringVar(&cli.ConfigFile, "config", "", "Path to configuration file (YAML)")
	flag.StringVar(&cli.StoragePath, "storage", "", "Path to the shared limits storage file")
	flag.BoolVar(&cli.Headless, "headless", false, "Run the browser without a window")
	flag.BoolVar(&cli.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "tabguard - per-site open tab limits\n\n")
		fmt.Fprintf(os.Stderr, "Usage: tabguard [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEdit limits with tabguard-settings.\n")
	}

	flag.Parse()
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "headless" {
			cli.headlessSet = true
		}
	})
	return cli
}

// loadConfig reads the config file and applies command-line overrides
func loadConfig(cli *CLIConfig) (*config.Config, error) {
	cfg, err := config.LoadFile(cli.ConfigFile)
	if err != nil {
		return nil, err
	}
	if cli.StoragePath != "" {
		if cfg.Storage.Path, err = config.ExpandHome(cli.StoragePath); err != nil {
			return nil, err
		}
	}
	if cli.headlessSet {
		cfg.Browser.Headless = cli.Headless
	}
	return cfg, nil
}

func run(ctx context.Context, cli *CLIConfig) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logging.SetLevel(logging.ParseVerbosity(cfg.Logging.Verbosity))
	logger, err := logging.NewLogger("tabguard")
	if err != nil {
		log.Printf("Warning: logging to stderr: %v", err)
	}
	defer logger.Close()

	store, err := config.NewFileStore(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}

	resolver, err := hostname.NewResolver(cfg.SuspendedPagePatterns)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	driver := browser.NewDriver(browser.Options{
		Headless:    cfg.Browser.Headless,
		UserDataDir: cfg.Browser.UserDataDir,
		Channel:     cfg.Browser.Channel,
		StartURLs:   cfg.Browser.StartURLs,
	}, logger.With("browser"))

	engine := enforcer.NewEngine(driver, store,
		enforcer.WithResolver(resolver),
		enforcer.WithLogger(logger.With("enforcer")),
	)
	router := enforcer.NewRouter(engine)

	if err := driver.Start(ctx, router, router.HandleQuery); err != nil {
		return err
	}
	defer func() {
		if err := driver.Close(); err != nil {
			logger.Warnf("browser shutdown: %v", err)
		}
	}()

	logger.Infof("tabguard v%s started (storage=%s, log=%s)", version, store.Path(), logger.LogPath())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go config.Watch(ctx, store, cfg.Storage.PollInterval,
		func(changes []config.Change) {
			for _, change := range changes {
				router.Push(enforcer.StorageChanged{Area: change.Area, Keys: change.Keys})
			}
		},
		func(err error) {
			logger.Warnf("storage reload failed: %v", err)
		})

	go func() {
		select {
		case <-driver.Done():
			logger.Infof("browser closed")
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := router.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Infof("tabguard stopped")
	return nil
}
