package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	integrationapp "github.com/storesync/backend/internal/application/integration"
	"github.com/storesync/backend/internal/infrastructure/config"
	"github.com/storesync/backend/internal/infrastructure/invoicing"
	"github.com/storesync/backend/internal/infrastructure/logger"
	"github.com/storesync/backend/internal/infrastructure/pacing"
	"github.com/storesync/backend/internal/infrastructure/storefront"
)

func main() {
	var (
		configPath string
		logLevel   string
		timeout    time.Duration
	)

	flag.StringVar(&configPath, "config", "", "Path to a config file (default: ./config.toml if present)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.DurationVar(&timeout, "timeout", 0, "Abort the run after this long (default: sync.run_timeout)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]
	if command != "sync" && command != "plan" {
		printUsage()
		os.Exit(1)
	}

	// Logs go to stderr so stdout carries only the JSON result
	log, err := logger.New(logger.Config{Level: logLevel, Format: "console", Output: "stderr"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if timeout <= 0 {
		timeout = cfg.Sync.RunTimeout
	}

	gate := pacing.NewGate(cfg.Invoicing.MinCallInterval, logger.ForComponent(log, "pacing"))

	ic := invoicing.NewEracuniConfig(cfg.Invoicing.Username, cfg.Invoicing.PasswordHash, cfg.Invoicing.Token)
	ic.Password = cfg.Invoicing.Password
	ic.APIURL = cfg.Invoicing.APIURL
	ic.TimeoutSeconds = int(cfg.Invoicing.Timeout / time.Second)
	invoicingClient, err := invoicing.NewEracuniAdapter(ic, gate, log)
	if err != nil {
		log.Fatal("Failed to configure invoicing client", zap.Error(err))
	}

	sc := storefront.NewShopifyConfig(cfg.Storefront.ShopDomain, cfg.Storefront.AccessToken)
	sc.APIVersion = cfg.Storefront.APIVersion
	sc.BaseURL = cfg.Storefront.BaseURL
	sc.TimeoutSeconds = int(cfg.Storefront.Timeout / time.Second)
	storefrontClient, err := storefront.NewShopifyAdapter(sc, log)
	if err != nil {
		log.Fatal("Failed to configure storefront client", zap.Error(err))
	}

	reconciler := integrationapp.NewCatalogReconciler(invoicingClient, storefrontClient, logger.ForComponent(log, "reconciler"))

	// Ctrl-C stops the pass between variants; the partial report is still printed
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log.Info("Reconcile CLI started", zap.String("command", command), zap.Duration("timeout", timeout))

	var (
		result   any
		runErr   error
		exitCode int
	)
	switch command {
	case "sync":
		report, err := reconciler.SyncCatalog(ctx, integrationapp.TriggerCLI)
		runErr = err
		if report != nil {
			summary := integrationapp.ToReconcileSummary(report)
			result = summary
			if summary.Failed > 0 {
				exitCode = 2
			}
		}
	case "plan":
		plan, err := reconciler.Plan(ctx)
		runErr = err
		if plan != nil {
			result = plan
		}
	}

	if result != nil {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			log.Error("Failed to write result", zap.Error(err))
			exitCode = 1
		}
	}
	if runErr != nil {
		log.Error("Reconcile CLI failed", zap.String("command", command), zap.Error(runErr))
		exitCode = 1
	}

	stop()
	cancel()
	_ = log.Sync()
	os.Exit(exitCode)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func printUsage() {
	fmt.Println(`Catalog reconciliation CLI

Usage:
  reconcile [flags] <command>

Commands:
  sync    Run one full reconciliation pass and print the report
  plan    Print the action each variant would get, without changing anything

Flags:
  -config string      Path to a config file (default: ./config.toml if present)
  -log-level string   Log level (default: info)
  -timeout duration   Abort the run after this long (default: sync.run_timeout)

Exit codes:
  0  success
  1  the run could not complete
  2  the run completed with failed variants

Environment variables use the STORESYNC_ prefix, e.g. STORESYNC_INVOICING_TOKEN.`)
}
