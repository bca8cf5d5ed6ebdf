// Command pdfspool recursively finds PDF files under a directory, sorts them
// by directory and file name, and sends them to the default printer in
// paced batches.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/pdfspool/pdfspool/internal/config"
	"github.com/pdfspool/pdfspool/internal/core"
	"github.com/pdfspool/pdfspool/internal/history"
	"github.com/pdfspool/pdfspool/internal/notify"
	"github.com/pdfspool/pdfspool/internal/printer"
	"github.com/pdfspool/pdfspool/internal/runlog"
	"github.com/pdfspool/pdfspool/internal/scan"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath = flag.String("config", "pdfspool.yaml", "path to the YAML configuration file")
		batchSize  = flag.Int("batch-size", 0, "number of files per batch (overrides config)")
		batchDelay = flag.Duration("delay", -1, "pause between batches (overrides config)")
		dryRun     = flag.Bool("dry-run", false, "show what would be printed without printing")
		logPath    = flag.String("log-file", "", "path to the run log file (overrides config)")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pdfspool [flags] <directory>\n\n")
		fmt.Fprintf(os.Stderr, "Recursively prints all PDF files under <directory> in batches.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return 2
	}
	root := flag.Arg(0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pdfspool: %v\n", err)
		return 1
	}
	if *batchSize > 0 {
		cfg.Print.BatchSize = *batchSize
	}
	if *batchDelay >= 0 {
		cfg.Print.BatchDelay = *batchDelay
	}
	if *logPath != "" {
		cfg.Log.Path = *logPath
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "pdfspool: %v\n", err)
		return 1
	}

	log, err := runlog.New(cfg.Log.Path, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pdfspool: %v\n", err)
		return 1
	}
	defer log.Close()

	var submitter core.Submitter
	if *dryRun {
		submitter = printer.NewDryRunSubmitter()
	} else {
		submitter, err = printer.NewPlatformSubmitter()
		if err != nil {
			log.Errorf("%v", err)
			return 1
		}
		checkDefaultPrinter(ctx, submitter, log)
	}

	runID := uuid.NewString()

	var observer core.JobObserver
	var store *history.Store
	if cfg.History.Path != "" {
		store, err = history.Open(cfg.History.Path)
		if err != nil {
			log.Warnf("history disabled: %v", err)
		} else {
			defer store.Close()
			if removed, err := store.Purge(cfg.History.RetentionDays); err != nil {
				log.Warnf("history purge failed: %v", err)
			} else if removed > 0 {
				log.Infof("purged %d runs older than %d days", removed, cfg.History.RetentionDays)
			}
			observer = store.Recorder(runID, *dryRun)
		}
	}

	runner := core.NewRunner(core.RunConfig{
		RunID:      runID,
		Root:       root,
		BatchSize:  cfg.Print.BatchSize,
		BatchDelay: cfg.Print.BatchDelay,
		DryRun:     *dryRun,
		MaxRetries: cfg.Print.MaxRetries,
		RetryDelay: cfg.Print.RetryDelay,
	}, scan.Scanner{}, submitter, log, observer)

	result, runErr := runner.Run(ctx)

	if store != nil {
		if err := store.RecordRun(result); err != nil {
			log.Warnf("could not record run: %v", err)
		}
	}

	if cfg.Webhook.URL != "" {
		notifyCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		sender := notify.NewSender(notify.Config{
			URL:        cfg.Webhook.URL,
			Secret:     cfg.Webhook.Secret,
			Timeout:    cfg.Webhook.Timeout,
			RetryCount: cfg.Webhook.RetryCount,
		})
		if err := sender.SendRunCompleted(notifyCtx, result); err != nil {
			log.Warnf("webhook notification failed: %v", err)
		}
		cancel()
	}

	if runErr != nil || !result.Succeeded() {
		return 1
	}
	return 0
}

// checkDefaultPrinter surfaces a run-level warning before submission begins
// when no default destination is configured. It never aborts the run; the
// per-job submissions report their own failures.
func checkDefaultPrinter(ctx context.Context, s core.Submitter, log *runlog.Logger) {
	dc, ok := s.(printer.DestinationChecker)
	if !ok {
		return
	}
	dest, err := dc.DefaultDestination(ctx)
	switch {
	case errors.Is(err, printer.ErrNoDefaultPrinter):
		log.Warnf("no default printer configured; submissions will likely fail")
	case err != nil:
		log.Warnf("could not determine default printer: %v", err)
	default:
		log.Infof("default printer: %s", dest)
	}
}
