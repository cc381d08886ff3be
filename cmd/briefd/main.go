// Command briefd runs configured fetch-summarize-notify pipelines on
// schedules and triggers.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/briefd/internal/capability"
	"github.com/aristath/briefd/internal/config"
	"github.com/aristath/briefd/internal/events"
	"github.com/aristath/briefd/internal/history"
	"github.com/aristath/briefd/internal/pipeline"
	"github.com/aristath/briefd/internal/retry"
	"github.com/aristath/briefd/internal/schedule"
	"github.com/aristath/briefd/internal/trigger"
)

const version = "0.3.0"

// shutdownTimeout bounds how long in-flight runs and watchers get after a
// signal before the process gives up on them.
const shutdownTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "briefd.yaml", "path to the config file")
	once := flag.String("once", "", "run the named task immediately and exit")
	validate := flag.Bool("validate", false, "check the config, print the task summary, and exit")
	initConfig := flag.Bool("init", false, "write an example config to the -config path and exit")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("briefd %s\n", version)
		return
	}

	logger := log.New(os.Stderr, "briefd ", log.LstdFlags|log.Lmsgprefix)

	if *initConfig {
		if err := writeExampleConfig(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("wrote example config to %s\n", *configPath)
		return
	}

	cfg, err := config.Load(*configPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if *validate {
		if err := printSummary(os.Stdout, cfg, time.Now()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Signal-aware context for graceful shutdown. Once the first signal
	// lands, stop() restores default handling so a second one exits
	// immediately.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		stop()
	}()

	if err := run(ctx, cfg, logger, *once); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the daemon together and blocks until shutdown. With onceTask
// set it runs that single task instead and returns its outcome.
func run(ctx context.Context, cfg *config.Config, logger *log.Logger, onceTask string) error {
	reg := capability.NewRegistry()
	if err := registerBuiltins(reg); err != nil {
		return fmt.Errorf("registering capabilities: %w", err)
	}

	bus := events.NewBus()

	var store history.Store
	var recorder *history.Recorder
	if cfg.History.Path != "" {
		var (
			s   *history.SQLiteStore
			err error
		)
		if cfg.History.Path == ":memory:" {
			s, err = history.NewMemoryStore(ctx)
		} else {
			s, err = history.NewSQLiteStore(ctx, cfg.History.Path)
		}
		if err != nil {
			bus.Close()
			return fmt.Errorf("opening history store: %w", err)
		}
		store = s
		recorder = history.NewRecorder(s, logger)
		recorder.Start(bus)
	}

	// Shutdown order matters: the bus closes only after every producer has
	// stopped, and the recorder drains before the store goes away.
	closeAll := func() {
		bus.Close()
		if recorder != nil {
			recorder.Stop()
		}
		if store != nil {
			if err := store.Close(); err != nil {
				logger.Printf("WARNING: closing history store: %v", err)
			}
		}
	}

	policy := retry.Policy{
		MaxAttempts:     cfg.Defaults.Retry.MaxAttempts,
		Factor:          cfg.Defaults.Retry.BackoffFactor,
		InitialInterval: retry.DefaultPolicy().InitialInterval,
	}
	exec := pipeline.New(reg, bus, logger, policy)

	if onceTask != "" {
		task, ok := cfg.TaskByName(onceTask)
		if !ok {
			closeAll()
			return fmt.Errorf("no task named %q", onceTask)
		}
		err := exec.Run(ctx, task, nil, "manual")
		closeAll()
		if err != nil {
			return fmt.Errorf("task %q: %w", onceTask, err)
		}
		return nil
	}

	guard := schedule.NewTaskGuard()
	runTask := func(ctx context.Context, task config.Task, source string) error {
		return exec.Run(ctx, task, nil, source)
	}

	sched, err := schedule.New(cfg.ScheduledTasks(), runTask, guard, logger, cfg.Defaults.MaxConcurrentTasks)
	if err != nil {
		closeAll()
		return err
	}

	defaultPoll := time.Duration(cfg.Defaults.TriggerPollSeconds) * time.Second
	mgr := trigger.NewManager(reg, bus, logger, defaultPoll, func(task config.Task, data map[string]any) {
		if !guard.TryBegin(task.Name) {
			logger.Printf("WARNING: task %q: previous run still in flight, skipping trigger fire", task.Name)
			return
		}
		defer guard.End(task.Name)
		_ = exec.Run(ctx, task, data, "trigger")
	})

	sched.Start(ctx)
	if err := mgr.Start(ctx, cfg.TriggerTasks()); err != nil {
		sched.Stop(shutdownTimeout)
		closeAll()
		return err
	}

	logger.Printf("briefd %s up (%d tasks)", version, len(cfg.Tasks))

	<-ctx.Done()
	logger.Printf("shutdown signal received")

	sched.Stop(shutdownTimeout)
	mgr.Stop(shutdownTimeout)
	closeAll()
	logger.Printf("shutdown complete")
	return nil
}

// printSummary lists every task with its driver. Schedule fields that the
// loader leaves to the scheduler (cron expressions, durations, instants)
// are parsed here so -validate catches them before a deploy does.
func printSummary(w io.Writer, cfg *config.Config, now time.Time) error {
	fmt.Fprintf(w, "config OK: %d tasks (%d scheduled, %d triggered)\n",
		len(cfg.Tasks), len(cfg.ScheduledTasks()), len(cfg.TriggerTasks()))

	for _, t := range cfg.Tasks {
		switch {
		case t.Schedule != nil && t.Schedule.Cron != "":
			expr, err := schedule.ParseCron(t.Schedule.Cron)
			if err != nil {
				return fmt.Errorf("task %q: %w", t.Name, err)
			}
			next := expr.NextAfter(now)
			if next.IsZero() {
				fmt.Fprintf(w, "  %s: cron %q, no run in the next year\n", t.Name, t.Schedule.Cron)
			} else {
				fmt.Fprintf(w, "  %s: cron %q, next run %s\n", t.Name, t.Schedule.Cron, next.Format("2006-01-02 15:04"))
			}
		case t.Schedule != nil && t.Schedule.Every != "":
			d, err := t.Schedule.Interval()
			if err != nil || d <= 0 {
				return fmt.Errorf("task %q: every %q is not a positive duration", t.Name, t.Schedule.Every)
			}
			fmt.Fprintf(w, "  %s: every %s\n", t.Name, d)
		case t.Schedule != nil:
			at, err := t.Schedule.RunAt()
			if err != nil {
				return fmt.Errorf("task %q: at %q is not an RFC3339 time", t.Name, t.Schedule.At)
			}
			fmt.Fprintf(w, "  %s: once at %s\n", t.Name, at.Format(time.RFC3339))
		case t.Trigger != nil:
			typeName := t.Trigger.Type
			if typeName == "" {
				typeName = capability.PackName(t.Pack, capability.KindTrigger)
			}
			fmt.Fprintf(w, "  %s: trigger %s\n", t.Name, typeName)
		}
	}
	return nil
}

// writeExampleConfig writes a starter config, refusing to clobber an
// existing file.
func writeExampleConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists, refusing to overwrite", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return config.Save(config.Example(), path)
}
