package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sawpanic/invforecast/internal/app"
	"github.com/sawpanic/invforecast/internal/scheduler"
)

func newScheduleCmd() *cobra.Command {
	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage the recurring forecast/feedback/audit job loop",
	}

	var configPath string

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the configured jobs and their cron schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadScheduleConfig(configPath)
			if err != nil {
				return err
			}
			for _, job := range cfg.Jobs {
				fmt.Printf("%-24s %-18s %-16s enabled=%v\n", job.Name, job.Schedule, job.Kind, job.Enabled)
			}
			return nil
		},
	}
	listCmd.Flags().StringVar(&configPath, "config", "", "Path to a scheduler YAML config (defaults to the built-in four jobs)")

	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler daemon in the foreground until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScheduleStart(cmd, configPath)
		},
	}
	startCmd.Flags().StringVar(&configPath, "config", "", "Path to a scheduler YAML config (defaults to the built-in four jobs)")

	runCmd := &cobra.Command{
		Use:   "run <job-name>",
		Short: "Execute one configured job immediately",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScheduleRun(cmd, configPath, args[0])
		},
	}
	runCmd.Flags().StringVar(&configPath, "config", "", "Path to a scheduler YAML config (defaults to the built-in four jobs)")

	scheduleCmd.AddCommand(listCmd, startCmd, runCmd)
	return scheduleCmd
}

func loadScheduleConfig(path string) (scheduler.SchedulerConfig, error) {
	if path == "" {
		return scheduler.DefaultConfig(), nil
	}
	return scheduler.LoadConfig(path)
}

// registerHandlers wires each of the four job kinds to the Facade
// operation it drives.
func registerHandlers(s *scheduler.Scheduler, facade *app.Facade) {
	s.RegisterHandler(scheduler.KindForecastDaily, func(ctx context.Context, job scheduler.Job) error {
		horizon := job.Config.HorizonDays
		if horizon <= 0 {
			horizon = 7
		}
		_, err := facade.GenerateForecast(ctx, "", horizon, job.Config.Tenant, job.Config.Location, "scheduler")
		return err
	})
	s.RegisterHandler(scheduler.KindStreamPoll, func(ctx context.Context, job scheduler.Job) error {
		return facade.StartStream(ctx)
	})
	s.RegisterHandler(scheduler.KindHealthAudit, func(ctx context.Context, job scheduler.Job) error {
		_, err := facade.RunHealthAudit(ctx)
		return err
	})
	s.RegisterHandler(scheduler.KindFeedbackApply, func(ctx context.Context, job scheduler.Job) error {
		limit := job.Config.BatchLimit
		if limit <= 0 {
			limit = 100
		}
		_, err := facade.ApplyPendingFeedback(ctx, limit)
		return err
	})
}

func runScheduleStart(cmd *cobra.Command, configPath string) error {
	facade, closer, err := buildFacade(cmd)
	if err != nil {
		return err
	}
	defer closer()

	cfg, err := loadScheduleConfig(configPath)
	if err != nil {
		return err
	}

	s := scheduler.New(cfg)
	registerHandlers(s, facade)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	fmt.Println("scheduler started, press Ctrl-C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := s.Stop(stopCtx); err != nil {
		return fmt.Errorf("stop scheduler: %w", err)
	}
	status := s.GetStatus()
	fmt.Printf("scheduler stopped after %s uptime\n", status.Uptime)
	return nil
}

func runScheduleRun(cmd *cobra.Command, configPath, jobName string) error {
	facade, closer, err := buildFacade(cmd)
	if err != nil {
		return err
	}
	defer closer()

	cfg, err := loadScheduleConfig(configPath)
	if err != nil {
		return err
	}

	s := scheduler.New(cfg)
	registerHandlers(s, facade)

	ctx, cancel := commandContext()
	defer cancel()

	result, err := s.RunJob(ctx, jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}
	fmt.Printf("job %s: success=%v duration=%s\n", result.JobName, result.Success, result.Duration)
	if result.Error != "" {
		fmt.Printf("  error: %s\n", result.Error)
	}
	return nil
}
