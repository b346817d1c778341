package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"GradeSentinel/internal/collector"
	"GradeSentinel/internal/config"
	"GradeSentinel/internal/model"
	"GradeSentinel/internal/notifier"
	"GradeSentinel/internal/scheduler"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:           "sentinel",
		Short:         "Watch Moodle grades and notify on changes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", defaultConfigPath(), "config file (env CONFIG_PATH)")

	root.AddCommand(newRunCmd(&cfgPath))
	root.AddCommand(newCheckCmd(&cfgPath))
	root.AddCommand(newGradesCmd(&cfgPath))
	root.AddCommand(newHistoryCmd(&cfgPath))
	root.AddCommand(newTokenCmd(&cfgPath))
	return root
}

func defaultConfigPath() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "configs/config.yaml"
}

func loadConfig(path string, validate bool) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if validate {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("config validation: %w", err)
		}
	}
	return cfg, nil
}

func newRunCmd(cfgPath *string) *cobra.Command {
	var now bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run scheduled grade checks until interrupted",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*cfgPath, true)
			if err != nil {
				return err
			}
			log.Println("[INFO] GradeSentinel starting...")

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			// Context for graceful shutdown
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sched := scheduler.NewScheduler(ctx, a.Checker)
			if err := sched.Register(cfg.Schedule.CheckCron); err != nil {
				return err
			}
			sched.Start()

			if cfg.HasSink(config.SinkTelegram) {
				go a.Telegram.StartPolling(ctx, sched.HandleCommand)
				log.Println("[INFO] Telegram polling started")
			}

			if now || os.Getenv("RUN_ON_START") == "true" {
				log.Println("[INFO] running a grade check now")
				go func() {
					if _, err := sched.TriggerCheck(ctx, model.TriggerStartup); err != nil {
						log.Printf("[ERROR] startup check: %v", err)
					}
				}()
			}

			log.Printf("[INFO] GradeSentinel is running (%s). Press Ctrl+C to stop.", cfg.Schedule.CheckCron)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh

			log.Println("[INFO] shutdown signal received, stopping...")
			// let an in-flight cycle finish before its context goes away
			sched.Stop()
			cancel()
			return nil
		},
	}
	cmd.Flags().BoolVar(&now, "now", false, "run one check immediately (env RUN_ON_START=true)")
	return cmd
}

func newCheckCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run one grade check and print the result",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*cfgPath, true)
			if err != nil {
				return err
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Checker.Run(cmd.Context(), model.TriggerManual)
			if err != nil {
				if collector.IsAuth(err) {
					return fmt.Errorf("%w (check moodle.token)", err)
				}
				return err
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), notifier.FormatCycleReport(res))
			return nil
		},
	}
}

func newGradesCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "grades",
		Short: "Print the last saved grades",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*cfgPath, false)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), newReader(cfg).CurrentGrades())
			return nil
		},
	}
}

func newHistoryCmd(cfgPath *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print recently recorded grade events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*cfgPath, false)
			if err != nil {
				return err
			}
			rec, err := openRecorder(cfg)
			if err != nil {
				return err
			}
			defer rec.Close()

			c := newReader(cfg)
			c.Recorder = rec
			text, err := c.RecentHistory(limit)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), text)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of events to show")
	return cmd
}

func newTokenCmd(cfgPath *string) *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Exchange Moodle credentials for a web service token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*cfgPath, false)
			if err != nil {
				return err
			}
			if cfg.Moodle.BaseURL == "" {
				return errors.New("moodle.base_url is required")
			}
			password := os.Getenv("MOODLE_PASSWORD")
			if username == "" || password == "" {
				return errors.New("--username and MOODLE_PASSWORD are required")
			}
			client := collector.NewMoodleClient(cfg.Moodle.BaseURL, "", cfg.Moodle.Service, cfg.Timeout(), cfg.Proxy)
			token, err := client.RequestToken(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "Moodle username")
	return cmd
}
