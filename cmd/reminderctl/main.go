// reminderctl controls a running bot through its PID file and health
// endpoint: start, stop, restart, status, health.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dkrasnov/reminderbot/internal/config"
	"github.com/dkrasnov/reminderbot/internal/health"
	"github.com/dkrasnov/reminderbot/internal/proc"
)

var (
	botBin      string
	startupWait time.Duration
	stopWait    time.Duration
)

func main() {
	root := &cobra.Command{
		Use:           "reminderctl",
		Short:         "Manage the reminder bot process",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&botBin, "bin", "reminderbot", "path to the bot binary")
	root.PersistentFlags().DurationVar(&startupWait, "startup-wait", 5*time.Second, "how long start waits for the bot to come up")
	root.PersistentFlags().DurationVar(&stopWait, "stop-wait", 10*time.Second, "how long stop waits for the bot to exit")

	root.AddCommand(startCmd(), stopCmd(), restartCmd(), statusCmd(), healthCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "⛔ %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads .env if present; reminderctl works with env defaults when
// the file is absent (only the bot itself insists on it).
func loadConfig() (*config.Config, error) {
	godotenv.Load(".env")
	return config.FromEnv()
}

func startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Launch the bot detached, logging to LOG_FILE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return start(cfg)
		},
	}
}

func start(cfg *config.Config) error {
	pid, err := proc.StartDetached(cfg.PIDFile, cfg.LogFile, botBin)
	if err != nil {
		if errors.Is(err, proc.ErrAlreadyRunning) {
			running, _ := proc.Running(cfg.PIDFile)
			return fmt.Errorf("bot already running (pid %d)", running)
		}
		return err
	}
	fmt.Printf("Started %s (pid %d), waiting for it to settle...\n", botBin, pid)

	// The child re-writes the PID file itself; a crash during boot (bad
	// token, locked DB) leaves it dead and we report failure.
	livePid, err := proc.WaitStarted(cfg.PIDFile, startupWait)
	if err != nil {
		return fmt.Errorf("bot did not start, check %s: %w", cfg.LogFile, err)
	}
	fmt.Printf("✅ Bot is running (pid %d), logs in %s\n", livePid, cfg.LogFile)
	return nil
}

func stopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return stop(cfg)
		},
	}
}

func stop(cfg *config.Config) error {
	if err := proc.Stop(cfg.PIDFile, stopWait); err != nil {
		if errors.Is(err, proc.ErrNotRunning) {
			fmt.Println("Bot is not running.")
			return nil
		}
		return err
	}
	fmt.Println("✅ Bot stopped.")
	return nil
}

func restartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Stop the bot if running, then start it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := stop(cfg); err != nil {
				return err
			}
			return start(cfg)
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether the bot is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			pid, ok := proc.Running(cfg.PIDFile)
			if !ok {
				if pid != 0 {
					fmt.Printf("Not running (stale pid file, pid %d is dead).\n", pid)
				} else {
					fmt.Println("Not running.")
				}
				return errors.New("bot is not running")
			}
			fmt.Printf("✅ Running (pid %d).\n", pid)
			return nil
		},
	}
}

func healthCmd() *cobra.Command {
	var url string
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Probe the health endpoint; exits non-zero when unhealthy",
		RunE: func(cmd *cobra.Command, args []string) error {
			if url == "" {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				url = healthURL(cfg.HealthAddr)
			}
			st, err := health.NewClient(url).Check()
			if err != nil {
				return err
			}
			fmt.Printf("✅ %s (db_ok=%t scheduler=%t jobs=%d)\n",
				st.Status, st.DBOk, st.Scheduler, st.Jobs)
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "health endpoint base URL (default from HEALTH_ADDR)")
	return cmd
}

// healthURL turns a listen address like ":8080" into a probe URL.
func healthURL(addr string) string {
	if addr == "" {
		return "http://localhost:8080"
	}
	if addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}
