package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dkrasnov/reminderbot/internal/bot"
	"github.com/dkrasnov/reminderbot/internal/config"
	"github.com/dkrasnov/reminderbot/internal/health"
	"github.com/dkrasnov/reminderbot/internal/proc"
	"github.com/dkrasnov/reminderbot/internal/scheduler"
	"github.com/dkrasnov/reminderbot/internal/store"
	"github.com/dkrasnov/reminderbot/internal/timeparse"
)

const envFile = ".env"

func main() {
	fmt.Println("ReminderBot: Telegram напоминалка")

	// 1. Configuration. Missing .env or a placeholder token exits with
	// status 1 before anything is touched.
	cfg, err := config.Load(envFile)
	if err != nil {
		if errors.Is(err, config.ErrEnvFileMissing) || errors.Is(err, config.ErrTokenPlaceholder) {
			fmt.Fprintf(os.Stderr, "⛔ %v\n", err)
			os.Exit(1)
		}
		log.Fatalf("Fatal: %v", err)
	}

	// 2. Storage
	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Fatal: %v", err)
	}
	defer db.Close()

	parser, err := timeparse.New(cfg.Timezone)
	if err != nil {
		log.Fatalf("Fatal: %v", err)
	}

	// 3. Bot + scheduler
	b, err := bot.New(bot.Config{
		Token:               cfg.BotToken,
		MaxRemindersPerUser: cfg.MaxRemindersPerUser,
	}, db, parser)
	if err != nil {
		log.Fatalf("Bot init failed: %v", err)
	}

	sched := scheduler.New(db, b)
	b.AttachScheduler(sched)
	sched.Start(time.Duration(cfg.CleanupIntervalHrs) * time.Hour)

	if _, err := sched.LoadPending(); err != nil {
		log.Printf("⚠ Loading pending reminders failed: %v", err)
	}

	// 4. PID file: reminderctl owns the lifecycle through it.
	if err := proc.WritePIDFile(cfg.PIDFile); err != nil {
		log.Fatalf("Cannot write pid file: %v", err)
	}
	defer proc.RemovePIDFile(cfg.PIDFile)

	// 5. Health endpoint for reminderctl and the container HEALTHCHECK.
	hs := health.NewServer(cfg.HealthAddr, checker{db: db, sched: sched})
	go func() {
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("⚠ Health server: %v", err)
		}
	}()

	// 6. Shutdown on SIGINT/SIGTERM
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sig
		log.Printf("👋 Got %s, shutting down...", s)
		b.Stop()
	}()

	log.Println("🚀 Bot online. Listening...")
	b.Start()

	sched.Stop()
	hs.Close()
}

type checker struct {
	db    *store.DB
	sched *scheduler.Scheduler
}

func (c checker) DBHealthy() bool        { return c.db.Healthy() }
func (c checker) SchedulerRunning() bool { return c.sched.Running() }
func (c checker) Jobs() int              { return c.sched.Jobs() }
