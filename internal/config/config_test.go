package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeEnv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_MissingFile(t *testing.T) {
	os.Clearenv()
	_, err := Load(filepath.Join(t.TempDir(), ".env"))
	if !errors.Is(err, ErrEnvFileMissing) {
		t.Fatalf("expected ErrEnvFileMissing, got %v", err)
	}
}

func TestLoad_PlaceholderToken(t *testing.T) {
	os.Clearenv()
	path := writeEnv(t, "BOT_TOKEN=YOUR_BOT_TOKEN_HERE\n")
	_, err := Load(path)
	if !errors.Is(err, ErrTokenPlaceholder) {
		t.Fatalf("expected ErrTokenPlaceholder, got %v", err)
	}
}

func TestLoad_EmptyToken(t *testing.T) {
	os.Clearenv()
	path := writeEnv(t, "DATABASE_PATH=x.db\n")
	_, err := Load(path)
	if !errors.Is(err, ErrTokenPlaceholder) {
		t.Fatalf("expected ErrTokenPlaceholder, got %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	path := writeEnv(t, "BOT_TOKEN=123456:real-token\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.DatabasePath != "reminders.db" {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}
	if cfg.LogFile != "bot.log" {
		t.Errorf("LogFile = %q", cfg.LogFile)
	}
	if cfg.PIDFile != "reminderbot.pid" {
		t.Errorf("PIDFile = %q", cfg.PIDFile)
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("Timezone = %q", cfg.Timezone)
	}
	if cfg.HealthAddr != ":8080" {
		t.Errorf("HealthAddr = %q", cfg.HealthAddr)
	}
	if cfg.MaxRemindersPerUser != 100 {
		t.Errorf("MaxRemindersPerUser = %d", cfg.MaxRemindersPerUser)
	}
	if cfg.CleanupIntervalHrs != 24 {
		t.Errorf("CleanupIntervalHrs = %d", cfg.CleanupIntervalHrs)
	}
}

func TestLoad_Overrides(t *testing.T) {
	os.Clearenv()
	path := writeEnv(t,
		"BOT_TOKEN=123456:real-token\n"+
			"DATABASE_PATH=/tmp/r.db\n"+
			"TIMEZONE=Europe/Moscow\n"+
			"MAX_REMINDERS_PER_USER=5\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.DatabasePath != "/tmp/r.db" {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}
	if cfg.Timezone != "Europe/Moscow" {
		t.Errorf("Timezone = %q", cfg.Timezone)
	}
	if cfg.MaxRemindersPerUser != 5 {
		t.Errorf("MaxRemindersPerUser = %d", cfg.MaxRemindersPerUser)
	}
}

func TestFromEnv_NoTokenNeeded(t *testing.T) {
	os.Clearenv()
	os.Setenv("PID_FILE", "/tmp/x.pid")
	defer os.Clearenv()

	cfg, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.PIDFile != "/tmp/x.pid" {
		t.Errorf("PIDFile = %q", cfg.PIDFile)
	}
}
