// Package scheduler fires reminders at their scheduled time. One timer per
// pending reminder, replaced on reschedule, cancelled on delete.
package scheduler

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dkrasnov/reminderbot/internal/store"
)

// MisfireGrace is how late a reminder may fire and still be delivered.
// Anything older found at boot is marked missed instead.
const MisfireGrace = 5 * time.Minute

const logRetention = 30 * 24 * time.Hour

// Notifier delivers a due reminder to the user. The bot implements it; tests
// substitute a fake.
type Notifier interface {
	Notify(r *store.Reminder) error
}

// Stats are the lifetime counters exposed by /stats and /healthz.
type Stats struct {
	Scheduled int64
	Executed  int64
	Errors    int64
	Missed    int64
}

type Scheduler struct {
	db       *store.DB
	notifier Notifier

	mu      sync.Mutex
	timers  map[int64]*time.Timer
	running bool
	done    chan struct{}

	scheduled atomic.Int64
	executed  atomic.Int64
	errors    atomic.Int64
	missed    atomic.Int64
}

func New(db *store.DB, notifier Notifier) *Scheduler {
	return &Scheduler{
		db:       db,
		notifier: notifier,
		timers:   make(map[int64]*time.Timer),
	}
}

// Start marks the scheduler running and launches the periodic log cleanup.
func (s *Scheduler) Start(cleanupInterval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.done = make(chan struct{})

	go s.cleanupLoop(cleanupInterval, s.done)
	log.Println("✅ Scheduler started")
}

// Stop cancels every pending timer. Deliveries already in flight finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	close(s.done)

	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	log.Println("✅ Scheduler stopped")
}

// Running reports whether Start has been called and Stop has not.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Jobs returns the number of pending timers.
func (s *Scheduler) Jobs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Snapshot returns the current counters.
func (s *Scheduler) Snapshot() Stats {
	return Stats{
		Scheduled: s.scheduled.Load(),
		Executed:  s.executed.Load(),
		Errors:    s.errors.Load(),
		Missed:    s.missed.Load(),
	}
}

// Schedule arms (or re-arms) the delivery timer for a reminder. A past time
// within the misfire grace fires immediately.
func (s *Scheduler) Schedule(id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return errors.New("scheduler is not running")
	}

	if old, ok := s.timers[id]; ok {
		old.Stop()
	}

	delay := time.Until(at)
	if delay < 0 {
		delay = 0
	}
	s.timers[id] = time.AfterFunc(delay, func() { s.fire(id) })
	s.scheduled.Add(1)
	log.Printf("📅 Scheduled reminder %d for %s", id, at.Format(time.RFC3339))
	return nil
}

// Cancel drops the timer for a reminder. Returns false if none was armed.
func (s *Scheduler) Cancel(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.timers[id]
	if !ok {
		return false
	}
	t.Stop()
	delete(s.timers, id)
	log.Printf("❌ Cancelled reminder %d", id)
	return true
}

// LoadPending schedules every unsent reminder from the database. Overdue ones
// within MisfireGrace are delivered right away; older ones are marked missed.
// Returns how many were scheduled.
func (s *Scheduler) LoadPending() (int, error) {
	pending, err := s.db.PendingReminders()
	if err != nil {
		return 0, fmt.Errorf("load pending reminders: %w", err)
	}

	now := time.Now()
	count := 0
	for _, r := range pending {
		switch {
		case r.ScheduledTime.After(now):
			if err := s.Schedule(r.ID, r.ScheduledTime); err != nil {
				return count, err
			}
			count++
		case now.Sub(r.ScheduledTime) <= MisfireGrace:
			// late but within grace: deliver now
			if err := s.Schedule(r.ID, now); err != nil {
				return count, err
			}
			count++
		default:
			log.Printf("⚠ Reminder %d is overdue, marking as missed", r.ID)
			s.markMissed(&r)
		}
	}

	log.Printf("📥 Loaded %d pending reminders", count)
	return count, nil
}

func (s *Scheduler) fire(id int64) {
	s.mu.Lock()
	delete(s.timers, id)
	s.mu.Unlock()

	r, err := s.db.ReminderByID(id)
	if err != nil {
		log.Printf("⚠ Reminder %d vanished before delivery: %v", id, err)
		return
	}
	if r.IsSent {
		log.Printf("⚠ Reminder %d already sent", id)
		return
	}

	if err := s.notifier.Notify(r); err != nil {
		s.errors.Add(1)
		log.Printf("❌ Failed to deliver reminder %d: %v", id, err)
		s.db.Log("ERROR", "scheduler",
			fmt.Sprintf("failed to deliver reminder: %v", err), r.UserID, r.ID)
		return
	}

	if err := s.db.MarkSent(id, time.Now()); err != nil {
		log.Printf("⚠ Cannot mark reminder %d sent: %v", id, err)
	}
	s.executed.Add(1)
	s.db.Log("INFO", "scheduler", "reminder sent", r.UserID, r.ID)
	log.Printf("✅ Sent reminder %d to user %d", id, r.UserID)
}

func (s *Scheduler) markMissed(r *store.Reminder) {
	s.missed.Add(1)
	s.db.Log("WARNING", "scheduler", "reminder missed (overdue)", r.UserID, r.ID)
}

func (s *Scheduler) cleanupLoop(interval time.Duration, done chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			n, err := s.db.CleanupLogs(logRetention)
			if err != nil {
				log.Printf("❌ Log cleanup failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("🧹 Cleaned up %d old log entries", n)
			}
		}
	}
}
