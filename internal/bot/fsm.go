package bot

import (
	"sync"
	"time"
)

// The create-reminder dialog is a small per-chat state machine:
// idle → awaiting text → awaiting time → awaiting confirm → idle.
type dialogState int

const (
	stateIdle dialogState = iota
	stateAwaitText
	stateAwaitTime
	stateAwaitConfirm
)

type session struct {
	state    dialogState
	text     string
	at       time.Time
	original string // raw time input, kept for the preview and the DB row
}

// sessions keeps conversation state per chat. Values are copied in and out
// under the lock because telebot runs each update in its own goroutine.
// Memory-only: a restart drops half-finished dialogs, never created reminders.
type sessions struct {
	mu sync.Mutex
	m  map[int64]session
}

func newSessions() *sessions {
	return &sessions{m: make(map[int64]session)}
}

func (s *sessions) get(chatID int64) session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[chatID]
}

func (s *sessions) set(chatID int64, sess session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[chatID] = sess
}

// clear resets the chat to idle.
func (s *sessions) clear(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, chatID)
}
