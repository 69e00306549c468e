package notify

import (
	"sync"
	"time"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Toast is one transient user-visible message. ExpiresAt is when the UI
// should auto-dismiss it.
type Toast struct {
	Level     Level
	Message   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Notifier is the notification surface handed to components that need to
// tell the user something. Passed explicitly, never looked up ambiently.
type Notifier interface {
	Success(msg string)
	Error(msg string)
	Info(msg string)
}

const defaultTTL = 4 * time.Second

// Service is a bounded toast queue with a single subscriber channel.
// When nobody is listening, toasts are dropped rather than blocking the
// caller.
type Service struct {
	mu     sync.Mutex
	ttl    time.Duration
	out    chan Toast
	now    func() time.Time
	recent []Toast
}

func NewService() *Service {
	return &Service{
		ttl: defaultTTL,
		out: make(chan Toast, 16),
		now: time.Now,
	}
}

func (s *Service) Success(msg string) { s.push(LevelSuccess, msg) }
func (s *Service) Error(msg string)   { s.push(LevelError, msg) }
func (s *Service) Info(msg string)    { s.push(LevelInfo, msg) }

// Toasts is the subscriber channel for the rendering layer.
func (s *Service) Toasts() <-chan Toast {
	return s.out
}

// Recent returns the toasts that have not yet expired.
func (s *Service) Recent() []Toast {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	live := make([]Toast, 0, len(s.recent))
	for _, t := range s.recent {
		if t.ExpiresAt.After(now) {
			live = append(live, t)
		}
	}
	s.recent = live
	out := make([]Toast, len(live))
	copy(out, live)
	return out
}

func (s *Service) push(level Level, msg string) {
	s.mu.Lock()
	now := s.now()
	t := Toast{
		Level:     level,
		Message:   msg,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	s.recent = append(s.recent, t)
	s.mu.Unlock()

	select {
	case s.out <- t:
	default:
		// queue full, drop
	}
}
