package wizard

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"willvault/api/internal/persist"
	"willvault/api/internal/will"
)

type saveJob struct {
	sessionID string
	snapshot  will.Snapshot
	identity  persist.Identity
}

// saver runs snapshot saves one at a time. While a save is in flight only the
// newest request is kept; older pending ones are superseded.
type saver struct {
	save    func(context.Context, saveJob) error
	timeout time.Duration
	logger  *zap.Logger

	mu       sync.Mutex
	pending  *saveJob
	running  bool
	closed   bool
	idle     chan struct{}
	saved    int
	failed   int
	lastErr  error
	lastSave time.Time
}

func newSaver(save func(context.Context, saveJob) error, timeout time.Duration, logger *zap.Logger) *saver {
	idle := make(chan struct{})
	close(idle)
	return &saver{save: save, timeout: timeout, logger: logger, idle: idle}
}

// enqueue never blocks.
func (s *saver) enqueue(job saveJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.pending = &job
	if s.running {
		return
	}
	s.running = true
	s.idle = make(chan struct{})
	go s.loop(s.idle)
}

func (s *saver) loop(idle chan struct{}) {
	for {
		s.mu.Lock()
		job := s.pending
		if job == nil {
			s.running = false
			close(idle)
			s.mu.Unlock()
			return
		}
		s.pending = nil
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		err := s.save(ctx, *job)
		cancel()

		s.mu.Lock()
		if err != nil {
			s.failed++
			s.lastErr = err
		} else {
			s.saved++
			s.lastErr = nil
			s.lastSave = time.Now()
		}
		s.mu.Unlock()

		if err != nil {
			// the next mutation enqueues a fresh snapshot, which is the retry
			s.logger.Warn("session snapshot save failed",
				zap.String("session_id", job.sessionID),
				zap.Int("step", job.snapshot.CurrentStep),
				zap.Error(err),
			)
		}
	}
}

// flush waits until nothing is pending or in flight.
func (s *saver) flush(ctx context.Context) error {
	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// discard drops a pending save without touching one already in flight.
func (s *saver) discard() {
	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()
}

func (s *saver) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// SaveStats summarises the saver for diagnostics.
type SaveStats struct {
	Saved     int       `json:"saved"`
	Failed    int       `json:"failed"`
	LastError string    `json:"lastError,omitempty"`
	LastSave  time.Time `json:"lastSave,omitempty"`
	InFlight  bool      `json:"inFlight"`
}

func (s *saver) lastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *saver) stats() SaveStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := SaveStats{Saved: s.saved, Failed: s.failed, LastSave: s.lastSave, InFlight: s.running}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}
