package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/gofiber/fiber/v2/log"
)

// ErrRunActive is returned when a user tries to start a second pipeline run
// while one is still in flight.
var ErrRunActive = errors.New("a conversion is already running for this account")

// ErrNoActiveRun is returned when there is nothing to cancel.
var ErrNoActiveRun = errors.New("no active conversion to cancel")

type activeRun struct {
	sess   *Session
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager tracks at most one active pipeline run per user and owns the
// cancellation handles. Sessions outlive their runs so results stay pollable
// until the user starts a new run or resets.
type Manager struct {
	runner     Runner
	onComplete func(*Session)

	mu       sync.Mutex
	active   map[uint]*activeRun
	sessions map[uint]*Session
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// NewManager creates a run manager around a runner.
func NewManager(r Runner) *Manager {
	return &Manager{
		runner:   r,
		active:   make(map[uint]*activeRun),
		sessions: make(map[uint]*Session),
	}
}

// WithOnComplete registers a hook invoked after a run reaches StageComplete,
// e.g. to queue artifact backups.
func (m *Manager) WithOnComplete(fn func(*Session)) *Manager {
	m.onComplete = fn
	return m
}

// SetGlobalManager installs the process-wide manager used by the web layer.
func SetGlobalManager(m *Manager) {
	managerOnce.Do(func() {
		globalManager = m
	})
}

// GetManager returns the process-wide manager, or nil before setup.
func GetManager() *Manager {
	return globalManager
}

// Start launches a pipeline run for the user's selected video. The previous
// session, if any, is discarded; only one run per user may be active.
func (m *Manager) Start(userID uint, sourceVideo string, opts Options) (*Session, error) {
	m.mu.Lock()
	if _, busy := m.active[userID]; busy {
		m.mu.Unlock()
		return nil, ErrRunActive
	}

	sess := NewSession(userID, sourceVideo)
	ctx, cancel := context.WithCancel(context.Background())
	run := &activeRun{sess: sess, cancel: cancel, done: make(chan struct{})}
	m.active[userID] = run
	m.sessions[userID] = sess
	m.mu.Unlock()

	log.Infof("[Pipeline] Starting run %s for user %d (transcribe=%v article=%v)",
		sess.ID, userID, opts.Transcribe, opts.WriteArticle)

	go func() {
		defer close(run.done)
		defer cancel()
		m.runner.Run(ctx, sess, opts)

		m.mu.Lock()
		if m.active[userID] == run {
			delete(m.active, userID)
		}
		m.mu.Unlock()
		log.Infof("[Pipeline] Run %s for user %d finished in stage %s", sess.ID, userID, sess.Stage())

		if m.onComplete != nil && sess.Stage() == StageComplete {
			m.onComplete(sess)
		}
	}()

	return sess, nil
}

// Cancel stops the user's active run, if any, and waits for the pipeline to
// acknowledge the stop so callers observe the terminal state.
func (m *Manager) Cancel(userID uint) error {
	m.mu.Lock()
	run, ok := m.active[userID]
	m.mu.Unlock()
	if !ok {
		return ErrNoActiveRun
	}

	log.Infof("[Pipeline] Cancelling run %s for user %d", run.sess.ID, userID)
	run.cancel()
	<-run.done
	return nil
}

// Session returns the user's most recent session, active or finished.
func (m *Manager) Session(userID uint) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[userID]
}

// Reset drops the user's session and its artifacts. An active run is
// cancelled first.
func (m *Manager) Reset(userID uint) {
	if err := m.Cancel(userID); err != nil && !errors.Is(err, ErrNoActiveRun) {
		log.Warnf("[Pipeline] Reset cancel for user %d: %v", userID, err)
	}
	m.mu.Lock()
	delete(m.sessions, userID)
	m.mu.Unlock()
}
