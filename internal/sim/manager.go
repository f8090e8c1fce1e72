package sim

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/HendryAvila/discovery-sim/internal/journal"
	"github.com/HendryAvila/discovery-sim/internal/logging"
	"github.com/HendryAvila/discovery-sim/internal/scenario"
)

// ErrNoJournal is returned by history operations when no journal is attached.
var ErrNoJournal = errors.New("command journal is disabled")

// timeNow is a package-level var to allow test injection.
var timeNow = time.Now

// MaxSeed bounds generated seeds so they survive a JSON number round trip.
const MaxSeed = 1<<53 - 1

// Journal is the persistence the manager records commands into.
// *journal.Store satisfies it.
type Journal interface {
	CreateSession(id string, seed int64) error
	Append(sessionID, kind string, payload any) (journal.Event, error)
	Session(id string) (journal.SessionInfo, error)
	Sessions(limit int) ([]journal.SessionInfo, error)
	Events(sessionID string) ([]journal.Event, error)
}

// Manager owns every live session, keyed by session ID.
type Manager struct {
	scn  *scenario.Scenario
	opts Options
	log  *logging.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
	journal  Journal
	baseSeed int64
	started  int64
	newID    func() string
}

// NewManager creates a manager over scn. A nil logger discards output.
func NewManager(scn *scenario.Scenario, opts Options, log *logging.Logger) *Manager {
	if log == nil {
		log = logging.Nop()
	}
	return &Manager{
		scn:      scn,
		opts:     opts,
		log:      log,
		sessions: make(map[string]*Session),
		newID:    uuid.NewString,
	}
}

// SetJournal attaches the command journal. Passing nil detaches it.
// Sessions started before the call are not journaled.
func (m *Manager) SetJournal(j Journal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.journal = j
}

// SetBaseSeed makes unseeded sessions deterministic: the n-th unseeded
// session gets base+n. Zero derives seeds from the clock.
func (m *Manager) SetBaseSeed(base int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baseSeed = base
}

// Scenario returns the shared catalog.
func (m *Manager) Scenario() *scenario.Scenario { return m.scn }

// Start creates a session. A nil seed picks one.
func (m *Manager) Start(seed *int64) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var sd int64
	switch {
	case seed != nil:
		sd = *seed
	case m.baseSeed != 0:
		sd = (m.baseSeed + m.started) & MaxSeed
	default:
		sd = timeNow().UnixNano() & MaxSeed
	}
	m.started++

	id := m.newID()
	var rec recorder
	if j := m.journal; j != nil {
		if err := j.CreateSession(id, sd); err != nil {
			m.log.Warn("journal unavailable for session", "session", id, "err", err)
		} else {
			rec = m.recorderFor(j, id)
		}
	}

	s := newSession(id, sd, m.scn, m.opts, rec, m.log)
	m.sessions[id] = s
	m.log.Info("session started", "session", id, "seed", sd)
	return s, nil
}

// recorderFor journals commands of session id. Failures are logged and the
// simulation carries on.
func (m *Manager) recorderFor(j Journal, id string) recorder {
	log := m.log.With("session", id)
	return func(kind string, payload any) {
		if _, err := j.Append(id, kind, payload); err != nil {
			log.Warn("journal append failed", "kind", kind, "err", err)
			return
		}
		log.Debug("command", "kind", kind)
	}
}

// Get returns a live session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	return s, nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// ─── History ────────────────────────────────────────────────────────────────

// History returns the journaled commands of session id.
func (m *Manager) History(id string) (journal.SessionInfo, []journal.Event, error) {
	j := m.currentJournal()
	if j == nil {
		return journal.SessionInfo{}, nil, ErrNoJournal
	}
	info, err := j.Session(id)
	if err != nil {
		if errors.Is(err, journal.ErrSessionNotFound) {
			return journal.SessionInfo{}, nil, fmt.Errorf("%w: %s", ErrUnknownSession, id)
		}
		return journal.SessionInfo{}, nil, err
	}
	events, err := j.Events(id)
	if err != nil {
		return journal.SessionInfo{}, nil, err
	}
	return info, events, nil
}

// Recent lists journaled sessions, newest first.
func (m *Manager) Recent(limit int) ([]journal.SessionInfo, error) {
	j := m.currentJournal()
	if j == nil {
		return nil, ErrNoJournal
	}
	return j.Sessions(limit)
}

// Replay rebuilds session id from the journal. The rebuilt session is
// detached: it is neither registered nor journaled.
func (m *Manager) Replay(id string) (*Session, error) {
	info, events, err := m.History(id)
	if err != nil {
		return nil, err
	}
	return Replay(info.ID, info.Seed, m.scn, m.opts, events)
}

func (m *Manager) currentJournal() Journal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.journal
}
