package dispatch

import (
	"sort"
	"sync"
	"time"
)

// Metrics collects dispatch statistics. All methods are safe for concurrent
// use; the unexported recorders also tolerate a nil receiver so the
// resolver can call them unconditionally.
type Metrics struct {
	mu sync.RWMutex

	// Global counters.
	cycles        uint64
	matches       uint64
	parseFailures uint64
	handlerErrors uint64
	fallbacks     uint64

	// Per-command statistics keyed by normalized syntax.
	commandStats map[string]*CommandMetrics
}

// CommandMetrics holds statistics for one command.
type CommandMetrics struct {
	Syntax        string
	MatchCount    uint64
	FailureCount  uint64
	TotalDuration time.Duration
	MinDuration   time.Duration
	MaxDuration   time.Duration
	LastMatch     time.Time
}

// AverageDuration returns the average successful-match duration.
func (cm *CommandMetrics) AverageDuration() time.Duration {
	if cm.MatchCount == 0 {
		return 0
	}
	return cm.TotalDuration / time.Duration(cm.MatchCount)
}

// NewMetrics creates a metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{commandStats: make(map[string]*CommandMetrics)}
}

func (m *Metrics) recordCycle() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cycles++
}

func (m *Metrics) recordMatch(grammar string, duration time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.matches++

	cm := m.commandStats[grammar]
	if cm == nil {
		cm = &CommandMetrics{
			Syntax:      grammar,
			MinDuration: duration,
			MaxDuration: duration,
		}
		m.commandStats[grammar] = cm
	}
	cm.MatchCount++
	cm.TotalDuration += duration
	cm.LastMatch = time.Now()
	if duration < cm.MinDuration {
		cm.MinDuration = duration
	}
	if duration > cm.MaxDuration {
		cm.MaxDuration = duration
	}
}

func (m *Metrics) recordParseFailure(grammar string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.parseFailures++
	cm := m.commandStats[grammar]
	if cm == nil {
		cm = &CommandMetrics{Syntax: grammar}
		m.commandStats[grammar] = cm
	}
	cm.FailureCount++
}

func (m *Metrics) recordHandlerError(grammar string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.handlerErrors++
	cm := m.commandStats[grammar]
	if cm == nil {
		cm = &CommandMetrics{Syntax: grammar}
		m.commandStats[grammar] = cm
	}
	cm.FailureCount++
}

func (m *Metrics) recordFallback() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbacks++
}

// Cycles returns the number of dispatch cycles, help fallbacks included.
func (m *Metrics) Cycles() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cycles
}

// Matches returns the number of cycles that ran a handler successfully.
func (m *Metrics) Matches() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.matches
}

// ParseFailures returns the number of candidate attempts that ended in a
// parse error.
func (m *Metrics) ParseFailures() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.parseFailures
}

// Fallbacks returns the number of automatic help lookups.
func (m *Metrics) Fallbacks() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fallbacks
}

// CommandStats returns a copy of the statistics for a command, or nil.
func (m *Metrics) CommandStats(grammar string) *CommandMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cm := m.commandStats[grammar]
	if cm == nil {
		return nil
	}
	out := *cm
	return &out
}

// TopCommands returns the n most matched commands, descending.
func (m *Metrics) TopCommands(n int) []*CommandMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := make([]*CommandMetrics, 0, len(m.commandStats))
	for _, cm := range m.commandStats {
		out := *cm
		stats = append(stats, &out)
	}
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].MatchCount > stats[j].MatchCount
	})
	if n > len(stats) {
		n = len(stats)
	}
	return stats[:n]
}

// Snapshot is a point-in-time copy of the global counters.
type Snapshot struct {
	Cycles        uint64
	Matches       uint64
	ParseFailures uint64
	HandlerErrors uint64
	Fallbacks     uint64
	Timestamp     time.Time
}

// Snapshot returns the current global counters.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		Cycles:        m.cycles,
		Matches:       m.matches,
		ParseFailures: m.parseFailures,
		HandlerErrors: m.handlerErrors,
		Fallbacks:     m.fallbacks,
		Timestamp:     time.Now(),
	}
}

// Reset clears all statistics.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cycles = 0
	m.matches = 0
	m.parseFailures = 0
	m.handlerErrors = 0
	m.fallbacks = 0
	m.commandStats = make(map[string]*CommandMetrics)
}
