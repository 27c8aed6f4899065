package game

import (
	"sync/atomic"
	"time"
)

// Metrics counts arena activity. Written by the Run goroutine, read by HTTP handlers.
type Metrics struct {
	tickCount        atomic.Int64
	totalTickNs      atomic.Int64
	sendsDropped     atomic.Int64
	commandsRejected atomic.Int64
	malformed        atomic.Int64
	arrowsFired      atomic.Int64
	hits             atomic.Int64
	matchesStarted   atomic.Int64
	matchesFinished  atomic.Int64
}

func (m *Metrics) AddTick(d time.Duration) {
	m.tickCount.Add(1)
	m.totalTickNs.Add(d.Nanoseconds())
}

func (m *Metrics) IncDropped() { m.sendsDropped.Add(1) }
func (m *Metrics) IncRejected() { m.commandsRejected.Add(1) }
func (m *Metrics) IncMalformed() { m.malformed.Add(1) }
func (m *Metrics) IncArrowsFired() { m.arrowsFired.Add(1) }
func (m *Metrics) IncHits() { m.hits.Add(1) }
func (m *Metrics) IncMatchesStarted() { m.matchesStarted.Add(1) }
func (m *Metrics) IncMatchesFinished() { m.matchesFinished.Add(1) }

func (m *Metrics) Snapshot() map[string]any {
	ticks := m.tickCount.Load()
	var avgMs float64
	if ticks > 0 {
		avgMs = float64(m.totalTickNs.Load()) / float64(ticks) / 1e6
	}
	return map[string]any{
		"tick_count":        ticks,
		"avg_tick_ms":       avgMs,
		"sends_dropped":     m.sendsDropped.Load(),
		"commands_rejected": m.commandsRejected.Load(),
		"malformed":         m.malformed.Load(),
		"arrows_fired":      m.arrowsFired.Load(),
		"hits":              m.hits.Load(),
		"matches_started":   m.matchesStarted.Load(),
		"matches_finished":  m.matchesFinished.Load(),
	}
}
