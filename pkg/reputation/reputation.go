/*
	Copyright (C) TaoStore. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

// Package reputation converts round outcomes into tiers and weighted
// reward values. Windowed counters reset every epoch; the cumulative
// success total never does. The split keeps early high performers from
// coasting on accumulated credit while still gating top tiers behind a
// lifetime track record.
package reputation

import (
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Category is one of the three round kinds.
type Category uint8

const (
	CategoryStore Category = iota
	CategoryChallenge
	CategoryRetrieve
)

func (c Category) String() string {
	switch c {
	case CategoryStore:
		return "store"
	case CategoryChallenge:
		return "challenge"
	case CategoryRetrieve:
		return "retrieve"
	}
	return "unknown"
}

// ErrCorruptedStats marks a stats record whose invariants no longer
// hold. The record is frozen and further outcomes for it rejected;
// other identities keep processing.
var ErrCorruptedStats = errors.New("participant stats corrupted")

// CategoryStats is one windowed attempt/success counter pair.
type CategoryStats struct {
	Attempts  uint64 `json:"attempts"`
	Successes uint64 `json:"successes"`
}

func (s CategoryStats) ratio() (float64, bool) {
	if s.Attempts == 0 {
		return 0, false
	}
	return float64(s.Successes) / float64(s.Attempts), true
}

// Snapshot is the exportable form of one identity's counters, used
// for persistence and the status surface.
type Snapshot struct {
	Store          CategoryStats `json:"store"`
	Challenge      CategoryStats `json:"challenge"`
	Retrieve       CategoryStats `json:"retrieve"`
	TotalSuccesses uint64        `json:"total_successes"`
}

type record struct {
	mu     sync.Mutex
	snap   Snapshot
	frozen bool
}

func (r *record) category(cat Category) *CategoryStats {
	switch cat {
	case CategoryStore:
		return &r.snap.Store
	case CategoryChallenge:
		return &r.snap.Challenge
	case CategoryRetrieve:
		return &r.snap.Retrieve
	}
	return nil
}

// Config tunes the reward computation.
type Config struct {
	// Penalty is the negative base value of a failed round.
	Penalty float64
	// LatencyFloor bounds the latency scaling curve from below.
	LatencyFloor float64
	// Steepness shapes the curve, in 1/seconds.
	Steepness float64
	// Timeouts set the curve midpoint per category (timeout/2).
	Timeouts map[Category]time.Duration
}

func (c Config) withDefaults() Config {
	if c.Penalty >= 0 {
		c.Penalty = -0.05
	}
	if c.LatencyFloor <= 0 || c.LatencyFloor >= 1 {
		c.LatencyFloor = 0.25
	}
	if c.Steepness <= 0 {
		c.Steepness = 0.5
	}
	if c.Timeouts == nil {
		c.Timeouts = map[Category]time.Duration{
			CategoryStore:     10 * time.Second,
			CategoryChallenge: 20 * time.Second,
			CategoryRetrieve:  50 * time.Second,
		}
	}
	return c
}

// Engine owns every ParticipantStats record. Updates are atomic per
// identity and concurrent across identities; RolloverEpoch swaps the
// whole table under the write lock so no outcome lands on a half-reset
// window.
type Engine struct {
	mu    sync.RWMutex
	stats map[string]*record
	tiers []Tier
	cfg   Config
}

func NewEngine(tiers []Tier, cfg Config) (*Engine, error) {
	if len(tiers) == 0 {
		tiers = DefaultTiers()
	}
	err := CheckTiers(tiers)
	if err != nil {
		return nil, err
	}
	return &Engine{
		stats: make(map[string]*record),
		tiers: tiers,
		cfg:   cfg.withDefaults(),
	}, nil
}

func (e *Engine) getOrCreate(identity string) *record {
	e.mu.RLock()
	r, ok := e.stats[identity]
	e.mu.RUnlock()
	if ok {
		return r
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok = e.stats[identity]
	if !ok {
		r = &record{}
		e.stats[identity] = r
	}
	return r
}

// RecordOutcome applies one round outcome to the identity's windowed
// counters and, on success, the cumulative total. The table read lock
// is held across the whole update: RolloverEpoch takes the write
// lock, so an outcome can never land on an orphaned pre-rollover
// record and vanish.
func (e *Engine) RecordOutcome(identity string, cat Category, success bool, latency time.Duration) error {
	e.mu.RLock()
	r, ok := e.stats[identity]
	if !ok {
		e.mu.RUnlock()
		e.getOrCreate(identity)
		e.mu.RLock()
		r = e.stats[identity]
	}
	defer e.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return errors.Wrapf(ErrCorruptedStats, "identity %s", identity)
	}
	cs := r.category(cat)
	if cs == nil {
		return errors.Errorf("unknown category: %d", cat)
	}
	cs.Attempts++
	if success {
		cs.Successes++
		r.snap.TotalSuccesses++
	}
	if err := checkInvariants(&r.snap); err != nil {
		r.frozen = true
		return errors.Wrapf(err, "identity %s", identity)
	}
	return nil
}

func checkInvariants(s *Snapshot) error {
	for _, cs := range []CategoryStats{s.Store, s.Challenge, s.Retrieve} {
		if cs.Successes > cs.Attempts {
			return ErrCorruptedStats
		}
	}
	return nil
}

// CurrentTier returns the highest configured tier whose thresholds the
// identity meets, defaulting to the lowest. A category with no
// windowed attempts is not held against the identity, but a tier with
// a positive rate gate requires some windowed activity, so a fresh
// window never upgrades anyone by itself.
func (e *Engine) CurrentTier(identity string) Tier {
	r := e.getOrCreate(identity)
	r.mu.Lock()
	snap := r.snap
	r.mu.Unlock()
	return e.tierOf(&snap)
}

func (e *Engine) tierOf(s *Snapshot) Tier {
	for i := len(e.tiers) - 1; i >= 1; i-- {
		if meets(s, e.tiers[i]) {
			return e.tiers[i]
		}
	}
	return e.tiers[0]
}

func meets(s *Snapshot, t Tier) bool {
	if s.TotalSuccesses < t.MinTotalSuccesses {
		return false
	}
	if t.MinSuccessRate <= 0 {
		return true
	}
	var active bool
	for _, cs := range []CategoryStats{s.Store, s.Challenge, s.Retrieve} {
		ratio, ok := cs.ratio()
		if !ok {
			continue
		}
		active = true
		if ratio < t.MinSuccessRate {
			return false
		}
	}
	return active
}

// Reward computes the signed reward value for one outcome: +1.0 scaled
// by the latency curve on success, the configured penalty on failure,
// both multiplied by the tier's reward factor. Higher tiers are paid
// more and punished proportionally more for the same failure.
func (e *Engine) Reward(identity string, cat Category, success bool, latency time.Duration) (float64, Tier) {
	tier := e.CurrentTier(identity)
	if !success {
		return e.cfg.Penalty * tier.RewardFactor, tier
	}
	return e.latencyScale(cat, latency) * tier.RewardFactor, tier
}

// latencyScale is a logistic curve in latency, normalized so an
// instant response scores 1.0, decreasing monotonically and
// saturating at the configured floor. Midpoint is half the category
// timeout. The exact parameters are tunable, only monotonicity and
// the bounds are load-bearing.
func (e *Engine) latencyScale(cat Category, latency time.Duration) float64 {
	if latency <= 0 {
		return 1.0
	}
	mid := e.cfg.Timeouts[cat].Seconds() / 2
	raw := sigmoid(e.cfg.Steepness * (mid - latency.Seconds()))
	base := sigmoid(e.cfg.Steepness * mid)
	scale := raw / base
	if scale < e.cfg.LatencyFloor {
		return e.cfg.LatencyFloor
	}
	if scale > 1.0 {
		return 1.0
	}
	return scale
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// RolloverEpoch zeroes every windowed counter while preserving the
// cumulative totals. It is the only operation allowed to reset
// windows. The table is rebuilt under the write lock, so an outcome is
// either fully counted in the old window or fully counted in the new
// one, never split or lost.
func (e *Engine) RolloverEpoch() {
	e.mu.Lock()
	defer e.mu.Unlock()
	next := make(map[string]*record, len(e.stats))
	for identity, r := range e.stats {
		r.mu.Lock()
		next[identity] = &record{
			snap:   Snapshot{TotalSuccesses: r.snap.TotalSuccesses},
			frozen: r.frozen,
		}
		r.mu.Unlock()
	}
	e.stats = next
}

// Stats returns a copy of the identity's counters.
func (e *Engine) Stats(identity string) (Snapshot, bool) {
	e.mu.RLock()
	r, ok := e.stats[identity]
	e.mu.RUnlock()
	if !ok {
		return Snapshot{}, false
	}
	r.mu.Lock()
	snap := r.snap
	r.mu.Unlock()
	return snap, true
}

// Identities lists every tracked identity.
func (e *Engine) Identities() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.stats))
	for identity := range e.stats {
		out = append(out, identity)
	}
	return out
}

// Export snapshots the whole table for persistence.
func (e *Engine) Export() map[string]Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]Snapshot, len(e.stats))
	for identity, r := range e.stats {
		r.mu.Lock()
		out[identity] = r.snap
		r.mu.Unlock()
	}
	return out
}

// Restore loads persisted counters. A record that fails its invariant
// check is loaded frozen rather than dropped, so the diagnostic
// surfaces on the next outcome instead of silently resetting history.
func (e *Engine) Restore(snaps map[string]Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for identity, snap := range snaps {
		r := &record{snap: snap}
		if checkInvariants(&snap) != nil {
			r.frozen = true
		}
		e.stats[identity] = r
	}
}

// Tiers exposes the configured tier table, lowest first.
func (e *Engine) Tiers() []Tier {
	return e.tiers
}
