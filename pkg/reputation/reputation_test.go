/*
	Copyright (C) TaoStore. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package reputation

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTiers() []Tier {
	return []Tier{
		{Name: "Bronze", MinSuccessRate: 0, MinTotalSuccesses: 0, StorageLimit: 1 * TiB, RewardFactor: 0.444},
		{Name: "Gold", MinSuccessRate: 0.95, MinTotalSuccesses: 50, StorageLimit: 100 * TiB, RewardFactor: 0.777},
	}
}

func newTestEngine(t *testing.T) *Engine {
	e, err := NewEngine(testTiers(), Config{})
	require.NoError(t, err)
	return e
}

func TestNewEngineRejectsBadTable(t *testing.T) {
	bad := testTiers()
	bad[1].RewardFactor = 0.4
	_, err := NewEngine(bad, Config{})
	assert.Error(t, err)
}

func TestCurrentTierIdempotent(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.RecordOutcome("m1", CategoryChallenge, true, time.Second))

	a := e.CurrentTier("m1")
	b := e.CurrentTier("m1")
	assert.Equal(t, a, b)
}

func TestTierTransitionAcrossRollover(t *testing.T) {
	e := newTestEngine(t)

	// first window: 90/100 -> ratio 0.90, below the 0.95 gate
	for i := 0; i < 100; i++ {
		require.NoError(t, e.RecordOutcome("m1", CategoryChallenge, i < 90, time.Second))
	}
	assert.Equal(t, "Bronze", e.CurrentTier("m1").Name)

	e.RolloverEpoch()

	// the fresh empty window must not upgrade anyone by itself
	assert.Equal(t, "Bronze", e.CurrentTier("m1").Name)

	// second window: 30/31 -> ratio ~0.968, above the gate; the
	// preserved total (90+30 >= 50) satisfies the lifetime gate
	for i := 0; i < 31; i++ {
		require.NoError(t, e.RecordOutcome("m1", CategoryChallenge, i < 30, time.Second))
	}
	assert.Equal(t, "Gold", e.CurrentTier("m1").Name)
}

func TestRolloverResetsWindowKeepsTotal(t *testing.T) {
	e := newTestEngine(t)
	for i := 0; i < 10; i++ {
		require.NoError(t, e.RecordOutcome("m1", CategoryStore, true, time.Second))
		require.NoError(t, e.RecordOutcome("m1", CategoryRetrieve, false, time.Second))
	}
	before, ok := e.Stats("m1")
	require.True(t, ok)
	assert.Equal(t, uint64(10), before.Store.Attempts)
	assert.Equal(t, uint64(10), before.TotalSuccesses)

	e.RolloverEpoch()

	after, ok := e.Stats("m1")
	require.True(t, ok)
	assert.Equal(t, uint64(0), after.Store.Attempts)
	assert.Equal(t, uint64(0), after.Store.Successes)
	assert.Equal(t, uint64(0), after.Retrieve.Attempts)
	assert.Equal(t, uint64(10), after.TotalSuccesses)
}

func TestRewardAsymmetry(t *testing.T) {
	e := newTestEngine(t)
	e.Restore(map[string]Snapshot{
		"gold": {
			Challenge:      CategoryStats{Attempts: 60, Successes: 60},
			TotalSuccesses: 60,
		},
	})
	require.Equal(t, "Gold", e.CurrentTier("gold").Name)
	require.Equal(t, "Bronze", e.CurrentTier("bronze").Name)

	// instant successful challenge pays the full tier factor
	v, tier := e.Reward("gold", CategoryChallenge, true, 0)
	assert.Equal(t, "Gold", tier.Name)
	assert.InDelta(t, 0.777, v, 1e-12)

	// the same failure is strictly more punitive at the higher tier
	v, _ = e.Reward("gold", CategoryChallenge, false, 0)
	assert.InDelta(t, -0.03885, v, 1e-12)
	v, _ = e.Reward("bronze", CategoryChallenge, false, 0)
	assert.InDelta(t, -0.0222, v, 1e-12)
}

func TestLatencyScaleMonotoneBounded(t *testing.T) {
	e := newTestEngine(t)

	prev := 2.0
	for _, lat := range []time.Duration{0, time.Second, 5 * time.Second, 10 * time.Second, 30 * time.Second, 5 * time.Minute} {
		v, _ := e.Reward("m1", CategoryChallenge, true, lat)
		assert.LessOrEqual(t, v, prev)
		prev = v
	}

	// saturation: very slow responses still earn floor * factor
	v, _ := e.Reward("m1", CategoryChallenge, true, time.Hour)
	assert.InDelta(t, 0.25*0.444, v, 1e-12)
}

func TestCorruptedStatsFrozen(t *testing.T) {
	e := newTestEngine(t)
	e.Restore(map[string]Snapshot{
		"broken": {
			Store:          CategoryStats{Attempts: 1, Successes: 5},
			TotalSuccesses: 5,
		},
	})

	err := e.RecordOutcome("broken", CategoryStore, true, time.Second)
	assert.ErrorIs(t, err, ErrCorruptedStats)

	// other identities keep processing
	assert.NoError(t, e.RecordOutcome("fine", CategoryStore, true, time.Second))
}

func TestRolloverNeverLosesOutcomes(t *testing.T) {
	e := newTestEngine(t)

	const writers = 8
	const perWriter = 2000

	done := make(chan struct{})
	var rollovers sync.WaitGroup
	for g := 0; g < 2; g++ {
		rollovers.Add(1)
		go func() {
			defer rollovers.Done()
			for {
				select {
				case <-done:
					return
				default:
					e.RolloverEpoch()
				}
			}
		}()
	}

	var wg sync.WaitGroup
	for g := 0; g < writers; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				assert.NoError(t, e.RecordOutcome("m1", CategoryChallenge, true, time.Second))
			}
		}()
	}
	wg.Wait()
	close(done)
	rollovers.Wait()

	// the windowed counters may land in any window, but the cumulative
	// total must survive every swap with nothing lost
	snap, ok := e.Stats("m1")
	require.True(t, ok)
	assert.Equal(t, uint64(writers*perWriter), snap.TotalSuccesses)
}

func TestConcurrentOutcomes(t *testing.T) {
	e := newTestEngine(t)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_ = e.RecordOutcome("m1", CategoryChallenge, true, time.Second)
				_ = e.RecordOutcome("m2", CategoryChallenge, false, time.Second)
			}
		}()
	}
	wg.Wait()

	s1, _ := e.Stats("m1")
	s2, _ := e.Stats("m2")
	assert.Equal(t, uint64(800), s1.Challenge.Attempts)
	assert.Equal(t, uint64(800), s1.Challenge.Successes)
	assert.Equal(t, uint64(800), s2.Challenge.Attempts)
	assert.Equal(t, uint64(0), s2.Challenge.Successes)
}
