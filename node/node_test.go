/*
	Copyright (C) TaoStore. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package node

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/taomind007/storage-subnet/pkg/cache"
	"github.com/taomind007/storage-subnet/pkg/confile"
	"github.com/taomind007/storage-subnet/pkg/logger"
	"github.com/taomind007/storage-subnet/pkg/reputation"
	"github.com/taomind007/storage-subnet/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfile() *confile.Confile {
	return &confile.Confile{
		App: confile.App{Port: 15301},
		Protocol: confile.Protocol{
			Samplesize:       2,
			Redundancy:       2,
			Epochlength:      1000,
			Retentionrounds:  1000,
			Seedwindow:       8,
			Minchunksize:     24,
			Chunkfactor:      4,
			Storetimeout:     2,
			Challengetimeout: 1,
			Retrievetimeout:  2,
		},
		Reward: confile.Reward{Penalty: -0.05, Latencyfloor: 0.25, Latencysteepness: 0.5},
	}
}

func newTestNode(t *testing.T) *Node {
	t.Helper()
	dir := t.TempDir()

	logfiles := make(map[string]string, len(logger.LogFiles))
	for _, name := range logger.LogFiles {
		logfiles[name] = filepath.Join(dir, "log", name+".log")
	}
	log, err := logger.NewLogs(logfiles)
	require.NoError(t, err)

	cach, err := cache.NewCache(filepath.Join(dir, "db"), 16, 0, "test")
	require.NoError(t, err)
	t.Cleanup(func() { cach.Close() })

	rep, err := reputation.NewEngine(nil, reputation.Config{})
	require.NoError(t, err)

	n := New()
	n.Confiler = testConfile()
	n.Logger = log
	n.Cache = cach
	n.Rep = rep
	return n
}

func seedOf(s string) []byte {
	return utils.HashSHA256([]byte(s))
}

func TestStoreChallengeRetrieveRoundTrip(t *testing.T) {
	n := newTestNode(t)
	n.AttachProver("m1", NewProver())
	n.AttachProver("m2", NewProver())

	payload := make([]byte, 300)
	for i := range payload {
		payload[i] = byte(i)
	}

	cid, results, err := n.StorePayload(context.Background(), payload, seedOf("store"))
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, result := range results {
		assert.True(t, result.Outcome.Success)
		assert.Equal(t, "ok", result.Outcome.Reason)
		assert.Greater(t, result.Reward, 0.0)
	}
	assert.Equal(t, utils.ContentID(payload), cid)
	assert.ElementsMatch(t, []string{"m1", "m2"}, n.Registry.Holders(cid))

	for _, identity := range n.Registry.Holders(cid) {
		result, err := n.ChallengeRound(context.Background(), identity, cid, seedOf("round-1"))
		require.NoError(t, err)
		assert.True(t, result.Outcome.Success, result.Outcome.Reason)

		rec, ok := n.Registry.Get(identity, cid)
		require.True(t, ok)
		assert.NotEmpty(t, rec.Root)
	}

	got, results, err := n.RetrievePayload(context.Background(), cid, seedOf("round-2"))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.True(t, results[len(results)-1].Outcome.Success)
}

func TestChallengeSeedReuseRejected(t *testing.T) {
	n := newTestNode(t)
	n.AttachProver("m1", NewProver())

	payload := []byte("a payload that spans a handful of chunk boundaries at least")
	cid, _, err := n.StorePayload(context.Background(), payload, seedOf("store"))
	require.NoError(t, err)

	first, err := n.ChallengeRound(context.Background(), "m1", cid, seedOf("round"))
	require.NoError(t, err)
	require.True(t, first.Outcome.Success)

	// replaying the same round seed must fail loudly, not pass silently
	second, err := n.ChallengeRound(context.Background(), "m1", cid, seedOf("round"))
	require.NoError(t, err)
	assert.False(t, second.Outcome.Success)
	assert.Equal(t, "seed-reuse", second.Outcome.Reason)
	assert.Less(t, second.Reward, 0.0)
}

func TestChallengeDetectsCorruption(t *testing.T) {
	n := newTestNode(t)
	prover := NewProver()
	n.AttachProver("m1", prover)

	payload := make([]byte, 256)
	cid, _, err := n.StorePayload(context.Background(), payload, seedOf("store"))
	require.NoError(t, err)

	require.True(t, prover.Corrupt(cid))

	result, err := n.ChallengeRound(context.Background(), "m1", cid, seedOf("round"))
	require.NoError(t, err)
	assert.False(t, result.Outcome.Success)
	assert.Equal(t, "chain-link-mismatch", result.Outcome.Reason)

	// the failed round must not advance the chain; an honest replica
	// restored afterwards can still answer a fresh seed
	rec, _ := n.Registry.Get("m1", cid)
	assert.Len(t, rec.Chain.Recent, 1)
}

func TestRetrieveFallsBackToHealthyReplica(t *testing.T) {
	n := newTestNode(t)
	good := NewProver()
	bad := NewProver()
	n.AttachProver("good", good)
	n.AttachProver("bad", bad)

	payload := []byte("some payload worth keeping redundantly")
	cid, _, err := n.StorePayload(context.Background(), payload, seedOf("store"))
	require.NoError(t, err)
	require.Len(t, n.Registry.Holders(cid), 2)

	require.True(t, bad.Corrupt(cid))

	got, results, err := n.RetrievePayload(context.Background(), cid, seedOf("round"))
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	// whichever order the draw produced, the corrupted replica cannot
	// have been the winning one
	for _, result := range results {
		if result.Outcome.Identity == "bad" {
			assert.False(t, result.Outcome.Success)
			assert.Equal(t, "chain-link-mismatch", result.Outcome.Reason)
		}
	}
}

type stalledConn struct {
	ProverConn
}

func (s stalledConn) Challenge(ctx context.Context, req ChallengeRequest) (ChallengeResponse, error) {
	<-ctx.Done()
	return ChallengeResponse{}, ctx.Err()
}

func TestChallengeTimeout(t *testing.T) {
	n := newTestNode(t)
	prover := NewProver()
	n.AttachProver("m1", prover)

	payload := []byte("payload behind a stalled connection")
	cid, _, err := n.StorePayload(context.Background(), payload, seedOf("store"))
	require.NoError(t, err)

	n.AttachProver("m1", stalledConn{prover})

	result, err := n.ChallengeRound(context.Background(), "m1", cid, seedOf("round"))
	require.NoError(t, err)
	assert.False(t, result.Outcome.Success)
	assert.Equal(t, "timeout", result.Outcome.Reason)
}

// lateConn answers correctly but only after the round deadline has
// already passed, with no transport error.
type lateConn struct {
	ProverConn
}

func (l lateConn) Challenge(ctx context.Context, req ChallengeRequest) (ChallengeResponse, error) {
	resp, err := l.ProverConn.Challenge(context.Background(), req)
	<-ctx.Done()
	return resp, err
}

func TestLateResponseCountsAsTimeout(t *testing.T) {
	n := newTestNode(t)
	prover := NewProver()
	n.AttachProver("m1", prover)

	payload := []byte("payload answered only after the deadline")
	cid, _, err := n.StorePayload(context.Background(), payload, seedOf("store"))
	require.NoError(t, err)

	n.AttachProver("m1", lateConn{prover})

	result, err := n.ChallengeRound(context.Background(), "m1", cid, seedOf("round"))
	require.NoError(t, err)
	assert.False(t, result.Outcome.Success)
	assert.Equal(t, "timeout", result.Outcome.Reason)

	// the expired round must not have advanced the verifier's chain
	rec, _ := n.Registry.Get("m1", cid)
	assert.Len(t, rec.Chain.Recent, 1)
}

func TestDroppedPayloadFailsChallenge(t *testing.T) {
	n := newTestNode(t)
	prover := NewProver()
	n.AttachProver("m1", prover)

	payload := []byte("payload the prover will quietly discard")
	cid, _, err := n.StorePayload(context.Background(), payload, seedOf("store"))
	require.NoError(t, err)

	prover.Drop(cid)

	result, err := n.ChallengeRound(context.Background(), "m1", cid, seedOf("round"))
	require.NoError(t, err)
	assert.False(t, result.Outcome.Success)
}

func TestRunRoundChallengesSample(t *testing.T) {
	n := newTestNode(t)
	for _, identity := range []string{"m1", "m2", "m3"} {
		n.AttachProver(identity, NewProver())
	}

	payload := make([]byte, 200)
	_, _, err := n.StorePayload(context.Background(), payload, seedOf("store"))
	require.NoError(t, err)

	results := n.RunRound(context.Background(), seedOf("round"))
	// sample size 2 but only 2 identities hold the payload (redundancy 2)
	require.Len(t, results, 2)
	for _, result := range results {
		assert.True(t, result.Outcome.Success, result.Outcome.Reason)
		assert.Equal(t, reputation.CategoryChallenge.String(), result.Outcome.Category.String())
	}
	assert.Equal(t, uint32(1), n.CurrentRound())
}

func TestStoreRefusedOverStorageLimit(t *testing.T) {
	n := newTestNode(t)
	tiny := []reputation.Tier{
		{Name: "Tiny", MinSuccessRate: 0, MinTotalSuccesses: 0, StorageLimit: 64, RewardFactor: 0.5},
	}
	rep, err := reputation.NewEngine(tiny, reputation.Config{})
	require.NoError(t, err)
	n.Rep = rep
	n.AttachProver("m1", NewProver())

	_, err = n.StoreRound(context.Background(), "m1", make([]byte, 128), seedOf("store"))
	assert.Error(t, err)
	assert.Empty(t, n.Registry.Holders(utils.ContentID(make([]byte, 128))))
}

func TestReputationPersistence(t *testing.T) {
	n := newTestNode(t)
	n.AttachProver("m1", NewProver())

	payload := []byte("payload used to move some counters")
	cid, _, err := n.StorePayload(context.Background(), payload, seedOf("store"))
	require.NoError(t, err)
	_, err = n.ChallengeRound(context.Background(), "m1", cid, seedOf("round"))
	require.NoError(t, err)

	require.NoError(t, n.SaveReputation())

	rep, err := reputation.NewEngine(nil, reputation.Config{})
	require.NoError(t, err)
	restored := New()
	restored.Confiler = n.Confiler
	restored.Logger = n.Logger
	restored.Cache = n.Cache
	restored.Rep = rep
	require.NoError(t, restored.LoadReputation())

	loaded, err := restored.Registry.Load(restored.Cache)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded)

	snap, ok := restored.Rep.Stats("m1")
	require.True(t, ok)
	assert.Equal(t, uint64(1), snap.Store.Attempts)
	assert.Equal(t, uint64(1), snap.Challenge.Attempts)

	// the restored chain rejects the already consumed round seed
	restored.AttachProver("m1", NewProver())
	result, err := restored.ChallengeRound(context.Background(), "m1", cid, seedOf("round"))
	require.NoError(t, err)
	assert.False(t, result.Outcome.Success)
	assert.Equal(t, "seed-reuse", result.Outcome.Reason)
}
