/*
	Copyright (C) TaoStore. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package sampler

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidates(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("5identity%03d", i)
	}
	return out
}

func TestSelectDeterministic(t *testing.T) {
	seed := []byte("block-hash-1234")
	cands := candidates(50)

	a, err := Select(seed, cands, 5)
	require.NoError(t, err)
	b, err := Select(seed, cands, 5)
	require.NoError(t, err)

	// identical selection, in identical order
	assert.Equal(t, a, b)
	assert.Equal(t, 5, len(a))
}

func TestSelectWithoutReplacement(t *testing.T) {
	seed := []byte("block-hash-5678")
	cands := candidates(20)

	sel, err := Select(seed, cands, 20)
	require.NoError(t, err)
	seen := make(map[string]bool)
	for _, id := range sel {
		assert.False(t, seen[id])
		seen[id] = true
	}
	assert.Equal(t, 20, len(seen))
}

func TestSelectDifferentSeeds(t *testing.T) {
	cands := candidates(100)
	a, err := Select([]byte("seed-a"), cands, 10)
	require.NoError(t, err)
	b, err := Select([]byte("seed-b"), cands, 10)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSelectClampsK(t *testing.T) {
	sel, err := Select([]byte("seed"), candidates(3), 10)
	require.NoError(t, err)
	assert.Equal(t, 3, len(sel))
}

func TestSelectEmptySeed(t *testing.T) {
	_, err := Select(nil, candidates(3), 1)
	assert.Error(t, err)
}

func TestChunkIndex(t *testing.T) {
	seed := []byte("block-hash-9")
	i, err := ChunkIndex(seed, 17)
	require.NoError(t, err)
	j, err := ChunkIndex(seed, 17)
	require.NoError(t, err)
	assert.Equal(t, i, j)
	assert.Less(t, i, uint64(17))

	_, err = ChunkIndex(seed, 0)
	assert.Error(t, err)
}

func TestRoundSeedPerIdentity(t *testing.T) {
	seed := []byte("block-hash-10")
	a := RoundSeed(seed, "miner-a")
	b := RoundSeed(seed, "miner-b")
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, RoundSeed(seed, "miner-a"))
}
