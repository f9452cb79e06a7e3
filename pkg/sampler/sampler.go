/*
	Copyright (C) TaoStore. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

// Package sampler derives the per-round participant subset and the
// challenged chunk index from the externally supplied round seed. Any
// party holding the same seed and candidate set reproduces the same
// draw, which is what makes round eligibility publicly auditable.
package sampler

import (
	"crypto/sha256"
	"encoding/binary"
	"math/rand"

	"github.com/pkg/errors"
)

func seedSource(roundSeed []byte, domain string) *rand.Rand {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write(roundSeed)
	sum := h.Sum(nil)
	return rand.New(rand.NewSource(int64(binary.BigEndian.Uint64(sum[:8]))))
}

// Select draws k distinct identities from candidates, deterministic in
// roundSeed and the candidate order. System entropy is never used.
func Select(roundSeed []byte, candidates []string, k int) ([]string, error) {
	if len(roundSeed) == 0 {
		return nil, errors.New("empty round seed")
	}
	if k < 0 {
		return nil, errors.Errorf("invalid sample size: %d", k)
	}
	if k > len(candidates) {
		k = len(candidates)
	}
	rng := seedSource(roundSeed, "taostore/sampler/participants")
	pool := append([]string(nil), candidates...)
	selected := make([]string, 0, k)
	for i := 0; i < k; i++ {
		j := rng.Intn(len(pool))
		selected = append(selected, pool[j])
		pool[j] = pool[len(pool)-1]
		pool = pool[:len(pool)-1]
	}
	return selected, nil
}

// ChunkIndex derives the challenged chunk index, uniform over
// [0, numChunks), from the same round seed that drove selection.
func ChunkIndex(roundSeed []byte, numChunks int) (uint64, error) {
	if len(roundSeed) == 0 {
		return 0, errors.New("empty round seed")
	}
	if numChunks <= 0 {
		return 0, errors.Errorf("invalid chunk count: %d", numChunks)
	}
	rng := seedSource(roundSeed, "taostore/sampler/chunk-index")
	return uint64(rng.Intn(numChunks)), nil
}

// RoundSeed derives a per-identity sub-seed so that two provers
// challenged in the same round consume different seeds on their
// chains.
func RoundSeed(roundSeed []byte, identity string) []byte {
	h := sha256.New()
	h.Write([]byte("taostore/sampler/round-seed"))
	h.Write(roundSeed)
	h.Write([]byte(identity))
	return h.Sum(nil)
}
