/*
	Copyright (C) TaoStore. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

// Package hashchain maintains the per-payload commitment chain:
// Cn = H(H(digest‖prev_seed)‖new_seed). A link cannot be produced
// without the payload bytes behind the digest, and the verifier keeps
// only O(1) state per payload between rounds.
package hashchain

import (
	"bytes"
	"crypto/sha256"

	"github.com/pkg/errors"
)

var (
	ErrSeedReuse    = errors.New("seed already consumed for this chain")
	ErrLinkMismatch = errors.New("claimed link disagrees with recomputation")
)

// Extend computes the next link from the payload digest, the previous
// round's seed and the new seed.
func Extend(payloadDigest, prevSeed, newSeed []byte) []byte {
	inner := sha256.New()
	inner.Write(payloadDigest)
	inner.Write(prevSeed)
	first := inner.Sum(nil)

	outer := sha256.New()
	outer.Write(first)
	outer.Write(newSeed)
	return outer.Sum(nil)
}

// Genesis derives the round-0 link from the initial storage seed.
func Genesis(payloadDigest, initialSeed []byte) []byte {
	return Extend(payloadDigest, nil, initialSeed)
}

// Verify recomputes the link and compares it with the claimed value.
func Verify(claimed, payloadDigest, prevSeed, newSeed []byte) bool {
	if len(claimed) == 0 {
		return false
	}
	return bytes.Equal(claimed, Extend(payloadDigest, prevSeed, newSeed))
}

// Chain is the verifier-side state for one payload: the previous seed,
// the current link, and a bounded window of recently consumed seeds
// used to reject replays.
type Chain struct {
	PrevSeed []byte   `json:"prev_seed"`
	Link     []byte   `json:"link"`
	Recent   [][]byte `json:"recent"`
	Window   int      `json:"window"`
}

// New seeds a chain for a freshly stored payload.
func New(payloadDigest, initialSeed []byte, window int) *Chain {
	c := &Chain{
		PrevSeed: append([]byte(nil), initialSeed...),
		Link:     Genesis(payloadDigest, initialSeed),
		Window:   window,
	}
	c.remember(initialSeed)
	return c
}

// Advance verifies the claimed link for newSeed and, on success,
// rotates the chain state. Seed reuse is detected before any hashing
// so a replayed seed can never pass silently.
func (c *Chain) Advance(payloadDigest, newSeed, claimedLink []byte) error {
	if c.Consumed(newSeed) {
		return ErrSeedReuse
	}
	if !Verify(claimedLink, payloadDigest, c.PrevSeed, newSeed) {
		return ErrLinkMismatch
	}
	c.PrevSeed = append([]byte(nil), newSeed...)
	c.Link = append([]byte(nil), claimedLink...)
	c.remember(newSeed)
	return nil
}

// Consumed reports whether seed is inside the replay window. Callers
// can use it to reject a reused seed before spending a network round
// trip on it.
func (c *Chain) Consumed(seed []byte) bool {
	for _, s := range c.Recent {
		if bytes.Equal(s, seed) {
			return true
		}
	}
	return false
}

func (c *Chain) remember(seed []byte) {
	c.Recent = append(c.Recent, append([]byte(nil), seed...))
	if c.Window > 0 && len(c.Recent) > c.Window {
		c.Recent = c.Recent[len(c.Recent)-c.Window:]
	}
}
