/*
	Copyright (C) TaoStore. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

// Package merkle builds binary hash trees over ordered chunk
// commitments and produces logarithmic membership proofs.
package merkle

import (
	"bytes"
	"crypto/sha256"

	"github.com/pkg/errors"
)

// ProofStep is one sibling on the path from leaf to root. Sidedness
// is not carried per step; it is derived from the proof's leaf index
// during verification.
type ProofStep struct {
	Hash []byte `json:"hash"`
}

// Proof is an ordered sibling list for one leaf index.
type Proof struct {
	Index uint64      `json:"index"`
	Steps []ProofStep `json:"steps"`
}

// Tree keeps every level, leaves first. Levels above the leaves pair
// hashes left-to-right; a level of odd cardinality duplicates its last
// node, the same tie-break on prover and verifier.
type Tree struct {
	levels [][][]byte
}

func hashLeaf(leaf []byte) []byte {
	h := sha256.Sum256(leaf)
	return h[:]
}

func hashPair(left, right []byte) []byte {
	h := sha256.New()
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)
}

// Build constructs the tree over the ordered leaves.
func Build(leaves [][]byte) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, errors.New("no leaves")
	}
	level := make([][]byte, len(leaves))
	for i, leaf := range leaves {
		level[i] = hashLeaf(leaf)
	}
	levels := [][][]byte{level}
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([][]byte, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next[i/2] = hashPair(level[i], level[i+1])
		}
		levels = append(levels, next)
		level = next
	}
	return &Tree{levels: levels}, nil
}

// Root returns the tree root.
func (t *Tree) Root() []byte {
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// NumLeaves returns the leaf count the tree was built over.
func (t *Tree) NumLeaves() int {
	return len(t.levels[0])
}

// Prove extracts the sibling path for the leaf at index.
func (t *Tree) Prove(index uint64) (Proof, error) {
	if index >= uint64(len(t.levels[0])) {
		return Proof{}, errors.Errorf("leaf index %d out of range", index)
	}
	proof := Proof{Index: index}
	idx := index
	for depth := 0; depth < len(t.levels)-1; depth++ {
		level := t.levels[depth]
		sibIdx := idx ^ 1
		var sib []byte
		if sibIdx >= uint64(len(level)) {
			// odd level, the last node is its own sibling
			sib = level[idx]
		} else {
			sib = level[sibIdx]
		}
		proof.Steps = append(proof.Steps, ProofStep{Hash: sib})
		idx /= 2
	}
	return proof, nil
}

// Verify recomputes the path from leaf through the proof's siblings
// and compares the final hash against root. Left/right placement at
// each level comes from the bits of the claimed index, so a proof for
// one position cannot be relabeled as a proof for another.
func Verify(root []byte, leaf []byte, proof Proof) bool {
	if len(root) == 0 || len(leaf) == 0 {
		return false
	}
	running := hashLeaf(leaf)
	idx := proof.Index
	for _, step := range proof.Steps {
		if len(step.Hash) == 0 {
			return false
		}
		if idx%2 == 1 {
			running = hashPair(step.Hash, running)
		} else {
			running = hashPair(running, step.Hash)
		}
		idx /= 2
	}
	return bytes.Equal(running, root)
}
