/*
	Copyright (C) TaoStore. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package node

import (
	"context"
	"fmt"
	"time"

	"github.com/taomind007/storage-subnet/node/common"
	"github.com/taomind007/storage-subnet/pkg/chunker"
	"github.com/taomind007/storage-subnet/pkg/hashchain"
	"github.com/taomind007/storage-subnet/pkg/merkle"
	"github.com/taomind007/storage-subnet/pkg/pedersen"
	"github.com/taomind007/storage-subnet/pkg/reputation"
	"github.com/taomind007/storage-subnet/pkg/sampler"

	"github.com/pkg/errors"
)

// ChallengeRound runs one spot check of a tracked replica. The chunk
// parameters are derived on the verifier side from the round seed, so
// the prover learns which chunk to open only when the request arrives.
// All three checks must pass: the chunk commitment opening, the merkle
// path to the claimed root, and the next chain link. Chain state
// advances only when the whole round verifies.
func (n *Node) ChallengeRound(ctx context.Context, identity, cid string, roundSeed []byte) (RoundResult, error) {
	conn, err := n.prover(identity)
	if err != nil {
		return RoundResult{}, err
	}
	rec, ok := n.Registry.Get(identity, cid)
	if !ok {
		return RoundResult{}, errors.Errorf("no tracked replica of %s on %s", cid, identity)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	newSeed := sampler.RoundSeed(roundSeed, identity)
	chunkSize := chunker.DeriveChunkSize(rec.Size, n.ReadMinChunkSize(), n.ReadChunkFactor(), n.ReadOverrideChunkSize())
	numChunks := chunker.NumChunks(rec.Size, chunkSize)
	index, err := sampler.ChunkIndex(roundSeed, numChunks)
	if err != nil {
		return RoundResult{}, err
	}

	// a replayed round seed is caught before the prover is contacted;
	// it still counts as a failed round for the identity
	if rec.Chain.Consumed(newSeed) {
		n.Chal("err", fmt.Sprintf("challenge %s on %s: %v", cid, identity, common.ErrSeedReuse))
		return n.recordRound(Outcome{
			Identity:  identity,
			Category:  reputation.CategoryChallenge,
			Success:   false,
			RoundSeed: roundSeed,
			Reason:    common.Classify(common.ErrSeedReuse),
		}), nil
	}

	rctx, cancel := context.WithTimeout(ctx, n.ReadChallengeTimeout())
	defer cancel()

	start := time.Now()
	resp, err := conn.Challenge(rctx, ChallengeRequest{
		CID:       cid,
		Seed:      newSeed,
		ChunkSize: chunkSize,
		Index:     index,
	})
	latency := time.Since(start)

	roundErr := classifyTransport(rctx, err)
	if roundErr == nil {
		roundErr = verifyChallenge(rec, resp, newSeed, chunkSize, numChunks, index)
	}

	if roundErr == nil {
		rec.Root = resp.MerkleRoot
		rec.LastVerified = n.round.Load()
		if err := n.Registry.Save(n, rec); err != nil {
			n.Chal("err", fmt.Sprintf("[Save] %v", err))
		}
		n.Chal("info", fmt.Sprintf("challenge %s on %s verified, chunk %d of %d", cid, identity, index, numChunks))
	} else {
		n.Chal("err", fmt.Sprintf("challenge %s on %s failed: %v", cid, identity, roundErr))
	}

	return n.recordRound(Outcome{
		Identity:  identity,
		Category:  reputation.CategoryChallenge,
		Success:   roundErr == nil,
		Latency:   latency,
		RoundSeed: roundSeed,
		Reason:    common.Classify(roundErr),
	}), nil
}

// verifyChallenge checks a response in fail-fast order. The chain
// advance runs last so a response rejected on the opening or the proof
// leaves the chain state untouched.
func verifyChallenge(rec *PayloadRecord, resp ChallengeResponse, newSeed []byte, chunkSize, numChunks int, index uint64) error {
	if len(resp.Commitment.Point) == 0 || len(resp.Randomness) == 0 ||
		len(resp.Chunk) == 0 || len(resp.ChainLink) == 0 || len(resp.MerkleRoot) == 0 {
		return common.ErrMalformedInput
	}
	if resp.MerkleProof.Index != index {
		return errors.Wrap(common.ErrMerkleProofInvalid, "proof for wrong index")
	}
	if len(resp.Chunk) != expectedChunkLen(rec.Size, chunkSize, numChunks, index) {
		return errors.Wrap(common.ErrMalformedInput, "chunk length disagrees with derivation")
	}

	ok, reason := pedersen.Verify(resp.Commitment, resp.Chunk, resp.Randomness)
	if !ok {
		if reason == pedersen.ReasonPointDecode {
			return errors.Wrap(common.ErrMalformedInput, reason)
		}
		return errors.Wrap(common.ErrCommitmentMismatch, reason)
	}

	if !merkle.Verify(resp.MerkleRoot, resp.Commitment.Point, resp.MerkleProof) {
		return common.ErrMerkleProofInvalid
	}

	err := rec.Chain.Advance(rec.Digest, newSeed, resp.ChainLink)
	switch {
	case errors.Is(err, hashchain.ErrSeedReuse):
		return common.ErrSeedReuse
	case errors.Is(err, hashchain.ErrLinkMismatch):
		return common.ErrChainLinkMismatch
	}
	return err
}

func expectedChunkLen(payloadLen, chunkSize, numChunks int, index uint64) int {
	if index == uint64(numChunks-1) {
		if tail := payloadLen % chunkSize; tail != 0 {
			return tail
		}
	}
	return chunkSize
}
