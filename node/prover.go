/*
	Copyright (C) TaoStore. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package node

import (
	"context"
	"sync"

	"github.com/taomind007/storage-subnet/pkg/chunker"
	"github.com/taomind007/storage-subnet/pkg/hashchain"
	"github.com/taomind007/storage-subnet/pkg/merkle"
	"github.com/taomind007/storage-subnet/pkg/pedersen"
	"github.com/taomind007/storage-subnet/pkg/utils"

	"github.com/pkg/errors"
)

// Prover is the in-process prover half of the protocol. It holds the
// payload bytes it accepted and answers challenge and retrieve rounds
// from them, which is exactly what makes a missing payload detectable:
// without the bytes there is no way to produce the chunk opening or
// the next chain link.
type Prover struct {
	mu       sync.Mutex
	payloads map[string]*proverPayload
}

// The digest behind each chain link is recomputed from the held bytes
// every round rather than cached, so bit rot shows up as a link
// mismatch instead of being papered over by a stale digest.
type proverPayload struct {
	data     []byte
	prevSeed []byte
}

func NewProver() *Prover {
	return &Prover{
		payloads: make(map[string]*proverPayload),
	}
}

func (p *Prover) Store(ctx context.Context, req StoreRequest) (StoreResponse, error) {
	if err := ctx.Err(); err != nil {
		return StoreResponse{}, err
	}
	if len(req.Payload) == 0 || len(req.Seed) == 0 {
		return StoreResponse{}, errors.New("empty payload or seed")
	}

	commit, randomness, err := pedersen.Commit(req.Payload, nil)
	if err != nil {
		return StoreResponse{}, err
	}

	digest := utils.HashSHA256(req.Payload)
	cid := utils.ContentID(req.Payload)

	p.mu.Lock()
	p.payloads[cid] = &proverPayload{
		data:     append([]byte(nil), req.Payload...),
		prevSeed: append([]byte(nil), req.Seed...),
	}
	p.mu.Unlock()

	return StoreResponse{
		Commitment: commit,
		Randomness: randomness,
		ChainLink:  hashchain.Genesis(digest, req.Seed),
	}, nil
}

func (p *Prover) Challenge(ctx context.Context, req ChallengeRequest) (ChallengeResponse, error) {
	if err := ctx.Err(); err != nil {
		return ChallengeResponse{}, err
	}

	p.mu.Lock()
	pl, ok := p.payloads[req.CID]
	p.mu.Unlock()
	if !ok {
		return ChallengeResponse{}, errors.Errorf("unknown payload: %s", req.CID)
	}

	chunks, err := chunker.Split(pl.data, req.ChunkSize)
	if err != nil {
		return ChallengeResponse{}, err
	}
	if req.Index >= uint64(len(chunks)) {
		return ChallengeResponse{}, errors.Errorf("chunk index %d out of range", req.Index)
	}

	// commit every chunk; the tree is built over the commitment points
	// so the proof ties the challenged chunk to all its siblings
	leaves := make([][]byte, len(chunks))
	var target pedersen.Commitment
	var targetRand []byte
	for i, chunk := range chunks {
		commit, randomness, err := pedersen.Commit(chunk, nil)
		if err != nil {
			return ChallengeResponse{}, err
		}
		leaves[i] = commit.Point
		if uint64(i) == req.Index {
			target = commit
			targetRand = randomness
		}
	}

	tree, err := merkle.Build(leaves)
	if err != nil {
		return ChallengeResponse{}, err
	}
	proof, err := tree.Prove(req.Index)
	if err != nil {
		return ChallengeResponse{}, err
	}

	link := hashchain.Extend(utils.HashSHA256(pl.data), pl.prevSeed, req.Seed)

	p.mu.Lock()
	pl.prevSeed = append([]byte(nil), req.Seed...)
	p.mu.Unlock()

	return ChallengeResponse{
		Commitment:  target,
		Randomness:  targetRand,
		Chunk:       append([]byte(nil), chunks[req.Index]...),
		ChainLink:   link,
		MerkleProof: proof,
		MerkleRoot:  tree.Root(),
	}, nil
}

func (p *Prover) Retrieve(ctx context.Context, req RetrieveRequest) (RetrieveResponse, error) {
	if err := ctx.Err(); err != nil {
		return RetrieveResponse{}, err
	}

	p.mu.Lock()
	pl, ok := p.payloads[req.CID]
	p.mu.Unlock()
	if !ok {
		return RetrieveResponse{}, errors.Errorf("unknown payload: %s", req.CID)
	}

	link := hashchain.Extend(utils.HashSHA256(pl.data), pl.prevSeed, req.Seed)

	p.mu.Lock()
	pl.prevSeed = append([]byte(nil), req.Seed...)
	p.mu.Unlock()

	return RetrieveResponse{
		Payload:   append([]byte(nil), pl.data...),
		ChainLink: link,
	}, nil
}

// Drop discards a stored payload, used to simulate data loss.
func (p *Prover) Drop(cid string) {
	p.mu.Lock()
	delete(p.payloads, cid)
	p.mu.Unlock()
}

// Corrupt flips a byte of a stored payload in place without touching
// the remembered digest, used to simulate silent bit rot.
func (p *Prover) Corrupt(cid string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	pl, ok := p.payloads[cid]
	if !ok || len(pl.data) == 0 {
		return false
	}
	pl.data[0] ^= 0xff
	return true
}
