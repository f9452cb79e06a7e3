/*
	Copyright (C) TaoStore. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package node

import (
	"context"
	"time"

	"github.com/taomind007/storage-subnet/pkg/merkle"
	"github.com/taomind007/storage-subnet/pkg/pedersen"
	"github.com/taomind007/storage-subnet/pkg/reputation"
)

// Logical round bundles. The byte-level wire format belongs to the
// transport collaborator; these carry the fields each round needs.

type StoreRequest struct {
	Payload []byte `json:"payload"`
	Seed    []byte `json:"seed"`
}

type StoreResponse struct {
	Commitment pedersen.Commitment `json:"commitment"`
	Randomness []byte              `json:"randomness"`
	ChainLink  []byte              `json:"chain_link"`
}

type ChallengeRequest struct {
	CID       string `json:"cid"`
	Seed      []byte `json:"seed"`
	ChunkSize int    `json:"chunk_size"`
	Index     uint64 `json:"index"`
}

type ChallengeResponse struct {
	Commitment  pedersen.Commitment `json:"commitment"`
	Randomness  []byte              `json:"randomness"`
	Chunk       []byte              `json:"chunk"`
	ChainLink   []byte              `json:"chain_link"`
	MerkleProof merkle.Proof        `json:"merkle_proof"`
	MerkleRoot  []byte              `json:"merkle_root"`
}

type RetrieveRequest struct {
	CID  string `json:"cid"`
	Seed []byte `json:"seed"`
}

type RetrieveResponse struct {
	Payload   []byte `json:"payload"`
	ChainLink []byte `json:"chain_link"`
}

// ProverConn is the transport collaborator's contract: reliable
// delivery of one request/response pair per round. The in-process
// Prover implements it directly; a network transport wraps it.
type ProverConn interface {
	Store(ctx context.Context, req StoreRequest) (StoreResponse, error)
	Challenge(ctx context.Context, req ChallengeRequest) (ChallengeResponse, error)
	Retrieve(ctx context.Context, req RetrieveRequest) (RetrieveResponse, error)
}

// SeedSource is the randomness collaborator: it hands out round seeds
// derived from a public, unpredictable source at a fixed cadence.
type SeedSource interface {
	NextSeed(ctx context.Context) ([]byte, error)
}

// Outcome is the structured record produced for every round.
type Outcome struct {
	Identity  string              `json:"identity"`
	Category  reputation.Category `json:"category"`
	Success   bool                `json:"success"`
	Latency   time.Duration       `json:"latency"`
	RoundSeed []byte              `json:"round_seed"`
	Reason    string              `json:"reason"`
}

// RoundResult pairs an outcome with the reward value and tier label
// handed to the external weighting system.
type RoundResult struct {
	Outcome Outcome `json:"outcome"`
	Reward  float64 `json:"reward"`
	Tier    string  `json:"tier"`
}
