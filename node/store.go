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
	"github.com/taomind007/storage-subnet/pkg/hashchain"
	"github.com/taomind007/storage-subnet/pkg/pedersen"
	"github.com/taomind007/storage-subnet/pkg/reputation"
	"github.com/taomind007/storage-subnet/pkg/sampler"
	"github.com/taomind007/storage-subnet/pkg/utils"

	"github.com/pkg/errors"
)

// StorePayload places a payload on up to redundancy provers drawn
// deterministically from the attached set and runs a store round
// against each. It returns the content id and the per-prover results.
func (n *Node) StorePayload(ctx context.Context, payload []byte, initialSeed []byte) (string, []RoundResult, error) {
	if len(payload) == 0 {
		return "", nil, errors.New("empty payload")
	}
	cid := utils.ContentID(payload)

	selected, err := sampler.Select(initialSeed, n.Provers(), n.ReadRedundancy())
	if err != nil {
		return "", nil, err
	}
	if len(selected) == 0 {
		return "", nil, errors.New("no provers attached")
	}

	results := make([]RoundResult, 0, len(selected))
	for _, identity := range selected {
		seed := sampler.RoundSeed(initialSeed, identity)
		result, err := n.StoreRound(ctx, identity, payload, seed)
		if err != nil {
			n.Store("err", fmt.Sprintf("store %s on %s skipped: %v", cid, identity, err))
			continue
		}
		results = append(results, result)
	}
	if len(results) == 0 {
		return "", nil, errors.Errorf("payload %s stored nowhere", cid)
	}
	return cid, results, nil
}

// StoreRound runs one store round against one prover: ship the payload
// and the initial seed, then verify the commitment opening and the
// genesis chain link before tracking the replica.
func (n *Node) StoreRound(ctx context.Context, identity string, payload []byte, initialSeed []byte) (RoundResult, error) {
	conn, err := n.prover(identity)
	if err != nil {
		return RoundResult{}, err
	}
	if len(initialSeed) == 0 {
		return RoundResult{}, errors.New("empty initial seed")
	}

	cid := utils.ContentID(payload)
	digest := utils.HashSHA256(payload)

	// the tier storage limit caps what a prover may be asked to hold;
	// exceeding it is the verifier's mistake, not a prover failure
	tier := n.Rep.CurrentTier(identity)
	if used := n.Registry.UsedSpace(identity); used+uint64(len(payload)) > tier.StorageLimit {
		return RoundResult{}, errors.Errorf("identity %s over %s storage limit", identity, tier.Name)
	}

	rctx, cancel := context.WithTimeout(ctx, n.ReadStoreTimeout())
	defer cancel()

	start := time.Now()
	resp, err := conn.Store(rctx, StoreRequest{Payload: payload, Seed: initialSeed})
	latency := time.Since(start)

	roundErr := classifyTransport(rctx, err)
	if roundErr == nil {
		roundErr = n.verifyStore(resp, payload, digest, initialSeed)
	}

	if roundErr == nil {
		rec := &PayloadRecord{
			Identity:     identity,
			CID:          cid,
			Digest:       digest,
			Size:         len(payload),
			Chain:        hashchain.New(digest, initialSeed, n.ReadSeedWindow()),
			LastVerified: n.round.Load(),
		}
		n.Registry.Add(rec)
		if err := n.Registry.Save(n, rec); err != nil {
			n.Store("err", fmt.Sprintf("[Save] %v", err))
		}
		n.Store("info", fmt.Sprintf("stored %s on %s (%d bytes)", cid, identity, len(payload)))
	} else {
		n.Store("err", fmt.Sprintf("store %s on %s failed: %v", cid, identity, roundErr))
	}

	return n.recordRound(Outcome{
		Identity:  identity,
		Category:  reputation.CategoryStore,
		Success:   roundErr == nil,
		Latency:   latency,
		RoundSeed: initialSeed,
		Reason:    common.Classify(roundErr),
	}), nil
}

func (n *Node) verifyStore(resp StoreResponse, payload, digest, initialSeed []byte) error {
	if len(resp.Commitment.Point) == 0 || len(resp.Randomness) == 0 || len(resp.ChainLink) == 0 {
		return common.ErrMalformedInput
	}
	ok, reason := pedersen.Verify(resp.Commitment, payload, resp.Randomness)
	if !ok {
		if reason == pedersen.ReasonPointDecode {
			return errors.Wrap(common.ErrMalformedInput, reason)
		}
		return errors.Wrap(common.ErrCommitmentMismatch, reason)
	}
	if !hashchain.Verify(resp.ChainLink, digest, nil, initialSeed) {
		return common.ErrChainLinkMismatch
	}
	return nil
}

// classifyTransport folds a transport result into the round error
// kinds. A deadline hit is a timeout even when the reply itself made
// it back intact: expiry fails the round, and the prover that already
// advanced its seed for it re-syncs only through a fresh store. Any
// other peer error stays as is and lands on the generic failure
// reason.
func classifyTransport(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		if err == nil {
			err = ctx.Err()
		}
		return errors.Wrap(common.ErrTimeout, err.Error())
	}
	return err
}
