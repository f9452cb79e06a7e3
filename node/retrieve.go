/*
	Copyright (C) TaoStore. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package node

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/taomind007/storage-subnet/node/common"
	"github.com/taomind007/storage-subnet/pkg/hashchain"
	"github.com/taomind007/storage-subnet/pkg/reputation"
	"github.com/taomind007/storage-subnet/pkg/sampler"
	"github.com/taomind007/storage-subnet/pkg/utils"

	"github.com/pkg/errors"
)

// RetrievePayload fetches one replica of cid, trying holders in a
// seed-determined order until one round succeeds. Every attempt,
// successful or not, lands on the attempted holder's counters.
func (n *Node) RetrievePayload(ctx context.Context, cid string, roundSeed []byte) ([]byte, []RoundResult, error) {
	holders := n.Registry.Holders(cid)
	if len(holders) == 0 {
		return nil, nil, errors.Errorf("no tracked replicas of %s", cid)
	}
	order, err := sampler.Select(roundSeed, holders, len(holders))
	if err != nil {
		return nil, nil, err
	}

	var results []RoundResult
	for _, identity := range order {
		payload, result, err := n.RetrieveRound(ctx, identity, cid, roundSeed)
		if err != nil {
			n.Retr("err", fmt.Sprintf("retrieve %s from %s skipped: %v", cid, identity, err))
			continue
		}
		results = append(results, result)
		if result.Outcome.Success {
			return payload, results, nil
		}
	}
	return nil, results, errors.Errorf("no replica of %s retrievable", cid)
}

// RetrieveRound fetches the payload from one holder and verifies both
// the returned bytes against the tracked digest and the fresh chain
// link, so a retrieve doubles as a full possession proof.
func (n *Node) RetrieveRound(ctx context.Context, identity, cid string, roundSeed []byte) ([]byte, RoundResult, error) {
	conn, err := n.prover(identity)
	if err != nil {
		return nil, RoundResult{}, err
	}
	rec, ok := n.Registry.Get(identity, cid)
	if !ok {
		return nil, RoundResult{}, errors.Errorf("no tracked replica of %s on %s", cid, identity)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	newSeed := sampler.RoundSeed(roundSeed, identity)
	if rec.Chain.Consumed(newSeed) {
		n.Retr("err", fmt.Sprintf("retrieve %s from %s: %v", cid, identity, common.ErrSeedReuse))
		return nil, n.recordRound(Outcome{
			Identity:  identity,
			Category:  reputation.CategoryRetrieve,
			Success:   false,
			RoundSeed: roundSeed,
			Reason:    common.Classify(common.ErrSeedReuse),
		}), nil
	}

	rctx, cancel := context.WithTimeout(ctx, n.ReadRetrieveTimeout())
	defer cancel()

	start := time.Now()
	resp, err := conn.Retrieve(rctx, RetrieveRequest{CID: cid, Seed: newSeed})
	latency := time.Since(start)

	roundErr := classifyTransport(rctx, err)
	if roundErr == nil {
		roundErr = verifyRetrieve(rec, resp, newSeed)
	}

	var payload []byte
	if roundErr == nil {
		payload = resp.Payload
		rec.LastVerified = n.round.Load()
		if err := n.Registry.Save(n, rec); err != nil {
			n.Retr("err", fmt.Sprintf("[Save] %v", err))
		}
		n.Retr("info", fmt.Sprintf("retrieved %s from %s (%d bytes)", cid, identity, len(payload)))
	} else {
		n.Retr("err", fmt.Sprintf("retrieve %s from %s failed: %v", cid, identity, roundErr))
	}

	return payload, n.recordRound(Outcome{
		Identity:  identity,
		Category:  reputation.CategoryRetrieve,
		Success:   roundErr == nil,
		Latency:   latency,
		RoundSeed: roundSeed,
		Reason:    common.Classify(roundErr),
	}), nil
}

func verifyRetrieve(rec *PayloadRecord, resp RetrieveResponse, newSeed []byte) error {
	if len(resp.Payload) == 0 || len(resp.ChainLink) == 0 {
		return common.ErrMalformedInput
	}
	// wrong bytes are data loss even when the prover still answers
	if !bytes.Equal(utils.HashSHA256(resp.Payload), rec.Digest) {
		return errors.Wrap(common.ErrChainLinkMismatch, "payload digest disagrees with tracked digest")
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
