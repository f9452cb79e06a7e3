/*
	Copyright (C) TaoStore. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package node

import (
	"context"
	"fmt"
	"sync"

	"github.com/taomind007/storage-subnet/node/web"
	"github.com/taomind007/storage-subnet/pkg/sampler"
	"github.com/taomind007/storage-subnet/pkg/utils"
)

// Run starts the status surface and drives rounds until the context
// is cancelled. One round per seed from the randomness collaborator.
func (n *Node) Run(ctx context.Context) error {
	go func() {
		err := web.Serve(fmt.Sprintf(":%d", n.ReadServicePort()), n)
		if err != nil {
			n.Log("err", fmt.Sprintf("status surface stopped: %v", err))
		}
	}()

	n.Log("info", fmt.Sprintf("running, %d payloads tracked", len(n.Registry.Identities())))

	for {
		seed, err := n.Seeds.NextSeed(ctx)
		if err != nil {
			n.Log("info", fmt.Sprintf("round loop stopped: %v", err))
			return n.SaveReputation()
		}
		n.RunRound(ctx, seed)
	}
}

// RunRound executes one challenge round: draw the participant subset
// from the identities that actually hold payloads, spot-check one
// payload per selected identity in parallel, then handle the epoch
// boundary and retention sweep.
func (n *Node) RunRound(ctx context.Context, roundSeed []byte) []RoundResult {
	round := n.round.Add(1)

	candidates := n.Registry.Identities()
	selected, err := sampler.Select(roundSeed, candidates, n.ReadSampleSize())
	if err != nil {
		n.Chal("err", fmt.Sprintf("round %d selection failed: %v", round, err))
		return nil
	}

	resultCh := make(chan RoundResult, len(selected))
	var wg sync.WaitGroup
	for _, identity := range selected {
		recs := n.Registry.List(identity)
		if len(recs) == 0 {
			continue
		}
		picked, err := sampler.Select(roundSeed, cids(recs), 1)
		if err != nil || len(picked) == 0 {
			continue
		}
		wg.Add(1)
		go func(identity, cid string) {
			defer wg.Done()
			defer func() {
				if err := recover(); err != nil {
					n.Pnc(utils.RecoverError(err))
				}
			}()
			result, err := n.ChallengeRound(ctx, identity, cid, roundSeed)
			if err != nil {
				n.Chal("err", fmt.Sprintf("round %d challenge of %s skipped: %v", round, identity, err))
				return
			}
			resultCh <- result
		}(identity, picked[0])
	}
	wg.Wait()
	close(resultCh)

	results := make([]RoundResult, 0, len(selected))
	for result := range resultCh {
		results = append(results, result)
	}

	if epoch := n.ReadEpochLength(); epoch > 0 && round%epoch == 0 {
		n.Rep.RolloverEpoch()
		if err := n.SaveReputation(); err != nil {
			n.Epoch("err", fmt.Sprintf("[SaveReputation] %v", err))
		}
		n.Epoch("info", fmt.Sprintf("epoch %d closed at round %d, windows reset", round/epoch, round))
	}

	n.sweep(round)
	return results
}

func cids(recs []*PayloadRecord) []string {
	out := make([]string, len(recs))
	for i, rec := range recs {
		out[i] = rec.CID
	}
	return out
}

// sweep collects chain state for replicas that have gone unverified
// past the retention horizon.
func (n *Node) sweep(round uint32) {
	dropped := n.Registry.Sweep(round, n.ReadRetentionRounds())
	for _, rec := range dropped {
		if err := n.Registry.Discard(n, rec); err != nil {
			n.Log("err", fmt.Sprintf("[Discard] %v", err))
		}
		n.Log("info", fmt.Sprintf("collected stale replica %s on %s, last verified round %d",
			rec.CID, rec.Identity, rec.LastVerified))
	}
}
