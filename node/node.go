/*
	Copyright (C) TaoStore. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

// Package node wires the verification engine together: it drives
// store, challenge and retrieve rounds against attached provers,
// feeds every outcome to the reputation engine and persists chain
// state and counters across restarts.
package node

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/taomind007/storage-subnet/node/web"
	"github.com/taomind007/storage-subnet/pkg/cache"
	"github.com/taomind007/storage-subnet/pkg/confile"
	"github.com/taomind007/storage-subnet/pkg/logger"
	"github.com/taomind007/storage-subnet/pkg/reputation"

	"github.com/pkg/errors"
)

const reputationKey = "reputation:stats"

type Node struct {
	confile.Confiler
	logger.Logger
	cache.Cache
	Rep      *reputation.Engine
	Registry *PayloadRegistry
	Seeds    SeedSource

	peerLock sync.RWMutex
	peers    map[string]ProverConn

	round atomic.Uint32
}

func New() *Node {
	return &Node{
		Registry: NewPayloadRegistry(),
		peers:    make(map[string]ProverConn),
	}
}

// AttachProver registers the transport connection for one identity.
// Re-attaching replaces the previous connection, which is how a
// reconnecting prover resumes its existing chain state.
func (n *Node) AttachProver(identity string, conn ProverConn) {
	n.peerLock.Lock()
	n.peers[identity] = conn
	n.peerLock.Unlock()
}

func (n *Node) DetachProver(identity string) {
	n.peerLock.Lock()
	delete(n.peers, identity)
	n.peerLock.Unlock()
}

// Provers lists attached identities, sorted so deterministic draws see
// a stable candidate order.
func (n *Node) Provers() []string {
	n.peerLock.RLock()
	defer n.peerLock.RUnlock()
	out := make([]string, 0, len(n.peers))
	for identity := range n.peers {
		out = append(out, identity)
	}
	sort.Strings(out)
	return out
}

func (n *Node) prover(identity string) (ProverConn, error) {
	n.peerLock.RLock()
	conn, ok := n.peers[identity]
	n.peerLock.RUnlock()
	if !ok {
		return nil, errors.Errorf("no connection for identity: %s", identity)
	}
	return conn, nil
}

func (n *Node) CurrentRound() uint32 {
	return n.round.Load()
}

// recordRound is the single funnel every finished round goes through:
// counters first, then the reward computed off the updated tier, then
// the persisted outcome record.
func (n *Node) recordRound(o Outcome) RoundResult {
	err := n.Rep.RecordOutcome(o.Identity, o.Category, o.Success, o.Latency)
	if err != nil {
		n.Log("err", fmt.Sprintf("outcome for %s dropped: %v", o.Identity, err))
	}
	value, tier := n.Rep.Reward(o.Identity, o.Category, o.Success, o.Latency)
	result := RoundResult{Outcome: o, Reward: value, Tier: tier.Name}
	n.saveOutcome(result)
	n.Reward("info", fmt.Sprintf("%s %s success=%v reason=%s tier=%s reward=%.6f",
		o.Identity, o.Category, o.Success, o.Reason, tier.Name, value))
	return result
}

func (n *Node) saveOutcome(result RoundResult) {
	val, err := json.Marshal(result)
	if err != nil {
		return
	}
	key := fmt.Sprintf("outcome:%010d:%s:%s", n.round.Load(), result.Outcome.Identity, result.Outcome.Category)
	err = n.Put([]byte(key), val)
	if err != nil {
		n.Log("err", fmt.Sprintf("[Put] %v", err))
	}
}

// SaveReputation persists the full counter table, called at every
// epoch boundary and on shutdown.
func (n *Node) SaveReputation() error {
	val, err := json.Marshal(n.Rep.Export())
	if err != nil {
		return errors.Wrap(err, "[Marshal]")
	}
	return n.Put([]byte(reputationKey), val)
}

// LoadReputation restores persisted counters, a no-op on first boot.
func (n *Node) LoadReputation() error {
	ok, err := n.Has([]byte(reputationKey))
	if err != nil || !ok {
		return err
	}
	val, err := n.Get([]byte(reputationKey))
	if err != nil {
		return errors.Wrap(err, "[Get]")
	}
	var snaps map[string]reputation.Snapshot
	err = json.Unmarshal(val, &snaps)
	if err != nil {
		return errors.Wrap(err, "[Unmarshal]")
	}
	n.Rep.Restore(snaps)
	return nil
}

var _ web.StatusProvider = (*Node)(nil)

// Participants builds the status rows served by the web surface.
func (n *Node) Participants() []web.ParticipantStatus {
	ids := n.Rep.Identities()
	sort.Strings(ids)
	out := make([]web.ParticipantStatus, 0, len(ids))
	for _, id := range ids {
		if status, ok := n.Participant(id); ok {
			out = append(out, status)
		}
	}
	return out
}

func (n *Node) Participant(identity string) (web.ParticipantStatus, bool) {
	snap, ok := n.Rep.Stats(identity)
	if !ok {
		return web.ParticipantStatus{}, false
	}
	return web.ParticipantStatus{
		Identity:  identity,
		Tier:      n.Rep.CurrentTier(identity).Name,
		Stats:     snap,
		Payloads:  len(n.Registry.List(identity)),
		UsedSpace: n.Registry.UsedSpace(identity),
	}, true
}

func (n *Node) TierTable() []reputation.Tier {
	return n.Rep.Tiers()
}
