/*
	Copyright (C) TaoStore. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package node

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/taomind007/storage-subnet/pkg/cache"
	"github.com/taomind007/storage-subnet/pkg/hashchain"

	"github.com/pkg/errors"
)

const payloadKeyPrefix = "payload:"

// PayloadRecord is the verifier-side state for one (identity, payload)
// pair: the digest, the chain state and the round of the last
// successful verification. The mutex serializes rounds touching the
// same pair so concurrent challenges can never consume the same chain
// transition twice.
type PayloadRecord struct {
	mu           sync.Mutex
	Identity     string           `json:"identity"`
	CID          string           `json:"cid"`
	Digest       []byte           `json:"digest"`
	Size         int              `json:"size"`
	Chain        *hashchain.Chain `json:"chain"`
	Root         []byte           `json:"root"`
	LastVerified uint32           `json:"last_verified"`
}

// PayloadRegistry indexes every tracked payload record by identity and
// content id. Lookups take the read lock; rounds then serialize on the
// record's own mutex, so rounds against different records proceed in
// parallel.
type PayloadRegistry struct {
	mu      sync.RWMutex
	records map[string]*PayloadRecord
}

func NewPayloadRegistry() *PayloadRegistry {
	return &PayloadRegistry{
		records: make(map[string]*PayloadRecord),
	}
}

func payloadKey(identity, cid string) string {
	return identity + "/" + cid
}

func (g *PayloadRegistry) Add(rec *PayloadRecord) {
	g.mu.Lock()
	g.records[payloadKey(rec.Identity, rec.CID)] = rec
	g.mu.Unlock()
}

func (g *PayloadRegistry) Get(identity, cid string) (*PayloadRecord, bool) {
	g.mu.RLock()
	rec, ok := g.records[payloadKey(identity, cid)]
	g.mu.RUnlock()
	return rec, ok
}

func (g *PayloadRegistry) Remove(identity, cid string) {
	g.mu.Lock()
	delete(g.records, payloadKey(identity, cid))
	g.mu.Unlock()
}

// List returns the records held by one identity, ordered by content id
// so round-level payload picks are deterministic.
func (g *PayloadRegistry) List(identity string) []*PayloadRecord {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []*PayloadRecord
	for _, rec := range g.records {
		if rec.Identity == identity {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CID < out[j].CID })
	return out
}

// Holders returns the identities holding a replica of cid, sorted.
func (g *PayloadRegistry) Holders(cid string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []string
	for _, rec := range g.records {
		if rec.CID == cid {
			out = append(out, rec.Identity)
		}
	}
	sort.Strings(out)
	return out
}

// Identities lists every identity with at least one tracked payload,
// sorted. This is the candidate set for round selection.
func (g *PayloadRegistry) Identities() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, rec := range g.records {
		seen[rec.Identity] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for identity := range seen {
		out = append(out, identity)
	}
	sort.Strings(out)
	return out
}

// UsedSpace sums the payload bytes tracked for one identity, the value
// checked against the tier storage limit before a new store round.
func (g *PayloadRegistry) UsedSpace(identity string) uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var total uint64
	for _, rec := range g.records {
		if rec.Identity == identity {
			total += uint64(rec.Size)
		}
	}
	return total
}

// Sweep drops every record whose last successful verification is more
// than retention rounds behind the current round and returns what was
// dropped so the caller can clean up persisted state.
func (g *PayloadRegistry) Sweep(current, retention uint32) []*PayloadRecord {
	if retention == 0 {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	var dropped []*PayloadRecord
	for key, rec := range g.records {
		if current > rec.LastVerified && current-rec.LastVerified > retention {
			dropped = append(dropped, rec)
			delete(g.records, key)
		}
	}
	return dropped
}

// Save persists one record. Called after every round that mutates its
// chain state.
func (g *PayloadRegistry) Save(w cache.Writer, rec *PayloadRecord) error {
	val, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "[Marshal]")
	}
	return w.Put([]byte(payloadKeyPrefix+payloadKey(rec.Identity, rec.CID)), val)
}

// Discard removes one record's persisted form.
func (g *PayloadRegistry) Discard(w cache.Writer, rec *PayloadRecord) error {
	return w.Delete([]byte(payloadKeyPrefix + payloadKey(rec.Identity, rec.CID)))
}

// Load restores every persisted record. A record that fails to decode
// is skipped rather than aborting the boot; the chain state for it is
// simply gone and the payload will be re-verified from scratch.
func (g *PayloadRegistry) Load(c cache.Cache) (int, error) {
	keys, err := c.QueryPrefixKeyList(payloadKeyPrefix)
	if err != nil {
		return 0, errors.Wrap(err, "[QueryPrefixKeyList]")
	}
	var loaded int
	for _, key := range keys {
		val, err := c.Get([]byte(payloadKeyPrefix + key))
		if err != nil {
			continue
		}
		var rec PayloadRecord
		if json.Unmarshal(val, &rec) != nil {
			continue
		}
		if rec.Identity == "" || rec.CID == "" || rec.Chain == nil {
			continue
		}
		g.Add(&rec)
		loaded++
	}
	return loaded, nil
}
