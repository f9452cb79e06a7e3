/*
	Copyright (C) TaoStore. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package node

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/pkg/errors"
)

// EntropySeeds is the standalone randomness collaborator: one fresh
// 32-byte seed per interval from the system entropy pool. Deployments
// that share rounds across verifiers swap in a source backed by a
// public beacon instead.
type EntropySeeds struct {
	Interval time.Duration
}

var _ SeedSource = (*EntropySeeds)(nil)

func (s *EntropySeeds) NextSeed(ctx context.Context) ([]byte, error) {
	interval := s.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	timer := time.NewTimer(interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}
	seed := make([]byte, 32)
	_, err := rand.Read(seed)
	if err != nil {
		return nil, errors.Wrap(err, "[rand.Read]")
	}
	return seed, nil
}
