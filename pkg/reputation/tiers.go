/*
	Copyright (C) TaoStore. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package reputation

import "github.com/pkg/errors"

// Tier is one performance bracket. The table is ordered lowest to
// highest and every row strictly dominates the one below it in all
// four fields.
type Tier struct {
	Name              string  `json:"name"`
	MinSuccessRate    float64 `json:"min_success_rate"`
	MinTotalSuccesses uint64  `json:"min_total_successes"`
	StorageLimit      uint64  `json:"storage_limit"`
	RewardFactor      float64 `json:"reward_factor"`
}

const (
	TiB = 1 << 40
	PiB = 1 << 50
	EiB = 1 << 60
)

// DefaultTiers mirrors the tier table of the original subnet.
func DefaultTiers() []Tier {
	return []Tier{
		{Name: "Bronze", MinSuccessRate: 0, MinTotalSuccesses: 0, StorageLimit: 1 * TiB, RewardFactor: 0.444},
		{Name: "Silver", MinSuccessRate: 0.95, MinTotalSuccesses: 1000, StorageLimit: 10 * TiB, RewardFactor: 0.555},
		{Name: "Gold", MinSuccessRate: 0.97, MinTotalSuccesses: 5000, StorageLimit: 100 * TiB, RewardFactor: 0.777},
		{Name: "Diamond", MinSuccessRate: 0.99, MinTotalSuccesses: 20000, StorageLimit: 1 * PiB, RewardFactor: 0.888},
		{Name: "SuperSaiyan", MinSuccessRate: 0.999, MinTotalSuccesses: 100000, StorageLimit: 1 * EiB, RewardFactor: 1.0},
	}
}

// CheckTiers validates the strict dominance ordering.
func CheckTiers(tiers []Tier) error {
	if len(tiers) == 0 {
		return errors.New("empty tier table")
	}
	for i := 1; i < len(tiers); i++ {
		prev, curr := tiers[i-1], tiers[i]
		if curr.MinSuccessRate <= prev.MinSuccessRate ||
			curr.MinTotalSuccesses <= prev.MinTotalSuccesses ||
			curr.StorageLimit <= prev.StorageLimit ||
			curr.RewardFactor <= prev.RewardFactor {
			return errors.Errorf("tier '%s' does not dominate tier '%s'", curr.Name, prev.Name)
		}
	}
	return nil
}
