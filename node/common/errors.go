/*
	Copyright (C) TaoStore. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package common

import (
	"context"

	"github.com/pkg/errors"
)

// Round failure kinds. Every one of them resolves to a failed round
// outcome; none is fatal to the engine.
var (
	// the opening does not match the commitment
	ErrCommitmentMismatch = errors.New("commitment mismatch")
	// recomputed chain link disagrees with the claim, flags possible
	// data loss on the prover side
	ErrChainLinkMismatch = errors.New("chain link mismatch")
	// proof path does not resolve to the claimed root
	ErrMerkleProofInvalid = errors.New("merkle proof invalid")
	// protocol violation, distinct from an honest miss
	ErrSeedReuse = errors.New("seed reuse")
	// unavailability rather than corruption
	ErrTimeout = errors.New("timeout")
	// structurally invalid commitment or proof encoding
	ErrMalformedInput = errors.New("malformed input")
)

// Classify maps a round error to the outcome reason string recorded
// with the failed round.
func Classify(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrSeedReuse):
		return "seed-reuse"
	case errors.Is(err, ErrChainLinkMismatch):
		return "chain-link-mismatch"
	case errors.Is(err, ErrMerkleProofInvalid):
		return "merkle-proof-invalid"
	case errors.Is(err, ErrCommitmentMismatch):
		return "commitment-mismatch"
	case errors.Is(err, ErrMalformedInput):
		return "malformed-input"
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}
