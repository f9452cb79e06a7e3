/*
	Copyright (C) TaoStore. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

// Package chunker splits payloads into the fixed-boundary chunks both
// sides of a challenge derive independently.
package chunker

import (
	"github.com/pkg/errors"
)

// Split cuts payload into chunks of chunkSize bytes. The final chunk
// may be shorter. Chunks alias the payload, they are not copies.
func Split(payload []byte, chunkSize int) ([][]byte, error) {
	if len(payload) == 0 {
		return nil, errors.New("empty payload")
	}
	if chunkSize <= 0 {
		return nil, errors.Errorf("invalid chunk size: %d", chunkSize)
	}
	chunks := make([][]byte, 0, (len(payload)+chunkSize-1)/chunkSize)
	for start := 0; start < len(payload); start += chunkSize {
		end := start + chunkSize
		if end > len(payload) {
			end = len(payload)
		}
		chunks = append(chunks, payload[start:end])
	}
	return chunks, nil
}

// NumChunks reports how many chunks Split would produce.
func NumChunks(payloadLen, chunkSize int) int {
	if payloadLen <= 0 || chunkSize <= 0 {
		return 0
	}
	return (payloadLen + chunkSize - 1) / chunkSize
}

// DeriveChunkSize reproduces the validator's chunk size rule: an
// explicit override wins, otherwise payloadLen/factor floored at
// minChunk. Both sides must call this with identical parameters.
func DeriveChunkSize(payloadLen, minChunk, factor, override int) int {
	if override > 0 {
		return override
	}
	if factor <= 0 {
		factor = 1
	}
	size := payloadLen / factor
	if size < minChunk {
		size = minChunk
	}
	return size
}
