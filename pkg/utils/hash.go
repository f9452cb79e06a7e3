/*
	Copyright (C) TaoStore. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package utils

import (
	"crypto/sha256"

	"github.com/mr-tron/base58"
)

// HashSHA256 returns the raw sha256 digest of data.
func HashSHA256(data []byte) []byte {
	h := sha256.Sum256(data)
	return h[:]
}

// ContentID derives the base58 content address of a payload, used as
// the storage lookup key and in log lines.
func ContentID(data []byte) string {
	return base58.Encode(HashSHA256(data))
}
