/*
	Copyright (C) TaoStore. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package configs

import "time"

const (
	// Name is the name of the program
	Name = "taostore"
	// version
	Version = "v0.2.0 dev"
	// Description is the description of the program
	Description = "Proof-of-spacetime verification node for the storage subnet"
	// NameSpace is the cached namespace
	NameSpaces = Name
)

const (
	// Default config file
	DefaultConfigFile = "conf.yaml"
	//
	DefaultWorkspace = "/"
	//
	DefaultServicePort = 15301
)

const (
	DirMode  = 0755
	FileMode = 0644
)

const (
	DbDir  = "db"
	LogDir = "log"
)

// protocol defaults, aligned with the validator parameters of the
// original subnet
const (
	// number of provers challenged per round
	DefaultSampleSize = 5
	// number of provers each payload is stored on
	DefaultStoreRedundancy = 3
	// rounds per epoch, windowed counters reset on rollover
	DefaultEpochLength = 360
	// rounds without a successful verification before a payload's
	// chain state may be collected
	DefaultRetentionRounds = 1024
	// recent seeds remembered per payload for reuse detection
	DefaultSeedWindow = 64

	// chunking
	DefaultMinChunkSize = 24
	DefaultChunkFactor  = 4

	// per-category query timeouts
	DefaultStoreTimeout     = time.Second * 10
	DefaultChallengeTimeout = time.Second * 20
	DefaultRetrieveTimeout  = time.Second * 50
)
