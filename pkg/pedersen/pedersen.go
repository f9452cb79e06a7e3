/*
	Copyright (C) TaoStore. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

// Package pedersen implements the hiding, binding commitment scheme
// used for payloads and chunks: c = m*G + r*H over secp256k1, with H
// derived by hashing so that no one knows its discrete log wrt G.
package pedersen

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"sync"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/pkg/errors"
)

// Verification reason codes.
const (
	ReasonNone        = "ok"
	ReasonPointDecode = "point-decode-error"
	ReasonArithmetic  = "arithmetic-mismatch"
)

const hDomain = "taostore/pedersen/generator-h/v1"

// Commitment is the transmitted half of the scheme: the commitment
// point and the committed message digest. The blinding factor stays
// with the prover until an opening check.
type Commitment struct {
	Point  []byte `json:"point"`
	Digest []byte `json:"digest"`
}

var (
	hOnce  sync.Once
	hPoint secp256k1.JacobianPoint
)

// generatorH derives the second generator by try-and-increment over
// the hash of a fixed domain tag and the encoding of G.
func generatorH() *secp256k1.JacobianPoint {
	hOnce.Do(func() {
		var one secp256k1.ModNScalar
		one.SetInt(1)
		var g secp256k1.JacobianPoint
		secp256k1.ScalarBaseMultNonConst(&one, &g)
		g.ToAffine()
		gBytes := secp256k1.NewPublicKey(&g.X, &g.Y).SerializeCompressed()

		data := append([]byte(hDomain), gBytes...)
		candidate := make([]byte, 33)
		candidate[0] = secp256k1.PubKeyFormatCompressedEven
		var counter [4]byte
		for i := uint32(0); ; i++ {
			binary.LittleEndian.PutUint32(counter[:], i)
			seed := sha256.Sum256(append(data, counter[:]...))
			copy(candidate[1:], seed[:])
			pub, err := secp256k1.ParsePubKey(candidate)
			if err != nil {
				continue
			}
			pub.AsJacobian(&hPoint)
			return
		}
	})
	return &hPoint
}

// Commit commits to message with the given blinding factor, or a
// cryptographically random one when blinding is nil. It returns the
// commitment and the blinding factor actually used.
func Commit(message []byte, blinding []byte) (Commitment, []byte, error) {
	if len(message) == 0 {
		return Commitment{}, nil, errors.New("empty message")
	}
	if blinding == nil {
		blinding = make([]byte, 32)
		_, err := rand.Read(blinding)
		if err != nil {
			return Commitment{}, nil, errors.Wrap(err, "[rand.Read]")
		}
	}

	var r secp256k1.ModNScalar
	r.SetByteSlice(blinding)
	if r.IsZero() {
		return Commitment{}, nil, errors.New("degenerate blinding factor")
	}

	digest := sha256.Sum256(message)
	var m secp256k1.ModNScalar
	m.SetByteSlice(digest[:])

	var mG, rH, c secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(&m, &mG)
	var h secp256k1.JacobianPoint
	h.Set(generatorH())
	secp256k1.ScalarMultNonConst(&r, &h, &rH)
	secp256k1.AddNonConst(&mG, &rH, &c)

	c.ToAffine()
	point := secp256k1.NewPublicKey(&c.X, &c.Y).SerializeCompressed()
	return Commitment{Point: point, Digest: digest[:]}, blinding, nil
}

// Verify recomputes the commitment from message and blinding and
// compares points. It never panics on malformed input; the reason code
// distinguishes undecodable points from honest mismatches.
func Verify(c Commitment, message []byte, blinding []byte) (bool, string) {
	if len(c.Point) == 0 || len(message) == 0 || len(blinding) == 0 {
		return false, ReasonPointDecode
	}
	_, err := secp256k1.ParsePubKey(c.Point)
	if err != nil {
		return false, ReasonPointDecode
	}

	expected, _, err := Commit(message, blinding)
	if err != nil {
		return false, ReasonPointDecode
	}
	if !bytes.Equal(expected.Point, c.Point) {
		return false, ReasonArithmetic
	}
	if len(c.Digest) > 0 && !bytes.Equal(expected.Digest, c.Digest) {
		return false, ReasonArithmetic
	}
	return true, ReasonNone
}
