package digest

import (
	"encoding/base32"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"

	"github.com/minio/sha256-simd"
	"github.com/multiformats/go-base36"
	"github.com/twmb/murmur3"
	"golang.org/x/crypto/blake2b"
)

// A nil Hasher means no digests are computed at all.
type Hasher func() hash.Hash

var AvailableHashers = map[string]Hasher{
	"none":     nil,
	"sha2-256": sha256.New,
	"blake2b-256": func() hash.Hash {
		h, err := blake2b.New256(nil)
		if err != nil {
			// only possible with an oversized key
			panic(err)
		}
		return h
	},
	"murmur3-128": func() hash.Hash { return murmur3.New128() },
}

// Formatter renders a digest with its multibase prefix.
type Formatter func([]byte) string

var b32Encoder = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)

var AvailableMultibases = map[string]Formatter{
	"base16": func(d []byte) string { return "f" + hex.EncodeToString(d) },
	"base32": func(d []byte) string { return "b" + b32Encoder.EncodeToString(d) },
	"base36": func(d []byte) string { return "k" + base36.EncodeToStringLc(d) },
}

// Sum hashes data with the named hasher. It returns nil for "none".
func Sum(hasherName string, data []byte) ([]byte, error) {
	newHasher, exists := AvailableHashers[hasherName]
	if !exists {
		return nil, fmt.Errorf("unknown hash function '%s'", hasherName)
	}
	if newHasher == nil {
		return nil, nil
	}

	h := newHasher()
	h.Write(data) //nolint:errcheck
	return h.Sum(nil), nil
}

const SeenKeySize = 16

// SeenKey is a fast fingerprint used to spot repeated pieces.
func SeenKey(data []byte) (k [SeenKeySize]byte) {
	h1, h2 := murmur3.Sum128(data)
	binary.BigEndian.PutUint64(k[:8], h1)
	binary.BigEndian.PutUint64(k[8:], h2)
	return
}
