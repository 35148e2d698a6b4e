// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"encoding/binary"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
	"github.com/ava-labs/avalanchego/utils/wrappers"
)

// Every key in the database is [prefix] + [ByteDelimiter] + [suffix]. The
// underlying store only offers a single ordered keyspace, so each record type
// is partitioned by its leading byte.
const (
	blockPrefix   = 0x0
	txPrefix      = 0x1
	txValuePrefix = 0x2
	infoPrefix    = 0x3
	keyPrefix     = 0x4

	ByteDelimiter byte = '/'

	shortIDLen = 20
	// prefix + delimiter + ID
	hashKeyLen = 2 + len(ids.Empty)
)

var lastAcceptedKey = []byte("last_accepted")

// LastAcceptedKey returns the fixed key holding the last accepted block ID.
func LastAcceptedKey() []byte {
	return lastAcceptedKey
}

func prefixHashKey(prefix byte, id ids.ID) []byte {
	k := make([]byte, hashKeyLen)
	k[0] = prefix
	k[1] = ByteDelimiter
	copy(k[2:], id[:])
	return k
}

// PrefixBlockKey returns 'blockPrefix' + 'ByteDelimiter' + [blockID]
func PrefixBlockKey(blockID ids.ID) []byte {
	return prefixHashKey(blockPrefix, blockID)
}

// PrefixTxKey returns 'txPrefix' + 'ByteDelimiter' + [txID]
func PrefixTxKey(txID ids.ID) []byte {
	return prefixHashKey(txPrefix, txID)
}

// PrefixTxValueKey returns 'txValuePrefix' + 'ByteDelimiter' + [txID]
func PrefixTxValueKey(txID ids.ID) []byte {
	return prefixHashKey(txValuePrefix, txID)
}

// SpaceInfoKey returns 'infoPrefix' + 'ByteDelimiter' + [space]
func SpaceInfoKey(space []byte) []byte {
	k := make([]byte, 2+len(space))
	k[0] = infoPrefix
	k[1] = ByteDelimiter
	copy(k[2:], space)
	return k
}

// SpaceValueKey returns 'keyPrefix' + 'ByteDelimiter' + [rspace] + 'ByteDelimiter' + [key]
func SpaceValueKey(rspace ids.ShortID, key []byte) []byte {
	k := make([]byte, 2+shortIDLen+1+len(key))
	k[0] = keyPrefix
	k[1] = ByteDelimiter
	copy(k[2:], rspace[:])
	k[2+shortIDLen] = ByteDelimiter
	copy(k[2+shortIDLen+1:], key)
	return k
}

// RawSpace derives the short identifier used in value keys from the space
// name and the time the space was claimed. Storing the short id instead of
// the name keeps value keys bounded in size.
func RawSpace(space []byte, blockTime uint64) ids.ShortID {
	r := make([]byte, len(space)+1+wrappers.LongLen)
	copy(r, space)
	r[len(space)] = ByteDelimiter
	binary.BigEndian.PutUint64(r[len(space)+1:], blockTime)
	return ids.ShortID(hashing.ComputeHash160Array(r))
}
