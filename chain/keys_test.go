// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"bytes"
	"testing"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/stretchr/testify/require"
)

func TestPrefixHashKeys(t *testing.T) {
	require := require.New(t)

	id := ids.GenerateTestID()
	for prefix, k := range map[byte][]byte{
		blockPrefix:   PrefixBlockKey(id),
		txPrefix:      PrefixTxKey(id),
		txValuePrefix: PrefixTxValueKey(id),
	} {
		require.Len(k, hashKeyLen)
		require.Equal(prefix, k[0])
		require.Equal(ByteDelimiter, k[1])
		require.Equal(id[:], k[2:])
	}

	// Distinct record types never collide for the same id.
	require.False(bytes.Equal(PrefixTxKey(id), PrefixTxValueKey(id)))
}

func TestSpaceKeys(t *testing.T) {
	require := require.New(t)

	require.Equal([]byte{infoPrefix, '/', 'f', 'o', 'o'}, SpaceInfoKey([]byte("foo")))

	rspace := RawSpace([]byte("foo"), 10)
	k := SpaceValueKey(rspace, []byte("bar"))
	require.Len(k, 2+shortIDLen+1+3)
	require.Equal(byte(keyPrefix), k[0])
	require.Equal(rspace[:], k[2:2+shortIDLen])
	require.Equal(ByteDelimiter, k[2+shortIDLen])
	require.Equal([]byte("bar"), k[2+shortIDLen+1:])
}

func TestRawSpace(t *testing.T) {
	require := require.New(t)

	a := RawSpace([]byte("foo"), 1)
	require.Equal(a, RawSpace([]byte("foo"), 1))
	require.NotEqual(a, RawSpace([]byte("foo"), 2))
	require.NotEqual(a, RawSpace([]byte("fo"), 1))
}
