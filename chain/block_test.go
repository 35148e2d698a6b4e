// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"testing"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/stretchr/testify/require"
)

func TestStatelessBlockRoundTrip(t *testing.T) {
	require := require.New(t)

	priv := newKey(t)
	claim, err := SignTx(&ClaimTx{BaseTx: &BaseTx{BlockID: ids.GenerateTestID()}, Space: "foo"}, priv)
	require.NoError(err)
	set, err := SignTx(&SetTx{
		BaseTx: &BaseTx{BlockID: ids.GenerateTestID()},
		Space:  "foo",
		Key:    "bar",
		Value:  []byte("baz"),
	}, priv)
	require.NoError(err)

	blk, err := NewStatelessBlock(ids.GenerateTestID(), 7, 1000, []byte("payload"), []*Transaction{claim, set})
	require.NoError(err)

	parsed, err := ParseStatelessBlock(blk.Bytes())
	require.NoError(err)
	require.Equal(blk.ID(), parsed.ID())
	require.Equal(blk.Parent(), parsed.Parent())
	require.Equal(blk.Height(), parsed.Height())
	require.Equal(blk.Timestamp(), parsed.Timestamp())
	require.Equal(blk.Data, parsed.Data)
	require.Len(parsed.Txs, 2)
	require.Equal(claim.ID(), parsed.Txs[0].ID())
	require.Equal(set.ID(), parsed.Txs[1].ID())
	require.Equal(set.Sender(), parsed.Txs[1].Sender())
}

func TestParseStatelessBlockMalformed(t *testing.T) {
	_, err := ParseStatelessBlock([]byte{0, 0, 1})
	require.ErrorIs(t, err, ErrInvalidBlock)
}

func TestParseGenesis(t *testing.T) {
	require := require.New(t)

	g, err := ParseGenesis(nil)
	require.NoError(err)
	require.Equal(DefaultGenesis(), g)

	g, err = ParseGenesis([]byte(`{"author":"alice"}`))
	require.NoError(err)
	require.Equal("alice", g.Author)
	require.Equal(DefaultWelcomeMessage, g.WelcomeMessage)
	require.Equal(uint64(DefaultMaxValueSize), g.MaxValueSize)

	_, err = ParseGenesis([]byte("{"))
	require.ErrorIs(err, ErrInvalidGenesis)
}
