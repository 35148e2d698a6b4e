// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"context"
	"testing"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func TestSpaceExecutor(t *testing.T) {
	require := require.New(t)

	db := memdb.New()
	e := NewSpaceExecutor(DefaultGenesis())
	owner, other := newKey(t), newKey(t)
	bid := ids.GenerateTestID()

	claim, err := SignTx(&ClaimTx{BaseTx: &BaseTx{BlockID: bid}, Space: "foo"}, owner)
	require.NoError(err)
	// claimed twice in the same block, the second one is skipped
	reclaim, err := SignTx(&ClaimTx{BaseTx: &BaseTx{BlockID: bid}, Space: "foo"}, other)
	require.NoError(err)
	set, err := SignTx(&SetTx{BaseTx: &BaseTx{BlockID: bid}, Space: "foo", Key: "bar", Value: []byte("baz")}, owner)
	require.NoError(err)
	stolen, err := SignTx(&SetTx{BaseTx: &BaseTx{BlockID: bid}, Space: "foo", Key: "bar", Value: []byte("qux")}, other)
	require.NoError(err)

	txs := []*Transaction{claim, reclaim, set, stolen}
	commitment, err := e.Execute(context.Background(), txs, &BlockContext{
		BlockID:   ids.GenerateTestID(),
		Height:    1,
		Timestamp: 10,
		Database:  db,
	})
	require.NoError(err)
	require.NotEqual(ids.Empty, commitment)

	info, exists, err := GetSpaceInfo(db, []byte("foo"))
	require.NoError(err)
	require.True(exists)
	require.Equal(crypto.PubkeyToAddress(owner.PublicKey), info.Owner)
	require.Equal(RawSpace([]byte("foo"), 10), info.RawSpace)

	meta, exists, err := GetValueMeta(db, info.RawSpace, []byte("bar"))
	require.NoError(err)
	require.True(exists)
	require.Equal(set.ID(), meta.TxID)
	require.Equal(uint64(3), meta.Size)

	for tx, included := range map[*Transaction]bool{claim: true, reclaim: false, set: true, stolen: false} {
		has, err := HasTransaction(db, tx.ID())
		require.NoError(err)
		require.Equal(included, has)
	}

	// The value itself is resolved through the detached record.
	require.NoError(PutTxValue(db, set.ID(), []byte("baz")))
	v, exists, err := GetValue(db, []byte("foo"), []byte("bar"))
	require.NoError(err)
	require.True(exists)
	require.Equal([]byte("baz"), v)
}

func TestSpaceExecutorDelete(t *testing.T) {
	require := require.New(t)

	db := memdb.New()
	e := NewSpaceExecutor(DefaultGenesis())
	owner := newKey(t)
	bid := ids.GenerateTestID()

	claim, err := SignTx(&ClaimTx{BaseTx: &BaseTx{BlockID: bid}, Space: "foo"}, owner)
	require.NoError(err)
	set, err := SignTx(&SetTx{BaseTx: &BaseTx{BlockID: bid}, Space: "foo", Key: "bar"}, owner)
	require.NoError(err)
	del, err := SignTx(&DeleteTx{BaseTx: &BaseTx{BlockID: bid}, Space: "foo", Key: "bar"}, owner)
	require.NoError(err)

	for _, tx := range []*Transaction{claim, set} {
		ok, err := e.ExecuteTx(tx, db, 1)
		require.NoError(err)
		require.True(ok)
	}
	v, exists, err := GetValue(db, []byte("foo"), []byte("bar"))
	require.NoError(err)
	require.True(exists)
	require.Empty(v)

	require.NoError(e.Check(del, db, 2))
	ok, err := e.ExecuteTx(del, db, 2)
	require.NoError(err)
	require.True(ok)

	_, exists, err = GetValue(db, []byte("foo"), []byte("bar"))
	require.NoError(err)
	require.False(exists)

	require.ErrorIs(e.Check(del, db, 3), ErrKeyMissing)
}

func TestSpaceExecutorCommitment(t *testing.T) {
	require := require.New(t)

	e := NewSpaceExecutor(DefaultGenesis())
	owner := newKey(t)
	claim, err := SignTx(&ClaimTx{BaseTx: &BaseTx{BlockID: ids.GenerateTestID()}, Space: "foo"}, owner)
	require.NoError(err)

	bctx := func() *BlockContext {
		return &BlockContext{Height: 1, Timestamp: 1, Database: memdb.New()}
	}
	a, err := e.Execute(context.Background(), []*Transaction{claim}, bctx())
	require.NoError(err)
	b, err := e.Execute(context.Background(), []*Transaction{claim}, bctx())
	require.NoError(err)
	require.Equal(a, b)

	empty, err := e.Execute(context.Background(), nil, bctx())
	require.NoError(err)
	require.NotEqual(a, empty)
}

func TestSpaceExecutorSkipsReplay(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	db := memdb.New()
	e := NewSpaceExecutor(DefaultGenesis())
	owner := newKey(t)
	bid := ids.GenerateTestID()

	claim, err := SignTx(&ClaimTx{BaseTx: &BaseTx{BlockID: bid}, Space: "foo"}, owner)
	require.NoError(err)
	set1, err := SignTx(&SetTx{BaseTx: &BaseTx{BlockID: bid}, Space: "foo", Key: "bar", Value: []byte("v1")}, owner)
	require.NoError(err)
	set2, err := SignTx(&SetTx{BaseTx: &BaseTx{BlockID: bid}, Space: "foo", Key: "bar", Value: []byte("v2")}, owner)
	require.NoError(err)

	for i, txs := range [][]*Transaction{{claim}, {set1}, {set2}} {
		_, err := e.Execute(ctx, txs, &BlockContext{Height: uint64(i + 1), Timestamp: int64(i + 1), Database: db})
		require.NoError(err)
	}

	// an old transaction carried again, twice in the same block
	replayed, err := e.Execute(ctx, []*Transaction{set1, set1}, &BlockContext{Height: 4, Timestamp: 4, Database: db})
	require.NoError(err)
	empty, err := e.Execute(ctx, nil, &BlockContext{Height: 4, Timestamp: 4, Database: memdb.New()})
	require.NoError(err)
	require.Equal(empty, replayed)

	meta, exists, err := GetValueMeta(db, RawSpace([]byte("foo"), 1), []byte("bar"))
	require.NoError(err)
	require.True(exists)
	require.Equal(set2.ID(), meta.TxID)

	// the first copy of a transaction in a block runs, the second is skipped
	db = memdb.New()
	claimed, err := e.Execute(ctx, []*Transaction{claim, claim}, &BlockContext{Height: 1, Timestamp: 1, Database: db})
	require.NoError(err)
	once, err := e.Execute(ctx, []*Transaction{claim}, &BlockContext{Height: 1, Timestamp: 1, Database: memdb.New()})
	require.NoError(err)
	require.Equal(once, claimed)
}
