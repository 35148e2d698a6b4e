// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"crypto/ecdsa"
	"testing"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func newKey(t *testing.T) *ecdsa.PrivateKey {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	return priv
}

func TestTransactionInit(t *testing.T) {
	require := require.New(t)

	priv := newKey(t)
	utx := &SetTx{
		BaseTx: &BaseTx{BlockID: ids.GenerateTestID()},
		Space:  "foo",
		Key:    "bar",
		Value:  []byte("baz"),
	}
	tx, err := SignTx(utx, priv)
	require.NoError(err)
	require.Equal(crypto.PubkeyToAddress(priv.PublicKey), tx.Sender())
	require.NotEqual(ids.Empty, tx.ID())
	require.Equal(uint64(len(tx.Bytes())), tx.Size())

	decoded := new(Transaction)
	require.NoError(Unmarshal(tx.Bytes(), decoded))
	require.NoError(decoded.Init())
	require.Equal(tx.ID(), decoded.ID())
	require.Equal(tx.Sender(), decoded.Sender())
	require.Equal(Set, decoded.Typ())
}

func TestTransactionBadSignature(t *testing.T) {
	require := require.New(t)

	tx := NewTx(&ClaimTx{BaseTx: &BaseTx{BlockID: ids.GenerateTestID()}, Space: "foo"}, []byte{1, 2, 3})
	require.ErrorIs(tx.Init(), ErrInvalidSignature)

	require.ErrorIs(new(Transaction).Init(), ErrTxNotInitialized)
}

func TestDigestDependsOnType(t *testing.T) {
	require := require.New(t)

	bid := ids.GenerateTestID()
	set, err := DigestHash(&SetTx{BaseTx: &BaseTx{BlockID: bid}, Space: "foo", Key: "bar"})
	require.NoError(err)
	del, err := DigestHash(&DeleteTx{BaseTx: &BaseTx{BlockID: bid}, Space: "foo", Key: "bar"})
	require.NoError(err)
	require.NotEqual(set, del)
}

func TestExecuteBase(t *testing.T) {
	g := DefaultGenesis()
	tests := []struct {
		name string
		utx  UnsignedTransaction
		err  error
	}{
		{
			name: "empty block id",
			utx:  &ClaimTx{BaseTx: &BaseTx{}, Space: "foo"},
			err:  ErrInvalidBlockID,
		},
		{
			name: "upper case space",
			utx:  &ClaimTx{BaseTx: &BaseTx{BlockID: ids.GenerateTestID()}, Space: "Foo"},
			err:  ErrInvalidSpace,
		},
		{
			name: "key with delimiter",
			utx:  &SetTx{BaseTx: &BaseTx{BlockID: ids.GenerateTestID()}, Space: "foo", Key: "a/b"},
			err:  ErrInvalidKey,
		},
		{
			name: "value too big",
			utx: &SetTx{
				BaseTx: &BaseTx{BlockID: ids.GenerateTestID()},
				Space:  "foo",
				Key:    "bar",
				Value:  make([]byte, g.MaxValueSize+1),
			},
			err: ErrValueTooBig,
		},
		{
			name: "empty delete key",
			utx:  &DeleteTx{BaseTx: &BaseTx{BlockID: ids.GenerateTestID()}, Space: "foo"},
			err:  ErrInvalidKey,
		},
		{
			name: "valid set",
			utx:  &SetTx{BaseTx: &BaseTx{BlockID: ids.GenerateTestID()}, Space: "foo", Key: "bar"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.utx.ExecuteBase(g)
			if tt.err == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestSetTxUnits(t *testing.T) {
	require := require.New(t)

	tx := &SetTx{BaseTx: &BaseTx{}, Value: make([]byte, 3*valueUnitSize)}
	require.Equal(uint64(4), tx.Units())
	require.Equal(uint64(1), (&ClaimTx{BaseTx: &BaseTx{}}).Units())
}
