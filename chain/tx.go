// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

type Transaction struct {
	UnsignedTransaction `serialize:"true" json:"unsignedTransaction"`
	Signature           []byte `serialize:"true" json:"signature"`

	digestHash []byte
	bytes      []byte
	id         ids.ID
	size       uint64
	sender     common.Address
}

func NewTx(utx UnsignedTransaction, sig []byte) *Transaction {
	return &Transaction{
		UnsignedTransaction: utx,
		Signature:           sig,
	}
}

// SignTx signs [utx] with [priv] and returns the initialized transaction.
func SignTx(utx UnsignedTransaction, priv *ecdsa.PrivateKey) (*Transaction, error) {
	dh, err := DigestHash(utx)
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(dh, priv)
	if err != nil {
		return nil, err
	}
	tx := NewTx(utx, sig)
	if err := tx.Init(); err != nil {
		return nil, err
	}
	return tx, nil
}

// Init computes the cached id, bytes and sender of the transaction. It must
// be called after decoding and before the transaction is used.
func (t *Transaction) Init() error {
	if t.UnsignedTransaction == nil {
		return ErrTxNotInitialized
	}
	stx, err := Marshal(t)
	if err != nil {
		return err
	}
	t.bytes = stx
	t.id = ids.ID(crypto.Keccak256Hash(t.bytes))
	t.size = uint64(len(t.bytes))

	dh, err := DigestHash(t.UnsignedTransaction)
	if err != nil {
		return err
	}
	t.digestHash = dh

	pk, err := crypto.SigToPub(dh, t.Signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	t.sender = crypto.PubkeyToAddress(*pk)
	return nil
}

func (t *Transaction) Bytes() []byte { return t.bytes }

func (t *Transaction) Size() uint64 { return t.size }

func (t *Transaction) ID() ids.ID { return t.id }

func (t *Transaction) DigestHash() []byte { return t.digestHash }

func (t *Transaction) Sender() common.Address { return t.sender }

// Execute applies the transaction to [db] as part of a block built at
// [blockTime].
func (t *Transaction) Execute(g *Genesis, db database.Database, blockTime uint64) error {
	if err := t.UnsignedTransaction.ExecuteBase(g); err != nil {
		return err
	}
	return t.UnsignedTransaction.Execute(&TransactionContext{
		Genesis:   g,
		Database:  db,
		BlockTime: blockTime,
		TxID:      t.id,
		Sender:    t.sender,
	})
}

// Copy returns a transaction sharing no mutable state with [t]. The copy
// must be initialized before use.
func (t *Transaction) Copy() *Transaction {
	sig := make([]byte, len(t.Signature))
	copy(sig, t.Signature)
	return NewTx(t.UnsignedTransaction.Copy(), sig)
}

func keccak256(b []byte) []byte {
	return crypto.Keccak256(b)
}
