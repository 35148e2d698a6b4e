// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ethereum/go-ethereum/common"
)

type TxType string

const (
	Claim  TxType = "claim"
	Set    TxType = "set"
	Delete TxType = "delete"
)

type UnsignedTransaction interface {
	GetBlockID() ids.ID
	SetBlockID(ids.ID)
	Units() uint64
	Typ() TxType
	Copy() UnsignedTransaction

	ExecuteBase(*Genesis) error
	Execute(*TransactionContext) error
}

// TransactionContext is everything an unsigned transaction needs to apply
// itself to state.
type TransactionContext struct {
	Genesis   *Genesis
	Database  database.Database
	BlockTime uint64
	TxID      ids.ID
	Sender    common.Address
}

// unsignedEnvelope carries the type id of the unsigned transaction so the
// signed digest differs across transaction types.
type unsignedEnvelope struct {
	Tx UnsignedTransaction `serialize:"true"`
}

// DigestHash returns the hash a sender signs to authorize [utx].
func DigestHash(utx UnsignedTransaction) ([]byte, error) {
	b, err := Marshal(&unsignedEnvelope{Tx: utx})
	if err != nil {
		return nil, err
	}
	return keccak256(b), nil
}
