// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"github.com/ava-labs/avalanchego/ids"
)

// BaseTx holds the fields shared by every unsigned transaction.
type BaseTx struct {
	// BlockID is a recent accepted block the issuer observed. It binds the
	// transaction to this chain.
	BlockID ids.ID `serialize:"true" json:"blockId"`
}

func (b *BaseTx) GetBlockID() ids.ID {
	return b.BlockID
}

func (b *BaseTx) SetBlockID(bid ids.ID) {
	b.BlockID = bid
}

func (b *BaseTx) ExecuteBase(g *Genesis) error {
	if b.BlockID == ids.Empty {
		return ErrInvalidBlockID
	}
	return nil
}

// Units is the base cost of a transaction when budgeting blocks and gossip.
func (b *BaseTx) Units() uint64 {
	return 1
}

func (b *BaseTx) copy() *BaseTx {
	return &BaseTx{BlockID: b.BlockID}
}
