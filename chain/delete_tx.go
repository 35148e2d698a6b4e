// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

var _ UnsignedTransaction = &DeleteTx{}

// DeleteTx removes a key from a space owned by the sender.
type DeleteTx struct {
	*BaseTx `serialize:"true" json:"baseTx"`

	Space string `serialize:"true" json:"space"`
	Key   string `serialize:"true" json:"key"`
}

func (d *DeleteTx) ExecuteBase(g *Genesis) error {
	if err := d.BaseTx.ExecuteBase(g); err != nil {
		return err
	}
	if err := VerifySpace(d.Space); err != nil {
		return err
	}
	return VerifyKey(d.Key)
}

func (d *DeleteTx) Execute(t *TransactionContext) error {
	info, err := ownedSpace(t, d.Space)
	if err != nil {
		return err
	}
	_, exists, err := GetValueMeta(t.Database, info.RawSpace, []byte(d.Key))
	if err != nil {
		return err
	}
	if !exists {
		return ErrKeyMissing
	}
	if err := DeleteSpaceKey(t.Database, info.RawSpace, []byte(d.Key)); err != nil {
		return err
	}
	info.Updated = t.BlockTime
	return PutSpaceInfo(t.Database, []byte(d.Space), info)
}

func (d *DeleteTx) Typ() TxType {
	return Delete
}

func (d *DeleteTx) Copy() UnsignedTransaction {
	return &DeleteTx{
		BaseTx: d.BaseTx.copy(),
		Space:  d.Space,
		Key:    d.Key,
	}
}
