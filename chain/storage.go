// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ethereum/go-ethereum/common"
)

type SpaceInfo struct {
	Owner   common.Address `serialize:"true" json:"owner"`
	Created uint64         `serialize:"true" json:"created"`
	Updated uint64         `serialize:"true" json:"updated"`

	// RawSpace is the short id every value key of the space is stored under
	RawSpace ids.ShortID `serialize:"true" json:"rawSpace"`
}

// ValueMeta is stored under a space key. The value itself lives under the
// id of the transaction that last set it.
type ValueMeta struct {
	Size    uint64 `serialize:"true" json:"size"`
	TxID    ids.ID `serialize:"true" json:"txId"`
	Created uint64 `serialize:"true" json:"created"`
	Updated uint64 `serialize:"true" json:"updated"`
}

func HasSpace(db database.KeyValueReader, space []byte) (bool, error) {
	return db.Has(SpaceInfoKey(space))
}

func GetSpaceInfo(db database.KeyValueReader, space []byte) (*SpaceInfo, bool, error) {
	v, err := db.Get(SpaceInfoKey(space))
	if errors.Is(err, database.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	info := new(SpaceInfo)
	if err := Unmarshal(v, info); err != nil {
		return nil, false, fmt.Errorf("%w: failed to decode space info", err)
	}
	return info, true, nil
}

func PutSpaceInfo(db database.KeyValueWriter, space []byte, info *SpaceInfo) error {
	b, err := Marshal(info)
	if err != nil {
		return err
	}
	return db.Put(SpaceInfoKey(space), b)
}

func GetValueMeta(db database.KeyValueReader, rspace ids.ShortID, key []byte) (*ValueMeta, bool, error) {
	v, err := db.Get(SpaceValueKey(rspace, key))
	if errors.Is(err, database.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	meta := new(ValueMeta)
	if err := Unmarshal(v, meta); err != nil {
		return nil, false, fmt.Errorf("%w: failed to decode value meta", err)
	}
	return meta, true, nil
}

func PutSpaceKey(db database.KeyValueWriter, rspace ids.ShortID, key []byte, meta *ValueMeta) error {
	b, err := Marshal(meta)
	if err != nil {
		return err
	}
	return db.Put(SpaceValueKey(rspace, key), b)
}

func DeleteSpaceKey(db database.KeyValueDeleter, rspace ids.ShortID, key []byte) error {
	return db.Delete(SpaceValueKey(rspace, key))
}

// GetValue resolves [key] in [space] to the value written by the last
// accepted SetTx for it.
func GetValue(db database.KeyValueReader, space []byte, key []byte) ([]byte, bool, error) {
	info, exists, err := GetSpaceInfo(db, space)
	if err != nil || !exists {
		return nil, false, err
	}
	meta, exists, err := GetValueMeta(db, info.RawSpace, key)
	if err != nil || !exists {
		return nil, false, err
	}
	if meta.Size == 0 {
		return []byte{}, true, nil
	}
	v, err := GetTxValue(db, meta.TxID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, false, fmt.Errorf("%w: value of tx %s", err, meta.TxID)
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func PutTxValue(db database.KeyValueWriter, txID ids.ID, value []byte) error {
	return db.Put(PrefixTxValueKey(txID), value)
}

func GetTxValue(db database.KeyValueReader, txID ids.ID) ([]byte, error) {
	return db.Get(PrefixTxValueKey(txID))
}

// SetTransaction marks [tx] as included in an accepted block.
func SetTransaction(db database.KeyValueWriter, tx *Transaction) error {
	return db.Put(PrefixTxKey(tx.ID()), nil)
}

func HasTransaction(db database.KeyValueReader, txID ids.ID) (bool, error) {
	return db.Has(PrefixTxKey(txID))
}
