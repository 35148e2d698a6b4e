// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"bytes"
)

const (
	maxKeyLen = 256

	// valueUnitSize is the number of value bytes that cost one extra unit.
	valueUnitSize = 1024
)

var _ UnsignedTransaction = &SetTx{}

// SetTx writes a value under a key of a space owned by the sender.
type SetTx struct {
	*BaseTx `serialize:"true" json:"baseTx"`

	Space string `serialize:"true" json:"space"`
	Key   string `serialize:"true" json:"key"`

	// Value is detached from the block record once the block is accepted
	// and stored under the transaction id.
	Value []byte `serialize:"true" json:"value"`
}

func VerifyKey(key string) error {
	if len(key) == 0 || len(key) > maxKeyLen {
		return ErrInvalidKey
	}
	if bytes.IndexByte([]byte(key), ByteDelimiter) != -1 {
		return ErrInvalidKey
	}
	return nil
}

func (s *SetTx) ExecuteBase(g *Genesis) error {
	if err := s.BaseTx.ExecuteBase(g); err != nil {
		return err
	}
	if err := VerifySpace(s.Space); err != nil {
		return err
	}
	if err := VerifyKey(s.Key); err != nil {
		return err
	}
	if uint64(len(s.Value)) > g.MaxValueSize {
		return ErrValueTooBig
	}
	return nil
}

func (s *SetTx) Execute(t *TransactionContext) error {
	info, err := ownedSpace(t, s.Space)
	if err != nil {
		return err
	}
	created := t.BlockTime
	prev, exists, err := GetValueMeta(t.Database, info.RawSpace, []byte(s.Key))
	if err != nil {
		return err
	}
	if exists {
		created = prev.Created
	}
	meta := &ValueMeta{
		Size:    uint64(len(s.Value)),
		TxID:    t.TxID,
		Created: created,
		Updated: t.BlockTime,
	}
	if err := PutSpaceKey(t.Database, info.RawSpace, []byte(s.Key), meta); err != nil {
		return err
	}
	info.Updated = t.BlockTime
	return PutSpaceInfo(t.Database, []byte(s.Space), info)
}

func (s *SetTx) Units() uint64 {
	return s.BaseTx.Units() + uint64(len(s.Value))/valueUnitSize
}

func (s *SetTx) Typ() TxType {
	return Set
}

func (s *SetTx) Copy() UnsignedTransaction {
	value := make([]byte, len(s.Value))
	copy(value, s.Value)
	return &SetTx{
		BaseTx: s.BaseTx.copy(),
		Space:  s.Space,
		Key:    s.Key,
		Value:  value,
	}
}

// ownedSpace loads the info of [space] and checks it belongs to the sender.
func ownedSpace(t *TransactionContext, space string) (*SpaceInfo, error) {
	if err := VerifySpace(space); err != nil {
		return nil, err
	}
	info, exists, err := GetSpaceInfo(t.Database, []byte(space))
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrSpaceMissing
	}
	if info.Owner != t.Sender {
		return nil, ErrUnauthorized
	}
	return info, nil
}
