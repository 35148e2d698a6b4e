// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
)

// StatelessBlock is the wire form of a block.
type StatelessBlock struct {
	Prnt   ids.ID         `serialize:"true" json:"parent"`
	Hght   uint64         `serialize:"true" json:"height"`
	Tmstmp int64          `serialize:"true" json:"timestamp"`
	Data   []byte         `serialize:"true" json:"data"`
	Txs    []*Transaction `serialize:"true" json:"txs"`

	id    ids.ID
	bytes []byte
}

func NewStatelessBlock(parent ids.ID, height uint64, tmstmp int64, data []byte, txs []*Transaction) (*StatelessBlock, error) {
	b := &StatelessBlock{
		Prnt:   parent,
		Hght:   height,
		Tmstmp: tmstmp,
		Data:   data,
		Txs:    txs,
	}
	if err := b.init(); err != nil {
		return nil, err
	}
	return b, nil
}

// ParseStatelessBlock decodes [source] and initializes every transaction it
// carries.
func ParseStatelessBlock(source []byte) (*StatelessBlock, error) {
	b := new(StatelessBlock)
	if err := Unmarshal(source, b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBlock, err)
	}
	for _, tx := range b.Txs {
		if err := tx.Init(); err != nil {
			return nil, err
		}
	}
	b.bytes = source
	b.id = hashing.ComputeHash256Array(source)
	return b, nil
}

func (b *StatelessBlock) init() error {
	bytes, err := Marshal(b)
	if err != nil {
		return err
	}
	b.bytes = bytes
	b.id = hashing.ComputeHash256Array(bytes)
	return nil
}

func (b *StatelessBlock) ID() ids.ID { return b.id }

func (b *StatelessBlock) Bytes() []byte { return b.bytes }

func (b *StatelessBlock) Parent() ids.ID { return b.Prnt }

func (b *StatelessBlock) Height() uint64 { return b.Hght }

func (b *StatelessBlock) Timestamp() int64 { return b.Tmstmp }
