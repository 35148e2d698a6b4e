// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/snow/choices"
	"github.com/ava-labs/avalanchego/snow/consensus/snowman"

	"github.com/ava-labs/spacesvm/chain"
)

// futureBound is how far ahead of the local clock a block timestamp may be.
const futureBound = time.Hour

var (
	ErrInvalidHeight      = errors.New("invalid block height")
	ErrTimestampTooEarly  = errors.New("block timestamp is before its parent's")
	ErrTimestampTooLate   = errors.New("block timestamp too far in the future")
	ErrBlockNotProcessing = errors.New("block is not processing")

	_ snowman.Block = &Block{}
)

// Block is a block known to this node together with its consensus status.
type Block struct {
	*chain.StatelessBlock

	st         choices.Status
	commitment ids.ID
	store      *BlockStore
}

func newBlock(blk *chain.StatelessBlock, status choices.Status, store *BlockStore) *Block {
	return &Block{
		StatelessBlock: blk,
		st:             status,
		store:          store,
	}
}

// NewBlock returns a processing block built on top of [parent].
func (s *BlockStore) NewBlock(parent *Block, tmstmp int64, data []byte, txs []*chain.Transaction) (*Block, error) {
	blk, err := chain.NewStatelessBlock(parent.ID(), parent.Hght+1, tmstmp, data, txs)
	if err != nil {
		return nil, err
	}
	return newBlock(blk, choices.Processing, s), nil
}

// NewGenesisBlock returns the processing block at height 0 carrying [data].
func (s *BlockStore) NewGenesisBlock(data []byte) (*Block, error) {
	blk, err := chain.NewStatelessBlock(ids.Empty, 0, 0, data, nil)
	if err != nil {
		return nil, err
	}
	return newBlock(blk, choices.Processing, s), nil
}

// ParseBlock returns the known block with the id of [source] or a new
// processing block decoded from it.
func (s *BlockStore) ParseBlock(ctx context.Context, source []byte) (*Block, error) {
	sblk, err := chain.ParseStatelessBlock(source)
	if err != nil {
		return nil, err
	}
	blk, err := s.GetBlock(ctx, sblk.ID())
	switch {
	case err == nil:
		return blk, nil
	case errors.Is(err, database.ErrNotFound):
		return newBlock(sblk, choices.Processing, s), nil
	default:
		return nil, err
	}
}

// Verify checks the block against its parent. A block that was already
// verified or decided passes again without any check.
func (b *Block) Verify(ctx context.Context) error {
	has, err := b.store.HasBlock(b.ID())
	if err != nil {
		return err
	}
	if has {
		return nil
	}

	if b.Hght == 0 && b.Prnt == ids.Empty {
		b.store.AddVerified(b)
		return nil
	}

	parent, err := b.store.GetBlock(ctx, b.Prnt)
	if err != nil {
		return fmt.Errorf("failed to get parent of %s: %w", b.ID(), err)
	}
	if b.Hght != parent.Hght+1 {
		return fmt.Errorf("%w: expected %d, got %d", ErrInvalidHeight, parent.Hght+1, b.Hght)
	}
	if b.Tmstmp < parent.Tmstmp {
		return fmt.Errorf("%w: parent %d, block %d", ErrTimestampTooEarly, parent.Tmstmp, b.Tmstmp)
	}
	if b.Timestamp().After(b.store.now().Add(futureBound)) {
		return fmt.Errorf("%w: %d", ErrTimestampTooLate, b.Tmstmp)
	}
	g := b.store.Genesis()
	txIDs := make(map[ids.ID]struct{}, len(b.Txs))
	for _, tx := range b.Txs {
		txID := tx.ID()
		if _, ok := txIDs[txID]; ok {
			return fmt.Errorf("%w: tx %s included twice", chain.ErrInvalidBlock, txID)
		}
		txIDs[txID] = struct{}{}
		if err := tx.ExecuteBase(g); err != nil {
			return fmt.Errorf("%w: tx %s: %v", chain.ErrInvalidBlock, txID, err)
		}
	}
	if err := b.verifyNotIncluded(ctx, parent, txIDs); err != nil {
		return err
	}

	b.store.AddVerified(b)
	return nil
}

// verifyNotIncluded fails when one of [txIDs] is carried by a processing
// ancestor starting at [parent] or by an accepted block.
func (b *Block) verifyNotIncluded(ctx context.Context, parent *Block, txIDs map[ids.ID]struct{}) error {
	for blk := parent; blk.Status() == choices.Processing; {
		for _, tx := range blk.Txs {
			if _, ok := txIDs[tx.ID()]; ok {
				return fmt.Errorf("%w: tx %s already in processing block %s", chain.ErrInvalidBlock, tx.ID(), blk.ID())
			}
		}
		next, err := b.store.GetBlock(ctx, blk.Prnt)
		if err != nil {
			return fmt.Errorf("failed to get ancestor %s: %w", blk.Prnt, err)
		}
		blk = next
	}
	for txID := range txIDs {
		included, err := b.store.HasTransaction(txID)
		if err != nil {
			return err
		}
		if included {
			return fmt.Errorf("%w: tx %s already accepted", chain.ErrInvalidBlock, txID)
		}
	}
	return nil
}

// Accept runs the block's transactions and makes it the last accepted
// block.
func (b *Block) Accept(ctx context.Context) error {
	if b.st.Decided() {
		return fmt.Errorf("%w: %s is %s", ErrBlockNotProcessing, b.ID(), b.st)
	}
	b.st = choices.Accepted
	if err := b.store.accept(ctx, b); err != nil {
		b.st = choices.Processing
		return err
	}
	return nil
}

func (b *Block) Reject(ctx context.Context) error {
	if b.st.Decided() {
		return fmt.Errorf("%w: %s is %s", ErrBlockNotProcessing, b.ID(), b.st)
	}
	b.st = choices.Rejected
	if err := b.store.PutRejected(ctx, b); err != nil {
		b.st = choices.Processing
		return err
	}
	return nil
}

func (b *Block) Status() choices.Status { return b.st }

func (b *Block) Timestamp() time.Time { return time.Unix(b.Tmstmp, 0) }

// Commitment is the execution result recorded when the block was accepted.
func (b *Block) Commitment() ids.ID { return b.commitment }
