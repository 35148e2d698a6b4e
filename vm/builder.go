// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"context"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/snow/choices"
	"github.com/ava-labs/avalanchego/snow/consensus/snowman"
	"github.com/ava-labs/avalanchego/snow/engine/common"
	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/spacesvm/chain"
	"github.com/ava-labs/spacesvm/state"
)

// build forwards mempool activity to the engine until the VM stops.
func (vm *VM) build() {
	for {
		select {
		case <-vm.mempool.Pending():
			vm.notifyBlockReady()
		case <-vm.stop:
			return
		}
	}
}

func (vm *VM) notifyBlockReady() {
	select {
	case vm.toEngine <- common.PendingTxs:
	default:
		log.Debug("dropping message to consensus engine")
	}
}

// BuildBlock returns a block on top of the preferred block carrying the
// oldest mempool transactions.
func (vm *VM) BuildBlock(ctx context.Context) (snowman.Block, error) {
	if vm.mempool.Len() == 0 {
		return nil, ErrNoPendingTxs
	}
	parent, err := vm.store.GetBlock(ctx, vm.Preferred())
	if err != nil {
		return nil, fmt.Errorf("couldn't get preferred block: %w", err)
	}
	processing, err := vm.processingTxs(ctx, parent)
	if err != nil {
		return nil, err
	}

	var (
		txs   []*chain.Transaction
		units uint64
	)
	for units < vm.config.TargetBlockUnits {
		tx, ok := vm.mempool.PopMin()
		if !ok {
			break
		}
		txID := tx.ID()
		if _, ok := processing[txID]; ok {
			continue
		}
		included, err := vm.store.HasTransaction(txID)
		if err != nil {
			vm.mempool.Requeue(append(txs, tx))
			return nil, err
		}
		if included {
			continue
		}
		txs = append(txs, tx)
		units += tx.Units()
	}
	// Transactions held by a regossip are missed here. Requeue signals again
	// once they are back.
	if len(txs) == 0 {
		return nil, ErrNoPendingTxs
	}

	tmstmp := vm.store.Clock().Time().Unix()
	if tmstmp < parent.Tmstmp {
		tmstmp = parent.Tmstmp
	}
	blk, err := vm.store.NewBlock(parent, tmstmp, nil, txs)
	if err != nil {
		vm.mempool.Requeue(txs)
		return nil, fmt.Errorf("couldn't build block: %w", err)
	}
	if err := blk.Verify(ctx); err != nil {
		vm.mempool.Requeue(txs)
		return nil, err
	}

	// Notify consensus engine that there are more pending txs
	if vm.mempool.Len() > 0 {
		vm.notifyBlockReady()
	}
	log.Debug("built block", "id", blk.ID(), "height", blk.Height(), "txs", len(txs))
	return blk, nil
}

// processingTxs returns the ids of transactions carried by [blk] and its
// ancestors that are not decided yet.
func (vm *VM) processingTxs(ctx context.Context, blk *state.Block) (map[ids.ID]struct{}, error) {
	txIDs := make(map[ids.ID]struct{})
	for blk.Status() == choices.Processing {
		for _, tx := range blk.Txs {
			txIDs[tx.ID()] = struct{}{}
		}
		parent, err := vm.store.GetBlock(ctx, blk.Parent())
		if err != nil {
			return nil, fmt.Errorf("couldn't get ancestor %s: %w", blk.Parent(), err)
		}
		blk = parent
	}
	return txIDs, nil
}

// Accepted drops the block's transactions and every other transaction
// already included in an accepted block from the mempool.
func (vm *VM) Accepted(_ context.Context, blk *state.Block) {
	included := make(map[ids.ID]struct{}, len(blk.Txs))
	for _, tx := range blk.Txs {
		included[tx.ID()] = struct{}{}
	}
	for _, tx := range vm.mempool.Txs() {
		has, err := vm.store.HasTransaction(tx.ID())
		if err != nil {
			log.Warn("failed to check transaction", "txID", tx.ID(), "err", err)
			continue
		}
		if has {
			included[tx.ID()] = struct{}{}
		}
	}
	dropped := vm.mempool.Prune(func(tx *chain.Transaction) bool {
		_, ok := included[tx.ID()]
		return !ok
	})
	log.Debug("pruned mempool", "block", blk.ID(), "dropped", dropped)
}

// Rejected puts the block's transactions back in the mempool.
func (vm *VM) Rejected(_ context.Context, blk *state.Block) {
	txs := make([]*chain.Transaction, 0, len(blk.Txs))
	for _, tx := range blk.Txs {
		has, err := vm.store.HasTransaction(tx.ID())
		if err != nil || has {
			continue
		}
		txs = append(txs, tx)
	}
	vm.mempool.Requeue(txs)
	log.Debug("requeued transactions of rejected block", "block", blk.ID(), "count", len(txs))
}
