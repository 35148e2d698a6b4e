// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/versiondb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
	log "github.com/inconshreveable/log15"
)

// BlockContext describes the accepted block whose transactions are being
// executed. All writes go to [Database].
type BlockContext struct {
	BlockID   ids.ID
	Height    uint64
	Timestamp int64
	Database  database.Database
}

// Executor applies the transactions of an accepted block to state and
// returns a commitment to what was applied. It is invoked exactly once per
// accepted block.
type Executor interface {
	Execute(ctx context.Context, txs []*Transaction, bctx *BlockContext) (ids.ID, error)
}

var _ Executor = &SpaceExecutor{}

// SpaceExecutor runs spaces transactions. A transaction that fails is
// skipped, so every node reaches the same state from the same block.
type SpaceExecutor struct {
	Genesis *Genesis
}

func NewSpaceExecutor(g *Genesis) *SpaceExecutor {
	return &SpaceExecutor{Genesis: g}
}

func (e *SpaceExecutor) Execute(ctx context.Context, txs []*Transaction, bctx *BlockContext) (ids.ID, error) {
	applied := make([]byte, 0, len(txs)*len(ids.Empty))
	for _, tx := range txs {
		if err := ctx.Err(); err != nil {
			return ids.Empty, err
		}
		ok, err := e.ExecuteTx(tx, bctx.Database, uint64(bctx.Timestamp))
		if err != nil {
			return ids.Empty, err
		}
		if !ok {
			continue
		}
		if err := SetTransaction(bctx.Database, tx); err != nil {
			return ids.Empty, fmt.Errorf("%w: failed to mark tx %s", err, tx.ID())
		}
		txID := tx.ID()
		applied = append(applied, txID[:]...)
	}
	return hashing.ComputeHash256Array(applied), nil
}

// ExecuteTx applies a single transaction on a layer over [db]. The layer is
// committed only when the transaction succeeds. A transaction already marked
// as included in [db] is skipped. The returned error is set only for storage
// failures.
func (e *SpaceExecutor) ExecuteTx(tx *Transaction, db database.Database, blockTime uint64) (bool, error) {
	included, err := HasTransaction(db, tx.ID())
	if err != nil {
		return false, err
	}
	if included {
		log.Debug("skipping included transaction", "txID", tx.ID())
		return false, nil
	}

	vdb := versiondb.New(db)
	defer vdb.Abort()

	if err := tx.Execute(e.Genesis, vdb, blockTime); err != nil {
		if errors.Is(err, database.ErrClosed) {
			return false, err
		}
		log.Debug("skipping transaction", "txID", tx.ID(), "type", tx.Typ(), "err", err)
		return false, nil
	}
	if err := vdb.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// Check returns the execution error of [tx] against [db] without writing
// anything.
func (e *SpaceExecutor) Check(tx *Transaction, db database.Database, blockTime uint64) error {
	vdb := versiondb.New(db)
	defer vdb.Abort()
	return tx.Execute(e.Genesis, vdb, blockTime)
}
