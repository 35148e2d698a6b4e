// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/versiondb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/snow/choices"
	"github.com/ava-labs/avalanchego/utils/timer/mockable"
	lru "github.com/hashicorp/golang-lru"
	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/spacesvm/chain"
)

const DefaultBlockCacheSize = 8192

var errMissingTxValue = errors.New("missing detached tx value")

// Listener is notified once a block is decided. It is called without any
// store lock held.
type Listener interface {
	Accepted(ctx context.Context, blk *Block)
	Rejected(ctx context.Context, blk *Block)
}

// storedBlock is the record persisted under a block key.
type storedBlock struct {
	Block  []byte         `serialize:"true"`
	Status choices.Status `serialize:"true"`
}

// BlockStore persists decided blocks and tracks the verified ones that are
// still waiting for a decision.
type BlockStore struct {
	mu sync.RWMutex

	// committed state, read without the store lock
	db  database.Database
	// every write goes through [vdb] and reaches the underlying database in
	// a single commit
	vdb *versiondb.Database

	// accepted blocks
	blocks   *lru.Cache
	// verified blocks that have not been decided
	verified map[ids.ID]*Block

	lastAccepted *Block

	genesis  *chain.Genesis
	executor chain.Executor
	listener Listener
	clock    *mockable.Clock
}

func New(db database.Database, g *chain.Genesis, executor chain.Executor, cacheSize int) (*BlockStore, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultBlockCacheSize
	}
	blocks, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	return &BlockStore{
		db:       db,
		vdb:      versiondb.New(db),
		blocks:   blocks,
		verified: make(map[ids.ID]*Block),
		genesis:  g,
		executor: executor,
		clock:    &mockable.Clock{},
	}, nil
}

// SetListener registers the hooks run after each decision.
func (s *BlockStore) SetListener(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = l
}

func (s *BlockStore) Clock() *mockable.Clock { return s.clock }

func (s *BlockStore) Genesis() *chain.Genesis { return s.genesis }

// Database returns a read view of committed state. Writes of a block being
// accepted become visible only once its commit succeeds.
func (s *BlockStore) Database() database.KeyValueReader { return s.db }

// GetBlock returns the block with [blkID] from the accepted cache, the
// verified set or the database, in that order.
func (s *BlockStore) GetBlock(ctx context.Context, blkID ids.ID) (*Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getBlock(blkID)
}

func (s *BlockStore) getBlock(blkID ids.ID) (*Block, error) {
	if blk, ok := s.blocks.Get(blkID); ok {
		return blk.(*Block), nil
	}
	if blk, ok := s.verified[blkID]; ok {
		return blk, nil
	}

	b, err := s.vdb.Get(chain.PrefixBlockKey(blkID))
	if err != nil {
		return nil, fmt.Errorf("failed to get block %s: %w", blkID, err)
	}
	record := new(storedBlock)
	if err := chain.Unmarshal(b, record); err != nil {
		return nil, fmt.Errorf("failed to decode block record %s: %w", blkID, err)
	}
	blkBytes := record.Block
	if record.Status == choices.Accepted {
		blkBytes, err = s.attachValues(record.Block)
		if err != nil {
			return nil, fmt.Errorf("failed to restore block %s: %w", blkID, err)
		}
	}
	sblk, err := chain.ParseStatelessBlock(blkBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse block from disk %s: %w", blkID, err)
	}
	blk := newBlock(sblk, record.Status, s)
	if record.Status == choices.Accepted {
		s.blocks.Add(blkID, blk)
	}
	return blk, nil
}

// HasBlock reports whether [blkID] is verified or was decided.
func (s *BlockStore) HasBlock(blkID ids.ID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasBlock(blkID)
}

func (s *BlockStore) hasBlock(blkID ids.ID) (bool, error) {
	if s.blocks.Contains(blkID) {
		return true, nil
	}
	if _, ok := s.verified[blkID]; ok {
		return true, nil
	}
	return s.vdb.Has(chain.PrefixBlockKey(blkID))
}

func (s *BlockStore) AddVerified(blk *Block) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verified[blk.ID()] = blk
}

func (s *BlockStore) RemoveVerified(blkID ids.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.verified, blkID)
}

func (s *BlockStore) HasLastAccepted() (bool, error) {
	return s.vdb.Has(chain.LastAcceptedKey())
}

// GetLastAccepted returns the last accepted block, loading it from the
// database after a restart.
func (s *BlockStore) GetLastAccepted(ctx context.Context) (*Block, error) {
	s.mu.RLock()
	if s.lastAccepted != nil {
		blk := s.lastAccepted
		s.mu.RUnlock()
		return blk, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.vdb.Get(chain.LastAcceptedKey())
	if err != nil {
		return nil, fmt.Errorf("failed to get last accepted: %w", err)
	}
	blkID, err := ids.ToID(b)
	if err != nil {
		return nil, err
	}
	blk, err := s.getBlock(blkID)
	if err != nil {
		return nil, err
	}
	s.lastAccepted = blk
	return blk, nil
}

// SetLastAccepted persists [blk] as the last accepted block together with
// every pending write on the store, in one commit.
func (s *BlockStore) SetLastAccepted(blk *Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLastAccepted(blk)
}

func (s *BlockStore) setLastAccepted(blk *Block) error {
	defer s.vdb.Abort()

	blkID := blk.ID()
	if err := s.vdb.Put(chain.LastAcceptedKey(), blkID[:]); err != nil {
		return fmt.Errorf("failed to update last accepted block to %s: %w", blkID, err)
	}
	detached, err := s.detachValues(blk.StatelessBlock)
	if err != nil {
		return err
	}
	if err := s.putRecord(blkID, detached, choices.Accepted); err != nil {
		return err
	}
	if err := s.vdb.Commit(); err != nil {
		return fmt.Errorf("failed to commit database accepting block %s: %w", blkID, err)
	}

	s.lastAccepted = blk
	s.blocks.Add(blkID, blk)
	delete(s.verified, blkID)
	return nil
}

// accept executes [blk] and persists the result.
func (s *BlockStore) accept(ctx context.Context, blk *Block) error {
	s.mu.Lock()
	commitment, err := s.executor.Execute(ctx, blk.Txs, &chain.BlockContext{
		BlockID:   blk.ID(),
		Height:    blk.Hght,
		Timestamp: blk.Tmstmp,
		Database:  s.vdb,
	})
	if err != nil {
		s.vdb.Abort()
		s.mu.Unlock()
		return fmt.Errorf("failed to execute block %s: %w", blk.ID(), err)
	}
	blk.commitment = commitment
	if err := s.setLastAccepted(blk); err != nil {
		s.mu.Unlock()
		return err
	}
	listener := s.listener
	s.mu.Unlock()

	log.Debug("accepted block", "id", blk.ID(), "height", blk.Hght, "txs", len(blk.Txs), "commitment", commitment)
	if listener != nil {
		listener.Accepted(ctx, blk)
	}
	return nil
}

// PutRejected persists [blk] as rejected. The last accepted block is left
// untouched.
func (s *BlockStore) PutRejected(ctx context.Context, blk *Block) error {
	s.mu.Lock()
	err := s.putRejected(blk)
	listener := s.listener
	s.mu.Unlock()
	if err != nil {
		return err
	}

	log.Debug("rejected block", "id", blk.ID(), "height", blk.Hght)
	if listener != nil {
		listener.Rejected(ctx, blk)
	}
	return nil
}

func (s *BlockStore) putRejected(blk *Block) error {
	defer s.vdb.Abort()

	blkID := blk.ID()
	if err := s.putRecord(blkID, blk.Bytes(), choices.Rejected); err != nil {
		return err
	}
	if err := s.vdb.Commit(); err != nil {
		return fmt.Errorf("failed to commit database rejecting block %s: %w", blkID, err)
	}
	delete(s.verified, blkID)
	return nil
}

func (s *BlockStore) putRecord(blkID ids.ID, blkBytes []byte, status choices.Status) error {
	b, err := chain.Marshal(&storedBlock{Block: blkBytes, Status: status})
	if err != nil {
		return err
	}
	if err := s.vdb.Put(chain.PrefixBlockKey(blkID), b); err != nil {
		return fmt.Errorf("failed to put block %s into block index: %w", blkID, err)
	}
	return nil
}

// detachValues writes the value of every SetTx in [blk] under its tx id and
// returns the encoding of [blk] with each value replaced by that id.
func (s *BlockStore) detachValues(blk *chain.StatelessBlock) ([]byte, error) {
	txs := make([]*chain.Transaction, len(blk.Txs))
	for i, tx := range blk.Txs {
		set, ok := tx.UnsignedTransaction.(*chain.SetTx)
		if !ok || len(set.Value) == 0 {
			txs[i] = tx
			continue
		}
		txID := tx.ID()
		if err := chain.PutTxValue(s.vdb, txID, set.Value); err != nil {
			return nil, fmt.Errorf("failed to put value of tx %s: %w", txID, err)
		}
		cp := tx.Copy()
		cp.UnsignedTransaction.(*chain.SetTx).Value = txID[:]
		txs[i] = cp
	}
	detached := &chain.StatelessBlock{
		Prnt:   blk.Prnt,
		Hght:   blk.Hght,
		Tmstmp: blk.Tmstmp,
		Data:   blk.Data,
		Txs:    txs,
	}
	return chain.Marshal(detached)
}

// attachValues reverses detachValues.
func (s *BlockStore) attachValues(source []byte) ([]byte, error) {
	blk := new(chain.StatelessBlock)
	if err := chain.Unmarshal(source, blk); err != nil {
		return nil, err
	}
	for _, tx := range blk.Txs {
		set, ok := tx.UnsignedTransaction.(*chain.SetTx)
		if !ok || len(set.Value) == 0 {
			continue
		}
		txID, err := ids.ToID(set.Value)
		if err != nil {
			return nil, err
		}
		v, err := chain.GetTxValue(s.vdb, txID)
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", errMissingTxValue, txID)
		}
		if err != nil {
			return nil, err
		}
		set.Value = v
	}
	return chain.Marshal(blk)
}

// Submit checks that [tx] could be included in a block built now. Nothing
// is written.
func (s *BlockStore) Submit(ctx context.Context, tx *chain.Transaction) error {
	if err := tx.Init(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	included, err := chain.HasTransaction(s.vdb, tx.ID())
	if err != nil {
		return err
	}
	if included {
		return chain.ErrDuplicateTx
	}

	dryRun := versiondb.New(s.vdb)
	defer dryRun.Abort()
	return tx.Execute(s.genesis, dryRun, uint64(s.clock.Time().Unix()))
}

// HasTransaction reports whether [txID] was included in an accepted block.
func (s *BlockStore) HasTransaction(txID ids.ID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return chain.HasTransaction(s.vdb, txID)
}

func (s *BlockStore) now() time.Time {
	return s.clock.Time()
}
