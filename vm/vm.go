// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ava-labs/avalanchego/database/manager"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/snow"
	"github.com/ava-labs/avalanchego/snow/consensus/snowman"
	"github.com/ava-labs/avalanchego/snow/engine/common"
	"github.com/ava-labs/avalanchego/snow/engine/snowman/block"
	"github.com/ava-labs/avalanchego/version"
	log "github.com/inconshreveable/log15"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/spacesvm/chain"
	"github.com/ava-labs/spacesvm/mempool"
	"github.com/ava-labs/spacesvm/network"
	"github.com/ava-labs/spacesvm/state"
)

// Name/Version
var (
	Name    = "spacesvm"
	Version = "v0.0.1"

	// ID is the VM id the node registers the plugin under
	ID = ids.ID{'s', 'p', 'a', 'c', 'e', 's', 'v', 'm'}
)

var (
	ErrNoPendingTxs         = errors.New("no pending transactions")
	ErrStateSyncUnsupported = errors.New("state sync is not supported")
	ErrUnknownState         = errors.New("unknown state")
	errNotInitialized       = errors.New("vm not initialized")

	_ block.ChainVM  = &VM{}
	_ state.Listener = &VM{}
)

type VM struct {
	snowCtx  *snow.Context
	config   Config
	genesis  *chain.Genesis
	toEngine chan<- common.Message

	store   *state.BlockStore
	mempool *mempool.Mempool
	network *network.Network
	push    *network.Push

	// guards preferred and bootstrapped only
	mu           sync.RWMutex
	preferred    ids.ID
	bootstrapped bool

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Initialize implements the common.VM interface
func (vm *VM) Initialize(
	ctx context.Context,
	snowCtx *snow.Context,
	dbManager manager.Manager,
	genesisBytes []byte,
	_ []byte,
	configBytes []byte,
	toEngine chan<- common.Message,
	_ []*common.Fx,
	appSender common.AppSender,
) error {
	config, err := ParseConfig(configBytes)
	if err != nil {
		return err
	}
	log.Root().SetHandler(log.LvlFilterHandler(config.LogLevel, log.StreamHandler(os.Stderr, log.TerminalFormat())))

	g, err := chain.ParseGenesis(genesisBytes)
	if err != nil {
		return err
	}
	vm.snowCtx = snowCtx
	vm.config = config
	vm.genesis = g
	vm.toEngine = toEngine
	vm.stop = make(chan struct{})

	registry := prometheus.NewRegistry()
	vm.store, err = state.New(dbManager.Current().Database, g, chain.NewSpaceExecutor(g), config.BlockCacheSize)
	if err != nil {
		return err
	}
	vm.store.SetListener(vm)
	vm.mempool, err = mempool.New(config.MempoolSize, registry)
	if err != nil {
		return err
	}
	vm.network = network.NewNetwork()
	vm.push, err = network.NewPush(config.gossipConfig(), vm.network, appSender, vm.store, vm.mempool, registry)
	if err != nil {
		return err
	}
	if snowCtx != nil && snowCtx.Metrics != nil {
		if err := snowCtx.Metrics.Register(registry); err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	if err := vm.initLastAccepted(ctx, genesisBytes); err != nil {
		return err
	}

	vm.wg.Add(3)
	go func() {
		defer vm.wg.Done()
		vm.build()
	}()
	go func() {
		defer vm.wg.Done()
		vm.push.Gossip(vm.stop)
	}()
	go func() {
		defer vm.wg.Done()
		vm.push.Regossip(vm.stop)
	}()
	log.Info("initialized spacesvm", "author", g.Author, "preferred", vm.preferred)
	return nil
}

// initLastAccepted resumes from the last accepted block or accepts the
// genesis block on first start.
func (vm *VM) initLastAccepted(ctx context.Context, genesisBytes []byte) error {
	has, err := vm.store.HasLastAccepted()
	if err != nil {
		return err
	}
	if has {
		blk, err := vm.store.GetLastAccepted(ctx)
		if err != nil {
			return fmt.Errorf("failed to load last accepted block: %w", err)
		}
		vm.preferred = blk.ID()
		log.Info("resuming from last accepted block", "id", blk.ID(), "height", blk.Height())
		return nil
	}

	genesisBlk, err := vm.store.NewGenesisBlock(genesisBytes)
	if err != nil {
		return fmt.Errorf("failed to build genesis block: %w", err)
	}
	if err := genesisBlk.Verify(ctx); err != nil {
		return fmt.Errorf("failed to verify genesis block: %w", err)
	}
	if err := genesisBlk.Accept(ctx); err != nil {
		return fmt.Errorf("failed to accept genesis block: %w", err)
	}
	vm.preferred = genesisBlk.ID()
	log.Info("accepted genesis block", "id", genesisBlk.ID())
	return nil
}

func (vm *VM) SetState(_ context.Context, st snow.State) error {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	switch st {
	case snow.StateSyncing:
		return ErrStateSyncUnsupported
	case snow.Initializing, snow.Bootstrapping:
		vm.bootstrapped = false
	case snow.NormalOp:
		vm.bootstrapped = true
	default:
		return fmt.Errorf("%w: %s", ErrUnknownState, st)
	}
	return nil
}

func (vm *VM) Shutdown(context.Context) error {
	if vm.stop == nil {
		return nil
	}
	vm.stopOnce.Do(func() {
		close(vm.stop)
	})
	vm.wg.Wait()
	return nil
}

func (vm *VM) Version(context.Context) (string, error) {
	return Version, nil
}

func (vm *VM) HealthCheck(ctx context.Context) (interface{}, error) {
	if vm.store == nil {
		return nil, errNotInitialized
	}
	blk, err := vm.store.GetLastAccepted(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"lastAcceptedHeight": blk.Height(),
		"mempoolLen":         vm.mempool.Len(),
		"peers":              vm.network.Peers(),
	}, nil
}

func (vm *VM) GetBlock(ctx context.Context, blkID ids.ID) (snowman.Block, error) {
	return vm.store.GetBlock(ctx, blkID)
}

func (vm *VM) ParseBlock(ctx context.Context, b []byte) (snowman.Block, error) {
	return vm.store.ParseBlock(ctx, b)
}

func (vm *VM) SetPreference(_ context.Context, blkID ids.ID) error {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	vm.preferred = blkID
	return nil
}

func (vm *VM) Preferred() ids.ID {
	vm.mu.RLock()
	defer vm.mu.RUnlock()

	return vm.preferred
}

func (vm *VM) LastAccepted(ctx context.Context) (ids.ID, error) {
	blk, err := vm.store.GetLastAccepted(ctx)
	if err != nil {
		return ids.Empty, err
	}
	return blk.ID(), nil
}

// Submit checks [tx] and adds it to the mempool.
func (vm *VM) Submit(ctx context.Context, tx *chain.Transaction) error {
	if err := vm.store.Submit(ctx, tx); err != nil {
		return err
	}
	if !vm.mempool.Add(tx) {
		log.Debug("transaction already in mempool", "txID", tx.ID())
	}
	return nil
}

func (vm *VM) Connected(ctx context.Context, nodeID ids.NodeID, nodeVersion *version.Application) error {
	return vm.network.Connected(ctx, nodeID, nodeVersion)
}

func (vm *VM) Disconnected(ctx context.Context, nodeID ids.NodeID) error {
	return vm.network.Disconnected(ctx, nodeID)
}

func (vm *VM) AppGossip(ctx context.Context, nodeID ids.NodeID, msg []byte) error {
	return vm.push.AppGossip(ctx, nodeID, msg)
}

// This VM doesn't (currently) have any app-specific messages
func (*VM) AppRequest(context.Context, ids.NodeID, uint32, time.Time, []byte) error {
	return nil
}

func (*VM) AppResponse(context.Context, ids.NodeID, uint32, []byte) error {
	return nil
}

func (*VM) AppRequestFailed(context.Context, ids.NodeID, uint32) error {
	return nil
}

func (*VM) CrossChainAppRequest(context.Context, ids.ID, uint32, time.Time, []byte) error {
	return nil
}

func (*VM) CrossChainAppResponse(context.Context, ids.ID, uint32, []byte) error {
	return nil
}

func (*VM) CrossChainAppRequestFailed(context.Context, ids.ID, uint32) error {
	return nil
}
