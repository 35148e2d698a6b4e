// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"context"
	"crypto/ecdsa"
	"net/http"
	"testing"
	"time"

	"github.com/ava-labs/avalanchego/database/manager"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/snow"
	"github.com/ava-labs/avalanchego/snow/choices"
	"github.com/ava-labs/avalanchego/snow/engine/common"
	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/ava-labs/avalanchego/version"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/spacesvm/chain"
	"github.com/ava-labs/spacesvm/state"
)

var testGenesis = []byte(`{"author":"tester","welcomeMessage":"hi"}`)

type testAppSender struct {
	common.AppSender

	gossip [][]byte
}

func (s *testAppSender) SendAppGossip(_ context.Context, msg []byte) error {
	s.gossip = append(s.gossip, msg)
	return nil
}

func newTestVM(t *testing.T, dbManager manager.Manager) (*VM, chan common.Message) {
	msgChan := make(chan common.Message, 1)
	vm := &VM{}
	err := vm.Initialize(
		context.Background(),
		snow.DefaultContextTest(),
		dbManager,
		testGenesis,
		nil,
		nil,
		msgChan,
		nil,
		&testAppSender{},
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, vm.Shutdown(context.Background()))
	})
	return vm, msgChan
}

func newTestKey(t *testing.T) *ecdsa.PrivateKey {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	return priv
}

func newClaimTx(t *testing.T, vm *VM, priv *ecdsa.PrivateKey, space string) *chain.Transaction {
	lastAccepted, err := vm.LastAccepted(context.Background())
	require.NoError(t, err)
	tx, err := chain.SignTx(&chain.ClaimTx{BaseTx: &chain.BaseTx{BlockID: lastAccepted}, Space: space}, priv)
	require.NoError(t, err)
	return tx
}

func waitPending(t *testing.T, msgChan chan common.Message) {
	select {
	case msg := <-msgChan:
		require.Equal(t, common.PendingTxs, msg)
	case <-time.After(5 * time.Second):
		require.FailNow(t, "should have been pendingTxs message on channel")
	}
}

// buildAndAccept builds a block from the mempool and accepts it.
func buildAndAccept(t *testing.T, vm *VM) *state.Block {
	ctx := context.Background()
	blk, err := vm.BuildBlock(ctx)
	require.NoError(t, err)
	require.NoError(t, blk.Verify(ctx))
	require.NoError(t, blk.Accept(ctx))
	require.NoError(t, vm.SetPreference(ctx, blk.ID()))
	return blk.(*state.Block)
}

func TestGenesis(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	vm, _ := newTestVM(t, manager.NewMemDB(&version.Semantic{Major: 1}))

	lastAccepted, err := vm.LastAccepted(ctx)
	require.NoError(err)
	require.NotEqual(ids.Empty, lastAccepted)

	genesisBlk, err := vm.GetBlock(ctx, lastAccepted)
	require.NoError(err)
	require.Equal(ids.Empty, genesisBlk.Parent())
	require.Equal(uint64(0), genesisBlk.Height())
	require.Equal(choices.Accepted, genesisBlk.Status())
	require.Equal(testGenesis, genesisBlk.(*state.Block).Data)
	require.Equal("tester", vm.genesis.Author)
}

func TestBuildBlockNoPendingTxs(t *testing.T) {
	vm, _ := newTestVM(t, manager.NewMemDB(&version.Semantic{Major: 1}))
	_, err := vm.BuildBlock(context.Background())
	require.ErrorIs(t, err, ErrNoPendingTxs)
}

func TestHappyPath(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	vm, msgChan := newTestVM(t, manager.NewMemDB(&version.Semantic{Major: 1}))
	genesisID, err := vm.LastAccepted(ctx)
	require.NoError(err)

	priv := newTestKey(t)
	claim := newClaimTx(t, vm, priv, "foo")
	require.NoError(vm.Submit(ctx, claim))
	waitPending(t, msgChan)

	blk := buildAndAccept(t, vm)
	require.Equal(genesisID, blk.Parent())
	require.Equal(uint64(1), blk.Height())
	require.Len(blk.Txs, 1)
	require.Zero(vm.mempool.Len())

	lastAccepted, err := vm.LastAccepted(ctx)
	require.NoError(err)
	require.Equal(blk.ID(), lastAccepted)

	// the claim is applied and cannot be issued again
	info, exists, err := chain.GetSpaceInfo(vm.store.Database(), []byte("foo"))
	require.NoError(err)
	require.True(exists)
	require.Equal(crypto.PubkeyToAddress(priv.PublicKey), info.Owner)
	require.ErrorIs(vm.Submit(ctx, claim), chain.ErrDuplicateTx)

	set, err := chain.SignTx(&chain.SetTx{
		BaseTx: &chain.BaseTx{BlockID: blk.ID()},
		Space:  "foo",
		Key:    "bar",
		Value:  []byte("baz"),
	}, priv)
	require.NoError(err)
	require.NoError(vm.Submit(ctx, set))
	buildAndAccept(t, vm)

	v, exists, err := chain.GetValue(vm.store.Database(), []byte("foo"), []byte("bar"))
	require.NoError(err)
	require.True(exists)
	require.Equal([]byte("baz"), v)
}

func TestRejectRequeuesTxs(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	vm, _ := newTestVM(t, manager.NewMemDB(&version.Semantic{Major: 1}))
	genesisID, err := vm.LastAccepted(ctx)
	require.NoError(err)

	claim := newClaimTx(t, vm, newTestKey(t), "foo")
	require.NoError(vm.Submit(ctx, claim))

	blk, err := vm.BuildBlock(ctx)
	require.NoError(err)
	require.Zero(vm.mempool.Len())
	require.NoError(blk.Verify(ctx))
	require.NoError(blk.Reject(ctx))

	require.Equal(choices.Rejected, blk.Status())
	require.True(vm.mempool.Has(claim.ID()))
	lastAccepted, err := vm.LastAccepted(ctx)
	require.NoError(err)
	require.Equal(genesisID, lastAccepted)
}

func TestBuildSkipsProcessingTxs(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	vm, _ := newTestVM(t, manager.NewMemDB(&version.Semantic{Major: 1}))
	claim := newClaimTx(t, vm, newTestKey(t), "foo")
	require.NoError(vm.Submit(ctx, claim))

	blk, err := vm.BuildBlock(ctx)
	require.NoError(err)
	require.NoError(vm.SetPreference(ctx, blk.ID()))

	// the same transaction comes back through gossip
	vm.mempool.Add(claim)
	_, err = vm.BuildBlock(ctx)
	require.ErrorIs(err, ErrNoPendingTxs)
}

func TestParseBlockReturnsKnownBlock(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	vm, _ := newTestVM(t, manager.NewMemDB(&version.Semantic{Major: 1}))
	require.NoError(vm.Submit(ctx, newClaimTx(t, vm, newTestKey(t), "foo")))

	blk, err := vm.BuildBlock(ctx)
	require.NoError(err)

	parsed, err := vm.ParseBlock(ctx, blk.Bytes())
	require.NoError(err)
	require.Same(blk, parsed)

	lastAccepted, err := vm.LastAccepted(ctx)
	require.NoError(err)
	genesisBlk, err := vm.GetBlock(ctx, lastAccepted)
	require.NoError(err)
	parsedGenesis, err := vm.ParseBlock(ctx, genesisBlk.Bytes())
	require.NoError(err)
	require.Same(genesisBlk, parsedGenesis)
}

func TestSetState(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	vm, _ := newTestVM(t, manager.NewMemDB(&version.Semantic{Major: 1}))
	require.ErrorIs(vm.SetState(ctx, snow.StateSyncing), ErrStateSyncUnsupported)
	require.NoError(vm.SetState(ctx, snow.Initializing))
	require.NoError(vm.SetState(ctx, snow.Bootstrapping))
	require.False(vm.bootstrapped)
	require.NoError(vm.SetState(ctx, snow.NormalOp))
	require.True(vm.bootstrapped)
	require.ErrorIs(vm.SetState(ctx, snow.State(100)), ErrUnknownState)
}

func TestRestart(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	dbManager := manager.NewMemDB(&version.Semantic{Major: 1})
	vm, _ := newTestVM(t, dbManager)
	require.NoError(vm.Submit(ctx, newClaimTx(t, vm, newTestKey(t), "foo")))
	blk := buildAndAccept(t, vm)
	require.NoError(vm.Shutdown(ctx))

	restarted, _ := newTestVM(t, dbManager)
	lastAccepted, err := restarted.LastAccepted(ctx)
	require.NoError(err)
	require.Equal(blk.ID(), lastAccepted)
	require.Equal(blk.ID(), restarted.Preferred())
}

func TestService(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	vm, _ := newTestVM(t, manager.NewMemDB(&version.Semantic{Major: 1}))
	s := &Service{vm: vm}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/", nil)
	require.NoError(err)

	ping := new(PingReply)
	require.NoError(s.Ping(req, nil, ping))
	require.True(ping.Success)

	priv := newTestKey(t)
	claim := newClaimTx(t, vm, priv, "foo")
	raw, err := formatting.Encode(formatting.Hex, claim.Bytes())
	require.NoError(err)
	issued := new(IssueRawTxReply)
	require.NoError(s.IssueRawTx(req, &IssueRawTxArgs{Tx: raw}, issued))
	require.Equal(claim.ID(), issued.TxID)

	mempoolLen := new(MempoolLenReply)
	require.NoError(s.MempoolLen(req, nil, mempoolLen))
	require.Equal(1, mempoolLen.Len)

	blk := buildAndAccept(t, vm)
	last := new(LastAcceptedReply)
	require.NoError(s.LastAccepted(req, nil, last))
	require.Equal(blk.ID(), last.BlockID)
	require.EqualValues(1, last.Height)

	info := new(InfoReply)
	require.NoError(s.Info(req, &InfoArgs{Space: "foo"}, info))
	require.Equal(crypto.PubkeyToAddress(priv.PublicKey), info.Info.Owner)
	require.ErrorIs(s.Info(req, &InfoArgs{Space: "bar"}, info), chain.ErrSpaceMissing)

	set, err := chain.SignTx(&chain.SetTx{
		BaseTx: &chain.BaseTx{BlockID: blk.ID()},
		Space:  "foo",
		Key:    "k",
		Value:  []byte("v"),
	}, priv)
	require.NoError(err)
	require.NoError(vm.Submit(ctx, set))
	buildAndAccept(t, vm)

	resolved := new(ResolveReply)
	require.NoError(s.Resolve(req, &ResolveArgs{Space: "foo", Key: "k"}, resolved))
	require.True(resolved.Exists)
	value, err := formatting.Decode(formatting.Hex, resolved.Value)
	require.NoError(err)
	require.Equal([]byte("v"), value)
	require.Equal(set.ID(), resolved.Meta.TxID)

	missing := new(ResolveReply)
	require.NoError(s.Resolve(req, &ResolveArgs{Space: "foo", Key: "missing"}, missing))
	require.False(missing.Exists)

	handlers, err := vm.CreateHandlers(ctx)
	require.NoError(err)
	require.Contains(handlers, PublicEndpoint)
}
