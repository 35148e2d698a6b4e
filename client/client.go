// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/ava-labs/avalanchego/utils/rpc"

	"github.com/ava-labs/spacesvm/chain"
	"github.com/ava-labs/spacesvm/vm"
)

// Client defines spacesvm client operations.
type Client interface {
	// Ping returns true if the API is reachable
	Ping(ctx context.Context) (bool, error)
	Genesis(ctx context.Context) (*chain.Genesis, error)
	// IssueTx sends a signed transaction to the node's mempool
	IssueTx(ctx context.Context, tx *chain.Transaction) (ids.ID, error)
	// LastAccepted returns the height and id of the last accepted block
	LastAccepted(ctx context.Context) (uint64, ids.ID, error)
	Info(ctx context.Context, space string) (*chain.SpaceInfo, error)
	// Resolve returns the value of [key] in [space] if it exists
	Resolve(ctx context.Context, space string, key string) (bool, []byte, *chain.ValueMeta, error)
	MempoolLen(ctx context.Context) (int, error)
}

// New creates a new client object for the chain API served at [uri].
func New(uri string) Client {
	uri = strings.TrimSuffix(uri, "/")
	if !strings.HasSuffix(uri, vm.PublicEndpoint) {
		uri += vm.PublicEndpoint
	}
	return &client{req: rpc.NewEndpointRequester(uri)}
}

type client struct {
	req rpc.EndpointRequester
}

func method(name string) string {
	return fmt.Sprintf("%s.%s", vm.Name, name)
}

func (cli *client) Ping(ctx context.Context) (bool, error) {
	resp := new(vm.PingReply)
	if err := cli.req.SendRequest(ctx, method("ping"), struct{}{}, resp); err != nil {
		return false, err
	}
	return resp.Success, nil
}

func (cli *client) Genesis(ctx context.Context) (*chain.Genesis, error) {
	resp := new(vm.GenesisReply)
	if err := cli.req.SendRequest(ctx, method("genesis"), struct{}{}, resp); err != nil {
		return nil, err
	}
	return resp.Genesis, nil
}

func (cli *client) IssueTx(ctx context.Context, tx *chain.Transaction) (ids.ID, error) {
	raw, err := formatting.Encode(formatting.Hex, tx.Bytes())
	if err != nil {
		return ids.Empty, err
	}
	resp := new(vm.IssueRawTxReply)
	err = cli.req.SendRequest(ctx,
		method("issueRawTx"),
		&vm.IssueRawTxArgs{Tx: raw},
		resp,
	)
	if err != nil {
		return ids.Empty, err
	}
	if resp.TxID != tx.ID() {
		return ids.Empty, fmt.Errorf("unexpected tx id %s, expected %s", resp.TxID, tx.ID())
	}
	return resp.TxID, nil
}

func (cli *client) LastAccepted(ctx context.Context) (uint64, ids.ID, error) {
	resp := new(vm.LastAcceptedReply)
	if err := cli.req.SendRequest(ctx, method("lastAccepted"), struct{}{}, resp); err != nil {
		return 0, ids.Empty, err
	}
	return uint64(resp.Height), resp.BlockID, nil
}

func (cli *client) Info(ctx context.Context, space string) (*chain.SpaceInfo, error) {
	resp := new(vm.InfoReply)
	err := cli.req.SendRequest(ctx,
		method("info"),
		&vm.InfoArgs{Space: space},
		resp,
	)
	if err != nil {
		return nil, err
	}
	return resp.Info, nil
}

func (cli *client) Resolve(ctx context.Context, space string, key string) (bool, []byte, *chain.ValueMeta, error) {
	resp := new(vm.ResolveReply)
	err := cli.req.SendRequest(ctx,
		method("resolve"),
		&vm.ResolveArgs{Space: space, Key: key},
		resp,
	)
	if err != nil {
		return false, nil, nil, err
	}
	if !resp.Exists {
		return false, nil, nil, nil
	}
	value, err := formatting.Decode(formatting.Hex, resp.Value)
	if err != nil {
		return false, nil, nil, err
	}
	return true, value, resp.Meta, nil
}

func (cli *client) MempoolLen(ctx context.Context) (int, error) {
	resp := new(vm.MempoolLenReply)
	if err := cli.req.SendRequest(ctx, method("mempoolLen"), struct{}{}, resp); err != nil {
		return 0, err
	}
	return resp.Len, nil
}
