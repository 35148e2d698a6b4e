// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"context"
	"net/http"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/snow/engine/common"
	"github.com/ava-labs/avalanchego/utils/formatting"
	cjson "github.com/ava-labs/avalanchego/utils/json"
	"github.com/gorilla/rpc/v2"

	"github.com/ava-labs/spacesvm/chain"
)

const PublicEndpoint = "/public"

// CreateHandlers returns a map where:
// Keys: The path extension for this VM's API
// Values: The handler for the API
func (vm *VM) CreateHandlers(context.Context) (map[string]*common.HTTPHandler, error) {
	server := rpc.NewServer()
	codec := cjson.NewCodec()
	server.RegisterCodec(codec, "application/json")
	server.RegisterCodec(codec, "application/json;charset=UTF-8")
	if err := server.RegisterService(&Service{vm: vm}, Name); err != nil {
		return nil, err
	}
	return map[string]*common.HTTPHandler{
		PublicEndpoint: {LockOptions: common.NoLock, Handler: server},
	}, nil
}

// This VM has no static API
func (*VM) CreateStaticHandlers(context.Context) (map[string]*common.HTTPHandler, error) {
	return nil, nil
}

// Service is the API service for this VM
type Service struct {
	vm *VM
}

type PingReply struct {
	Success bool `json:"success"`
}

func (s *Service) Ping(_ *http.Request, _ *struct{}, reply *PingReply) error {
	reply.Success = true
	return nil
}

type GenesisReply struct {
	Genesis *chain.Genesis `json:"genesis"`
}

func (s *Service) Genesis(_ *http.Request, _ *struct{}, reply *GenesisReply) error {
	reply.Genesis = s.vm.genesis
	return nil
}

type IssueRawTxArgs struct {
	// hex encoded transaction bytes
	Tx string `json:"tx"`
}

type IssueRawTxReply struct {
	TxID ids.ID `json:"txId"`
}

// IssueRawTx decodes a signed transaction and adds it to the mempool.
func (s *Service) IssueRawTx(r *http.Request, args *IssueRawTxArgs, reply *IssueRawTxReply) error {
	b, err := formatting.Decode(formatting.Hex, args.Tx)
	if err != nil {
		return err
	}
	tx := new(chain.Transaction)
	if err := chain.Unmarshal(b, tx); err != nil {
		return err
	}
	if err := s.vm.Submit(r.Context(), tx); err != nil {
		return err
	}
	reply.TxID = tx.ID()
	return nil
}

type LastAcceptedReply struct {
	Height  cjson.Uint64 `json:"height"`
	BlockID ids.ID       `json:"blockId"`
}

func (s *Service) LastAccepted(r *http.Request, _ *struct{}, reply *LastAcceptedReply) error {
	blk, err := s.vm.store.GetLastAccepted(r.Context())
	if err != nil {
		return err
	}
	reply.Height = cjson.Uint64(blk.Height())
	reply.BlockID = blk.ID()
	return nil
}

type InfoArgs struct {
	Space string `json:"space"`
}

type InfoReply struct {
	Info *chain.SpaceInfo `json:"info"`
}

// Info returns the owner and claim time of a space.
func (s *Service) Info(_ *http.Request, args *InfoArgs, reply *InfoReply) error {
	if err := chain.VerifySpace(args.Space); err != nil {
		return err
	}
	info, exists, err := chain.GetSpaceInfo(s.vm.store.Database(), []byte(args.Space))
	if err != nil {
		return err
	}
	if !exists {
		return chain.ErrSpaceMissing
	}
	reply.Info = info
	return nil
}

type ResolveArgs struct {
	Space string `json:"space"`
	Key   string `json:"key"`
}

type ResolveReply struct {
	Exists bool             `json:"exists"`
	Value  string           `json:"value"`
	Meta   *chain.ValueMeta `json:"meta,omitempty"`
}

// Resolve returns the value stored under a key of a space.
func (s *Service) Resolve(_ *http.Request, args *ResolveArgs, reply *ResolveReply) error {
	if err := chain.VerifySpace(args.Space); err != nil {
		return err
	}
	if err := chain.VerifyKey(args.Key); err != nil {
		return err
	}
	db := s.vm.store.Database()
	v, exists, err := chain.GetValue(db, []byte(args.Space), []byte(args.Key))
	if err != nil || !exists {
		return err
	}
	info, _, err := chain.GetSpaceInfo(db, []byte(args.Space))
	if err != nil {
		return err
	}
	meta, _, err := chain.GetValueMeta(db, info.RawSpace, []byte(args.Key))
	if err != nil {
		return err
	}
	value, err := formatting.Encode(formatting.Hex, v)
	if err != nil {
		return err
	}
	reply.Exists = true
	reply.Value = value
	reply.Meta = meta
	return nil
}

type MempoolLenReply struct {
	Len int `json:"len"`
}

func (s *Service) MempoolLen(_ *http.Request, _ *struct{}, reply *MempoolLenReply) error {
	reply.Len = s.vm.mempool.Len()
	return nil
}
