// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package network

import (
	"context"
	"time"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/wrappers"
	lru "github.com/hashicorp/golang-lru"
	log "github.com/inconshreveable/log15"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/spacesvm/chain"
	"github.com/ava-labs/spacesvm/mempool"
)

const (
	DefaultGossipInterval       = 10 * time.Second
	DefaultRegossipInterval     = 30 * time.Second
	DefaultGossipedTxsCacheSize = 512
	DefaultTargetUnits          = 225
)

// AppSender broadcasts gossip to the other validators.
type AppSender interface {
	SendAppGossip(ctx context.Context, msg []byte) error
}

// Submitter validates a transaction received from a peer before it enters
// the mempool.
type Submitter interface {
	Submit(ctx context.Context, tx *chain.Transaction) error
}

type Config struct {
	GossipInterval       time.Duration
	RegossipInterval     time.Duration
	GossipedTxsCacheSize int
	// TargetUnits bounds the transactions carried by a single message.
	TargetUnits          uint64
}

func DefaultConfig() Config {
	return Config{
		GossipInterval:       DefaultGossipInterval,
		RegossipInterval:     DefaultRegossipInterval,
		GossipedTxsCacheSize: DefaultGossipedTxsCacheSize,
		TargetUnits:          DefaultTargetUnits,
	}
}

// txsMessage is the gossip payload. Each transaction is encoded on its own
// so a receiver can drop a bad one and keep the rest.
type txsMessage struct {
	Txs [][]byte `serialize:"true"`
}

// Push spreads mempool transactions to peers and accepts the ones they
// push back.
type Push struct {
	config    Config
	network   *Network
	sender    AppSender
	submitter Submitter
	mempool   *mempool.Mempool

	// ids of transactions this node already gossiped
	gossipedTxs *lru.Cache

	metrics *gossipMetrics
}

func NewPush(
	config Config,
	network *Network,
	sender AppSender,
	submitter Submitter,
	mempool *mempool.Mempool,
	registerer prometheus.Registerer,
) (*Push, error) {
	gossipedTxs, err := lru.New(config.GossipedTxsCacheSize)
	if err != nil {
		return nil, err
	}
	m, err := newGossipMetrics(registerer)
	if err != nil {
		return nil, err
	}
	return &Push{
		config:      config,
		network:     network,
		sender:      sender,
		submitter:   submitter,
		mempool:     mempool,
		gossipedTxs: gossipedTxs,
		metrics:     m,
	}, nil
}

// GossipNewTxs sends the transactions added to the mempool since the last
// call that were not gossiped yet.
func (p *Push) GossipNewTxs(ctx context.Context) error {
	if p.network.Peers() == 0 {
		log.Debug("skipping gossip, no peers connected")
		return nil
	}
	newTxs := p.mempool.NewTxs(p.config.TargetUnits)
	txs := make([]*chain.Transaction, 0, len(newTxs))
	for _, tx := range newTxs {
		if p.gossipedTxs.Contains(tx.ID()) {
			continue
		}
		txs = append(txs, tx)
	}
	return p.sendTxs(ctx, txs)
}

// RegossipTxs drains the mempool, sends every transaction again in messages
// of at most TargetUnits, and puts them all back.
func (p *Push) RegossipTxs(ctx context.Context) error {
	if p.network.Peers() == 0 {
		log.Debug("skipping regossip, no peers connected")
		return nil
	}
	var txs []*chain.Transaction
	for {
		tx, ok := p.mempool.PopBack()
		if !ok {
			break
		}
		txs = append(txs, tx)
	}
	// most recent was popped first
	for i, j := 0, len(txs)-1; i < j; i, j = i+1, j-1 {
		txs[i], txs[j] = txs[j], txs[i]
	}

	errs := wrappers.Errs{}
	for _, batch := range p.split(txs) {
		errs.Add(p.sendTxs(ctx, batch))
	}
	p.mempool.Requeue(txs)
	return errs.Err
}

// split cuts [txs] into consecutive batches of at most TargetUnits. A
// transaction larger than the target gets a batch of its own.
func (p *Push) split(txs []*chain.Transaction) [][]*chain.Transaction {
	var (
		batches [][]*chain.Transaction
		start   int
		units   uint64
	)
	for i, tx := range txs {
		if units > 0 && units+tx.Units() > p.config.TargetUnits {
			batches = append(batches, txs[start:i])
			start, units = i, 0
		}
		units += tx.Units()
	}
	if start < len(txs) {
		batches = append(batches, txs[start:])
	}
	return batches
}

func (p *Push) sendTxs(ctx context.Context, txs []*chain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	m := &txsMessage{Txs: make([][]byte, len(txs))}
	for i, tx := range txs {
		m.Txs[i] = tx.Bytes()
	}
	b, err := chain.Marshal(m)
	if err != nil {
		return err
	}
	if err := p.sender.SendAppGossip(ctx, b); err != nil {
		return err
	}
	for _, tx := range txs {
		p.gossipedTxs.Add(tx.ID(), nil)
	}
	p.metrics.sentTxs.Add(float64(len(txs)))
	log.Debug("gossiped transactions", "count", len(txs), "size", len(b))
	return nil
}

// AppGossip handles a message pushed by [nodeID]. A malformed message is
// dropped. Each transaction in a well-formed message is checked on its own
// and only the bad ones are skipped.
func (p *Push) AppGossip(ctx context.Context, nodeID ids.NodeID, msg []byte) error {
	m := new(txsMessage)
	if err := chain.Unmarshal(msg, m); err != nil {
		p.metrics.malformed.Inc()
		log.Warn("dropping malformed gossip", "peer", nodeID, "err", err)
		return nil
	}
	for _, b := range m.Txs {
		tx := new(chain.Transaction)
		if err := chain.Unmarshal(b, tx); err != nil {
			log.Debug("dropping undecodable gossiped transaction", "peer", nodeID, "err", err)
			continue
		}
		if err := tx.Init(); err != nil {
			log.Debug("dropping gossiped transaction", "peer", nodeID, "err", err)
			continue
		}
		txID := tx.ID()
		if p.mempool.Has(txID) {
			continue
		}
		if err := p.submitter.Submit(ctx, tx); err != nil {
			log.Debug("dropping gossiped transaction", "peer", nodeID, "txID", txID, "err", err)
			continue
		}
		if p.mempool.Add(tx) {
			p.metrics.receivedTxs.Inc()
		}
	}
	return nil
}

// Gossip sends new transactions every gossip interval until [stop] closes.
func (p *Push) Gossip(stop <-chan struct{}) {
	p.loop(stop, p.config.GossipInterval, p.GossipNewTxs)
}

// Regossip resends the whole mempool every regossip interval until [stop]
// closes.
func (p *Push) Regossip(stop <-chan struct{}) {
	p.loop(stop, p.config.RegossipInterval, p.RegossipTxs)
}

func (p *Push) loop(stop <-chan struct{}, interval time.Duration, f func(context.Context) error) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			if err := f(context.Background()); err != nil {
				log.Warn("gossip failed", "err", err)
			}
		case <-stop:
			return
		}
	}
}
