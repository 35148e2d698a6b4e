// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package network

import (
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"
)

type gossipMetrics struct {
	sentTxs     prometheus.Counter
	receivedTxs prometheus.Counter
	malformed   prometheus.Counter
}

func newGossipMetrics(registerer prometheus.Registerer) (*gossipMetrics, error) {
	m := &gossipMetrics{
		sentTxs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gossip",
			Name:      "sent_txs",
			Help:      "Number of transactions gossiped to peers",
		}),
		receivedTxs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gossip",
			Name:      "received_txs",
			Help:      "Number of gossiped transactions added to the mempool",
		}),
		malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gossip",
			Name:      "malformed_msgs",
			Help:      "Number of gossip messages that failed to decode",
		}),
	}
	if registerer == nil {
		return m, nil
	}
	errs := wrappers.Errs{}
	errs.Add(
		registerer.Register(m.sentTxs),
		registerer.Register(m.receivedTxs),
		registerer.Register(m.malformed),
	)
	return m, errs.Err
}
