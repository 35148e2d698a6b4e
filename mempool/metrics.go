// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mempool

import (
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	size    prometheus.Gauge
	added   prometheus.Counter
	evicted prometheus.Counter
}

func newMetrics(registerer prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mempool",
			Name:      "size",
			Help:      "Number of transactions in the mempool",
		}),
		added: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mempool",
			Name:      "added",
			Help:      "Number of new transactions added to the mempool",
		}),
		evicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mempool",
			Name:      "evicted",
			Help:      "Number of transactions dropped because the mempool was full",
		}),
	}
	if registerer == nil {
		return m, nil
	}
	errs := wrappers.Errs{}
	errs.Add(
		registerer.Register(m.size),
		registerer.Register(m.added),
		registerer.Register(m.evicted),
	)
	return m, errs.Err
}
