// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package network

import (
	"context"
	"sync"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/snow/validators"
	"github.com/ava-labs/avalanchego/version"
)

var _ validators.Connector = (*Network)(nil)

// Network fans peer connection events out to every registered connector
// and keeps track of the connected peers.
type Network struct {
	peerTracker *peerTracker

	connectorsLock sync.RWMutex
	connectors     []validators.Connector
}

func NewNetwork(connectors ...validators.Connector) *Network {
	peerTracker := newPeerTracker()
	return &Network{
		peerTracker: peerTracker,
		connectors:  append(connectors, peerTracker),
	}
}

// AddConnector registers [c] for future connection events.
func (n *Network) AddConnector(c validators.Connector) {
	n.connectorsLock.Lock()
	defer n.connectorsLock.Unlock()

	n.connectors = append(n.connectors, c)
}

func (n *Network) Connected(ctx context.Context, nodeID ids.NodeID, nodeVersion *version.Application) error {
	n.connectorsLock.RLock()
	defer n.connectorsLock.RUnlock()

	for _, connector := range n.connectors {
		if err := connector.Connected(ctx, nodeID, nodeVersion); err != nil {
			return err
		}
	}
	return nil
}

func (n *Network) Disconnected(ctx context.Context, nodeID ids.NodeID) error {
	n.connectorsLock.RLock()
	defer n.connectorsLock.RUnlock()

	for _, connector := range n.connectors {
		if err := connector.Disconnected(ctx, nodeID); err != nil {
			return err
		}
	}
	return nil
}

// Peers returns the number of connected peers.
func (n *Network) Peers() int {
	return n.peerTracker.len()
}
