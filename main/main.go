// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ava-labs/avalanchego/vms/rpcchainvm"
	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/spacesvm/vm"
)

func main() {
	version, err := PrintVersion()
	if err != nil {
		fmt.Printf("couldn't get config: %s\n", err)
		os.Exit(1)
	}
	// Print VM name and version and exit
	if version {
		fmt.Printf("%s@%s\n", vm.Name, vm.Version)
		os.Exit(0)
	}

	log.Root().SetHandler(log.LvlFilterHandler(log.LvlInfo, log.StreamHandler(os.Stderr, log.TerminalFormat())))
	if err := rpcchainvm.Serve(context.Background(), &vm.VM{}); err != nil {
		fmt.Printf("serve returned an error: %s\n", err)
		os.Exit(1)
	}
}
