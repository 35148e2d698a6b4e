// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"encoding/json"
	"fmt"

	"github.com/ava-labs/avalanchego/utils/units"
)

const (
	DefaultAuthor         = "subnet creator"
	DefaultWelcomeMessage = "Hello from spacesvm!"
	DefaultMaxValueSize   = 64 * units.KiB
)

type Genesis struct {
	Author         string `json:"author"`
	WelcomeMessage string `json:"welcomeMessage"`
	MaxValueSize   uint64 `json:"maxValueSize"`
}

func DefaultGenesis() *Genesis {
	return &Genesis{
		Author:         DefaultAuthor,
		WelcomeMessage: DefaultWelcomeMessage,
		MaxValueSize:   DefaultMaxValueSize,
	}
}

// ParseGenesis decodes [b]. Fields left out fall back to their defaults and
// an empty input yields the default genesis.
func ParseGenesis(b []byte) (*Genesis, error) {
	g := DefaultGenesis()
	if len(b) == 0 {
		return g, nil
	}
	if err := json.Unmarshal(b, g); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGenesis, err)
	}
	if g.MaxValueSize == 0 {
		g.MaxValueSize = DefaultMaxValueSize
	}
	return g, nil
}
