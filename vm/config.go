// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	log "github.com/inconshreveable/log15"
	"github.com/spf13/viper"

	"github.com/ava-labs/spacesvm/mempool"
	"github.com/ava-labs/spacesvm/network"
	"github.com/ava-labs/spacesvm/state"
)

const (
	mempoolSizeKey          = "mempoolSize"
	gossipIntervalKey       = "gossipInterval"
	regossipIntervalKey     = "regossipInterval"
	gossipedTxsCacheSizeKey = "gossipedTxsCacheSize"
	targetBlockUnitsKey     = "targetBlockUnits"
	blockCacheSizeKey       = "blockCacheSize"
	logLevelKey             = "logLevel"
)

var errInvalidConfig = errors.New("invalid config")

// Config is read from the chain config the node hands to the VM.
type Config struct {
	MempoolSize          int
	GossipInterval       time.Duration
	RegossipInterval     time.Duration
	GossipedTxsCacheSize int
	TargetBlockUnits     uint64
	BlockCacheSize       int
	LogLevel             log.Lvl
}

func defaultViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("json")
	v.SetDefault(mempoolSizeKey, mempool.DefaultSize)
	v.SetDefault(gossipIntervalKey, network.DefaultGossipInterval)
	v.SetDefault(regossipIntervalKey, network.DefaultRegossipInterval)
	v.SetDefault(gossipedTxsCacheSizeKey, network.DefaultGossipedTxsCacheSize)
	v.SetDefault(targetBlockUnitsKey, network.DefaultTargetUnits)
	v.SetDefault(blockCacheSizeKey, state.DefaultBlockCacheSize)
	v.SetDefault(logLevelKey, log.LvlInfo.String())
	return v
}

// ParseConfig decodes the JSON chain config in [b]. Missing fields keep
// their defaults.
func ParseConfig(b []byte) (Config, error) {
	v := defaultViper()
	if len(b) > 0 {
		if err := v.ReadConfig(bytes.NewReader(b)); err != nil {
			return Config{}, fmt.Errorf("%w: %v", errInvalidConfig, err)
		}
	}

	lvl, err := log.LvlFromString(v.GetString(logLevelKey))
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", errInvalidConfig, err)
	}
	c := Config{
		MempoolSize:          v.GetInt(mempoolSizeKey),
		GossipInterval:       v.GetDuration(gossipIntervalKey),
		RegossipInterval:     v.GetDuration(regossipIntervalKey),
		GossipedTxsCacheSize: v.GetInt(gossipedTxsCacheSizeKey),
		TargetBlockUnits:     v.GetUint64(targetBlockUnitsKey),
		BlockCacheSize:       v.GetInt(blockCacheSizeKey),
		LogLevel:             lvl,
	}
	return c, c.Verify()
}

func (c Config) Verify() error {
	switch {
	case c.MempoolSize <= 0:
		return fmt.Errorf("%w: %s must be positive", errInvalidConfig, mempoolSizeKey)
	case c.GossipInterval <= 0:
		return fmt.Errorf("%w: %s must be positive", errInvalidConfig, gossipIntervalKey)
	case c.RegossipInterval <= 0:
		return fmt.Errorf("%w: %s must be positive", errInvalidConfig, regossipIntervalKey)
	case c.GossipedTxsCacheSize <= 0:
		return fmt.Errorf("%w: %s must be positive", errInvalidConfig, gossipedTxsCacheSizeKey)
	case c.TargetBlockUnits == 0:
		return fmt.Errorf("%w: %s must be positive", errInvalidConfig, targetBlockUnitsKey)
	case c.BlockCacheSize <= 0:
		return fmt.Errorf("%w: %s must be positive", errInvalidConfig, blockCacheSizeKey)
	}
	return nil
}

func (c Config) gossipConfig() network.Config {
	return network.Config{
		GossipInterval:       c.GossipInterval,
		RegossipInterval:     c.RegossipInterval,
		GossipedTxsCacheSize: c.GossipedTxsCacheSize,
		TargetUnits:          c.TargetBlockUnits,
	}
}
