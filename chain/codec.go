// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"github.com/ava-labs/avalanchego/codec"
	"github.com/ava-labs/avalanchego/codec/linearcodec"
	"github.com/ava-labs/avalanchego/utils/units"
	"github.com/ava-labs/avalanchego/utils/wrappers"
)

const (
	// CodecVersion is the current default codec version
	CodecVersion = 0

	// maxCodecSize bounds a single encoded object (block or gossip message)
	maxCodecSize = 8 * units.MiB
)

// Codec does serialization and deserialization of blocks, transactions and
// the records persisted in the database.
var Codec codec.Manager

func init() {
	c := linearcodec.NewDefault()
	Codec = codec.NewManager(maxCodecSize)

	errs := wrappers.Errs{}
	errs.Add(
		c.RegisterType(&ClaimTx{}),
		c.RegisterType(&SetTx{}),
		c.RegisterType(&DeleteTx{}),
		Codec.RegisterCodec(CodecVersion, c),
	)
	if errs.Errored() {
		panic(errs.Err)
	}
}

// Marshal encodes [v] with the current codec version.
func Marshal(v interface{}) ([]byte, error) {
	return Codec.Marshal(CodecVersion, v)
}

// Unmarshal decodes [b] into [v].
func Unmarshal(b []byte, v interface{}) error {
	_, err := Codec.Unmarshal(b, v)
	return err
}
