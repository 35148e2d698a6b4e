// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"regexp"
)

const maxSpaceLen = 256

var spaceRegexp = regexp.MustCompile("^[a-z0-9]{1,256}$")

var _ UnsignedTransaction = &ClaimTx{}

// ClaimTx reserves a space for the sender.
type ClaimTx struct {
	*BaseTx `serialize:"true" json:"baseTx"`

	Space string `serialize:"true" json:"space"`
}

func VerifySpace(space string) error {
	if len(space) == 0 || len(space) > maxSpaceLen || !spaceRegexp.MatchString(space) {
		return ErrInvalidSpace
	}
	return nil
}

func (c *ClaimTx) ExecuteBase(g *Genesis) error {
	if err := c.BaseTx.ExecuteBase(g); err != nil {
		return err
	}
	return VerifySpace(c.Space)
}

func (c *ClaimTx) Execute(t *TransactionContext) error {
	if err := VerifySpace(c.Space); err != nil {
		return err
	}
	has, err := HasSpace(t.Database, []byte(c.Space))
	if err != nil {
		return err
	}
	if has {
		return ErrSpaceAlreadyClaimed
	}
	info := &SpaceInfo{
		Owner:    t.Sender,
		Created:  t.BlockTime,
		Updated:  t.BlockTime,
		RawSpace: RawSpace([]byte(c.Space), t.BlockTime),
	}
	return PutSpaceInfo(t.Database, []byte(c.Space), info)
}

func (c *ClaimTx) Typ() TxType {
	return Claim
}

func (c *ClaimTx) Copy() UnsignedTransaction {
	return &ClaimTx{
		BaseTx: c.BaseTx.copy(),
		Space:  c.Space,
	}
}
