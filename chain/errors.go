// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import "errors"

var (
	ErrInvalidBlockID      = errors.New("invalid blockID")
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrInvalidSpace        = errors.New("invalid space")
	ErrInvalidKey          = errors.New("invalid key")
	ErrValueTooBig         = errors.New("value too big")
	ErrSpaceAlreadyClaimed = errors.New("space already claimed")
	ErrSpaceMissing        = errors.New("space missing")
	ErrKeyMissing          = errors.New("key missing")
	ErrUnauthorized        = errors.New("sender is not the space owner")
	ErrDuplicateTx         = errors.New("duplicate transaction")
	ErrTxNotInitialized    = errors.New("transaction not initialized")
	ErrInvalidGenesis      = errors.New("invalid genesis")
	ErrInvalidBlock        = errors.New("invalid block")
)
