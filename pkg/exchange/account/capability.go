// Package account mints the capabilities that identify users to the
// exchange. A Capability is an unforgeable token backed by a secp256k1
// key pair; its derived Ethereum-style address is the comparable
// identifier every ledger and book keys on. Holding the Capability is
// what authorizes fund movement: the escrow ledger accepts deposits and
// withdrawals only against a capability, never a bare address.
package account

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Capability is an opaque, unforgeable account token. Only this package
// constructs one, so possession of a *Capability proves control of the
// account. An order placed on the book takes custody of its owner's
// capability for as long as the order rests there.
type Capability struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// Mint creates a fresh capability from a random secp256k1 key pair.
func Mint() (*Capability, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return fromKey(privateKey)
}

// FromPrivateKeyHex rebuilds a capability from a hex-encoded private
// key ("0x1234..." or bare 64 hex chars). Used to re-import accounts
// minted elsewhere (wallet export, test fixtures).
func FromPrivateKeyHex(hexKey string) (*Capability, error) {
	if len(hexKey) >= 2 && hexKey[0] == '0' && (hexKey[1] == 'x' || hexKey[1] == 'X') {
		hexKey = hexKey[2:]
	}
	privateKey, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return fromKey(privateKey)
}

func fromKey(privateKey *ecdsa.PrivateKey) (*Capability, error) {
	publicKey, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("failed to cast public key to ECDSA")
	}
	return &Capability{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(*publicKey),
	}, nil
}

// Address returns the comparable identifier derived from the capability.
func (c *Capability) Address() common.Address {
	return c.address
}

// PrivateKeyHex exports the backing key as hex (WITHOUT 0x prefix).
// WARNING: whoever holds this string holds the account.
func (c *Capability) PrivateKeyHex() string {
	return fmt.Sprintf("%x", crypto.FromECDSA(c.privateKey))
}
