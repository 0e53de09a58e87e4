// Package ethereum provides the ECDSA signing identities used by surety
// participants (airlines, passengers, oracles and the contract owner).
package ethereum

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"

	ethcommon "github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/flightsurety/suretynode/util"
)

// SignatureLength is the size of an ECDSA signature in hexString format
const SignatureLength = 130

// SigningPrefix is the prefix added when hashing
const SigningPrefix = "Ethereum Signed Message:\n"

// SignKeys represents an ECDSA pair of keys for signing.
type SignKeys struct {
	Public  ecdsa.PublicKey
	Private ecdsa.PrivateKey
}

// NewSignKeys creates an empty ECDSA key pair container.
func NewSignKeys() *SignKeys {
	return &SignKeys{}
}

// Generate generates new keys
func (k *SignKeys) Generate() error {
	key, err := ethcrypto.GenerateKey()
	if err != nil {
		return err
	}
	k.Private = *key
	k.Public = key.PublicKey
	return nil
}

// AddHexKey imports a private hex key
func (k *SignKeys) AddHexKey(privHex string) error {
	key, err := ethcrypto.HexToECDSA(util.TrimHex(privHex))
	if err != nil {
		return err
	}
	k.Private = *key
	k.Public = key.PublicKey
	return nil
}

// PrivateKey returns the private key serialized bytes
func (k *SignKeys) PrivateKey() []byte {
	return ethcrypto.FromECDSA(&k.Private)
}

// HexString returns the public compressed and private keys as hex strings
func (k *SignKeys) HexString() (string, string) {
	pubHexComp := fmt.Sprintf("%x", ethcrypto.CompressPubkey(&k.Public))
	privHex := fmt.Sprintf("%x", ethcrypto.FromECDSA(&k.Private))
	return pubHexComp, privHex
}

// Address returns the SignKeys ethereum address
func (k *SignKeys) Address() ethcommon.Address {
	return ethcrypto.PubkeyToAddress(k.Public)
}

// AddressString returns the ethereum Address as string
func (k *SignKeys) AddressString() string { return k.Address().String() }

// Sign signs a message. Message is a normal string (no HexString nor a Hash)
func (k *SignKeys) Sign(message []byte) (string, error) {
	if k.Private.D == nil {
		return "", errors.New("no private key available")
	}
	signature, err := ethcrypto.Sign(Hash(message), &k.Private)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", signature), nil
}

// Verify verifies a message was signed by the public key recovered from
// the signature. Signature is HexString.
func Verify(message []byte, signHex string) (bool, error) {
	recovered, err := AddrFromSignature(message, signHex)
	if err != nil {
		return false, err
	}
	return recovered != (ethcommon.Address{}), nil
}

// PubKeyFromSignature recovers the ECDSA public key that created the
// signature of a message. The returned key is hex encoded, uncompressed.
func PubKeyFromSignature(msg []byte, sigHex string) (string, error) {
	sigHex = util.TrimHex(sigHex)
	if len(sigHex) < SignatureLength || len(sigHex) > SignatureLength+12 {
		return "", fmt.Errorf("signature length not correct (%d)", len(sigHex))
	}
	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return "", err
	}
	if sig[64] > 1 {
		sig[64] -= 27
	}
	if sig[64] > 1 {
		return "", errors.New("bad recover ID byte")
	}
	pubKey, err := ethcrypto.SigToPub(Hash(msg), sig)
	if err != nil {
		return "", fmt.Errorf("sigToPub %w", err)
	}
	return fmt.Sprintf("%x", ethcrypto.FromECDSAPub(pubKey)), nil
}

// AddrFromSignature recovers the Ethereum address that created the signature of a message
func AddrFromSignature(msg []byte, sigHex string) (ethcommon.Address, error) {
	pubHex, err := PubKeyFromSignature(msg, sigHex)
	if err != nil {
		return ethcommon.Address{}, err
	}
	pubBytes, err := hex.DecodeString(util.TrimHex(pubHex))
	if err != nil {
		return ethcommon.Address{}, err
	}
	pub, err := ethcrypto.UnmarshalPubkey(pubBytes)
	if err != nil {
		return ethcommon.Address{}, err
	}
	return ethcrypto.PubkeyToAddress(*pub), nil
}

// Hash string data adding Ethereum prefix
func Hash(data []byte) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s%d%s", SigningPrefix, len(data), data)
	return HashRaw(buf.Bytes())
}

// HashRaw hashes a string with no prefix
func HashRaw(data []byte) []byte {
	return ethcrypto.Keccak256(data)
}
