package signer

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rustyeddy/tradeledger/chain"
	"github.com/rustyeddy/tradeledger/txn"
)

// Sender transmits a signed transaction to the network.
type Sender interface {
	SendTransaction(ctx context.Context, raw []byte) (string, error)
}

// Keypair is a software signer backed by an ed25519 private key, stored on
// disk as a JSON array of the 64 key bytes (the format common keygen tools
// emit).
type Keypair struct {
	priv   ed25519.PrivateKey
	pub    chain.Address
	sender Sender
}

// NewKeypair wraps an existing private key.
func NewKeypair(priv ed25519.PrivateKey, sender Sender) (*Keypair, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("keypair: private key is %d bytes, want %d", len(priv), ed25519.PrivateKeySize)
	}
	var pub chain.Address
	copy(pub[:], priv.Public().(ed25519.PublicKey))
	return &Keypair{priv: priv, pub: pub, sender: sender}, nil
}

// Generate creates a fresh keypair.
func Generate(sender Sender) (*Keypair, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("keypair: generate: %w", err)
	}
	return NewKeypair(priv, sender)
}

// Load reads a keypair file.
func Load(path string, sender Sender) (*Keypair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("keypair: read %s: %w", path, err)
	}

	var nums []int
	if err := json.Unmarshal(data, &nums); err != nil {
		return nil, fmt.Errorf("keypair: parse %s: %w", path, err)
	}
	if len(nums) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("keypair: %s holds %d bytes, want %d", path, len(nums), ed25519.PrivateKeySize)
	}

	raw := make([]byte, len(nums))
	for i, n := range nums {
		if n < 0 || n > 255 {
			return nil, fmt.Errorf("keypair: %s: value %d out of byte range", path, n)
		}
		raw[i] = byte(n)
	}
	return NewKeypair(ed25519.PrivateKey(raw), sender)
}

// Save writes the keypair file with owner-only permissions.
func (k *Keypair) Save(path string) error {
	nums := make([]int, len(k.priv))
	for i, b := range k.priv {
		nums[i] = int(b)
	}
	data, err := json.Marshal(nums)
	if err != nil {
		return fmt.Errorf("keypair: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("keypair: write %s: %w", path, err)
	}
	return nil
}

// PublicKey returns the signing identity's address.
func (k *Keypair) PublicKey() chain.Address {
	return k.pub
}

// Available reports whether the keypair can sign and send.
func (k *Keypair) Available() bool {
	return k != nil && len(k.priv) == ed25519.PrivateKeySize && k.sender != nil
}

// SignAndSend signs the instruction message and submits the transaction.
func (k *Keypair) SignAndSend(ctx context.Context, in txn.Instruction) (string, error) {
	if !k.Available() {
		return "", ErrUnavailable
	}

	msg := in.Message(k.pub)
	sig := ed25519.Sign(k.priv, msg)

	raw, err := txn.EncodeTransaction(msg, sig)
	if err != nil {
		return "", fmt.Errorf("sign and send: %w", err)
	}
	return k.sender.SendTransaction(ctx, raw)
}
