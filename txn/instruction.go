package txn

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/rustyeddy/tradeledger/chain"
)

// Instruction is an unsigned state mutation targeting the ledger program. It
// is pure data: building one performs no network I/O.
type Instruction struct {
	ProgramID chain.Address
	Ledger    chain.Address // the shared BaseAccount being appended to
	Data      []byte
}

// saveTradeDiscriminator selects the program's save_trade handler. Derived
// from the method name the same way the program derives it.
func saveTradeDiscriminator() [8]byte {
	sum := sha256.Sum256([]byte("global:save_trade"))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

// BuildAppend constructs an append-trade instruction. blockTime must come
// from the network's current block time, not the client clock.
func BuildAppend(item, price string, blockTime int64, programID, ledgerAddr chain.Address) (Instruction, error) {
	if item == "" {
		return Instruction{}, fmt.Errorf("build append: item must not be empty")
	}
	if price == "" {
		return Instruction{}, fmt.Errorf("build append: price must not be empty")
	}
	if programID.IsZero() {
		return Instruction{}, fmt.Errorf("build append: program id not set")
	}
	if ledgerAddr.IsZero() {
		return Instruction{}, fmt.Errorf("build append: ledger address not set")
	}

	disc := saveTradeDiscriminator()
	data := make([]byte, 0, 8+4+len(item)+4+len(price)+8)
	data = append(data, disc[:]...)
	data = binary.LittleEndian.AppendUint32(data, uint32(len(item)))
	data = append(data, item...)
	data = binary.LittleEndian.AppendUint32(data, uint32(len(price)))
	data = append(data, price...)
	data = binary.LittleEndian.AppendUint64(data, uint64(blockTime))

	return Instruction{
		ProgramID: programID,
		Ledger:    ledgerAddr,
		Data:      data,
	}, nil
}

// Message serializes the instruction into the byte string the signer signs:
//
//	program id (32) || ledger account (32) || payer (32) || u32-LE data len || data
func (in Instruction) Message(payer chain.Address) []byte {
	msg := make([]byte, 0, 32*3+4+len(in.Data))
	msg = append(msg, in.ProgramID[:]...)
	msg = append(msg, in.Ledger[:]...)
	msg = append(msg, payer[:]...)
	msg = binary.LittleEndian.AppendUint32(msg, uint32(len(in.Data)))
	msg = append(msg, in.Data...)
	return msg
}

// EncodeTransaction packages a signed message into the wire transaction:
// the 64-byte signature followed by the message it covers.
func EncodeTransaction(msg, sig []byte) ([]byte, error) {
	if len(sig) != 64 {
		return nil, fmt.Errorf("encode transaction: signature is %d bytes, want 64", len(sig))
	}
	tx := make([]byte, 0, len(sig)+len(msg))
	tx = append(tx, sig...)
	tx = append(tx, msg...)
	return tx, nil
}
