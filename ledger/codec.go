package ledger

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
)

// Account data layout, matching the on-chain program:
//
//	8-byte account discriminator
//	u32-LE trade count
//	per trade: u32-LE len + item bytes, u32-LE len + price bytes, i64-LE time
//
// All integers are little-endian. Strings are UTF-8.

// ErrMalformed reports account or record bytes inconsistent with the expected
// layout. Concrete failures are *DecodeError values wrapping it.
var ErrMalformed = errors.New("malformed ledger data")

// DecodeError describes where and why decoding failed.
type DecodeError struct {
	Offset int
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed ledger data at byte %d: %s", e.Offset, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return ErrMalformed
}

// accountDiscriminator identifies BaseAccount data. The program derives it
// from the account name, so a mismatch means we fetched the wrong account.
func accountDiscriminator() [8]byte {
	sum := sha256.Sum256([]byte("account:BaseAccount"))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

// EncodeTrade serializes a single trade record.
func EncodeTrade(t Trade) []byte {
	buf := make([]byte, 0, 4+len(t.Item)+4+len(t.Price)+8)
	buf = appendString(buf, t.Item)
	buf = appendString(buf, t.Price)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(t.Time))
	return buf
}

// DecodeTrade deserializes a single trade record. The input must contain
// exactly one record; trailing bytes are an error.
func DecodeTrade(data []byte) (Trade, error) {
	r := &reader{data: data}
	t, err := r.trade()
	if err != nil {
		return Trade{}, err
	}
	if r.off != len(data) {
		return Trade{}, &DecodeError{Offset: r.off, Reason: "trailing bytes after record"}
	}
	return t, nil
}

// EncodeAccount serializes a full BaseAccount, discriminator included.
func EncodeAccount(trades []Trade) []byte {
	d := accountDiscriminator()
	buf := append([]byte{}, d[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(trades)))
	for _, t := range trades {
		buf = append(buf, EncodeTrade(t)...)
	}
	return buf
}

// DecodeAccount deserializes a full BaseAccount. Empty input decodes to an
// empty ledger: an account that holds nothing yet is not an error. A decode
// failure anywhere fails the whole call; the records are packed back to
// back, so nothing after a bad record is trustworthy.
func DecodeAccount(data []byte) ([]Trade, error) {
	if len(data) == 0 {
		return nil, nil
	}

	r := &reader{data: data}

	disc, err := r.take(8)
	if err != nil {
		return nil, err
	}
	want := accountDiscriminator()
	if !bytes.Equal(disc, want[:]) {
		return nil, &DecodeError{Offset: 0, Reason: "account discriminator mismatch"}
	}

	count, err := r.u32()
	if err != nil {
		return nil, err
	}

	// A record is at least 16 bytes, so count can never exceed the
	// remaining data divided by that.
	if int(count) > (len(data)-r.off)/16 {
		return nil, &DecodeError{Offset: r.off - 4, Reason: fmt.Sprintf("trade count %d exceeds data size", count)}
	}

	trades := make([]Trade, 0, count)
	for i := uint32(0); i < count; i++ {
		t, err := r.trade()
		if err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}

	if r.off != len(data) {
		return nil, &DecodeError{Offset: r.off, Reason: "trailing bytes after last record"}
	}

	return trades, nil
}

type reader struct {
	data []byte
	off  int
}

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || len(r.data)-r.off < n {
		return nil, &DecodeError{Offset: r.off, Reason: fmt.Sprintf("need %d bytes, have %d", n, len(r.data)-r.off)}
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) u32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) str() (string, error) {
	n, err := r.u32()
	if err != nil {
		return "", err
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *reader) trade() (Trade, error) {
	item, err := r.str()
	if err != nil {
		return Trade{}, err
	}
	price, err := r.str()
	if err != nil {
		return Trade{}, err
	}
	b, err := r.take(8)
	if err != nil {
		return Trade{}, err
	}
	return Trade{
		Item:  item,
		Price: price,
		Time:  int64(binary.LittleEndian.Uint64(b)),
	}, nil
}

func appendString(buf []byte, s string) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}
