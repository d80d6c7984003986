package ledger

import "time"

// Trade is one immutable ledger entry. The price is kept as text exactly as
// submitted; parsing it into a number is the consumer's business, which keeps
// the round trip through the account lossless.
type Trade struct {
	Item  string
	Price string
	Time  int64 // unix seconds, assigned from network block time at submission
}

// When returns the trade's timestamp as a time.Time in UTC.
func (t Trade) When() time.Time {
	return time.Unix(t.Time, 0).UTC()
}
