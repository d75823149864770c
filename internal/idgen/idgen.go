// Package idgen produces the short random identifiers used across the system:
// numeric tracking IDs on ledger transactions, live-show codes, and the vanity
// "gold" account IDs. Every generated value is checked against the store for
// collisions before it is handed out.
package idgen

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
)

// ExistsFunc reports whether a candidate value is already taken.
type ExistsFunc func(ctx context.Context, value string) (bool, error)

// maxAttempts bounds the collision-retry loop. The keyspaces in use are
// 10^5-10^6 values, so hitting the bound means the space is close to full and
// the caller should widen it rather than keep spinning.
const maxAttempts = 500

var ErrExhausted = errors.New("id generation exhausted retry attempts")

const (
	digits   = "0123456789"
	alphanum = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // no 0/O, 1/I
)

// Numeric returns an n-digit number with no leading zero.
func Numeric(n int) string {
	var b strings.Builder
	b.Grow(n)
	b.WriteByte(digits[1+rand.IntN(9)])
	for i := 1; i < n; i++ {
		b.WriteByte(digits[rand.IntN(10)])
	}
	return b.String()
}

// TrackingID returns a prefixed numeric transaction tracking ID, e.g. "TXN483920".
func TrackingID(prefix string) string {
	return prefix + Numeric(6)
}

// ShowCode returns a 6-character live-show join code.
func ShowCode() string {
	var b strings.Builder
	b.Grow(6)
	for i := 0; i < 6; i++ {
		b.WriteByte(alphanum[rand.IntN(len(alphanum))])
	}
	return b.String()
}

// GoldID returns a vanity account ID in one of the patterns AAAAAA or ABABAB.
func GoldID() string {
	a := digits[1+rand.IntN(9)]
	if rand.IntN(2) == 0 {
		return strings.Repeat(string(a), 6)
	}
	b := digits[rand.IntN(10)]
	for b == a {
		b = digits[rand.IntN(10)]
	}
	return strings.Repeat(string(a)+string(b), 3)
}

// Unique runs gen until exists clears the candidate, up to maxAttempts.
func Unique(ctx context.Context, gen func() string, exists ExistsFunc) (string, error) {
	for i := 0; i < maxAttempts; i++ {
		candidate := gen()
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", ErrExhausted
}
