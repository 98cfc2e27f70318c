package order

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// NumberGenerator builds human-facing order numbers: a prefix, the last six digits
// of the millisecond clock and a three digit random suffix. Numbers are not globally
// unique; the orders.number unique index is the final arbiter.
type NumberGenerator struct {
	prefix string
	now    func() time.Time
	intn   func(n int) int
}

// NewNumberGenerator returns a generator using the wall clock and math/rand.
func NewNumberGenerator(prefix string) *NumberGenerator {
	return &NumberGenerator{prefix: prefix, now: time.Now, intn: rand.IntN}
}

// Prefix returns the fixed prefix of generated numbers.
func (g *NumberGenerator) Prefix() string {
	return g.prefix
}

// Next returns a new number that differs from exclude.
func (g *NumberGenerator) Next(exclude string) string {
	ms := g.now().UnixMilli() % 1_000_000
	suffix := g.intn(1000)

	number := g.format(ms, suffix)
	if number == exclude {
		number = g.format(ms, (suffix+1)%1000)
	}
	return number
}

func (g *NumberGenerator) format(ms int64, suffix int) string {
	return fmt.Sprintf("%s%06d%03d", g.prefix, ms, suffix)
}
