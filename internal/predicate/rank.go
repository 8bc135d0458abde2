package predicate

import (
	"math/big"
	"strconv"
)

const maxRank = 1 << 30

// MaxRank is the rank of a candidate without predicates; it is elected last.
var MaxRank = Rank{num: maxRank, den: 1}

// Rank orders candidates from most to least specific; lower ranks are tried
// first. It is the exact rational (MaxRank - score) / (predicates + 1).
type Rank struct {
	num int64
	den int64
}

// FixedRank returns the integral rank n.
func FixedRank(n int64) Rank {
	return Rank{num: n, den: 1}
}

func computeRank(score uint64, count int) Rank {
	return Rank{num: maxRank - int64(score), den: int64(count) + 1}
}

func (r Rank) denominator() int64 {
	if r.den == 0 {
		return 1
	}
	return r.den
}

// Compare returns -1, 0 or +1 as r is lower than, equal to or higher than o.
func (r Rank) Compare(o Rank) int {
	lhs := new(big.Int).Mul(big.NewInt(r.num), big.NewInt(o.denominator()))
	rhs := new(big.Int).Mul(big.NewInt(o.num), big.NewInt(r.denominator()))
	return lhs.Cmp(rhs)
}

// Less reports whether r is elected before o.
func (r Rank) Less(o Rank) bool {
	return r.Compare(o) < 0
}

// Float64 approximates the rank for display.
func (r Rank) Float64() float64 {
	return float64(r.num) / float64(r.denominator())
}

func (r Rank) String() string {
	return strconv.FormatFloat(r.Float64(), 'f', -1, 64)
}
