// Package user provides viewer models, reputation ranks, and the user
// repository consumed by feed generation.
package user

// Rank is an ordinal reputation tier assigned to every user. Tiers are
// ordered from RankNewcomer (lowest) to RankLegend (highest) and contribute
// a monotonically increasing bonus to relationship scoring.
type Rank int

// The ten reputation tiers, lowest to highest.
const (
	RankNewcomer Rank = iota
	RankMember
	RankRegular
	RankContributor
	RankEstablished
	RankRespected
	RankNotable
	RankDistinguished
	RankElite
	RankLegend
)

// RankCount is the number of defined tiers.
const RankCount = 10

// maxRankBonus is the relationship bonus earned at the highest tier.
const maxRankBonus = 0.5

// rankNames maps each tier to its canonical wire name.
var rankNames = [RankCount]string{
	"newcomer",
	"member",
	"regular",
	"contributor",
	"established",
	"respected",
	"notable",
	"distinguished",
	"elite",
	"legend",
}

// rankBonuses spreads the relationship bonus evenly across the ten tiers,
// from 0.0 at RankNewcomer to 0.5 at RankLegend.
var rankBonuses = func() [RankCount]float64 {
	var b [RankCount]float64
	for i := range b {
		b[i] = maxRankBonus * float64(i) / float64(RankCount-1)
	}
	return b
}()

// Valid reports whether r is one of the defined tiers.
func (r Rank) Valid() bool {
	return r >= RankNewcomer && r <= RankLegend
}

// String returns the canonical name for the rank, or "unknown" for
// out-of-range values.
func (r Rank) String() string {
	if !r.Valid() {
		return "unknown"
	}
	return rankNames[r]
}

// Bonus returns the relationship score bonus associated with the rank.
// Out-of-range values contribute nothing.
func (r Rank) Bonus() float64 {
	if !r.Valid() {
		return 0
	}
	return rankBonuses[r]
}

// ParseRank resolves a rank from its wire name. Returns RankNewcomer and
// false for unrecognized names.
func ParseRank(name string) (Rank, bool) {
	for i, n := range rankNames {
		if n == name {
			return Rank(i), true
		}
	}
	return RankNewcomer, false
}
